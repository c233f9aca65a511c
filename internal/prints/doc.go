// Package prints decides which published versions of a card get captured.
//
// The renderer exposes a local selector list (newest first) and an optional
// external search service returns unique-art records (oldest first). The
// reconciler filters both by set, joins them on set code and collector number
// (and on shared illustration identity), and applies the configured selection
// strategy. Lists always carry their Ordering so latest/earliest resolve to the
// correct end regardless of source.
package prints
