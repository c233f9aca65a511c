// Package history persists a ledger of capture runs in SQLite.
//
// Each run records one row per processed print with its outcome (saved,
// skipped or failed) and reason, so repeated runs over the same card list can
// be audited with `cardcap history`.
package history
