// Package scryfall is a small client for the Scryfall card search API.
//
// It covers the calls the capture pipeline needs: paginated card search
// (ordered by release date, oldest first) and the per-print lookup used to
// find art crops. The client satisfies prints.Searcher and
// artpipeline.ArtSource.
package scryfall
