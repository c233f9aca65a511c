// Package textutil provides the filename normalization rules shared by the art
// pipeline and capture output naming.
//
// Normalize is the single source of truth for turning card names, set codes
// and collector numbers into storage keys; every cache-existence check relies
// on it producing the same token for the same input.
package textutil
