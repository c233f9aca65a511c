// Package capture drives the renderer through one card list.
//
// The Orchestrator runs every requested card through the same state machine:
// search the renderer's print list, reconcile it against the selection policy,
// then for each chosen print select it, apply art, apply field edits, wait for
// the canvas to settle, capture the bitmap and persist it under the overwrite
// policy. The last stable fingerprint is handed from step to step so each wait
// knows what the surface looked like before the mutation it follows.
//
// Cards are processed strictly sequentially against a single renderer session.
// A failure is isolated to its print or card; only setup failures abort a run.
package capture
