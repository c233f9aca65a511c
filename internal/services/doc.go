// Package services defines shared utilities consumed by the capture
// orchestrator and its collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp card names, capture states, and run
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures into
//     per-print skips versus fatal setup errors.
//
// Use these helpers when wiring new collaborators so error handling and
// observability stay uniform across the pipeline.
package services
