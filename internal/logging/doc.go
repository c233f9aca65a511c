// Package logging assembles structured slog loggers and formatting helpers used
// across cardcap.
//
// It owns the console and JSON handlers, mirrors records into a JSON log file
// when one is configured, and exposes context-aware helpers so capture code can
// tag every line with the card, capture state and run id it belongs to.
package logging
