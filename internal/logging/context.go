package logging

import (
	"context"
	"log/slog"

	"cardcap/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCard is the standardized key for the requested card name.
	FieldCard = "card"
	// FieldStage is the standardized key for capture state names.
	FieldStage = "stage"
	// FieldRunID is the standardized key for capture run identifiers.
	FieldRunID = "run_id"
	// FieldSetCode is the standardized key for print set codes.
	FieldSetCode = "set_code"
	// FieldCollectorNumber is the standardized key for print collector numbers.
	FieldCollectorNumber = "collector_number"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for an operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if card, ok := services.CardFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCard, card))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
