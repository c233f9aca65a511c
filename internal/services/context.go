package services

import "context"

type contextKey string

const (
	cardKey  contextKey = "card"
	stageKey contextKey = "stage"
	runIDKey contextKey = "run_id"
)

// WithCard annotates context with the card name being processed.
func WithCard(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, cardKey, name)
}

// CardFromContext returns the card name if present.
func CardFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(cardKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the capture state name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRunID annotates context with the run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
