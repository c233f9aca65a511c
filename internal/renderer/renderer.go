// Package renderer defines the contract between the capture orchestrator and
// the browser-hosted card renderer.
//
// Implementations drive a single interactive session. Calls are synchronous
// and must never be issued concurrently against the same session. Transient
// "element not ready" conditions are reported as ErrNotReady so callers can
// retry a bounded number of times.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cardcap/internal/prints"
	"cardcap/internal/services"
	"cardcap/internal/stabilize"
)

// ErrNotReady marks a transient condition where a control was not yet
// interactive.
var ErrNotReady = fmt.Errorf("renderer element not ready: %w", services.ErrTransientUI)

// Checkbox names the global session toggles.
type Checkbox string

const (
	CheckboxAutofitArt       Checkbox = "autofit_art"
	CheckboxHideReminderText Checkbox = "hide_reminder_text"
)

// CollectorInfo is written to the renderer's collector line.
type CollectorInfo struct {
	SetCode         string
	CollectorNumber string
}

// Renderer is one session of the card renderer.
type Renderer interface {
	stabilize.Sampler

	// SearchPrints loads the print selector for name and returns its options
	// in renderer order (newest first).
	SearchPrints(ctx context.Context, name string) ([]prints.Option, error)
	SelectPrint(ctx context.Context, token string) error
	ApplyArt(ctx context.Context, url string) error
	ReadField(ctx context.Context, field string) (string, error)
	EditField(ctx context.Context, field, raw string) error
	Bitmap(ctx context.Context) ([]byte, error)

	SetFrame(ctx context.Context, frame string) error
	SetWhiteBorder(ctx context.Context) error
	SetCheckbox(ctx context.Context, box Checkbox, enabled bool) error
	SetCollectorInfo(ctx context.Context, info CollectorInfo) error
	Close() error
}

// Retry runs fn up to attempts times while it fails with ErrNotReady (or any
// error marked services.ErrTransientUI), waiting delay between tries. Other
// errors are returned immediately.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, services.ErrTransientUI) {
			return err
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, err)
}

// RetryValue is Retry for functions that return a value.
func RetryValue[T any](ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := Retry(ctx, attempts, delay, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err == nil {
			out = v
		}
		return err
	})
	return out, err
}
