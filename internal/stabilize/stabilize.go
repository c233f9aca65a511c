// Package stabilize waits for the renderer's visual output to settle.
//
// The renderer exposes no completion signal for a mutation, so the detector
// polls an opaque fingerprint and reports once the same value has been seen
// for a fixed number of consecutive samples.
package stabilize

import (
	"context"
	"log/slog"
	"time"

	"cardcap/internal/logging"
)

// Fingerprint is an opaque digest of the rendered surface. Values are only
// comparable for equality; the empty value means the surface was not ready.
type Fingerprint string

// Sampler reads the current fingerprint of the rendering surface.
type Sampler interface {
	Fingerprint(ctx context.Context) (Fingerprint, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(ctx context.Context) (Fingerprint, error)

// Fingerprint calls f(ctx).
func (f SamplerFunc) Fingerprint(ctx context.Context) (Fingerprint, error) { return f(ctx) }

// Options tunes the detector.
type Options struct {
	Timeout      time.Duration
	PollInterval time.Duration
	Window       int
}

// DefaultOptions returns the stock timing: 10s timeout, 100ms polls, 3 matching samples.
func DefaultOptions() Options {
	return Options{Timeout: 10 * time.Second, PollInterval: 100 * time.Millisecond, Window: 3}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = def.PollInterval
	}
	if o.Window <= 0 {
		o.Window = def.Window
	}
	return o
}

// Detector polls a Sampler until its output is stable.
type Detector struct {
	sampler Sampler
	opts    Options
	logger  *slog.Logger
}

// NewDetector constructs a detector; zero option fields take their defaults.
func NewDetector(sampler Sampler, opts Options, logger *slog.Logger) *Detector {
	return &Detector{
		sampler: sampler,
		opts:    opts.withDefaults(),
		logger:  logging.NewComponentLogger(logger, "stabilize"),
	}
}

// AwaitStable samples the renderer until Window consecutive samples agree and
// returns that fingerprint.
//
// With requireChange set, samples equal to prior never count towards the
// window: they are discarded before the first change and reset the window
// after it, so prior itself is never returned. When prior is empty and a
// change is required, the first ready sample becomes the baseline.
//
// A timeout or cancelled context yields ("", false) and a warning; it is never
// an error because some mutations legitimately leave the surface unchanged.
func (d *Detector) AwaitStable(ctx context.Context, prior Fingerprint, requireChange bool) (Fingerprint, bool) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()

	baseline := prior
	needBaseline := requireChange && prior == ""
	var last Fingerprint
	count := 0
	samples := 0

	for {
		current, err := d.sampler.Fingerprint(ctx)
		samples++
		switch {
		case err != nil || current == "":
			d.logger.Debug("surface not ready", logging.Int("sample", samples), logging.Error(err))
		case needBaseline:
			baseline = current
			needBaseline = false
		case requireChange && current == baseline:
			last, count = "", 0
		case current == last:
			count++
		default:
			last, count = current, 1
		}

		if count >= d.opts.Window {
			d.logger.Debug("surface stable",
				logging.Int("samples", samples),
				logging.Bool("require_change", requireChange),
			)
			return last, true
		}

		select {
		case <-ctx.Done():
			logging.WarnWithContext(logging.WithContext(ctx, d.logger), "render did not stabilize", "stabilize_timeout",
				logging.Bool("require_change", requireChange),
				logging.Int("samples", samples),
				logging.Duration("timeout", d.opts.Timeout),
				logging.String(logging.FieldErrorHint, "increase stabilize.timeout_seconds if the renderer is slow"),
				logging.String(logging.FieldImpact, "capturing whatever is currently rendered"),
			)
			return "", false
		case <-ticker.C:
		}
	}
}
