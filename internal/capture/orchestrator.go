package capture

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cardcap/internal/artpipeline"
	"cardcap/internal/history"
	"cardcap/internal/logging"
	"cardcap/internal/overwrite"
	"cardcap/internal/prints"
	"cardcap/internal/renderer"
	"cardcap/internal/services"
	"cardcap/internal/stabilize"
	"cardcap/internal/storage"
	"cardcap/internal/textedit"
)

// Ledger records run outcomes. *history.Store satisfies it.
type Ledger interface {
	BeginRun(ctx context.Context) (string, error)
	Record(ctx context.Context, runID string, entry history.Entry) error
	FinishRun(ctx context.Context, runID string, totals history.Totals) error
}

// Setup is the global renderer configuration applied once per session.
type Setup struct {
	Frame            string
	WhiteBorder      bool
	AutofitArt       bool
	HideReminderText bool
}

// Options tunes an Orchestrator.
type Options struct {
	Policy    prints.Policy
	Setup     Setup
	Plan      textedit.Plan
	Overwrite overwrite.Policy
	// CollectorInfo copies set code and collector number into the renderer.
	CollectorInfo bool
	// ImageServerURL and RendererURL enable same-host art URL trimming.
	ImageServerURL string
	RendererURL    string
	RetryAttempts  int
	RetryDelay     time.Duration
	// SearchAttempts bounds renderer searches that return no exact match.
	SearchAttempts int
	SearchDelay    time.Duration
}

// Dependencies are the collaborators an Orchestrator drives. Pipeline and
// Ledger are optional.
type Dependencies struct {
	Renderer   renderer.Renderer
	Reconciler *prints.Reconciler
	Pipeline   *artpipeline.Pipeline
	Output     storage.Store
	Detector   *stabilize.Detector
	Ledger     Ledger
}

// Orchestrator captures cards through one renderer session.
type Orchestrator struct {
	renderer   renderer.Renderer
	reconciler *prints.Reconciler
	pipeline   *artpipeline.Pipeline
	output     storage.Store
	detector   *stabilize.Detector
	ledger     Ledger
	opts       Options
	logger     *slog.Logger
}

// New validates deps and returns an Orchestrator.
func New(deps Dependencies, opts Options, logger *slog.Logger) (*Orchestrator, error) {
	if deps.Renderer == nil {
		return nil, errors.New("capture: renderer required")
	}
	if deps.Output == nil {
		return nil, errors.New("capture: output store required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "capture")
	if deps.Reconciler == nil {
		deps.Reconciler = prints.NewReconciler(nil, "", logger)
	}
	if deps.Detector == nil {
		deps.Detector = stabilize.NewDetector(deps.Renderer, stabilize.DefaultOptions(), logger)
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	if opts.SearchAttempts <= 0 {
		opts.SearchAttempts = 3
	}
	if opts.SearchDelay <= 0 {
		opts.SearchDelay = time.Second
	}
	return &Orchestrator{
		renderer:   deps.Renderer,
		reconciler: deps.Reconciler,
		pipeline:   deps.Pipeline,
		output:     deps.Output,
		detector:   deps.Detector,
		ledger:     deps.Ledger,
		opts:       opts,
		logger:     logger,
	}, nil
}

// Prepare applies the session Setup. Each step is followed by a steady-state
// wait since it may be a no-op. Any failure is fatal to the run.
func (o *Orchestrator) Prepare(ctx context.Context) error {
	ctx = services.WithStage(ctx, "setup")
	logger := logging.WithContext(ctx, o.logger)

	steps := []struct {
		name    string
		enabled bool
		apply   func(context.Context) error
	}{
		{"frame", o.opts.Setup.Frame != "", func(ctx context.Context) error {
			return o.renderer.SetFrame(ctx, o.opts.Setup.Frame)
		}},
		{"white border", o.opts.Setup.WhiteBorder, o.renderer.SetWhiteBorder},
		{"autofit art", o.opts.Setup.AutofitArt, func(ctx context.Context) error {
			return o.renderer.SetCheckbox(ctx, renderer.CheckboxAutofitArt, true)
		}},
		{"hide reminder text", o.opts.Setup.HideReminderText, func(ctx context.Context) error {
			return o.renderer.SetCheckbox(ctx, renderer.CheckboxHideReminderText, true)
		}},
	}

	var fp stabilize.Fingerprint
	for _, step := range steps {
		if !step.enabled {
			continue
		}
		if err := o.retry(ctx, step.apply); err != nil {
			return services.Wrap(services.ErrFatalSetup, "setup", step.name, "", err)
		}
		fp = o.settle(ctx, fp, false)
		logger.Info("session setting applied", logging.String("setting", step.name))
	}
	return nil
}

func (o *Orchestrator) retry(ctx context.Context, fn func(context.Context) error) error {
	return renderer.Retry(ctx, o.opts.RetryAttempts, o.opts.RetryDelay, fn)
}

// settle waits for the surface to stabilize after a mutation. On timeout the
// current fingerprint is sampled once so the next wait still has a baseline.
func (o *Orchestrator) settle(ctx context.Context, prior stabilize.Fingerprint, requireChange bool) stabilize.Fingerprint {
	if fp, ok := o.detector.AwaitStable(ctx, prior, requireChange); ok {
		return fp
	}
	if ctx.Err() != nil {
		return prior
	}
	current, err := o.renderer.Fingerprint(ctx)
	if err != nil || current == "" {
		return prior
	}
	return current
}
