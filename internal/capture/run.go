package capture

import (
	"context"
	"errors"
	"time"

	"cardcap/internal/history"
	"cardcap/internal/logging"
	"cardcap/internal/prints"
	"cardcap/internal/services"
)

// PrintResult is the outcome of one print.
type PrintResult struct {
	Print    prints.Print
	Filename string
	URL      string
	Outcome  history.Outcome
	Reason   string
	Err      error
}

// CardResult groups the print results of one requested card. Err is set when
// the card failed before any print was attempted.
type CardResult struct {
	Card     string
	Fallback bool
	Prints   []PrintResult
	Outcome  history.Outcome
	Reason   string
	Err      error
}

// Summary totals a run.
type Summary struct {
	RunID    string
	Saved    int
	Skipped  int
	Failed   int
	Primed   int
	Duration time.Duration
	Results  []CardResult
}

func (s *Summary) add(card CardResult) {
	s.Results = append(s.Results, card)
	if len(card.Prints) == 0 {
		s.count(card.Outcome)
		return
	}
	for _, p := range card.Prints {
		s.count(p.Outcome)
	}
}

func (s *Summary) count(outcome history.Outcome) {
	switch outcome {
	case history.OutcomeSaved:
		s.Saved++
	case history.OutcomeSkipped:
		s.Skipped++
	case history.OutcomePrimed:
		s.Primed++
	default:
		s.Failed++
	}
}

// Totals converts the summary into ledger counters.
func (s Summary) Totals() history.Totals {
	return history.Totals{Saved: s.Saved, Skipped: s.Skipped, Failed: s.Failed}
}

// Run captures cards in order. The context is only consulted between cards; a
// card already in progress always completes. The returned error is either a
// setup failure or the cancellation that stopped the run early.
func (o *Orchestrator) Run(ctx context.Context, cards []string) (Summary, error) {
	return o.run(ctx, cards, o.opts.Policy.Mode)
}

// Prime renders every exact match of cards without persisting anything.
func (o *Orchestrator) Prime(ctx context.Context, cards []string) (Summary, error) {
	return o.run(ctx, cards, prints.ModePriming)
}

func (o *Orchestrator) run(ctx context.Context, cards []string, mode prints.Mode) (Summary, error) {
	start := time.Now()
	summary := Summary{}

	if o.ledger != nil {
		runID, err := o.ledger.BeginRun(ctx)
		if err != nil {
			logging.WarnWithContext(o.logger, "history unavailable", "history_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run will not be recorded"),
			)
		} else {
			summary.RunID = runID
			ctx = services.WithRunID(ctx, runID)
		}
	}
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("capture run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("cards", len(cards)),
		logging.String("mode", mode.String()),
	)

	// Per-card work ignores run cancellation; ctx is checked between cards.
	work := context.WithoutCancel(ctx)
	fp := o.settle(work, "", false)

	var runErr error
	for i, name := range cards {
		if err := ctx.Err(); err != nil {
			logger.Warn("capture run cancelled",
				logging.Int("remaining", len(cards)-i),
				logging.Error(err),
			)
			runErr = err
			break
		}
		var result CardResult
		result, fp = o.processCard(work, name, mode, fp)
		summary.add(result)
		o.recordCard(work, summary.RunID, result)
		if services.IsFatal(result.Err) {
			logging.ErrorWithContext(logger, "capture run aborted", "run_aborted",
				logging.String(logging.FieldCard, name),
				logging.Error(result.Err),
				logging.String(logging.FieldErrorHint, "check the renderer is reachable and rerun"),
			)
			runErr = result.Err
			break
		}
	}

	summary.Duration = time.Since(start)
	if o.ledger != nil && summary.RunID != "" {
		if err := o.ledger.FinishRun(work, summary.RunID, summary.Totals()); err != nil {
			logger.Warn("failed to record run totals", logging.Error(err))
		}
	}
	logger.Info("capture run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("saved", summary.Saved),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("primed", summary.Primed),
		logging.Duration("duration", summary.Duration),
	)
	return summary, runErr
}

// ProcessCard runs a single card through the capture state machine.
func (o *Orchestrator) ProcessCard(ctx context.Context, name string, mode prints.Mode) CardResult {
	fp := o.settle(ctx, "", false)
	result, _ := o.processCard(ctx, name, mode, fp)
	return result
}

// Search runs the SEARCH step alone: renderer search, exact-match guard and
// reconciliation. It does not select or capture anything.
func (o *Orchestrator) Search(ctx context.Context, name string, mode prints.Mode) (prints.Result, error) {
	ctx = services.WithCard(ctx, name)
	local, err := o.searchLocal(ctx, name)
	if err != nil {
		return prints.Result{}, err
	}
	return o.reconcile(ctx, name, local, mode)
}

func (o *Orchestrator) recordCard(ctx context.Context, runID string, card CardResult) {
	if o.ledger == nil || runID == "" {
		return
	}
	entries := make([]history.Entry, 0, len(card.Prints)+1)
	if len(card.Prints) == 0 {
		entries = append(entries, history.Entry{Card: card.Card, Outcome: card.Outcome, Reason: card.Reason})
	}
	for _, p := range card.Prints {
		entries = append(entries, history.Entry{
			Card:            card.Card,
			Filename:        p.Filename,
			SetCode:         p.Print.SetCode,
			CollectorNumber: p.Print.CollectorNumber,
			Outcome:         p.Outcome,
			Reason:          p.Reason,
		})
	}
	for _, entry := range entries {
		if err := o.ledger.Record(ctx, runID, entry); err != nil {
			o.logger.Warn("failed to record capture", logging.String(logging.FieldCard, card.Card), logging.Error(err))
			return
		}
	}
}

func reasonFor(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return services.SkipReason(err)
}
