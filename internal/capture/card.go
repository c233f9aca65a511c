package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cardcap/internal/artpipeline"
	"cardcap/internal/history"
	"cardcap/internal/logging"
	"cardcap/internal/prints"
	"cardcap/internal/renderer"
	"cardcap/internal/services"
	"cardcap/internal/stabilize"
	"cardcap/internal/textutil"
)

const (
	stageSearch  = "search"
	stageSelect  = "select_print"
	stageArt     = "apply_art"
	stageEdits   = "apply_field_edits"
	stageCapture = "capture"
	stagePersist = "persist"
	outputSuffix = ".png"
	pngMediaType = "image/png"
)

// OutputKey is the deterministic output filename of a print.
func OutputKey(cardName string, p prints.Print) string {
	return textutil.Stem(cardName, p.SetCode, p.CollectorNumber) + outputSuffix
}

func (o *Orchestrator) processCard(ctx context.Context, name string, mode prints.Mode, fp stabilize.Fingerprint) (CardResult, stabilize.Fingerprint) {
	ctx = services.WithCard(ctx, name)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("processing card", logging.String("mode", mode.String()))

	card := CardResult{Card: name}
	local, err := o.searchLocal(ctx, name)
	if err == nil && len(local) == 0 {
		err = services.Wrap(services.ErrSearchMiss, stageSearch, "renderer search", "no exact match for "+name, nil)
	}
	if err != nil {
		return o.cardFailed(logger, card, err), fp
	}

	result, err := o.reconcile(ctx, name, local, mode)
	if err != nil {
		return o.cardFailed(logger, card, err), fp
	}
	card.Fallback = result.Fallback
	if result.Skipped {
		card.Outcome = history.OutcomeSkipped
		card.Reason = "no print matched filters"
		logger.Info("skipped", logging.String("reason", card.Reason))
		return card, fp
	}
	if len(result.Prints) == 0 {
		err := services.Wrap(services.ErrSearchMiss, stageSearch, "reconcile", "no prints selected", nil)
		return o.cardFailed(logger, card, err), fp
	}
	if result.Fallback {
		logger.Info("using no-match policy", logging.Int("prints", len(result.Prints)))
	}

	for _, p := range result.Prints {
		var pr PrintResult
		pr, fp = o.capturePrint(ctx, name, p, result, mode, fp)
		card.Prints = append(card.Prints, pr)
	}
	return card, fp
}

func (o *Orchestrator) cardFailed(logger *slog.Logger, card CardResult, err error) CardResult {
	card.Outcome = history.OutcomeFailed
	card.Reason = reasonFor(err)
	card.Err = err
	logging.WarnWithContext(logger, "skipped", "card_failed",
		logging.String("reason", card.Reason),
		logging.Error(err),
		logging.String(logging.FieldImpact, "card not captured"),
	)
	return card
}

// searchLocal loads the renderer's print list for name and applies the
// exact-match guard, searching again when nothing matches.
func (o *Orchestrator) searchLocal(ctx context.Context, name string) ([]prints.Print, error) {
	ctx = services.WithStage(ctx, stageSearch)
	logger := logging.WithContext(ctx, o.logger)
	for attempt := 1; attempt <= o.opts.SearchAttempts; attempt++ {
		options, err := renderer.RetryValue(ctx, o.opts.RetryAttempts, o.opts.RetryDelay, func(ctx context.Context) ([]prints.Option, error) {
			return o.renderer.SearchPrints(ctx, name)
		})
		if err != nil {
			return nil, fmt.Errorf("renderer search: %w", err)
		}
		if matched := prints.MatchLocal(name, options); len(matched) > 0 {
			return matched, nil
		}
		logger.Debug("no exact match in renderer options",
			logging.Int("attempt", attempt),
			logging.Int("options", len(options)),
		)
		if attempt < o.opts.SearchAttempts {
			if err := sleep(ctx, o.opts.SearchDelay); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

func (o *Orchestrator) reconcile(ctx context.Context, name string, local []prints.Print, mode prints.Mode) (prints.Result, error) {
	policy := o.opts.Policy
	policy.Mode = mode
	list := prints.List{Ordering: prints.NewestFirst, Prints: local}
	result, err := o.reconciler.Reconcile(ctx, name, list, policy)
	if err != nil || !result.Pending {
		return result, err
	}
	logging.WithContext(ctx, o.logger).Info("no print matched the include filter, applying no-match policy",
		logging.Int("candidates", len(result.Prints)),
		logging.String("no_match", string(policy.NoMatch)),
	)
	return prints.ApplyNoMatch(result, policy), nil
}

func (o *Orchestrator) capturePrint(ctx context.Context, name string, p prints.Print, result prints.Result, mode prints.Mode, fp stabilize.Fingerprint) (PrintResult, stabilize.Fingerprint) {
	logger := logging.WithContext(ctx, o.logger).With(
		logging.String(logging.FieldSetCode, p.SetCode),
		logging.String(logging.FieldCollectorNumber, p.CollectorNumber),
	)
	pr := PrintResult{Print: p, Filename: OutputKey(name, p)}

	fail := func(stage string, err error) (PrintResult, stabilize.Fingerprint) {
		pr.Outcome = history.OutcomeFailed
		pr.Reason = reasonFor(err)
		pr.Err = err
		logging.WarnWithContext(logger, "skipped", "print_failed",
			logging.String(logging.FieldStage, stage),
			logging.String("reason", pr.Reason),
			logging.Error(err),
			logging.String(logging.FieldImpact, "print not captured"),
		)
		return pr, fp
	}

	// SELECT_PRINT
	if err := o.retry(ctx, func(ctx context.Context) error { return o.renderer.SelectPrint(ctx, p.SelectorToken) }); err != nil {
		return fail(stageSelect, err)
	}
	fp = o.settle(ctx, fp, true)

	// APPLY_ART
	var err error
	if fp, err = o.applyArt(ctx, logger, name, p, result, fp); err != nil {
		return fail(stageArt, err)
	}

	// APPLY_FIELD_EDITS
	if fp, err = o.applyEdits(ctx, logger, p, fp); err != nil {
		return fail(stageEdits, err)
	}

	// STABILIZE
	fp = o.settle(ctx, fp, false)

	// CAPTURE
	bitmap, err := renderer.RetryValue(ctx, o.opts.RetryAttempts, o.opts.RetryDelay, o.renderer.Bitmap)
	if err != nil {
		return fail(stageCapture, err)
	}
	if len(bitmap) == 0 {
		return fail(stageCapture, fmt.Errorf("%w: empty bitmap", services.ErrTransientUI))
	}

	if mode == prints.ModePriming {
		pr.Outcome = history.OutcomePrimed
		logger.Info("primed", logging.String("filename", pr.Filename))
		return pr, fp
	}

	// PERSIST
	if err := o.persist(ctx, logger, &pr, bitmap); err != nil {
		return fail(stagePersist, err)
	}
	return pr, fp
}

func (o *Orchestrator) applyArt(ctx context.Context, logger *slog.Logger, name string, p prints.Print, result prints.Result, fp stabilize.Fingerprint) (stabilize.Fingerprint, error) {
	if o.pipeline == nil {
		return fp, nil
	}
	var hint *artpipeline.Hint
	if rec, ok := result.Record(p); ok && rec.ArtURL != "" {
		hint = &artpipeline.Hint{ArtURL: rec.ArtURL, TypeLine: rec.TypeLine}
	}
	ref := artpipeline.Ref{CardName: name, SetCode: p.SetCode, CollectorNumber: p.CollectorNumber}
	art := o.pipeline.Prepare(services.WithStage(ctx, stageArt), ref, hint)
	url := artpipeline.TrimForRenderer(art.URL, o.opts.ImageServerURL, o.opts.RendererURL)
	if url == "" {
		logger.Debug("no custom art, keeping renderer default")
		return fp, nil
	}
	if err := o.retry(ctx, func(ctx context.Context) error { return o.renderer.ApplyArt(ctx, url) }); err != nil {
		return fp, err
	}
	logger.Debug("art applied",
		logging.String("url", url),
		logging.String("art_stage", string(art.Stage)),
		logging.String("type_line", art.TypeLine),
	)
	return o.settle(ctx, fp, true), nil
}

func (o *Orchestrator) applyEdits(ctx context.Context, logger *slog.Logger, p prints.Print, fp stabilize.Fingerprint) (stabilize.Fingerprint, error) {
	mutated := false
	if o.opts.CollectorInfo {
		info := renderer.CollectorInfo{SetCode: p.SetCode, CollectorNumber: p.CollectorNumber}
		if err := o.retry(ctx, func(ctx context.Context) error { return o.renderer.SetCollectorInfo(ctx, info) }); err != nil {
			return fp, fmt.Errorf("collector info: %w", err)
		}
		mutated = true
	}
	for _, edit := range o.opts.Plan {
		current, err := renderer.RetryValue(ctx, o.opts.RetryAttempts, o.opts.RetryDelay, func(ctx context.Context) (string, error) {
			return o.renderer.ReadField(ctx, edit.Field)
		})
		if err != nil {
			return fp, fmt.Errorf("read %s: %w", edit.Field, err)
		}
		updated, changed := edit.Apply(current)
		if !changed {
			continue
		}
		if err := o.retry(ctx, func(ctx context.Context) error { return o.renderer.EditField(ctx, edit.Field, updated) }); err != nil {
			return fp, fmt.Errorf("edit %s: %w", edit.Field, err)
		}
		logger.Debug("field edited", logging.String("field", edit.Field))
		mutated = true
	}
	if !mutated {
		return fp, nil
	}
	return o.settle(ctx, fp, false), nil
}

func (o *Orchestrator) persist(ctx context.Context, logger *slog.Logger, pr *PrintResult, bitmap []byte) error {
	info, err := o.output.Exists(ctx, pr.Filename)
	if err != nil {
		return services.Wrap(services.ErrNetwork, stagePersist, "probe output", pr.Filename, err)
	}
	decision := o.opts.Overwrite.Decide(info)
	if !decision.Write {
		pr.Outcome = history.OutcomeSkipped
		pr.Reason = string(decision.Reason)
		logger.Info("skipped",
			logging.String("filename", pr.Filename),
			logging.String("reason", pr.Reason),
			logging.Time("last_modified", info.LastModified),
		)
		return nil
	}
	if err := o.output.Put(ctx, pr.Filename, bitmap, pngMediaType); err != nil {
		return services.Wrap(services.ErrNetwork, stagePersist, "write output", pr.Filename, err)
	}
	pr.Outcome = history.OutcomeSaved
	pr.Reason = string(decision.Reason)
	pr.URL = o.output.URL(pr.Filename)
	logger.Info("saved",
		logging.String("filename", pr.Filename),
		logging.String("url", pr.URL),
		logging.String("reason", pr.Reason),
	)
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
