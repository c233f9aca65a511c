package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cardcap/internal/artpipeline"
	"cardcap/internal/capture"
	"cardcap/internal/config"
	"cardcap/internal/history"
	"cardcap/internal/overwrite"
	"cardcap/internal/prints"
	"cardcap/internal/renderer/conjurer"
	"cardcap/internal/scryfall"
	"cardcap/internal/services"
	"cardcap/internal/stabilize"
	"cardcap/internal/storage"
	"cardcap/internal/textedit"
)

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func buildPolicy(cfg *config.Config, mode prints.Mode) (prints.Policy, error) {
	strategy, err := prints.ParseStrategy(cfg.Selection.Strategy)
	if err != nil {
		return prints.Policy{}, err
	}
	noMatch, err := prints.ParseNoMatch(cfg.Selection.NoMatch)
	if err != nil {
		return prints.Policy{}, err
	}
	f := cfg.Filters
	return prints.Policy{
		Strategy: strategy,
		NoMatch:  noMatch,
		Mode:     mode,
		Filters: prints.Filters{
			Legacy:     prints.NewSetFilter(f.IncludeSets, f.ExcludeSets),
			Spells:     prints.NewSetFilter(f.SpellsIncludeSets, f.SpellsExcludeSets),
			BasicLands: prints.NewSetFilter(f.BasicLandIncludeSets, f.BasicLandExcludeSets),
		},
	}, nil
}

// buildStore returns the backend shared by art assets and captured cards.
func buildStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageHTTP:
		return storage.NewHTTPStore(cfg.Storage.ServerURL, cfg.Storage.Secret, storage.WithLogger(logger))
	default:
		return storage.NewFSStore(cfg.Storage.LocalDir, cfg.Storage.ServerURL)
	}
}

func buildScryfall(cfg *config.Config) (*scryfall.Client, error) {
	return scryfall.New(cfg.Scryfall.BaseURL,
		scryfall.WithTimeout(seconds(cfg.Scryfall.TimeoutSeconds)),
		scryfall.WithPageDelay(time.Duration(cfg.Scryfall.PageDelayMS)*time.Millisecond),
	)
}

func buildPipeline(cfg *config.Config, store storage.Store, source artpipeline.ArtSource, logger *slog.Logger) (*artpipeline.Pipeline, error) {
	if !cfg.Art.Enabled {
		return nil, nil
	}
	var upscaler artpipeline.Upscaler
	if cfg.Upscale.Enabled {
		u, err := artpipeline.NewGradioUpscaler(cfg.Upscale.URL, seconds(cfg.Upscale.TimeoutSeconds), artpipeline.WithAPIPrefix(cfg.Upscale.APIPrefix))
		if err != nil {
			return nil, err
		}
		upscaler = u
	}
	return artpipeline.New(store, source, artpipeline.NewHTTPFetcher(seconds(cfg.Art.TimeoutSeconds)), upscaler, artpipeline.Options{
		ArtPath: cfg.Art.Path,
		Upscale: cfg.Upscale.Enabled,
		Model:   cfg.Upscale.Model,
		Factor:  cfg.Upscale.Factor,
	}, logger), nil
}

func detectorOptions(cfg *config.Config) stabilize.Options {
	return stabilize.Options{
		Timeout:      seconds(cfg.Stabilize.TimeoutSeconds),
		PollInterval: time.Duration(cfg.Stabilize.PollIntervalMS) * time.Millisecond,
		Window:       cfg.Stabilize.Window,
	}
}

func sessionOptions(cfg *config.Config) conjurer.Options {
	return conjurer.Options{
		URL:            cfg.Renderer.URL,
		ChromePath:     cfg.Renderer.ChromePath,
		Headless:       cfg.Renderer.Headless,
		WindowWidth:    cfg.Renderer.WindowWidth,
		WindowHeight:   cfg.Renderer.WindowHeight,
		ElementTimeout: seconds(cfg.Renderer.ElementTimeout),
	}
}

// runtime holds everything a renderer-driving command opened.
type runtime struct {
	session      *conjurer.Session
	orchestrator *capture.Orchestrator
	ledger       *history.Store
}

func (r *runtime) Close() {
	if r.ledger != nil {
		_ = r.ledger.Close()
	}
	if r.session != nil {
		_ = r.session.Close()
	}
}

type runtimeOptions struct {
	mode       prints.Mode
	withLedger bool
}

func openRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts runtimeOptions) (*runtime, error) {
	policy, err := buildPolicy(cfg, opts.mode)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "setup", "selection policy", "", err)
	}
	overwritePolicy, err := overwrite.FromStrings(cfg.Overwrite.Always, cfg.Overwrite.OlderThan, cfg.Overwrite.NewerThan, time.Now())
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "setup", "overwrite policy", "", err)
	}
	store, err := buildStore(cfg, logger)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "setup", "storage", "", err)
	}
	client, err := buildScryfall(cfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "setup", "scryfall", "", err)
	}
	pipeline, err := buildPipeline(cfg, store, client, logger)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "setup", "art pipeline", "", err)
	}

	var searcher prints.Searcher
	if cfg.Selection.Source == config.SourceScryfall {
		searcher = client
	}

	rt := &runtime{}
	if opts.withLedger && cfg.History.Enabled {
		ledger, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		rt.ledger = ledger
	}

	session, err := conjurer.Open(ctx, sessionOptions(cfg), logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.session = session

	deps := capture.Dependencies{
		Renderer:   session,
		Reconciler: prints.NewReconciler(searcher, cfg.Scryfall.ExtraFilter, logger),
		Pipeline:   pipeline,
		Output:     storage.Prefixed(store, cfg.Storage.OutputPath),
		Detector:   stabilize.NewDetector(session, detectorOptions(cfg), logger),
	}
	if rt.ledger != nil {
		deps.Ledger = rt.ledger
	}
	orchestrator, err := capture.New(deps, capture.Options{
		Policy: policy,
		Setup: capture.Setup{
			Frame:            cfg.Renderer.Frame,
			WhiteBorder:      cfg.Renderer.WhiteBorder,
			AutofitArt:       cfg.Renderer.AutofitArt,
			HideReminderText: cfg.Renderer.HideReminderText,
		},
		Plan:           textedit.PlanFromConfig(cfg.Text),
		Overwrite:      overwritePolicy,
		CollectorInfo:  cfg.Renderer.CollectorInfo,
		ImageServerURL: cfg.Storage.ServerURL,
		RendererURL:    cfg.Renderer.URL,
		RetryAttempts:  cfg.Renderer.RetryAttempts,
	}, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.orchestrator = orchestrator
	return rt, nil
}
