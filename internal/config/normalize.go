package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRenderer()
	c.normalizeSelection()
	c.normalizeFilters()
	c.normalizeScryfall()
	c.normalizeArt()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeStabilize()
	c.normalizeLogging()
	if err := c.normalizeServer(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, "history.db")
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeRenderer() {
	c.Renderer.URL = strings.TrimSpace(c.Renderer.URL)
	if c.Renderer.URL == "" {
		c.Renderer.URL = defaultRendererURL
	}
	c.Renderer.Frame = strings.TrimSpace(c.Renderer.Frame)
	c.Renderer.ChromePath = strings.TrimSpace(c.Renderer.ChromePath)
	if c.Renderer.WindowWidth <= 0 {
		c.Renderer.WindowWidth = defaultWindowWidth
	}
	if c.Renderer.WindowHeight <= 0 {
		c.Renderer.WindowHeight = defaultWindowHeight
	}
	if c.Renderer.ElementTimeout <= 0 {
		c.Renderer.ElementTimeout = defaultElementTimeout
	}
	if c.Renderer.RetryAttempts <= 0 {
		c.Renderer.RetryAttempts = defaultRetryAttempts
	}
}

func (c *Config) normalizeSelection() {
	c.Selection.Source = strings.ToLower(strings.TrimSpace(c.Selection.Source))
	if c.Selection.Source == "" {
		c.Selection.Source = defaultSource
	}
	c.Selection.Strategy = strings.ToLower(strings.TrimSpace(c.Selection.Strategy))
	if c.Selection.Strategy == "" {
		c.Selection.Strategy = defaultStrategy
	}
	c.Selection.NoMatch = strings.ToLower(strings.TrimSpace(c.Selection.NoMatch))
	if c.Selection.NoMatch == "" {
		c.Selection.NoMatch = defaultNoMatch
	}
}

func (c *Config) normalizeFilters() {
	c.Filters.IncludeSets = normalizeSetList(c.Filters.IncludeSets)
	c.Filters.ExcludeSets = normalizeSetList(c.Filters.ExcludeSets)
	c.Filters.SpellsIncludeSets = normalizeSetList(c.Filters.SpellsIncludeSets)
	c.Filters.SpellsExcludeSets = normalizeSetList(c.Filters.SpellsExcludeSets)
	c.Filters.BasicLandIncludeSets = normalizeSetList(c.Filters.BasicLandIncludeSets)
	c.Filters.BasicLandExcludeSets = normalizeSetList(c.Filters.BasicLandExcludeSets)
}

// normalizeSetList lower-cases set codes, splits comma separated entries and
// drops blanks and duplicates while preserving order.
func normalizeSetList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			code := strings.ToLower(strings.TrimSpace(part))
			if code == "" {
				continue
			}
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (c *Config) normalizeScryfall() {
	c.Scryfall.BaseURL = strings.TrimRight(strings.TrimSpace(c.Scryfall.BaseURL), "/")
	if c.Scryfall.BaseURL == "" {
		c.Scryfall.BaseURL = defaultScryfallBaseURL
	}
	c.Scryfall.ExtraFilter = strings.TrimSpace(c.Scryfall.ExtraFilter)
	if c.Scryfall.TimeoutSeconds <= 0 {
		c.Scryfall.TimeoutSeconds = defaultScryfallTimeout
	}
	if c.Scryfall.PageDelayMS < 0 {
		c.Scryfall.PageDelayMS = 0
	}
}

func (c *Config) normalizeArt() {
	c.Art.Path = strings.Trim(strings.TrimSpace(c.Art.Path), "/")
	if c.Art.Path == "" {
		c.Art.Path = defaultArtPath
	}
	if c.Art.TimeoutSeconds <= 0 {
		c.Art.TimeoutSeconds = defaultArtTimeout
	}
	c.Upscale.URL = strings.TrimSpace(c.Upscale.URL)
	c.Upscale.APIPrefix = strings.TrimSpace(c.Upscale.APIPrefix)
	if c.Upscale.APIPrefix == "" {
		c.Upscale.APIPrefix = defaultUpscaleAPIPrefix
	}
	c.Upscale.Model = strings.TrimSpace(c.Upscale.Model)
	if c.Upscale.Model == "" {
		c.Upscale.Model = defaultUpscaleModel
	}
	if c.Upscale.Factor == 0 {
		c.Upscale.Factor = defaultUpscaleFactor
	}
	if c.Upscale.TimeoutSeconds <= 0 {
		c.Upscale.TimeoutSeconds = defaultUpscaleTimeout
	}
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	c.Storage.ServerURL = strings.TrimSpace(c.Storage.ServerURL)
	c.Storage.OutputPath = strings.Trim(strings.TrimSpace(c.Storage.OutputPath), "/")
	c.Storage.Secret = strings.TrimSpace(c.Storage.Secret)
	if c.Storage.Secret == "" {
		if value, ok := os.LookupEnv(UploadSecretEnv); ok {
			c.Storage.Secret = strings.TrimSpace(value)
		}
	}
	if c.Storage.Backend == StorageLocal {
		if strings.TrimSpace(c.Storage.LocalDir) == "" {
			c.Storage.LocalDir = defaultStorageLocalDir
		}
		var err error
		if c.Storage.LocalDir, err = expandPath(c.Storage.LocalDir); err != nil {
			return fmt.Errorf("storage.local_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeStabilize() {
	if c.Stabilize.TimeoutSeconds <= 0 {
		c.Stabilize.TimeoutSeconds = defaultStabilizeTimeout
	}
	if c.Stabilize.PollIntervalMS <= 0 {
		c.Stabilize.PollIntervalMS = defaultStabilizePollInterval
	}
	if c.Stabilize.Window <= 0 {
		c.Stabilize.Window = defaultStabilizeWindow
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeServer() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if strings.TrimSpace(c.Server.Root) == "" {
		c.Server.Root = defaultServerRoot
	}
	var err error
	if c.Server.Root, err = expandPath(c.Server.Root); err != nil {
		return fmt.Errorf("server.root: %w", err)
	}
	c.Server.Secret = strings.TrimSpace(c.Server.Secret)
	if c.Server.Secret == "" {
		if value, ok := os.LookupEnv(UploadSecretEnv); ok {
			c.Server.Secret = strings.TrimSpace(value)
		}
	}
	return nil
}
