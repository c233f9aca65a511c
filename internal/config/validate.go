package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var thresholdPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2}|\d+[mMhH])$`)

var (
	validStrategies = []string{"latest", "earliest", "random", "all"}
	validNoMatch    = []string{"skip", "latest", "earliest", "random", "all"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRenderer(); err != nil {
		return err
	}
	if err := c.validateSelection(); err != nil {
		return err
	}
	if err := c.validateFilters(); err != nil {
		return err
	}
	if err := c.validateArt(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateOverwrite(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRenderer() error {
	if err := validateURL("renderer.url", c.Renderer.URL); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"renderer.window_width":    c.Renderer.WindowWidth,
		"renderer.window_height":   c.Renderer.WindowHeight,
		"renderer.element_timeout": c.Renderer.ElementTimeout,
		"renderer.retry_attempts":  c.Renderer.RetryAttempts,
	}); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"stabilize.timeout_seconds":  c.Stabilize.TimeoutSeconds,
		"stabilize.poll_interval_ms": c.Stabilize.PollIntervalMS,
		"stabilize.window":           c.Stabilize.Window,
	})
}

func (c *Config) validateSelection() error {
	switch c.Selection.Source {
	case SourceRenderer, SourceScryfall:
	default:
		return fmt.Errorf("selection.source must be %q or %q, got %q", SourceRenderer, SourceScryfall, c.Selection.Source)
	}
	if !contains(validStrategies, c.Selection.Strategy) {
		return fmt.Errorf("selection.strategy must be one of %s, got %q", strings.Join(validStrategies, ", "), c.Selection.Strategy)
	}
	if !contains(validNoMatch, c.Selection.NoMatch) {
		return fmt.Errorf("selection.no_match must be one of %s, got %q", strings.Join(validNoMatch, ", "), c.Selection.NoMatch)
	}
	if c.Selection.Source == SourceScryfall {
		if err := validateURL("scryfall.base_url", c.Scryfall.BaseURL); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateFilters() error {
	legacy := len(c.Filters.IncludeSets) > 0 || len(c.Filters.ExcludeSets) > 0
	granular := len(c.Filters.SpellsIncludeSets) > 0 || len(c.Filters.SpellsExcludeSets) > 0 ||
		len(c.Filters.BasicLandIncludeSets) > 0 || len(c.Filters.BasicLandExcludeSets) > 0
	if legacy && granular {
		return errors.New("filters: include_sets/exclude_sets cannot be combined with spells_*/basic_land_* set lists")
	}
	return nil
}

func (c *Config) validateArt() error {
	if !c.Upscale.Enabled {
		return nil
	}
	if !c.Art.Enabled {
		return errors.New("upscale.enabled requires art.enabled")
	}
	if strings.TrimSpace(c.Upscale.URL) == "" {
		return errors.New("upscale.url must be set when upscale.enabled is true")
	}
	if err := validateURL("upscale.url", c.Upscale.URL); err != nil {
		return err
	}
	if c.Upscale.Factor < 1 {
		return errors.New("upscale.factor must be at least 1")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageLocal:
		if strings.TrimSpace(c.Storage.LocalDir) == "" {
			return errors.New("storage.local_dir must be set when storage.backend is local")
		}
		if c.Storage.ServerURL != "" {
			return validateURL("storage.server_url", c.Storage.ServerURL)
		}
	case StorageHTTP:
		if strings.TrimSpace(c.Storage.ServerURL) == "" {
			return errors.New("storage.server_url must be set when storage.backend is http")
		}
		return validateURL("storage.server_url", c.Storage.ServerURL)
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", StorageLocal, StorageHTTP, c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateOverwrite() error {
	older := strings.TrimSpace(c.Overwrite.OlderThan)
	newer := strings.TrimSpace(c.Overwrite.NewerThan)
	if older != "" && newer != "" {
		return errors.New("overwrite.older_than and overwrite.newer_than cannot be used together")
	}
	for key, value := range map[string]string{"overwrite.older_than": older, "overwrite.newer_than": newer} {
		if value != "" && !thresholdPattern.MatchString(value) {
			return fmt.Errorf("%s: expected yyyy-mm-dd-hh-mm-ss or a relative time like 30m or 2h, got %q", key, value)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
}

func validateURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s is missing a host: %q", key, value)
	}
	return nil
}

func contains(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
