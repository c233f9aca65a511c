package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cardcap/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "cardcap")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.History.Path != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.History.Path)
	}
	if cfg.Storage.LocalDir != filepath.Join(tempHome, "cardcap") {
		t.Fatalf("unexpected storage dir: %q", cfg.Storage.LocalDir)
	}
	if cfg.Selection.Strategy != "earliest" || cfg.Selection.NoMatch != "earliest" {
		t.Fatalf("unexpected selection defaults: %+v", cfg.Selection)
	}
	if cfg.Upscale.Model != "RealESRGAN_x2plus" || cfg.Upscale.Factor != 4 {
		t.Fatalf("unexpected upscale defaults: %+v", cfg.Upscale)
	}
	if cfg.Art.Path != "local_art/art" {
		t.Fatalf("unexpected art path: %q", cfg.Art.Path)
	}
	if cfg.Stabilize.TimeoutSeconds != 10 || cfg.Stabilize.PollIntervalMS != 100 || cfg.Stabilize.Window != 3 {
		t.Fatalf("unexpected stabilize defaults: %+v", cfg.Stabilize)
	}
	if cfg.LockPath() != filepath.Join(wantState, "cardcap.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Storage.LocalDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cardcap.toml")

	contents := `
[selection]
source = "Scryfall"
strategy = "ALL"
no_match = "skip"

[filters]
spells_include_sets = ["LEA, 2ED", "lea"]

[storage]
backend = "http"
server_url = "http://images.local:4242"
output_path = "/upload/"

[text.pt]
bold = true
font_size = 32

[text]
flavor_font_size = -3
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Selection.Source != config.SourceScryfall {
		t.Fatalf("expected source to be lower-cased, got %q", cfg.Selection.Source)
	}
	if cfg.Selection.Strategy != "all" {
		t.Fatalf("expected strategy all, got %q", cfg.Selection.Strategy)
	}
	if got := strings.Join(cfg.Filters.SpellsIncludeSets, ","); got != "lea,2ed" {
		t.Fatalf("unexpected spells include sets: %q", got)
	}
	if cfg.Storage.OutputPath != "upload" {
		t.Fatalf("expected trimmed output path, got %q", cfg.Storage.OutputPath)
	}
	if !cfg.Text.PT.Bold || cfg.Text.PT.FontSize == nil || *cfg.Text.PT.FontSize != 32 {
		t.Fatalf("unexpected pt settings: %+v", cfg.Text.PT)
	}
	if cfg.Text.Title.FontSize != nil {
		t.Fatalf("expected unset title font size, got %d", *cfg.Text.Title.FontSize)
	}
	if cfg.Text.FlavorFontSize == nil || *cfg.Text.FlavorFontSize != -3 {
		t.Fatalf("unexpected flavor font size: %v", cfg.Text.FlavorFontSize)
	}
}

func TestEnvVarSuppliesUploadSecret(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "cardcap.toml")
	if err := os.WriteFile(configPath, []byte("[server]\nsecret = \"from-file\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.UploadSecretEnv, "from-env")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Storage.Secret != "from-env" {
		t.Errorf("expected storage secret from env, got %q", cfg.Storage.Secret)
	}
	if cfg.Server.Secret != "from-file" {
		t.Errorf("expected explicit server secret to win, got %q", cfg.Server.Secret)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "X-Upload-Secret") {
		t.Fatalf("sample config missing upload secret guidance: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Text.FlavorFontSize != nil {
		t.Fatalf("sample should leave flavor font size unset")
	}

	loaded, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
	if loaded.Renderer.Frame != "Seventh" {
		t.Fatalf("unexpected sample frame: %q", loaded.Renderer.Frame)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown strategy", func(c *config.Config) { c.Selection.Strategy = "newest" }},
		{"unknown no match", func(c *config.Config) { c.Selection.NoMatch = "never" }},
		{"unknown source", func(c *config.Config) { c.Selection.Source = "mtgjson" }},
		{"skip is not a strategy", func(c *config.Config) { c.Selection.Strategy = "skip" }},
		{"legacy mixed with granular", func(c *config.Config) {
			c.Filters.IncludeSets = []string{"lea"}
			c.Filters.BasicLandExcludeSets = []string{"sld"}
		}},
		{"both thresholds", func(c *config.Config) {
			c.Overwrite.OlderThan = "2h"
			c.Overwrite.NewerThan = "5m"
		}},
		{"bad threshold", func(c *config.Config) { c.Overwrite.OlderThan = "yesterday" }},
		{"http without url", func(c *config.Config) { c.Storage.Backend = config.StorageHTTP }},
		{"unknown backend", func(c *config.Config) { c.Storage.Backend = "s3" }},
		{"upscale without url", func(c *config.Config) {
			c.Art.Enabled = true
			c.Upscale.Enabled = true
		}},
		{"upscale without art", func(c *config.Config) {
			c.Upscale.Enabled = true
			c.Upscale.URL = "http://upscaler.local/api"
		}},
		{"non-positive window", func(c *config.Config) { c.Stabilize.Window = 0 }},
		{"relative renderer url", func(c *config.Config) { c.Renderer.URL = "/creator" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Storage.LocalDir = t.TempDir()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	cfg := config.Default()
	cfg.Storage.LocalDir = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestEncodeRedactsSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Secret = "hunter2"
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if strings.Contains(string(data), "hunter2") {
		t.Fatalf("encoded config leaked secret: %s", data)
	}
	if cfg.Storage.Secret != "hunter2" {
		t.Fatal("Encode must not mutate the receiver")
	}
}

func TestUpscaleAPIPrefixDefaultsToGradio5(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "cardcap.toml")
	if err := os.WriteFile(configPath, []byte("[upscale]\napi_prefix = \"  \"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Upscale.APIPrefix != "/gradio_api" {
		t.Fatalf("unexpected api prefix: %q", cfg.Upscale.APIPrefix)
	}
}
