package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains state and log directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Renderer contains configuration for the browser-hosted card renderer session.
type Renderer struct {
	URL              string `toml:"url"`
	Headless         bool   `toml:"headless"`
	ChromePath       string `toml:"chrome_path"`
	WindowWidth      int    `toml:"window_width"`
	WindowHeight     int    `toml:"window_height"`
	ElementTimeout   int    `toml:"element_timeout"`
	RetryAttempts    int    `toml:"retry_attempts"`
	Frame            string `toml:"frame"`
	WhiteBorder      bool   `toml:"white_border"`
	AutofitArt       bool   `toml:"autofit_art"`
	HideReminderText bool   `toml:"hide_reminder_text"`
	CollectorInfo    bool   `toml:"collector_info"`
}

// Selection controls where prints come from and which of them are captured.
type Selection struct {
	Source   string `toml:"source"`
	Strategy string `toml:"strategy"`
	NoMatch  string `toml:"no_match"`
}

// Filters holds set include/exclude lists. The legacy lists apply to every
// card and cannot be combined with the spell/basic land lists.
type Filters struct {
	IncludeSets          []string `toml:"include_sets"`
	ExcludeSets          []string `toml:"exclude_sets"`
	SpellsIncludeSets    []string `toml:"spells_include_sets"`
	SpellsExcludeSets    []string `toml:"spells_exclude_sets"`
	BasicLandIncludeSets []string `toml:"basic_land_include_sets"`
	BasicLandExcludeSets []string `toml:"basic_land_exclude_sets"`
}

// Scryfall contains configuration for the card metadata search API.
type Scryfall struct {
	BaseURL        string `toml:"base_url"`
	ExtraFilter    string `toml:"extra_filter"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	PageDelayMS    int    `toml:"page_delay_ms"`
}

// Art controls custom art preparation.
type Art struct {
	Enabled        bool   `toml:"enabled"`
	Path           string `toml:"path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Upscale configures the optional upscaling transform applied to fetched art.
type Upscale struct {
	Enabled        bool   `toml:"enabled"`
	URL            string `toml:"url"`
	APIPrefix      string `toml:"api_prefix"`
	Model          string `toml:"model"`
	Factor         int    `toml:"factor"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Storage selects the backend used for art assets and captured cards.
type Storage struct {
	Backend    string `toml:"backend"`
	LocalDir   string `toml:"local_dir"`
	ServerURL  string `toml:"server_url"`
	Secret     string `toml:"secret"`
	OutputPath string `toml:"output_path"`
}

// Overwrite controls whether existing captured cards are replaced.
type Overwrite struct {
	Always    bool   `toml:"always"`
	OlderThan string `toml:"older_than"`
	NewerThan string `toml:"newer_than"`
}

// TextField lists the tag directives applied to a single renderer text field.
// Nil values leave the field's existing tag alone.
type TextField struct {
	FontSize *int `toml:"font_size"`
	Shadow   *int `toml:"shadow"`
	Kerning  *int `toml:"kerning"`
	Left     *int `toml:"left"`
	Up       *int `toml:"up"`
	Down     *int `toml:"down"`
	Bold     bool `toml:"bold"`
}

// Text contains per-field text edits.
type Text struct {
	Title          TextField `toml:"title"`
	Type           TextField `toml:"type"`
	PT             TextField `toml:"pt"`
	Rules          TextField `toml:"rules"`
	FlavorFontSize *int      `toml:"flavor_font_size"`
	AutoFitType    bool      `toml:"auto_fit_type"`
}

// Stabilize tunes the render stabilization detector.
type Stabilize struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	PollIntervalMS int `toml:"poll_interval_ms"`
	Window         int `toml:"window"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// History controls the sqlite run ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Server configures the bundled art server.
type Server struct {
	Bind   string `toml:"bind"`
	Root   string `toml:"root"`
	Secret string `toml:"secret"`
}

// Config encapsulates all configuration values for cardcap.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - Renderer: browser session and global frame settings
//   - Selection/Filters: print reconciliation policy
//   - Scryfall: cross-reference search
//   - Art/Upscale: custom art pipeline
//   - Storage/Overwrite: where captures land and when they are replaced
//   - Text: field edits applied to every print
//   - Stabilize: render stabilization timing
//   - Logging/History/Server: ambient plumbing
type Config struct {
	Paths     Paths     `toml:"paths"`
	Renderer  Renderer  `toml:"renderer"`
	Selection Selection `toml:"selection"`
	Filters   Filters   `toml:"filters"`
	Scryfall  Scryfall  `toml:"scryfall"`
	Art       Art       `toml:"art"`
	Upscale   Upscale   `toml:"upscale"`
	Storage   Storage   `toml:"storage"`
	Overwrite Overwrite `toml:"overwrite"`
	Text      Text      `toml:"text"`
	Stabilize Stabilize `toml:"stabilize"`
	Logging   Logging   `toml:"logging"`
	History   History   `toml:"history"`
	Server    Server    `toml:"server"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cardcap.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories, plus the local
// storage root when the local backend is selected.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.LogDir}
	if c.Storage.Backend == StorageLocal {
		dirs = append(dirs, c.Storage.LocalDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the session lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "cardcap.lock")
}

// LogFile returns the JSON log file location, or "" when file logging is off.
func (c *Config) LogFile() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "cardcap.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	redacted := *c
	if redacted.Storage.Secret != "" {
		redacted.Storage.Secret = "<redacted>"
	}
	if redacted.Server.Secret != "" {
		redacted.Server.Secret = "<redacted>"
	}
	data, err := toml.Marshal(redacted)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
