package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rickchristie/govner/testdeck/internal/cost"
	"github.com/rickchristie/govner/testdeck/internal/declare"
	"github.com/rickchristie/govner/testdeck/internal/render"
)

// DefaultDir is the directory searched for config.yaml when --config is not given.
const DefaultDir = ".testdeck"

// Display modes
const (
	DisplayInline  = "inline"  // Redraw below the cursor, keep the final frame in scrollback
	DisplayProgram = "program" // Full bubbletea program
)

// Config holds all testdeck configuration
type Config struct {
	// Worker defaults
	URL    string         `yaml:"url,omitempty"`    // Default URL for every test, overridden by $TESTDECK_URL
	Prompt string         `yaml:"prompt,omitempty"` // Default prompt, replaced by any group or test prompt
	Extra  map[string]any `yaml:"options,omitempty"`

	// Dashboard
	Model          string `yaml:"model"`
	Display        string `yaml:"display"`
	ShowThoughts   bool   `yaml:"show_thoughts"`
	ShowActions    bool   `yaml:"show_actions"`
	TickIntervalMs int    `yaml:"tick_interval_ms"`

	// Demo engine
	Workers int `yaml:"workers"`

	// Logging
	LogFile  string `yaml:"log_file"` // Relative paths are resolved against the config directory
	LogLevel string `yaml:"log_level"`

	// Prices override or extend the built-in model price table.
	Prices cost.Table `yaml:"prices,omitempty"`
}

// LoadConfig loads configuration from a YAML file. Fields missing from the file keep
// their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadDir loads dir/config.yaml, falling back to defaults when the file does not exist.
func LoadDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "config.yaml")
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Model:          "claude-sonnet-4",
		Display:        DisplayInline,
		ShowThoughts:   false,
		ShowActions:    true,
		TickIntervalMs: 100,
		Workers:        2,
		LogFile:        "testdeck.log",
		LogLevel:       "info",
	}
}

// ApplyEnv applies environment overrides. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if u := strings.TrimSpace(getenv(declare.URLEnvVar)); u != "" {
		c.URL = u
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if declare.IsRelativeRef(strings.TrimSpace(c.URL)) {
		return fmt.Errorf("url %q must be absolute", c.URL)
	}
	if c.Display != DisplayInline && c.Display != DisplayProgram {
		return fmt.Errorf("display must be %q or %q, got %q", DisplayInline, DisplayProgram, c.Display)
	}
	if c.TickIntervalMs <= 0 {
		return fmt.Errorf("tick_interval_ms must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be at least 1")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	for model, p := range c.Prices {
		if p.InputPerMillion < 0 || p.OutputPerMillion < 0 {
			return fmt.Errorf("price for %s must not be negative", model)
		}
	}
	return nil
}

// Defaults returns the worker-level options every declared test inherits.
func (c *Config) Defaults() declare.Options {
	return declare.Options{URL: c.URL, Prompt: c.Prompt, Extra: c.Extra}.Clone()
}

// Settings returns the dashboard display settings.
func (c *Config) Settings() render.Settings {
	return render.Settings{ShowThoughts: c.ShowThoughts, ShowActions: c.ShowActions}
}

// Costs returns the built-in price table with the configured prices applied.
func (c *Config) Costs() cost.Table {
	return cost.Default().Merge(c.Prices)
}

// TickInterval returns the spinner tick interval.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// LogPath returns the log file path, resolved against dir when relative.
func (c *Config) LogPath(dir string) string {
	if filepath.IsAbs(c.LogFile) {
		return c.LogFile
	}
	return filepath.Join(dir, c.LogFile)
}
