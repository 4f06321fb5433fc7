// Package config handles configuration loading and validation for orchestra.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/orchestra/internal/core/styles"
)

// Config holds the application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Backlog  BacklogConfig  `yaml:"backlog"`
	Watch    WatchConfig    `yaml:"watch"`
	Theme    string         `yaml:"theme"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// BacklogConfig controls how backlog documents are located.
type BacklogConfig struct {
	// File is the default document name for new scopes, relative to the repository.
	File string `yaml:"file"`
	// DiscoverPattern is the doublestar glob used by `scope discover`.
	DiscoverPattern string `yaml:"discover_pattern"`
}

// WatchConfig controls `backlog watch`.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	// AutoApply syncs on change instead of only printing the preview.
	// Conflicts are always skipped when applying automatically.
	AutoApply bool `yaml:"auto_apply"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
		Backlog: BacklogConfig{
			File:            "backlog.md",
			DiscoverPattern: "**/backlog.md",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Theme: styles.DefaultTheme,
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Backlog.File == "" {
		c.Backlog.File = defaults.Backlog.File
	}
	if c.Backlog.DiscoverPattern == "" {
		c.Backlog.DiscoverPattern = defaults.Backlog.DiscoverPattern
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = defaults.Watch.Debounce
	}
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}

	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}

	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout cannot be negative")
	}

	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce cannot be negative")
	}

	if _, ok := styles.GetPalette(c.Theme); !ok {
		return fmt.Errorf("theme %q is not one of %v", c.Theme, styles.ThemeNames())
	}

	return nil
}
