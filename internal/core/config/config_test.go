package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load("", dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 5000, cfg.Database.BusyTimeout)
	assert.Equal(t, "backlog.md", cfg.Backlog.File)
	assert.Equal(t, "**/backlog.md", cfg.Backlog.DiscoverPattern)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.False(t, cfg.Watch.AutoApply)
	assert.Equal(t, "tokyo-night", cfg.Theme)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Backlog, cfg.Backlog)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
database:
  max_open_conns: 4
backlog:
  file: docs/TODO.md
  discover_pattern: "*/docs/TODO.md"
watch:
  debounce: 2s
  auto_apply: true
theme: gruvbox
`)
	dataDir := t.TempDir()

	cfg, err := Load(path, dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir, "data dir comes from the caller")
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns, "unset keys keep defaults")
	assert.Equal(t, "docs/TODO.md", cfg.Backlog.File)
	assert.Equal(t, "*/docs/TODO.md", cfg.Backlog.DiscoverPattern)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.True(t, cfg.Watch.AutoApply)
	assert.Equal(t, "gruvbox", cfg.Theme)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "database: [unclosed")

	_, err := Load(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty data dir", mutate: func(c *Config) { c.DataDir = "" }, wantErr: "data directory"},
		{name: "no open conns", mutate: func(c *Config) { c.Database.MaxOpenConns = 0 }, wantErr: "max_open_conns"},
		{name: "negative idle conns", mutate: func(c *Config) { c.Database.MaxIdleConns = -1 }, wantErr: "max_idle_conns"},
		{name: "negative busy timeout", mutate: func(c *Config) { c.Database.BusyTimeout = -1 }, wantErr: "busy_timeout"},
		{name: "negative debounce", mutate: func(c *Config) { c.Watch.Debounce = -time.Second }, wantErr: "debounce"},
		{name: "unknown theme", mutate: func(c *Config) { c.Theme = "neon" }, wantErr: "theme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = t.TempDir()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateDeep(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DataDir = t.TempDir()
		assert.NoError(t, cfg.ValidateDeep(""))
	})

	t.Run("data dir is a file", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DataDir = writeConfig(t, "")

		err := cfg.ValidateDeep("")

		var fieldErrs criterio.FieldErrors
		require.ErrorAs(t, err, &fieldErrs)
		require.Len(t, fieldErrs, 1)
		assert.Equal(t, "data_dir", fieldErrs[0].Field)
	})

	t.Run("config path is a directory", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DataDir = t.TempDir()

		err := cfg.ValidateDeep(t.TempDir())

		var fieldErrs criterio.FieldErrors
		require.ErrorAs(t, err, &fieldErrs)
		assert.Equal(t, "config_file", fieldErrs[0].Field)
	})

	t.Run("bad backlog settings", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DataDir = t.TempDir()
		cfg.Backlog.File = "/abs/backlog.md"
		cfg.Backlog.DiscoverPattern = "[unclosed"

		err := cfg.ValidateDeep("")

		var fieldErrs criterio.FieldErrors
		require.ErrorAs(t, err, &fieldErrs)
		require.Len(t, fieldErrs, 2)
		assert.Equal(t, "backlog.file", fieldErrs[0].Field)
		assert.Equal(t, "backlog.discover_pattern", fieldErrs[1].Field)
	})
}

func TestWarnings(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.Warnings())

	cfg.Database.MaxIdleConns = 20
	cfg.Watch.AutoApply = true

	warnings := cfg.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, "Database", warnings[0].Category)
	assert.Equal(t, "Watch", warnings[1].Category)
}
