package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// glob syntax and file accessibility. The configPath argument specifies the
// config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateBacklog(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		warnings = append(warnings, ValidationWarning{
			Category: "Database",
			Item:     "max_idle_conns",
			Message:  "max_idle_conns exceeds max_open_conns and will be capped",
		})
	}

	if c.Watch.AutoApply {
		warnings = append(warnings, ValidationWarning{
			Category: "Watch",
			Item:     "auto_apply",
			Message:  "watch syncs without confirmation; previews with conflicts still need a manual sync",
		})
	}

	return warnings
}

// validateFileAccess checks config file and data directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

// validateBacklog checks the document name and discovery glob.
func (c *Config) validateBacklog() error {
	var errs criterio.FieldErrorsBuilder

	if filepath.IsAbs(c.Backlog.File) {
		errs = errs.Append("backlog.file", fmt.Errorf("must be relative to the repository: %s", c.Backlog.File))
	}
	if strings.HasSuffix(c.Backlog.File, "/") {
		errs = errs.Append("backlog.file", fmt.Errorf("must name a file: %s", c.Backlog.File))
	}

	if !doublestar.ValidatePattern(c.Backlog.DiscoverPattern) {
		errs = errs.Append("backlog.discover_pattern", fmt.Errorf("invalid glob %q", c.Backlog.DiscoverPattern))
	}

	return errs.ToError()
}
