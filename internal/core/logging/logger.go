package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// ScopeComponent is Component with the scope_id field attached, for
// long-lived loggers that serve a single scope such as a watcher.
func ScopeComponent(name, scopeID string) zerolog.Logger {
	return log.With().Str("cmp", name).Str("scope_id", scopeID).Logger()
}
