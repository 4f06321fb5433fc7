package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts scope_id and sync_id from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if scopeID := GetScopeID(ctx); scopeID != "" {
		e.Str("scope_id", scopeID)
	}

	if syncID := GetSyncID(ctx); syncID != "" {
		e.Str("sync_id", syncID)
	}
}
