package logging

import "context"

type contextKey string

const (
	scopeIDKey contextKey = "scope_id"
	syncIDKey  contextKey = "sync_id"
)

// WithScopeID adds a scope ID to the context.
func WithScopeID(ctx context.Context, scopeID string) context.Context {
	return context.WithValue(ctx, scopeIDKey, scopeID)
}

// WithSyncID adds a sync run ID to the context.
func WithSyncID(ctx context.Context, syncID string) context.Context {
	return context.WithValue(ctx, syncIDKey, syncID)
}

// GetScopeID retrieves the scope ID from the context.
// Returns empty string if not present.
func GetScopeID(ctx context.Context) string {
	if id, ok := ctx.Value(scopeIDKey).(string); ok {
		return id
	}
	return ""
}

// GetSyncID retrieves the sync run ID from the context.
// Returns empty string if not present.
func GetSyncID(ctx context.Context) string {
	if id, ok := ctx.Value(syncIDKey).(string); ok {
		return id
	}
	return ""
}
