package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetScopeID(ctx))
	assert.Empty(t, GetSyncID(ctx))

	ctx = WithScopeID(ctx, "scope-1")
	ctx = WithSyncID(ctx, "sync-1")

	assert.Equal(t, "scope-1", GetScopeID(ctx))
	assert.Equal(t, "sync-1", GetSyncID(ctx))
}
