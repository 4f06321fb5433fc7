package stores

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/orchestra/internal/core/backlog"
)

func TestScopeStore_CreateAndGet(t *testing.T) {
	store := NewScopeStore(openTestDB(t))
	ctx := context.Background()

	scope := backlog.Scope{Name: "api", RepositoryPath: "/src/api"}
	require.NoError(t, store.CreateScope(ctx, &scope))
	assert.NotEmpty(t, scope.ID)
	assert.Equal(t, backlog.DefaultBacklogFile, scope.BacklogFile)

	t.Run("by id", func(t *testing.T) {
		got, err := store.GetScope(ctx, scope.ID)
		require.NoError(t, err)
		assert.Equal(t, "api", got.Name)
		assert.Equal(t, "/src/api", got.RepositoryPath)
		assert.False(t, got.HasSynced())
		assert.Nil(t, got.LastSyncedAt)
	})

	t.Run("by name", func(t *testing.T) {
		got, err := store.GetScope(ctx, "api")
		require.NoError(t, err)
		assert.Equal(t, scope.ID, got.ID)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := store.GetScope(ctx, "nope")
		assert.ErrorIs(t, err, backlog.ErrScopeNotFound)
	})
}

func TestScopeStore_GetScope_PrefersIDOverName(t *testing.T) {
	store := NewScopeStore(openTestDB(t))
	ctx := context.Background()

	id := uuid.NewString()

	// inserted first so it comes first in table order
	shadow := backlog.Scope{Name: id, RepositoryPath: "/shadow"}
	require.NoError(t, store.CreateScope(ctx, &shadow))

	target := backlog.Scope{ID: id, Name: "api", RepositoryPath: "/src/api"}
	require.NoError(t, store.CreateScope(ctx, &target))

	got, err := store.GetScope(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "/src/api", got.RepositoryPath)
}

func TestScopeStore_CreateScope_DuplicateName(t *testing.T) {
	store := NewScopeStore(openTestDB(t))
	ctx := context.Background()

	first := backlog.Scope{Name: "api", RepositoryPath: "/a"}
	require.NoError(t, store.CreateScope(ctx, &first))

	second := backlog.Scope{Name: "api", RepositoryPath: "/b"}
	assert.ErrorIs(t, store.CreateScope(ctx, &second), backlog.ErrScopeExists)
}

func TestScopeStore_ListScopes(t *testing.T) {
	store := NewScopeStore(openTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"web", "api", "cli"} {
		s := backlog.Scope{Name: name, RepositoryPath: "/" + name}
		require.NoError(t, store.CreateScope(ctx, &s))
	}

	scopes, err := store.ListScopes(ctx)
	require.NoError(t, err)
	require.Len(t, scopes, 3)
	assert.Equal(t, "api", scopes[0].Name)
	assert.Equal(t, "cli", scopes[1].Name)
	assert.Equal(t, "web", scopes[2].Name)
}

func TestScopeStore_DeleteScope_CascadesItems(t *testing.T) {
	database := openTestDB(t)
	store := NewScopeStore(database)
	items := NewBacklogStore(database)
	ctx := context.Background()

	scope := createTestScope(t, database, "demo")
	item := backlog.Item{ScopeID: scope.ID, Content: "Task", Position: 1}
	require.NoError(t, items.CreateItem(ctx, &item))

	require.NoError(t, store.DeleteScope(ctx, scope.ID))

	_, err := items.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, backlog.ErrNotFound)

	assert.ErrorIs(t, store.DeleteScope(ctx, scope.ID), backlog.ErrScopeNotFound)
}
