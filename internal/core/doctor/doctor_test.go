package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/orchestra/internal/core/backlog"
	"github.com/colonyops/orchestra/internal/core/config"
)

type fakeIntegrity struct{ err error }

func (f fakeIntegrity) IntegrityCheck(context.Context) error { return f.err }

func TestRunAll_FillsStatusStrings(t *testing.T) {
	results := RunAll(context.Background(), []Check{
		NewDatabaseCheck(fakeIntegrity{}, "orchestra.db"),
		NewDatabaseCheck(fakeIntegrity{err: errors.New("page 4 malformed")}, "broken.db"),
	})

	require.Len(t, results, 2)
	assert.Equal(t, "pass", results[0].Items[0].StatusStr)
	assert.Equal(t, "fail", results[1].Items[0].StatusStr)
	assert.Contains(t, results[1].Items[0].Detail, "page 4 malformed")

	passed, warned, failed := Summary(results)
	assert.Equal(t, 1, passed)
	assert.Equal(t, 0, warned)
	assert.Equal(t, 1, failed)
}

func TestConfigCheck(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.DataDir = t.TempDir()

		result := NewConfigCheck(&cfg, "").Run(context.Background())
		require.Len(t, result.Items, 1)
		assert.Equal(t, StatusPass, result.Items[0].Status)
	})

	t.Run("field errors", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.DataDir = t.TempDir()
		cfg.Backlog.DiscoverPattern = "[unclosed"

		result := NewConfigCheck(&cfg, "").Run(context.Background())
		require.Len(t, result.Items, 1)
		assert.Equal(t, StatusFail, result.Items[0].Status)
		assert.Equal(t, "backlog.discover_pattern", result.Items[0].Label)
	})

	t.Run("warnings", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.DataDir = t.TempDir()
		cfg.Watch.AutoApply = true

		result := NewConfigCheck(&cfg, "").Run(context.Background())
		require.Len(t, result.Items, 1)
		assert.Equal(t, StatusWarn, result.Items[0].Status)
		assert.Equal(t, "Watch.auto_apply", result.Items[0].Label)
	})
}

func TestScopesCheck(t *testing.T) {
	repo := t.TempDir()
	doc := "### [ ] Task\n"
	require.NoError(t, os.WriteFile(filepath.Join(repo, "backlog.md"), []byte(doc), 0o644))

	now := time.Now()
	scopes := []backlog.Scope{
		{Name: "synced", RepositoryPath: repo, BacklogFile: "backlog.md", LastSyncedHash: backlog.Fingerprint(doc), LastSyncedAt: &now},
		{Name: "drifted", RepositoryPath: repo, BacklogFile: "backlog.md", LastSyncedHash: "stale", LastSyncedAt: &now},
		{Name: "fresh", RepositoryPath: repo, BacklogFile: "backlog.md"},
		{Name: "no-doc", RepositoryPath: repo, BacklogFile: "missing.md"},
		{Name: "no-repo", RepositoryPath: filepath.Join(repo, "nope"), BacklogFile: "backlog.md"},
	}

	result := NewScopesCheck(scopes).Run(context.Background())
	require.Len(t, result.Items, 5)

	assert.Equal(t, StatusPass, result.Items[0].Status)
	assert.Equal(t, StatusWarn, result.Items[1].Status)
	assert.Contains(t, result.Items[1].Detail, "changed since last sync")
	assert.Equal(t, StatusWarn, result.Items[2].Status)
	assert.Contains(t, result.Items[2].Detail, "never synced")
	assert.True(t, result.Items[1].Fixable)
	assert.True(t, result.Items[2].Fixable)
	assert.False(t, result.Items[3].Fixable)
	assert.Equal(t, StatusWarn, result.Items[3].Status)
	assert.Contains(t, result.Items[3].Detail, "not found")
	assert.Equal(t, StatusFail, result.Items[4].Status)
}

func TestScopesCheck_NoneRegistered(t *testing.T) {
	result := NewScopesCheck(nil).Run(context.Background())
	require.Len(t, result.Items, 1)
	assert.Equal(t, StatusPass, result.Items[0].Status)
	assert.Contains(t, result.Items[0].Detail, "none registered")
}

func TestCountFixable(t *testing.T) {
	results := []Result{{Items: []CheckItem{
		{Status: StatusWarn, Fixable: true},
		{Status: StatusPass, Fixable: true},
		{Status: StatusFail},
	}}}
	assert.Equal(t, 1, CountFixable(results))
}
