package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/orchestra/internal/core/backlog"
	"github.com/colonyops/orchestra/internal/core/reconcile"
	"github.com/colonyops/orchestra/internal/orchestra"
)

func TestFlagResolutions(t *testing.T) {
	got := flagResolutions([]int{2, 0}, []int{1})

	assert.Equal(t, []reconcile.Resolution{
		{ConflictIndex: 2, Action: reconcile.ActionRequeue},
		{ConflictIndex: 0, Action: reconcile.ActionRequeue},
		{ConflictIndex: 1, Action: reconcile.ActionSkip},
	}, got)

	assert.Empty(t, flagResolutions(nil, nil))
}

func TestItemMarkdown(t *testing.T) {
	tests := []struct {
		name string
		item backlog.Item
		want string
	}{
		{
			name: "content only",
			item: backlog.Item{Content: "Add login"},
			want: "## Add login\n",
		},
		{
			name: "with description",
			item: backlog.Item{Content: "Add login", Description: "Use SSO.\n\n- Google"},
			want: "## Add login\n\nUse SSO.\n\n- Google\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, itemMarkdown(tt.item))
		})
	}
}

func TestRenderPreview(t *testing.T) {
	last := "0123456789abcdef"
	report := orchestra.PreviewReport{
		CurrentHash:    "fedcba9876543210",
		LastSyncedHash: &last,
		HasChanges:     true,
		Preview: orchestra.PreviewBody{
			Adds:    []orchestra.AddView{{Content: "Brand new", LineNumber: 4, Position: 3}},
			Updates: []orchestra.UpdateView{{ExistingContent: "Add login page", NewContent: "Add login pages", Similarity: 0.93}},
			Removes: []orchestra.RemoveView{{Content: "Obsolete"}},
			Conflicts: []orchestra.ConflictView{
				{MarkdownContent: "Ship it", ExistingContent: "Ship it", ExistingStatus: backlog.StatusDone, Reason: reconcile.ReasonCompletedMatch},
				{MarkdownContent: "Refactor", ExistingContent: "Refactor", ExistingStatus: backlog.StatusInProgress, Reason: reconcile.ReasonActiveMatch},
			},
			UnchangedCount: 2,
		},
	}

	var buf bytes.Buffer
	renderPreview(&buf, "api", report)
	out := buf.String()

	assert.Contains(t, out, "Backlog preview: api")
	assert.Contains(t, out, "document fedcba987654, last synced 0123456789ab")
	assert.Contains(t, out, "Brand new")
	assert.Contains(t, out, "(line 4, position 3)")
	assert.Contains(t, out, "Add login pages")
	assert.Contains(t, out, "(0.93)")
	assert.Contains(t, out, "Obsolete")
	assert.Contains(t, out, "--requeue 0")
	assert.Contains(t, out, "left untouched")
	assert.Contains(t, out, "2 unchanged")
	assert.Contains(t, out, "2 conflicts")
}

func TestRenderPreview_UpToDate(t *testing.T) {
	var buf bytes.Buffer
	renderPreview(&buf, "api", orchestra.PreviewReport{CurrentHash: "abc"})

	assert.Contains(t, buf.String(), "never synced")
	assert.Contains(t, buf.String(), "Up to date")
}

func TestRenderSyncResult(t *testing.T) {
	var buf bytes.Buffer
	renderSyncResult(&buf, "api", orchestra.SyncResult{
		Added:              1,
		Updated:            2,
		Removed:            3,
		RequeuedConflicts:  1,
		SkippedConflicts:   4,
		IgnoredResolutions: []int{9},
	})

	assert.Contains(t, buf.String(), "api synced")
	assert.Contains(t, buf.String(), "added 1, updated 2, removed 3, requeued 1, skipped 4")
	assert.Contains(t, buf.String(), "[9]")
}
