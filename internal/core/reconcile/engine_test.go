package reconcile

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/orchestra/internal/core/backlog"
)

func item(id, content string, status backlog.Status, position int) backlog.Item {
	return backlog.Item{ID: id, ScopeID: "scope", Content: content, Status: status, Position: position}
}

func parse(t *testing.T, doc string) []backlog.ParsedItem {
	t.Helper()
	return backlog.Parse(doc).Items
}

func TestReconcile_AddsUncheckedIgnoresChecked(t *testing.T) {
	preview := Reconcile(parse(t, "### [ ] Task A\n### [x] Task B\n"), nil)

	require.Len(t, preview.Adds, 1)
	assert.Equal(t, Add{Content: "Task A", LineNumber: 1, Position: 1}, preview.Adds[0])
	assert.Empty(t, preview.Updates)
	assert.Empty(t, preview.Removes)
	assert.Empty(t, preview.Conflicts)
	assert.Empty(t, preview.Unchanged)
}

func TestReconcile_FuzzyUpdate(t *testing.T) {
	persisted := []backlog.Item{item("1", "Add login page", backlog.StatusQueued, 1)}

	preview := Reconcile(parse(t, "### [ ] Add login pages\n"), persisted)

	require.Len(t, preview.Updates, 1)
	u := preview.Updates[0]
	assert.Equal(t, "1", u.Existing.ID())
	assert.Equal(t, "Add login pages", u.NewContent)
	assert.Equal(t, 1, u.LineNumber)
	assert.InDelta(t, 1-1.0/15.0, u.Similarity, 1e-9)
	assert.Empty(t, preview.Adds)
	assert.Empty(t, preview.Removes)
}

func TestReconcile_DescriptionChangeIsUpdate(t *testing.T) {
	persisted := []backlog.Item{item("1", "Task A", backlog.StatusQueued, 1)}
	persisted[0].Description = "old"

	preview := Reconcile(parse(t, "### [ ] Task A\nnew\n"), persisted)

	require.Len(t, preview.Updates, 1)
	assert.Equal(t, "new", preview.Updates[0].NewDescription)
	assert.InDelta(t, 1.0, preview.Updates[0].Similarity, 1e-9)
}

func TestReconcile_CaseOnlyChangeIsUpdate(t *testing.T) {
	// Similarity ignores case, but the stored title must still follow the document.
	persisted := []backlog.Item{item("1", "task a", backlog.StatusQueued, 1)}

	preview := Reconcile(parse(t, "### [ ] Task A\n"), persisted)

	assert.Empty(t, preview.Unchanged)
	require.Len(t, preview.Updates, 1)
	assert.Equal(t, "Task A", preview.Updates[0].NewContent)
}

func TestReconcile_ExactMatchUnchanged(t *testing.T) {
	persisted := []backlog.Item{item("1", "Task A", backlog.StatusQueued, 1)}

	preview := Reconcile(parse(t, "### [ ] Task A\n"), persisted)

	assert.False(t, preview.HasActions())
	assert.Equal(t, persisted, preview.Unchanged)
}

func TestReconcile_CompletedConflict(t *testing.T) {
	for _, status := range []backlog.Status{backlog.StatusDone, backlog.StatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			persisted := []backlog.Item{item("1", "Fix bug", status, 1)}

			preview := Reconcile(parse(t, "### [ ] Fix bug\ndetails\n"), persisted)

			require.Len(t, preview.Conflicts, 1)
			c := preview.Conflicts[0]
			assert.Equal(t, ReasonCompletedMatch, c.Reason)
			assert.Equal(t, "Fix bug", c.MarkdownContent)
			assert.Equal(t, "details", c.MarkdownDescription)
			assert.Equal(t, "1", c.Existing.ID)
			assert.Empty(t, preview.Adds)
			assert.Empty(t, preview.Unchanged)
		})
	}
}

func TestReconcile_ActiveConflict(t *testing.T) {
	for _, status := range []backlog.Status{backlog.StatusInProgress, backlog.StatusWaiting, backlog.StatusPROpen} {
		t.Run(string(status), func(t *testing.T) {
			persisted := []backlog.Item{item("1", "Refactor X", status, 1)}

			preview := Reconcile(parse(t, "### [ ] Refactor X\n"), persisted)

			require.Len(t, preview.Conflicts, 1)
			assert.Equal(t, ReasonActiveMatch, preview.Conflicts[0].Reason)
			assert.Empty(t, preview.Updates)
			assert.Empty(t, preview.Removes)
		})
	}
}

func TestReconcile_RemoveOnlyQueued(t *testing.T) {
	persisted := []backlog.Item{
		item("1", "Old", backlog.StatusQueued, 1),
		item("2", "Keep", backlog.StatusInProgress, 2),
		item("3", "Shipped", backlog.StatusDone, 3),
	}

	preview := Reconcile(parse(t, "# Nothing here\n"), persisted)

	require.Len(t, preview.Removes, 1)
	assert.Equal(t, "1", preview.Removes[0].Existing.ID())
	assert.Equal(t, []backlog.Item{persisted[1], persisted[2]}, preview.Unchanged)
}

func TestReconcile_EarliestLineClaimsFirst(t *testing.T) {
	persisted := []backlog.Item{
		item("1", "Deploy service", backlog.StatusQueued, 1),
		item("2", "Deploy services", backlog.StatusQueued, 2),
	}

	// Both lines match both items; the exact title on line 3 would prefer
	// item 1, but line 1 claims it first.
	doc := "### [ ] Deploy service!\n\n### [ ] Deploy service\n"
	preview := Reconcile(parse(t, doc), persisted)

	require.Len(t, preview.Updates, 2)
	assert.Equal(t, "1", preview.Updates[0].Existing.ID())
	assert.Equal(t, 1, preview.Updates[0].LineNumber)
	assert.Equal(t, "2", preview.Updates[1].Existing.ID())
	assert.Equal(t, 3, preview.Updates[1].LineNumber)
}

func TestReconcile_DocumentOrderDrivesClaims(t *testing.T) {
	persisted := []backlog.Item{item("1", "Task", backlog.StatusQueued, 1)}
	parsed := []backlog.ParsedItem{
		{Content: "Task", LineNumber: 9},
		{Content: "Tasks", LineNumber: 2},
	}

	preview := Reconcile(parsed, persisted)

	require.Len(t, preview.Updates, 1)
	assert.Equal(t, 2, preview.Updates[0].LineNumber)
	require.Len(t, preview.Adds, 1)
	assert.Equal(t, Add{Content: "Task", LineNumber: 9, Position: 2}, preview.Adds[0])
}

func TestReconcile_AddPositionsCountUncheckedOnly(t *testing.T) {
	doc := "### [x] Done\n### [ ] First\n### [x] Also done\n### [ ] Second\n"

	preview := Reconcile(parse(t, doc), nil)

	require.Len(t, preview.Adds, 2)
	assert.Equal(t, 1, preview.Adds[0].Position)
	assert.Equal(t, 2, preview.Adds[1].Position)
}

func TestReconcile_CheckedItemsNeverMatch(t *testing.T) {
	persisted := []backlog.Item{
		item("1", "Task A", backlog.StatusQueued, 1),
		item("2", "Task B", backlog.StatusDone, 2),
	}

	preview := Reconcile(parse(t, "### [x] Task A\n### [x] Task B\n"), persisted)

	assert.Empty(t, preview.Adds)
	assert.Empty(t, preview.Updates)
	assert.Empty(t, preview.Conflicts)
	require.Len(t, preview.Removes, 1)
	assert.Equal(t, "1", preview.Removes[0].Existing.ID())
	assert.Equal(t, []backlog.Item{persisted[1]}, preview.Unchanged)
}

func TestReconcile_DoesNotMutateInputs(t *testing.T) {
	parsed := []backlog.ParsedItem{
		{Content: "B", LineNumber: 5},
		{Content: "A", LineNumber: 1},
	}
	persisted := []backlog.Item{item("1", "A", backlog.StatusQueued, 1)}

	parsedCopy := slices.Clone(parsed)
	persistedCopy := slices.Clone(persisted)

	_ = Reconcile(parsed, persisted)

	assert.Equal(t, parsedCopy, parsed)
	assert.Equal(t, persistedCopy, persisted)
}

func TestReconcile_Deterministic(t *testing.T) {
	doc := mixedDocument()
	persisted := mixedSnapshot()

	first := Reconcile(parse(t, doc), persisted)
	for range 10 {
		assert.Equal(t, first, Reconcile(parse(t, doc), persisted))
	}
}

func TestReconcile_Invariants(t *testing.T) {
	preview := Reconcile(parse(t, mixedDocument()), mixedSnapshot())

	t.Run("every persisted item is classified exactly once", func(t *testing.T) {
		seen := map[string]int{}
		for _, u := range preview.Updates {
			seen[u.Existing.ID()]++
		}
		for _, r := range preview.Removes {
			seen[r.Existing.ID()]++
		}
		for _, c := range preview.Conflicts {
			seen[c.Existing.ID]++
		}
		for _, it := range preview.Unchanged {
			seen[it.ID]++
		}

		for _, it := range mixedSnapshot() {
			assert.Equal(t, 1, seen[it.ID], "item %s (%s)", it.ID, it.Content)
		}
		assert.Len(t, seen, len(mixedSnapshot()))
	})

	t.Run("checked entries appear nowhere", func(t *testing.T) {
		for _, a := range preview.Adds {
			assert.NotEqual(t, "Checked off", a.Content)
		}
		for _, c := range preview.Conflicts {
			assert.NotEqual(t, "Checked off", c.MarkdownContent)
		}
		for _, u := range preview.Updates {
			assert.NotEqual(t, "Checked off", u.NewContent)
		}
	})

	t.Run("active items are never updated or removed", func(t *testing.T) {
		for _, u := range preview.Updates {
			assert.Equal(t, backlog.ClassModifiable, u.Existing.Item().Status.Class())
		}
		for _, r := range preview.Removes {
			assert.Equal(t, backlog.ClassModifiable, r.Existing.Item().Status.Class())
		}
	})
}

func TestReconcile_Idempotent(t *testing.T) {
	doc := mixedDocument()
	persisted := mixedSnapshot()

	preview := Reconcile(parse(t, doc), persisted)
	plan := ApplyResolutions(preview, nil, backlog.MaxPosition(persisted))
	next := applyPlan(persisted, plan)

	again := Reconcile(parse(t, doc), next)

	assert.Empty(t, again.Adds)
	assert.Empty(t, again.Updates)
	assert.Empty(t, again.Removes)
	// Conflicts against non-modifiable items persist until their status changes.
	assert.Equal(t, len(preview.Conflicts), len(again.Conflicts))
}

func TestReconcile_IdempotentWithoutConflicts(t *testing.T) {
	doc := "### [ ] Alpha\nabout alpha\n### [ ] Beta\n### [x] Gamma\n"
	persisted := []backlog.Item{
		item("1", "Alpha", backlog.StatusQueued, 1),
		item("2", "Zeta", backlog.StatusQueued, 2),
	}

	preview := Reconcile(parse(t, doc), persisted)
	next := applyPlan(persisted, ApplyResolutions(preview, nil, backlog.MaxPosition(persisted)))

	again := Reconcile(parse(t, doc), next)
	assert.False(t, again.HasActions())
	assert.Len(t, again.Unchanged, len(next))
}

func mixedDocument() string {
	return `# Backlog

### [ ] Add login page
Users sign in with email.

### [ ] Fix crash on save
---
scratch notes

### [x] Checked off

### [ ] Refactor storage layer

### [ ] Brand new task
`
}

func mixedSnapshot() []backlog.Item {
	return []backlog.Item{
		item("q1", "Add login pages", backlog.StatusQueued, 1),
		item("q2", "Stale task", backlog.StatusQueued, 2),
		item("d1", "Fix crash on save", backlog.StatusDone, 3),
		item("a1", "Refactor storage layer", backlog.StatusInProgress, 4),
		item("a2", "Unrelated active work", backlog.StatusPROpen, 5),
		item("f1", "Old failure", backlog.StatusFailed, 6),
	}
}

// applyPlan simulates the store applying a plan to a snapshot.
func applyPlan(items []backlog.Item, plan Plan) []backlog.Item {
	out := slices.Clone(items)

	for _, r := range plan.Removes {
		out = slices.DeleteFunc(out, func(it backlog.Item) bool { return it.ID == r.Existing.ID() })
	}
	for _, u := range plan.Updates {
		for i := range out {
			if out[i].ID == u.Existing.ID() {
				out[i].Content = u.NewContent
				out[i].Description = u.NewDescription
			}
		}
	}
	for i, a := range plan.Adds {
		out = append(out, backlog.Item{
			ID:          fmt.Sprintf("new-%d", i),
			Content:     a.Content,
			Description: a.Description,
			Status:      backlog.StatusQueued,
			Position:    a.Position,
		})
	}

	return out
}
