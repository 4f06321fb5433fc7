package reconcile

import (
	"fmt"
	"slices"

	"github.com/colonyops/orchestra/internal/core/backlog"
)

// ResolutionAction is the user's decision for a conflict.
type ResolutionAction string

const (
	// ActionRequeue turns a completed_match conflict into a new item.
	ActionRequeue ResolutionAction = "requeue"
	// ActionSkip leaves the conflict's existing item as it is.
	ActionSkip ResolutionAction = "skip"
)

// IsValid reports whether a is a known action.
func (a ResolutionAction) IsValid() bool {
	return a == ActionRequeue || a == ActionSkip
}

// Resolution references a conflict by its index in one specific Preview.
// Indexes are not stable across recomputed previews.
type Resolution struct {
	ConflictIndex int              `json:"conflictIndex"`
	Action        ResolutionAction `json:"action"`
}

// Plan is the final set of mutations derived from a preview and its
// resolutions. Conflicts are consumed: requeued ones appear as adds, the
// rest are dropped.
type Plan struct {
	Adds    []Add
	Updates []Update
	Removes []Remove

	// Requeued counts resolutions that produced an add.
	Requeued int
	// Skipped counts conflicts that did not produce an add.
	Skipped int
	// Ignored lists resolution indexes that referenced no conflict.
	Ignored []int
}

// ApplyResolutions merges conflict resolutions into a preview's actions.
//
// A requeue of a completed_match conflict becomes an add carrying the
// markdown text and line. Requeues of active_match conflicts and skips have
// no effect. Resolutions whose index is outside the preview's conflicts are
// ignored and reported in Plan.Ignored.
//
// All adds, original and requeued, are ordered by line number and numbered
// sequentially after maxPosition, the highest position among the persisted
// items the preview was computed from.
func ApplyResolutions(preview Preview, resolutions []Resolution, maxPosition int) Plan {
	adds := slices.Clone(preview.Adds)

	plan := Plan{
		Updates: slices.Clone(preview.Updates),
		Removes: slices.Clone(preview.Removes),
	}

	for _, r := range resolutions {
		if r.ConflictIndex < 0 || r.ConflictIndex >= len(preview.Conflicts) {
			plan.Ignored = append(plan.Ignored, r.ConflictIndex)
			continue
		}

		c := preview.Conflicts[r.ConflictIndex]
		if r.Action != ActionRequeue || !c.Requeueable() {
			continue
		}

		adds = append(adds, Add{
			Content:     c.MarkdownContent,
			Description: c.MarkdownDescription,
			LineNumber:  c.LineNumber,
		})
		plan.Requeued++
	}

	slices.SortStableFunc(adds, func(a, b Add) int {
		return a.LineNumber - b.LineNumber
	})
	for i := range adds {
		adds[i].Position = maxPosition + i + 1
	}

	plan.Adds = adds
	plan.Skipped = max(len(preview.Conflicts)-plan.Requeued, 0)

	return plan
}

// Changeset converts the plan into store mutations: removes, then updates,
// then adds in position order.
func (p Plan) Changeset() backlog.Changeset {
	cs := backlog.Changeset{
		Deletes: make([]string, 0, len(p.Removes)),
		Edits:   make([]backlog.ContentEdit, 0, len(p.Updates)),
		Creates: make([]backlog.NewItem, 0, len(p.Adds)),
	}

	for _, r := range p.Removes {
		cs.Deletes = append(cs.Deletes, r.Existing.ID())
	}
	for _, u := range p.Updates {
		cs.Edits = append(cs.Edits, backlog.ContentEdit{
			ID:          u.Existing.ID(),
			Content:     u.NewContent,
			Description: u.NewDescription,
		})
	}
	for _, a := range p.Adds {
		cs.Creates = append(cs.Creates, backlog.NewItem{
			Content:     a.Content,
			Description: a.Description,
			Position:    a.Position,
		})
	}

	return cs
}

// String summarizes the plan for logs.
func (p Plan) String() string {
	return fmt.Sprintf("adds=%d updates=%d removes=%d requeued=%d skipped=%d",
		len(p.Adds), len(p.Updates), len(p.Removes), p.Requeued, p.Skipped)
}
