package orchestra

import (
	"github.com/colonyops/orchestra/internal/core/backlog"
	"github.com/colonyops/orchestra/internal/core/reconcile"
)

// PreviewReport is the presentation shape of a sync preview.
type PreviewReport struct {
	Preview        PreviewBody `json:"preview"`
	CurrentHash    string      `json:"currentHash"`
	LastSyncedHash *string     `json:"lastSyncedHash"`
	HasChanges     bool        `json:"hasChanges"`
}

type PreviewBody struct {
	Adds           []AddView      `json:"adds"`
	Updates        []UpdateView   `json:"updates"`
	Removes        []RemoveView   `json:"removes"`
	Conflicts      []ConflictView `json:"conflicts"`
	UnchangedCount int            `json:"unchangedCount"`
}

type AddView struct {
	Content    string `json:"content"`
	LineNumber int    `json:"lineNumber"`
	Position   int    `json:"position"`
}

type UpdateView struct {
	ExistingItemID  string  `json:"existingItemId"`
	ExistingContent string  `json:"existingContent"`
	NewContent      string  `json:"newContent"`
	Similarity      float64 `json:"similarity"`
}

type RemoveView struct {
	ExistingItemID string `json:"existingItemId"`
	Content        string `json:"content"`
}

type ConflictView struct {
	ExistingItemID  string           `json:"existingItemId"`
	ExistingContent string           `json:"existingContent"`
	ExistingStatus  backlog.Status   `json:"existingStatus"`
	MarkdownContent string           `json:"markdownContent"`
	Similarity      float64          `json:"similarity"`
	Reason          reconcile.Reason `json:"reason"`
}

// NewPreviewReport builds the report for a preview computed from a
// document with fingerprint currentHash.
func NewPreviewReport(p reconcile.Preview, currentHash string, scope backlog.Scope) PreviewReport {
	body := PreviewBody{
		Adds:           make([]AddView, 0, len(p.Adds)),
		Updates:        make([]UpdateView, 0, len(p.Updates)),
		Removes:        make([]RemoveView, 0, len(p.Removes)),
		Conflicts:      make([]ConflictView, 0, len(p.Conflicts)),
		UnchangedCount: len(p.Unchanged),
	}

	for _, a := range p.Adds {
		body.Adds = append(body.Adds, AddView{Content: a.Content, LineNumber: a.LineNumber, Position: a.Position})
	}
	for _, u := range p.Updates {
		body.Updates = append(body.Updates, UpdateView{
			ExistingItemID:  u.Existing.ID(),
			ExistingContent: u.Existing.Item().Content,
			NewContent:      u.NewContent,
			Similarity:      u.Similarity,
		})
	}
	for _, r := range p.Removes {
		body.Removes = append(body.Removes, RemoveView{
			ExistingItemID: r.Existing.ID(),
			Content:        r.Existing.Item().Content,
		})
	}
	for _, c := range p.Conflicts {
		body.Conflicts = append(body.Conflicts, ConflictView{
			ExistingItemID:  c.Existing.ID,
			ExistingContent: c.Existing.Content,
			ExistingStatus:  c.Existing.Status,
			MarkdownContent: c.MarkdownContent,
			Similarity:      c.Similarity,
			Reason:          c.Reason,
		})
	}

	var last *string
	if scope.HasSynced() {
		h := scope.LastSyncedHash
		last = &h
	}

	return PreviewReport{
		Preview:        body,
		CurrentHash:    currentHash,
		LastSyncedHash: last,
		HasChanges:     last == nil || *last != currentHash || p.HasActions(),
	}
}

// SyncResult reports what a sync committed.
type SyncResult struct {
	Added             int    `json:"added"`
	Updated           int    `json:"updated"`
	Removed           int    `json:"removed"`
	SkippedConflicts  int    `json:"skippedConflicts"`
	RequeuedConflicts int    `json:"requeuedConflicts"`
	Hash              string `json:"hash"`
	// IgnoredResolutions lists conflict indexes that matched no conflict.
	IgnoredResolutions []int `json:"ignoredResolutions,omitempty"`
}

func newSyncResult(plan reconcile.Plan, hash string) SyncResult {
	return SyncResult{
		Added:              len(plan.Adds),
		Updated:            len(plan.Updates),
		Removed:            len(plan.Removes),
		SkippedConflicts:   plan.Skipped,
		RequeuedConflicts:  plan.Requeued,
		Hash:               hash,
		IgnoredResolutions: plan.Ignored,
	}
}
