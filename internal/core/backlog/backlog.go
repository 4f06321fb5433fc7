// Package backlog defines the backlog domain model: persisted items, the
// scopes that own them, the markdown document format, and the persistence
// interfaces the sync workflow depends on.
package backlog

import (
	"path/filepath"
	"time"
)

// DefaultBacklogFile is the document name read from a scope's repository
// when no explicit file is configured.
const DefaultBacklogFile = "backlog.md"

// Item is a persisted backlog item.
//
// Content and Description are owned by the markdown sync. Status, Position
// and the lifecycle fields (Assignee, Branch, PRURL) are owned by the
// workflow that executes items and are read-only to reconciliation.
type Item struct {
	ID          string    `json:"id"`
	ScopeID     string    `json:"scope_id"`
	Content     string    `json:"content"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Position    int       `json:"position"`
	Assignee    string    `json:"assignee,omitempty"`
	Branch      string    `json:"branch,omitempty"`
	PRURL       string    `json:"pr_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Queued is a handle to an item whose status permits reconciliation to
// rewrite or delete it. It can only be obtained through AsQueued.
type Queued struct {
	item Item
}

// AsQueued returns a Queued handle when item is in a modifiable status.
func AsQueued(item Item) (Queued, bool) {
	if item.Status.Class() != ClassModifiable {
		return Queued{}, false
	}
	return Queued{item: item}, true
}

// Item returns a copy of the underlying item.
func (q Queued) Item() Item {
	return q.item
}

// ID returns the underlying item's identifier.
func (q Queued) ID() string {
	return q.item.ID
}

// Scope is a repository whose backlog document is synced into a set of
// persisted items.
type Scope struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	RepositoryPath string     `json:"repository_path"`
	BacklogFile    string     `json:"backlog_file"`
	LastSyncedHash string     `json:"last_synced_hash,omitempty"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BacklogPath returns the absolute path of the scope's backlog document.
func (s Scope) BacklogPath() string {
	file := s.BacklogFile
	if file == "" {
		file = DefaultBacklogFile
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(s.RepositoryPath, file)
}

// HasSynced reports whether a sync has ever been applied to the scope.
func (s Scope) HasSynced() bool {
	return s.LastSyncedHash != ""
}

// MaxPosition returns the largest position among items, or 0 when empty.
func MaxPosition(items []Item) int {
	maxPos := 0
	for _, it := range items {
		maxPos = max(maxPos, it.Position)
	}
	return maxPos
}
