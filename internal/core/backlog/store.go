package backlog

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a backlog item does not exist.
	ErrNotFound = errors.New("backlog item not found")
	// ErrScopeNotFound is returned when a scope does not exist.
	ErrScopeNotFound = errors.New("scope not found")
	// ErrScopeExists is returned when a scope name is already registered.
	ErrScopeExists = errors.New("scope already exists")
	// ErrDocumentNotFound is returned when a scope's backlog document is missing.
	ErrDocumentNotFound = errors.New("backlog document not found")
	// ErrInvalidStatus is returned for status strings outside the known set.
	ErrInvalidStatus = errors.New("invalid backlog status")
	// ErrSnapshotChanged is returned when the document or the persisted
	// backlog changed after the snapshot a sync was computed from was read.
	ErrSnapshotChanged = errors.New("backlog changed since it was read")
)

// NewItem describes an item to create in the QUEUED state.
type NewItem struct {
	Content     string
	Description string
	Position    int
}

// ContentEdit rewrites the markdown-owned text of an existing item.
type ContentEdit struct {
	ID          string
	Content     string
	Description string
}

// Changeset is the set of mutations produced by one sync. Deletes are
// applied first, then edits, then creates in slice order.
type Changeset struct {
	Deletes []string
	Edits   []ContentEdit
	Creates []NewItem
}

// IsEmpty reports whether the changeset carries no mutations.
func (c Changeset) IsEmpty() bool {
	return len(c.Deletes) == 0 && len(c.Edits) == 0 && len(c.Creates) == 0
}

// SyncMarker records the document fingerprint a changeset was derived from.
// PrevHash and PrevAt are the scope's marker as it was read when the
// changeset was computed; Apply only commits while they are still current.
type SyncMarker struct {
	Hash string
	At   time.Time

	PrevHash string
	PrevAt   *time.Time
}

// Store defines the interface for backlog item persistence.
type Store interface {
	// ListItems returns the items of a scope ordered by position ascending.
	ListItems(ctx context.Context, scopeID string) ([]Item, error)

	// GetItem returns a single item by ID.
	// Returns ErrNotFound if the item does not exist.
	GetItem(ctx context.Context, id string) (Item, error)

	// CreateItem persists a new item. ID, Status and timestamps are
	// populated when unset.
	CreateItem(ctx context.Context, item *Item) error

	// UpdateItemStatus changes the lifecycle status of an item.
	// Returns ErrNotFound if the item does not exist.
	UpdateItemStatus(ctx context.Context, id string, status Status) error

	// DeleteItem removes an item.
	// Returns ErrNotFound if the item does not exist.
	DeleteItem(ctx context.Context, id string) error

	// Apply commits a changeset and the scope's sync marker in a single
	// transaction. Either every mutation lands or none does. Deletes and
	// edits only apply to QUEUED items; if any target is missing or no
	// longer QUEUED, or the scope's sync marker no longer matches
	// marker.PrevHash and marker.PrevAt, the transaction is rolled back with
	// ErrSnapshotChanged.
	Apply(ctx context.Context, scopeID string, cs Changeset, marker SyncMarker) error
}

// ScopeStore defines the interface for scope persistence.
type ScopeStore interface {
	// CreateScope persists a new scope.
	// Returns ErrScopeExists if the name is already taken.
	CreateScope(ctx context.Context, scope *Scope) error

	// GetScope returns a scope by ID or name.
	// Returns ErrScopeNotFound if no scope matches.
	GetScope(ctx context.Context, idOrName string) (Scope, error)

	// ListScopes returns all scopes ordered by name.
	ListScopes(ctx context.Context) ([]Scope, error)

	// DeleteScope removes a scope and its items.
	// Returns ErrScopeNotFound if the scope does not exist.
	DeleteScope(ctx context.Context, id string) error
}
