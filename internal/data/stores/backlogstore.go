package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/orchestra/internal/core/backlog"
	"github.com/colonyops/orchestra/internal/data/db"
)

// BacklogStore implements backlog.Store using SQLite.
type BacklogStore struct {
	db  *db.DB
	now func() time.Time
}

var _ backlog.Store = (*BacklogStore)(nil)

// NewBacklogStore creates a new SQLite-backed backlog store.
func NewBacklogStore(db *db.DB) *BacklogStore {
	return &BacklogStore{db: db, now: time.Now}
}

// ListItems returns the items of a scope ordered by position.
func (s *BacklogStore) ListItems(ctx context.Context, scopeID string) ([]backlog.Item, error) {
	rows, err := s.db.Queries().ListBacklogItemsByScope(ctx, scopeID)
	if err != nil {
		return nil, fmt.Errorf("list backlog items: %w", err)
	}

	items := make([]backlog.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToItem(row))
	}
	return items, nil
}

// GetItem returns a single item by ID.
func (s *BacklogStore) GetItem(ctx context.Context, id string) (backlog.Item, error) {
	row, err := s.db.Queries().GetBacklogItem(ctx, id)
	if err != nil {
		if IsNotFoundError(err) {
			return backlog.Item{}, backlog.ErrNotFound
		}
		return backlog.Item{}, fmt.Errorf("get backlog item: %w", err)
	}
	return rowToItem(row), nil
}

// CreateItem persists a new item, generating an ID and timestamps when unset.
func (s *BacklogStore) CreateItem(ctx context.Context, item *backlog.Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = backlog.StatusQueued
	}
	now := s.now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = now
	}

	if err := s.db.Queries().CreateBacklogItem(ctx, itemToParams(*item)); err != nil {
		return fmt.Errorf("create backlog item: %w", err)
	}
	return nil
}

// UpdateItemStatus changes the lifecycle status of an item.
func (s *BacklogStore) UpdateItemStatus(ctx context.Context, id string, status backlog.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("update backlog item status: %w: %q", backlog.ErrInvalidStatus, status)
	}

	n, err := s.db.Queries().UpdateBacklogItemStatus(ctx, db.UpdateBacklogItemStatusParams{
		Status:    string(status),
		UpdatedAt: s.now().UnixNano(),
		ID:        id,
	})
	if err != nil {
		return fmt.Errorf("update backlog item status: %w", err)
	}
	if n == 0 {
		return backlog.ErrNotFound
	}
	return nil
}

// DeleteItem removes an item.
func (s *BacklogStore) DeleteItem(ctx context.Context, id string) error {
	n, err := s.db.Queries().DeleteBacklogItem(ctx, id)
	if err != nil {
		return fmt.Errorf("delete backlog item: %w", err)
	}
	if n == 0 {
		return backlog.ErrNotFound
	}
	return nil
}

// Apply commits a changeset and the scope's sync marker atomically.
func (s *BacklogStore) Apply(ctx context.Context, scopeID string, cs backlog.Changeset, marker backlog.SyncMarker) error {
	now := s.now()

	err := s.db.WithTx(ctx, func(q *db.Queries) error {
		for _, id := range cs.Deletes {
			n, err := q.DeleteQueuedBacklogItem(ctx, id)
			if err != nil {
				return fmt.Errorf("delete backlog item %s: %w", id, err)
			}
			if n == 0 {
				return fmt.Errorf("delete backlog item %s: %w", id, backlog.ErrSnapshotChanged)
			}
		}

		for _, edit := range cs.Edits {
			n, err := q.UpdateBacklogItemContent(ctx, db.UpdateBacklogItemContentParams{
				Content:     edit.Content,
				Description: toNullString(edit.Description),
				UpdatedAt:   now.UnixNano(),
				ID:          edit.ID,
			})
			if err != nil {
				return fmt.Errorf("update backlog item %s: %w", edit.ID, err)
			}
			if n == 0 {
				return fmt.Errorf("update backlog item %s: %w", edit.ID, backlog.ErrSnapshotChanged)
			}
		}

		for _, create := range cs.Creates {
			item := backlog.Item{
				ID:          uuid.NewString(),
				ScopeID:     scopeID,
				Content:     create.Content,
				Description: create.Description,
				Status:      backlog.StatusQueued,
				Position:    create.Position,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := q.CreateBacklogItem(ctx, itemToParams(item)); err != nil {
				return fmt.Errorf("create backlog item: %w", err)
			}
		}

		at := marker.At
		n, err := q.UpdateScopeSyncMarker(ctx, db.UpdateScopeSyncMarkerParams{
			LastSyncedHash: toNullString(marker.Hash),
			LastSyncedAt:   toNullTime(&at),
			UpdatedAt:      now.UnixNano(),
			ID:             scopeID,
			PrevHash:       toNullString(marker.PrevHash),
			PrevAt:         toNullTime(marker.PrevAt),
		})
		if err != nil {
			return fmt.Errorf("update sync marker: %w", err)
		}
		if n == 0 {
			// another sync committed since the snapshot was read
			if _, err := q.GetScope(ctx, scopeID); err != nil {
				if IsNotFoundError(err) {
					return backlog.ErrScopeNotFound
				}
				return fmt.Errorf("get scope: %w", err)
			}
			return fmt.Errorf("update sync marker: %w", backlog.ErrSnapshotChanged)
		}

		return nil
	})
	if IsBusyError(err) {
		return fmt.Errorf("database is locked by another orchestra process, retry the sync: %w", err)
	}
	return err
}

func itemToParams(item backlog.Item) db.CreateBacklogItemParams {
	return db.CreateBacklogItemParams{
		ID:          item.ID,
		ScopeID:     item.ScopeID,
		Content:     item.Content,
		Description: toNullString(item.Description),
		Status:      string(item.Status),
		Position:    int64(item.Position),
		CreatedAt:   item.CreatedAt.UnixNano(),
		UpdatedAt:   item.UpdatedAt.UnixNano(),
		Assignee:    toNullString(item.Assignee),
		Branch:      toNullString(item.Branch),
		PrUrl:       toNullString(item.PRURL),
	}
}

func rowToItem(row db.BacklogItem) backlog.Item {
	return backlog.Item{
		ID:          row.ID,
		ScopeID:     row.ScopeID,
		Content:     row.Content,
		Description: fromNullString(row.Description),
		Status:      backlog.Status(row.Status),
		Position:    int(row.Position),
		Assignee:    fromNullString(row.Assignee),
		Branch:      fromNullString(row.Branch),
		PRURL:       fromNullString(row.PrUrl),
		CreatedAt:   time.Unix(0, row.CreatedAt),
		UpdatedAt:   time.Unix(0, row.UpdatedAt),
	}
}
