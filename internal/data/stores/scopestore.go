package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/orchestra/internal/core/backlog"
	"github.com/colonyops/orchestra/internal/data/db"
)

// ScopeStore implements backlog.ScopeStore using SQLite.
type ScopeStore struct {
	db *db.DB
}

var _ backlog.ScopeStore = (*ScopeStore)(nil)

// NewScopeStore creates a new SQLite-backed scope store.
func NewScopeStore(db *db.DB) *ScopeStore {
	return &ScopeStore{db: db}
}

// CreateScope persists a new scope. Generates an ID and timestamps if unset.
func (s *ScopeStore) CreateScope(ctx context.Context, scope *backlog.Scope) error {
	if scope.ID == "" {
		scope.ID = uuid.NewString()
	}
	if scope.BacklogFile == "" {
		scope.BacklogFile = backlog.DefaultBacklogFile
	}
	now := time.Now()
	if scope.CreatedAt.IsZero() {
		scope.CreatedAt = now
	}
	if scope.UpdatedAt.IsZero() {
		scope.UpdatedAt = now
	}

	err := s.db.Queries().CreateScope(ctx, db.CreateScopeParams{
		ID:             scope.ID,
		Name:           scope.Name,
		RepositoryPath: scope.RepositoryPath,
		BacklogFile:    scope.BacklogFile,
		CreatedAt:      scope.CreatedAt.UnixNano(),
		UpdatedAt:      scope.UpdatedAt.UnixNano(),
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return backlog.ErrScopeExists
		}
		return fmt.Errorf("create scope: %w", err)
	}
	return nil
}

// GetScope returns a scope by ID or name.
func (s *ScopeStore) GetScope(ctx context.Context, idOrName string) (backlog.Scope, error) {
	row, err := s.db.Queries().GetScope(ctx, idOrName)
	if err != nil {
		if IsNotFoundError(err) {
			return backlog.Scope{}, backlog.ErrScopeNotFound
		}
		return backlog.Scope{}, fmt.Errorf("get scope: %w", err)
	}
	return rowToScope(row), nil
}

// ListScopes returns all scopes ordered by name.
func (s *ScopeStore) ListScopes(ctx context.Context) ([]backlog.Scope, error) {
	rows, err := s.db.Queries().ListScopes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}

	scopes := make([]backlog.Scope, 0, len(rows))
	for _, row := range rows {
		scopes = append(scopes, rowToScope(row))
	}
	return scopes, nil
}

// DeleteScope removes a scope; its items are removed by the foreign key cascade.
func (s *ScopeStore) DeleteScope(ctx context.Context, id string) error {
	n, err := s.db.Queries().DeleteScope(ctx, id)
	if err != nil {
		return fmt.Errorf("delete scope: %w", err)
	}
	if n == 0 {
		return backlog.ErrScopeNotFound
	}
	return nil
}

func rowToScope(row db.Scope) backlog.Scope {
	return backlog.Scope{
		ID:             row.ID,
		Name:           row.Name,
		RepositoryPath: row.RepositoryPath,
		BacklogFile:    row.BacklogFile,
		LastSyncedHash: fromNullString(row.LastSyncedHash),
		LastSyncedAt:   fromNullTime(row.LastSyncedAt),
		CreatedAt:      time.Unix(0, row.CreatedAt),
		UpdatedAt:      time.Unix(0, row.UpdatedAt),
	}
}
