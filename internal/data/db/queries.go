package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// New binds queries to a connection or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries holds the typed statements for the schema.
type Queries struct {
	db DBTX
}

// WithTx returns a copy of q bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const scopeColumns = `id, name, repository_path, backlog_file, last_synced_hash, last_synced_at, created_at, updated_at`

func scanScope(row interface{ Scan(...any) error }) (Scope, error) {
	var s Scope
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.RepositoryPath,
		&s.BacklogFile,
		&s.LastSyncedHash,
		&s.LastSyncedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

const createScope = `-- name: CreateScope :exec
INSERT INTO scopes (id, name, repository_path, backlog_file, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`

type CreateScopeParams struct {
	ID             string
	Name           string
	RepositoryPath string
	BacklogFile    string
	CreatedAt      int64
	UpdatedAt      int64
}

func (q *Queries) CreateScope(ctx context.Context, arg CreateScopeParams) error {
	_, err := q.db.ExecContext(ctx, createScope,
		arg.ID,
		arg.Name,
		arg.RepositoryPath,
		arg.BacklogFile,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getScope = `-- name: GetScope :one
SELECT ` + scopeColumns + ` FROM scopes WHERE id = ? OR name = ? ORDER BY id = ? DESC LIMIT 1
`

func (q *Queries) GetScope(ctx context.Context, idOrName string) (Scope, error) {
	return scanScope(q.db.QueryRowContext(ctx, getScope, idOrName, idOrName, idOrName))
}

const listScopes = `-- name: ListScopes :many
SELECT ` + scopeColumns + ` FROM scopes ORDER BY name ASC
`

func (q *Queries) ListScopes(ctx context.Context) ([]Scope, error) {
	rows, err := q.db.QueryContext(ctx, listScopes)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Scope
	for rows.Next() {
		s, err := scanScope(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteScope = `-- name: DeleteScope :execrows
DELETE FROM scopes WHERE id = ?
`

func (q *Queries) DeleteScope(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteScope, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateScopeSyncMarker = `-- name: UpdateScopeSyncMarker :execrows
UPDATE scopes SET last_synced_hash = ?, last_synced_at = ?, updated_at = ?
WHERE id = ? AND last_synced_hash IS ? AND last_synced_at IS ?
`

type UpdateScopeSyncMarkerParams struct {
	LastSyncedHash sql.NullString
	LastSyncedAt   sql.NullInt64
	UpdatedAt      int64
	ID             string
	PrevHash       sql.NullString
	PrevAt         sql.NullInt64
}

func (q *Queries) UpdateScopeSyncMarker(ctx context.Context, arg UpdateScopeSyncMarkerParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateScopeSyncMarker,
		arg.LastSyncedHash,
		arg.LastSyncedAt,
		arg.UpdatedAt,
		arg.ID,
		arg.PrevHash,
		arg.PrevAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const itemColumns = `id, scope_id, content, description, status, position, created_at, updated_at, assignee, branch, pr_url`

func scanBacklogItem(row interface{ Scan(...any) error }) (BacklogItem, error) {
	var i BacklogItem
	err := row.Scan(
		&i.ID,
		&i.ScopeID,
		&i.Content,
		&i.Description,
		&i.Status,
		&i.Position,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.Assignee,
		&i.Branch,
		&i.PrUrl,
	)
	return i, err
}

const createBacklogItem = `-- name: CreateBacklogItem :exec
INSERT INTO backlog_items (id, scope_id, content, description, status, position, created_at, updated_at, assignee, branch, pr_url)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateBacklogItemParams struct {
	ID          string
	ScopeID     string
	Content     string
	Description sql.NullString
	Status      string
	Position    int64
	CreatedAt   int64
	UpdatedAt   int64
	Assignee    sql.NullString
	Branch      sql.NullString
	PrUrl       sql.NullString
}

func (q *Queries) CreateBacklogItem(ctx context.Context, arg CreateBacklogItemParams) error {
	_, err := q.db.ExecContext(ctx, createBacklogItem,
		arg.ID,
		arg.ScopeID,
		arg.Content,
		arg.Description,
		arg.Status,
		arg.Position,
		arg.CreatedAt,
		arg.UpdatedAt,
		arg.Assignee,
		arg.Branch,
		arg.PrUrl,
	)
	return err
}

const getBacklogItem = `-- name: GetBacklogItem :one
SELECT ` + itemColumns + ` FROM backlog_items WHERE id = ?
`

func (q *Queries) GetBacklogItem(ctx context.Context, id string) (BacklogItem, error) {
	return scanBacklogItem(q.db.QueryRowContext(ctx, getBacklogItem, id))
}

const listBacklogItemsByScope = `-- name: ListBacklogItemsByScope :many
SELECT ` + itemColumns + ` FROM backlog_items WHERE scope_id = ? ORDER BY position ASC, created_at ASC
`

func (q *Queries) ListBacklogItemsByScope(ctx context.Context, scopeID string) ([]BacklogItem, error) {
	rows, err := q.db.QueryContext(ctx, listBacklogItemsByScope, scopeID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []BacklogItem
	for rows.Next() {
		i, err := scanBacklogItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateBacklogItemContent = `-- name: UpdateBacklogItemContent :execrows
UPDATE backlog_items SET content = ?, description = ?, updated_at = ? WHERE id = ? AND status = 'QUEUED'
`

type UpdateBacklogItemContentParams struct {
	Content     string
	Description sql.NullString
	UpdatedAt   int64
	ID          string
}

// UpdateBacklogItemContent only touches QUEUED rows; zero affected rows means
// the item vanished or left the queue after the snapshot was taken.
func (q *Queries) UpdateBacklogItemContent(ctx context.Context, arg UpdateBacklogItemContentParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateBacklogItemContent,
		arg.Content,
		arg.Description,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateBacklogItemStatus = `-- name: UpdateBacklogItemStatus :execrows
UPDATE backlog_items SET status = ?, updated_at = ? WHERE id = ?
`

type UpdateBacklogItemStatusParams struct {
	Status    string
	UpdatedAt int64
	ID        string
}

func (q *Queries) UpdateBacklogItemStatus(ctx context.Context, arg UpdateBacklogItemStatusParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateBacklogItemStatus, arg.Status, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteBacklogItem = `-- name: DeleteBacklogItem :execrows
DELETE FROM backlog_items WHERE id = ?
`

func (q *Queries) DeleteBacklogItem(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteBacklogItem, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteQueuedBacklogItem = `-- name: DeleteQueuedBacklogItem :execrows
DELETE FROM backlog_items WHERE id = ? AND status = 'QUEUED'
`

// DeleteQueuedBacklogItem removes a row only while it is still QUEUED.
func (q *Queries) DeleteQueuedBacklogItem(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteQueuedBacklogItem, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
