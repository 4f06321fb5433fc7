package db

import "database/sql"

// Scope is a row of the scopes table.
type Scope struct {
	ID             string
	Name           string
	RepositoryPath string
	BacklogFile    string
	LastSyncedHash sql.NullString
	LastSyncedAt   sql.NullInt64
	CreatedAt      int64
	UpdatedAt      int64
}

// BacklogItem is a row of the backlog_items table.
type BacklogItem struct {
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
