package doctor

import (
	"context"
	"fmt"
)

// IntegrityChecker reports database corruption.
type IntegrityChecker interface {
	IntegrityCheck(ctx context.Context) error
}

// DatabaseCheck runs SQLite's integrity check against the state database.
type DatabaseCheck struct {
	db   IntegrityChecker
	path string
}

// NewDatabaseCheck creates a new database check.
func NewDatabaseCheck(db IntegrityChecker, path string) *DatabaseCheck {
	return &DatabaseCheck{db: db, path: path}
}

func (c *DatabaseCheck) Name() string {
	return "Database"
}

func (c *DatabaseCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if err := c.db.IntegrityCheck(ctx); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  c.path,
			Status: StatusFail,
			Detail: fmt.Sprintf("integrity check failed: %v", err),
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{Label: c.path, Status: StatusPass})
	return result
}
