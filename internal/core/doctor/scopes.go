package doctor

import (
	"context"
	"fmt"
	"os"

	"github.com/colonyops/orchestra/internal/core/backlog"
)

// ScopesCheck verifies that each scope's repository and backlog document
// exist, and flags documents edited since the last sync.
type ScopesCheck struct {
	scopes []backlog.Scope
}

// NewScopesCheck creates a new scopes check.
func NewScopesCheck(scopes []backlog.Scope) *ScopesCheck {
	return &ScopesCheck{scopes: scopes}
}

func (c *ScopesCheck) Name() string {
	return "Scopes"
}

func (c *ScopesCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if len(c.scopes) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "scopes",
			Status: StatusPass,
			Detail: "none registered",
		})
		return result
	}

	for _, scope := range c.scopes {
		result.Items = append(result.Items, checkScope(scope))
	}

	return result
}

func checkScope(scope backlog.Scope) CheckItem {
	item := CheckItem{Label: scope.Name}

	info, err := os.Stat(scope.RepositoryPath)
	switch {
	case os.IsNotExist(err):
		item.Status = StatusFail
		item.Detail = "repository path does not exist"
		return item
	case err != nil:
		item.Status = StatusFail
		item.Detail = fmt.Sprintf("repository inaccessible: %v", err)
		return item
	case !info.IsDir():
		item.Status = StatusFail
		item.Detail = "repository path is not a directory"
		return item
	}

	data, err := os.ReadFile(scope.BacklogPath())
	switch {
	case os.IsNotExist(err):
		item.Status = StatusWarn
		item.Detail = fmt.Sprintf("%s not found", scope.BacklogFile)
		return item
	case err != nil:
		item.Status = StatusFail
		item.Detail = fmt.Sprintf("read %s: %v", scope.BacklogFile, err)
		return item
	}

	switch {
	case !scope.HasSynced():
		item.Status = StatusWarn
		item.Detail = "never synced"
		item.Fixable = true
	case backlog.Fingerprint(string(data)) != scope.LastSyncedHash:
		item.Status = StatusWarn
		item.Detail = "document changed since last sync"
		item.Fixable = true
	default:
		item.Status = StatusPass
	}

	return item
}
