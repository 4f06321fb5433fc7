package orchestra

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/colonyops/orchestra/internal/core/backlog"
	"github.com/colonyops/orchestra/internal/core/config"
	"github.com/colonyops/orchestra/internal/core/doctor"
	"github.com/colonyops/orchestra/internal/data/db"
)

// scopeSyncer is the part of BacklogService autofix needs.
type scopeSyncer interface {
	Preview(ctx context.Context, scopeID string) (PreviewReport, error)
	Sync(ctx context.Context, scopeID string, req SyncRequest) (SyncResult, error)
}

// DoctorService runs health checks on the orchestra setup.
type DoctorService struct {
	scopes backlog.ScopeStore
	db     doctor.IntegrityChecker
	syncer scopeSyncer
	config *config.Config
}

// NewDoctorService creates a new DoctorService.
func NewDoctorService(scopes backlog.ScopeStore, database doctor.IntegrityChecker, syncer scopeSyncer, cfg *config.Config) *DoctorService {
	return &DoctorService{
		scopes: scopes,
		db:     database,
		syncer: syncer,
		config: cfg,
	}
}

// RunChecks executes all doctor checks and returns results. With autofix,
// scopes whose document is out of sync are synced when their preview has
// no conflicts.
func (d *DoctorService) RunChecks(ctx context.Context, configPath string, autofix bool) []doctor.Result {
	checks := []doctor.Check{
		doctor.NewConfigCheck(d.config, configPath),
		doctor.NewDatabaseCheck(d.db, filepath.Join(d.config.DataDir, db.FileName)),
	}

	scopes, err := d.scopes.ListScopes(ctx)
	if err != nil {
		results := doctor.RunAll(ctx, checks)
		return append(results, doctor.Result{
			Name:  "Scopes",
			Items: []doctor.CheckItem{{Label: "scopes", Status: doctor.StatusFail, Detail: err.Error(), StatusStr: string(doctor.StatusFail)}},
		})
	}

	scopesCheck := doctor.NewScopesCheck(scopes)
	checks = append(checks, scopesCheck)
	results := doctor.RunAll(ctx, checks)

	if autofix {
		for i := range results {
			if results[i].Name == scopesCheck.Name() {
				d.fixScopes(ctx, results[i].Items)
			}
		}
	}

	return results
}

func (d *DoctorService) fixScopes(ctx context.Context, items []doctor.CheckItem) {
	for i := range items {
		item := &items[i]
		if !item.Fixable || item.Status == doctor.StatusPass {
			continue
		}

		report, err := d.syncer.Preview(ctx, item.Label)
		if err != nil {
			item.Detail = fmt.Sprintf("%s; autofix failed: %v", item.Detail, err)
			continue
		}
		if n := len(report.Preview.Conflicts); n > 0 {
			item.Detail = fmt.Sprintf("%s; %d conflict(s) need a manual sync", item.Detail, n)
			continue
		}

		result, err := d.syncer.Sync(ctx, item.Label, SyncRequest{ExpectHash: report.CurrentHash})
		if err != nil {
			item.Detail = fmt.Sprintf("%s; autofix failed: %v", item.Detail, err)
			continue
		}

		item.Status = doctor.StatusPass
		item.StatusStr = string(doctor.StatusPass)
		item.Fixable = false
		item.Detail = fmt.Sprintf("synced (added %d, updated %d, removed %d)", result.Added, result.Updated, result.Removed)
	}
}
