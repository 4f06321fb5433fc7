package orchestra

import (
	"github.com/rs/zerolog"

	"github.com/colonyops/orchestra/internal/core/config"
	"github.com/colonyops/orchestra/internal/core/eventbus"
	"github.com/colonyops/orchestra/internal/data/db"
	"github.com/colonyops/orchestra/internal/data/stores"
)

// App is the central entry point for all orchestra operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Backlog *BacklogService
	Scopes  *ScopeService
	Doctor  *DoctorService

	Config *config.Config
	DB     *db.DB
	Bus    *eventbus.EventBus
}

// NewApp wires the SQLite stores and services around an open database.
func NewApp(cfg *config.Config, database *db.DB, bus *eventbus.EventBus, log zerolog.Logger) *App {
	items := stores.NewBacklogStore(database)
	scopes := stores.NewScopeStore(database)

	backlogSvc := NewBacklogService(items, scopes, FileReader{}, bus, log)

	return &App{
		Backlog: backlogSvc,
		Scopes:  NewScopeService(scopes, bus, log, cfg.Backlog.File, cfg.Backlog.DiscoverPattern),
		Doctor:  NewDoctorService(scopes, database, backlogSvc, cfg),
		Config:  cfg,
		DB:      database,
		Bus:     bus,
	}
}

