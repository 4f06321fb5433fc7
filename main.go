package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/orchestra/internal/commands"
	"github.com/colonyops/orchestra/internal/core/config"
	"github.com/colonyops/orchestra/internal/core/eventbus"
	"github.com/colonyops/orchestra/internal/core/logging"
	"github.com/colonyops/orchestra/internal/core/styles"
	"github.com/colonyops/orchestra/internal/data/db"
	"github.com/colonyops/orchestra/internal/data/stores"
	"github.com/colonyops/orchestra/internal/orchestra"
	"github.com/colonyops/orchestra/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

// openDatabase opens the state database, moving a corrupt file aside and
// starting fresh when SQLite reports corruption.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	opts := db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}

	database, err := db.Open(cfg.DataDir, opts)
	if err == nil || !stores.IsCorruptionError(err) {
		return database, err
	}

	backup, recoverErr := stores.RecoverFromCorruption(cfg.DataDir)
	if recoverErr != nil {
		return nil, fmt.Errorf("recover corrupt database: %w (open: %w)", recoverErr, err)
	}
	log.Warn().Err(err).Str("backup", backup).Msg("database was corrupt; moved aside and recreated")

	return db.Open(cfg.DataDir, opts)
}

func main() {
	ctx := context.Background()

	var (
		logCloser  func()
		app        = &orchestra.App{}
		database   *db.DB
		stopEvents context.CancelFunc
	)

	flags := &commands.Flags{}

	root := commands.NewRootCommand(flags, app, build())
	root.Before = func(ctx context.Context, c *cli.Command) (context.Context, error) {
		logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
		if err != nil {
			return ctx, fmt.Errorf("setup logger: %w", err)
		}
		log.Logger = logger.Hook(logging.ContextHook{})
		logCloser = closer

		cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
		if err != nil {
			return ctx, fmt.Errorf("load config: %w", err)
		}
		flags.Config = cfg

		// Apply configured theme (validation ensures name is valid)
		palette, _ := styles.GetPalette(cfg.Theme)
		styles.SetTheme(palette)

		database, err = openDatabase(cfg)
		if err != nil {
			return ctx, fmt.Errorf("open database: %w", err)
		}

		bus := eventbus.New(64)
		eventbus.RegisterDebugLogger(bus, logging.Component("eventbus"))
		eventbus.NewNotificationRouter(bus).Register()

		busCtx, cancel := context.WithCancel(context.Background())
		stopEvents = cancel
		go bus.Start(busCtx)

		// Populate the pre-allocated App struct (commands already hold a pointer to it)
		*app = *orchestra.NewApp(cfg, database, bus, logging.Component("orchestra"))

		return ctx, nil
	}
	root.After = func(ctx context.Context, c *cli.Command) error {
		if stopEvents != nil {
			stopEvents()
		}

		if database != nil {
			if err := database.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close database")
				return err
			}
		}

		if logCloser != nil {
			logCloser()
		}
		return nil
	}

	exitCode := 0
	runErr := root.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
