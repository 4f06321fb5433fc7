package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/colonyops/orchestra/internal/orchestra"
)

// NewRootCommand builds the orchestra command tree with global flags bound
// to flags. The app pointer is filled in later by the caller's Before hook.
func NewRootCommand(flags *Flags, app *orchestra.App, version string) *cli.Command {
	root := &cli.Command{
		Name:      "orchestra",
		Usage:     "Sync backlog markdown documents into a persisted work queue",
		UsageText: "orchestra [global options] command [command options]",
		Description: `Orchestra keeps a repository's backlog.md and its persisted backlog items
in step.

Register a repository with 'orchestra scope add', inspect pending changes
with 'orchestra backlog preview', and apply them with 'orchestra backlog sync'.
Items that are being worked on are never changed by a sync.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("ORCHESTRA_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file",
				Sources:     cli.EnvVars("ORCHESTRA_LOG_FILE"),
				Value:       DefaultLogFile(),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("ORCHESTRA_CONFIG"),
				Value:       DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("ORCHESTRA_DATA_DIR"),
				Value:       DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
	}

	root = NewScopeCmd(flags, app).Register(root)
	root = NewBacklogCmd(flags, app).Register(root)
	root = NewDoctorCmd(flags, app).Register(root)

	return root
}
