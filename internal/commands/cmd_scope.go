package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/orchestra/internal/orchestra"
	"github.com/colonyops/orchestra/pkg/iojson"
)

// ScopeCmd implements the orchestra scope command group.
type ScopeCmd struct {
	flags *Flags
	app   *orchestra.App

	// add flags
	addName string
	addFile string
}

// NewScopeCmd creates a new scope command.
func NewScopeCmd(flags *Flags, app *orchestra.App) *ScopeCmd {
	return &ScopeCmd{flags: flags, app: app}
}

// Register adds the scope command to the application.
func (cmd *ScopeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "scope",
		Usage: "Manage repositories whose backlog documents are synced",
		Description: `A scope pairs a repository with its backlog markdown document.

Examples:
  orchestra scope add ./api                   # register ./api as scope "api"
  orchestra scope add --name web --file docs/TODO.md ./web
  orchestra scope ls
  orchestra scope discover ~/src              # register every backlog.md below ~/src
  orchestra scope rm api`,
		Commands: []*cli.Command{
			cmd.addCmd(),
			cmd.listCmd(),
			cmd.removeCmd(),
			cmd.discoverCmd(),
		},
	})

	return app
}

func (cmd *ScopeCmd) addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Register a repository as a scope",
		UsageText: "orchestra scope add [--name <name>] [--file <path>] <repository>",
		Description: `Registers a repository directory. The scope name defaults to the
directory's base name and the document to the configured backlog.file.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "name",
				Aliases:     []string{"n"},
				Usage:       "scope name (defaults to the directory name)",
				Destination: &cmd.addName,
			},
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "backlog document relative to the repository",
				Destination: &cmd.addFile,
			},
		},
		Action: cmd.runAdd,
	}
}

func (cmd *ScopeCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Aliases:     []string{"ls"},
		Usage:       "List scopes",
		UsageText:   "orchestra scope list",
		Description: "Lists scopes as JSON lines, ordered by name.",
		Action:      cmd.runList,
	}
}

func (cmd *ScopeCmd) removeCmd() *cli.Command {
	return &cli.Command{
		Name:        "remove",
		Aliases:     []string{"rm"},
		Usage:       "Remove a scope and all of its items",
		UsageText:   "orchestra scope remove <scope>",
		Description: "Removes a scope by ID or name. Its persisted items are deleted with it.",
		Action:      cmd.runRemove,
	}
}

func (cmd *ScopeCmd) discoverCmd() *cli.Command {
	return &cli.Command{
		Name:      "discover",
		Usage:     "Register every repository below a directory that has a backlog document",
		UsageText: "orchestra scope discover [root]",
		Description: `Walks root (default: current directory) using backlog.discover_pattern
and registers a scope for each document that is not already tracked.
New scopes are written as JSON lines.`,
		Action: cmd.runDiscover,
	}
}

func (cmd *ScopeCmd) runAdd(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: orchestra scope add <repository>")
	}

	repo := c.Args().Get(0)
	name := cmd.addName
	if name == "" {
		name = dirName(repo)
	}

	scope, err := cmd.app.Scopes.Create(ctx, orchestra.CreateScopeInput{
		Name:           name,
		RepositoryPath: repo,
		BacklogFile:    cmd.addFile,
	})
	if err != nil {
		return err
	}

	return iojson.WriteLine(c.Root().Writer, scope)
}

func (cmd *ScopeCmd) runList(ctx context.Context, c *cli.Command) error {
	scopes, err := cmd.app.Scopes.List(ctx)
	if err != nil {
		return fmt.Errorf("list scopes: %w", err)
	}

	for _, scope := range scopes {
		if err := iojson.WriteLine(c.Root().Writer, scope); err != nil {
			return err
		}
	}

	return nil
}

func (cmd *ScopeCmd) runRemove(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: orchestra scope remove <scope>")
	}

	if err := cmd.app.Scopes.Delete(ctx, c.Args().Get(0)); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(c.Root().Writer, "removed")
	return nil
}

func (cmd *ScopeCmd) runDiscover(ctx context.Context, c *cli.Command) error {
	root := c.Args().Get(0)
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		root = wd
	}

	scopes, err := cmd.app.Scopes.Discover(ctx, root)
	if err != nil {
		return err
	}

	for _, scope := range scopes {
		if err := iojson.WriteLine(c.Root().Writer, scope); err != nil {
			return err
		}
	}

	return nil
}

// dirName returns the base name of path after resolving it to an absolute path.
func dirName(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.Base(abs)
}
