package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/orchestra/internal/core/backlog"
	"github.com/colonyops/orchestra/internal/core/eventbus"
	"github.com/colonyops/orchestra/internal/core/reconcile"
	"github.com/colonyops/orchestra/internal/core/styles"
	"github.com/colonyops/orchestra/internal/orchestra"
	"github.com/colonyops/orchestra/pkg/iojson"
)

// BacklogCmd implements the orchestra backlog command group.
type BacklogCmd struct {
	flags *Flags
	app   *orchestra.App

	// preview flags
	previewJSON bool

	// sync flags
	syncJSON        bool
	syncInteractive bool
	syncExpectHash  string
	syncFile        iojson.FileReader[orchestra.SyncRequest]

	// watch flags
	watchApply bool
}

// NewBacklogCmd creates a new backlog command.
func NewBacklogCmd(flags *Flags, app *orchestra.App) *BacklogCmd {
	return &BacklogCmd{flags: flags, app: app}
}

// Register adds the backlog command to the application.
func (cmd *BacklogCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "backlog",
		Usage: "Sync backlog markdown documents into persisted items",
		Description: `Backlog commands reconcile a scope's markdown document with its items.

Queued items follow the document. Items that are in progress are never
touched, and finished items matched by the document are reported as
conflicts that can be requeued.

Examples:
  orchestra backlog preview api               # show what a sync would do
  orchestra backlog sync api                  # apply, skipping conflicts
  orchestra backlog sync api --requeue 0      # apply and requeue conflict 0
  orchestra backlog sync api --interactive    # decide each conflict in a prompt
  orchestra backlog watch api --apply         # sync whenever the document changes`,
		Commands: []*cli.Command{
			cmd.listCmd(),
			cmd.showCmd(),
			cmd.statusCmd(),
			cmd.checkCmd(),
			cmd.previewCmd(),
			cmd.syncCmd(),
			cmd.watchCmd(),
		},
	})

	return app
}

func (cmd *BacklogCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Aliases:     []string{"ls"},
		Usage:       "List a scope's items",
		UsageText:   "orchestra backlog list <scope>",
		Description: "Lists items as JSON lines in position order.",
		Action:      cmd.runList,
	}
}

func (cmd *BacklogCmd) showCmd() *cli.Command {
	return &cli.Command{
		Name:        "show",
		Usage:       "Render an item",
		UsageText:   "orchestra backlog show <item-id>",
		Description: "Renders the item's content and description as markdown.",
		Action:      cmd.runShow,
	}
}

func (cmd *BacklogCmd) statusCmd() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Set an item's lifecycle status",
		UsageText: "orchestra backlog status <item-id> <status>",
		Description: fmt.Sprintf(`Moves an item to a new status. Valid statuses: %s.

Only QUEUED items are rewritten by sync.`, statusList()),
		Action: cmd.runStatus,
	}
}

func (cmd *BacklogCmd) checkCmd() *cli.Command {
	return &cli.Command{
		Name:        "check",
		Usage:       "Report whether the document changed since the last sync",
		UsageText:   "orchestra backlog check <scope>",
		Description: "Compares the document fingerprint with the last synced one without reconciling.",
		Action:      cmd.runCheck,
	}
}

func (cmd *BacklogCmd) previewCmd() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Show what a sync would change",
		UsageText: "orchestra backlog preview <scope> [--json]",
		Description: `Reconciles the document with the persisted items without writing.
Output is JSON when --json is set or stdout is not a terminal.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "write the preview as JSON",
				Destination: &cmd.previewJSON,
			},
		},
		Action: cmd.runPreview,
	}
}

func (cmd *BacklogCmd) syncCmd() *cli.Command {
	fileFlag := cmd.syncFile.Flag()
	fileFlag.Usage = "path to a JSON sync request ({\"expectHash\":\"...\",\"resolutions\":[...]}) or a bare resolutions array"

	return &cli.Command{
		Name:      "sync",
		Usage:     "Apply the document to the persisted items",
		UsageText: "orchestra backlog sync <scope> [--requeue <i>]... [--skip <i>]... [--expect-hash <hash>] [--interactive | -f <file>]",
		Description: `Applies adds, updates and removes in one transaction and records the
document fingerprint. Conflicts are skipped unless requeued by index.
Indexes refer to the conflicts listed by 'orchestra backlog preview'.
Pass that preview's currentHash as --expect-hash to refuse the sync when
the document changed in between.`,
		Flags: []cli.Flag{
			&cli.IntSliceFlag{
				Name:  "requeue",
				Usage: "requeue the finished item of conflict <i> (repeatable)",
			},
			&cli.IntSliceFlag{
				Name:  "skip",
				Usage: "skip conflict <i> (repeatable)",
			},
			&cli.StringFlag{
				Name:        "expect-hash",
				Usage:       "fail unless the document still has this fingerprint",
				Destination: &cmd.syncExpectHash,
			},
			&cli.BoolFlag{
				Name:        "interactive",
				Aliases:     []string{"i"},
				Usage:       "prompt for a decision on each conflict",
				Destination: &cmd.syncInteractive,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "write the result as JSON",
				Destination: &cmd.syncJSON,
			},
			fileFlag,
		},
		Action: cmd.runSync,
	}
}

func (cmd *BacklogCmd) watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Preview or sync whenever the document changes",
		UsageText: "orchestra backlog watch <scope> [--apply]",
		Description: `Watches the scope's document and prints a preview after each change.
With --apply (or watch.auto_apply) previews without conflicts are synced.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "apply",
				Usage:       "sync changes that have no conflicts",
				Destination: &cmd.watchApply,
			},
		},
		Action: cmd.runWatch,
	}
}

func statusList() string {
	names := make([]string, len(backlog.Statuses))
	for i, s := range backlog.Statuses {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}

func scopeArg(c *cli.Command, usage string) (string, error) {
	if c.NArg() < 1 {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return c.Args().Get(0), nil
}

func (cmd *BacklogCmd) runList(ctx context.Context, c *cli.Command) error {
	scopeID, err := scopeArg(c, "orchestra backlog list <scope>")
	if err != nil {
		return err
	}

	items, err := cmd.app.Backlog.ListItems(ctx, scopeID)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := iojson.WriteLine(c.Root().Writer, item); err != nil {
			return err
		}
	}

	return nil
}

func (cmd *BacklogCmd) runShow(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: orchestra backlog show <item-id>")
	}

	item, err := cmd.app.Backlog.GetItem(ctx, c.Args().Get(0))
	if err != nil {
		return err
	}

	if !isTerminal() {
		return iojson.WriteLine(c.Root().Writer, item)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}

	rendered, err := renderer.Render(itemMarkdown(item))
	if err != nil {
		return fmt.Errorf("render item: %w", err)
	}

	_, _ = fmt.Fprintln(c.Root().Writer, styles.BadgeStyle.Render(item.Status.String()))
	_, _ = fmt.Fprint(c.Root().Writer, rendered)
	return nil
}

// itemMarkdown renders an item back into its document form.
func itemMarkdown(item backlog.Item) string {
	var b strings.Builder
	b.WriteString("## ")
	b.WriteString(item.Content)
	b.WriteString("\n")
	if item.Description != "" {
		b.WriteString("\n")
		b.WriteString(item.Description)
		b.WriteString("\n")
	}
	return b.String()
}

func (cmd *BacklogCmd) runStatus(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: orchestra backlog status <item-id> <status>")
	}

	status, err := backlog.ParseStatus(strings.ToUpper(c.Args().Get(1)))
	if err != nil {
		return fmt.Errorf("%w (valid: %s)", err, statusList())
	}

	item, err := cmd.app.Backlog.SetStatus(ctx, c.Args().Get(0), status)
	if err != nil {
		return err
	}

	return iojson.WriteLine(c.Root().Writer, item)
}

func (cmd *BacklogCmd) runCheck(ctx context.Context, c *cli.Command) error {
	scopeID, err := scopeArg(c, "orchestra backlog check <scope>")
	if err != nil {
		return err
	}

	changed, hash, err := cmd.app.Backlog.Check(ctx, scopeID)
	if err != nil {
		return err
	}

	return iojson.WriteLine(c.Root().Writer, struct {
		Changed bool   `json:"changed"`
		Hash    string `json:"hash"`
	}{Changed: changed, Hash: hash})
}

func (cmd *BacklogCmd) runPreview(ctx context.Context, c *cli.Command) error {
	scopeID, err := scopeArg(c, "orchestra backlog preview <scope>")
	if err != nil {
		return err
	}

	scope, err := cmd.app.Scopes.Get(ctx, scopeID)
	if err != nil {
		return err
	}

	report, err := cmd.app.Backlog.Preview(ctx, scope.ID)
	if err != nil {
		return err
	}

	if cmd.previewJSON || !isTerminal() {
		return iojson.WriteWith(c.Root().Writer, os.Stderr, report)
	}

	renderPreview(c.Root().Writer, scope.Name, report)
	return nil
}

func (cmd *BacklogCmd) runSync(ctx context.Context, c *cli.Command) error {
	scopeID, err := scopeArg(c, "orchestra backlog sync <scope>")
	if err != nil {
		return err
	}

	scope, err := cmd.app.Scopes.Get(ctx, scopeID)
	if err != nil {
		return err
	}

	var req orchestra.SyncRequest
	switch {
	case cmd.syncInteractive:
		req, err = cmd.promptResolutions(ctx, scope)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
	case c.IsSet("file"):
		req, err = cmd.syncFile.Read()
		if err != nil {
			return fmt.Errorf("read resolutions: %w", err)
		}
		for _, r := range req.Resolutions {
			if !r.Action.IsValid() {
				return fmt.Errorf("invalid resolution action %q for conflict %d", r.Action, r.ConflictIndex)
			}
		}
	default:
		req.Resolutions = flagResolutions(c.IntSlice("requeue"), c.IntSlice("skip"))
	}

	if cmd.syncExpectHash != "" {
		req.ExpectHash = cmd.syncExpectHash
	}

	result, err := cmd.app.Backlog.Sync(ctx, scope.ID, req)
	if errors.Is(err, backlog.ErrSnapshotChanged) {
		return fmt.Errorf("%w; preview again and retry", err)
	}
	if err != nil {
		return err
	}

	if cmd.syncJSON || !isTerminal() {
		return iojson.WriteWith(c.Root().Writer, os.Stderr, result)
	}

	renderSyncResult(c.Root().Writer, scope.Name, result)
	return nil
}

// flagResolutions converts --requeue and --skip indexes into resolutions.
// Requeues come first so a later skip of the same index is a no-op.
func flagResolutions(requeue, skip []int) []reconcile.Resolution {
	out := make([]reconcile.Resolution, 0, len(requeue)+len(skip))
	for _, i := range requeue {
		out = append(out, reconcile.Resolution{ConflictIndex: i, Action: reconcile.ActionRequeue})
	}
	for _, i := range skip {
		out = append(out, reconcile.Resolution{ConflictIndex: i, Action: reconcile.ActionSkip})
	}
	return out
}

// promptResolutions previews the scope and asks for a decision on every
// requeueable conflict. The request is pinned to the previewed document.
func (cmd *BacklogCmd) promptResolutions(ctx context.Context, scope backlog.Scope) (orchestra.SyncRequest, error) {
	report, err := cmd.app.Backlog.Preview(ctx, scope.ID)
	if err != nil {
		return orchestra.SyncRequest{}, err
	}

	renderPreview(os.Stderr, scope.Name, report)

	var resolutions []reconcile.Resolution
	for i, conflict := range report.Preview.Conflicts {
		if conflict.Reason != reconcile.ReasonCompletedMatch {
			continue
		}

		action := reconcile.ActionSkip
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[reconcile.ResolutionAction]().
					Title(fmt.Sprintf("Conflict %d: %s", i, conflict.MarkdownContent)).
					Description(fmt.Sprintf("Matches %q (%s, similarity %.2f)",
						conflict.ExistingContent, conflict.ExistingStatus, conflict.Similarity)).
					Options(
						huh.NewOption("Skip, keep the finished item", reconcile.ActionSkip),
						huh.NewOption("Requeue as a new item", reconcile.ActionRequeue),
					).
					Value(&action),
			),
		).WithTheme(styles.FormTheme()).RunWithContext(ctx)
		if err != nil {
			return orchestra.SyncRequest{}, err
		}

		resolutions = append(resolutions, reconcile.Resolution{ConflictIndex: i, Action: action})
	}

	return orchestra.SyncRequest{Resolutions: resolutions, ExpectHash: report.CurrentHash}, nil
}

func (cmd *BacklogCmd) runWatch(ctx context.Context, c *cli.Command) error {
	scopeID, err := scopeArg(c, "orchestra backlog watch <scope>")
	if err != nil {
		return err
	}

	scope, err := cmd.app.Scopes.Get(ctx, scopeID)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	apply := cmd.watchApply || cmd.flags.Config.Watch.AutoApply
	w := c.Root().Writer

	cmd.app.Bus.SubscribeNotificationPublished(func(p eventbus.NotificationPublishedPayload) {
		style := styles.TextMutedStyle
		if p.Level == eventbus.LevelWarning {
			style = styles.TextWarningStyle
		}
		_, _ = fmt.Fprintln(os.Stderr, style.Render(p.Message))
	})

	watcher, err := orchestra.NewBacklogWatcher(scope, cmd.flags.Config.Watch.Debounce, cmd.app.Bus)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	_, _ = fmt.Fprintln(os.Stderr, styles.TextMutedStyle.Render("watching "+scope.BacklogPath()))

	onChange := func(ctx context.Context) {
		report, err := cmd.app.Backlog.Preview(ctx, scope.ID)
		if err != nil {
			log.Error().Err(err).Str("scope_id", scope.ID).Msg("watch: preview failed")
			_, _ = fmt.Fprintln(os.Stderr, styles.TextErrorStyle.Render(err.Error()))
			return
		}

		renderPreview(w, scope.Name, report)

		if !apply || !report.HasChanges {
			return
		}
		if len(report.Preview.Conflicts) > 0 {
			_, _ = fmt.Fprintln(w, styles.TextWarningStyle.Render("conflicts found; run 'orchestra backlog sync' to resolve"))
			return
		}

		result, err := cmd.app.Backlog.Sync(ctx, scope.ID, orchestra.SyncRequest{ExpectHash: report.CurrentHash})
		if err != nil {
			log.Error().Err(err).Str("scope_id", scope.ID).Msg("watch: sync failed")
			_, _ = fmt.Fprintln(os.Stderr, styles.TextErrorStyle.Render(err.Error()))
			return
		}
		renderSyncResult(w, scope.Name, result)
	}

	// show the current state before waiting for edits
	onChange(ctx)

	if err := watcher.Run(ctx, onChange); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
