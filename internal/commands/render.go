package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/colonyops/orchestra/internal/core/reconcile"
	"github.com/colonyops/orchestra/internal/core/styles"
	"github.com/colonyops/orchestra/internal/orchestra"
)

// isTerminal reports whether stdout is attached to a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// renderPreview writes a human readable preview report.
func renderPreview(w io.Writer, scopeName string, r orchestra.PreviewReport) {
	p := r.Preview

	last := "never synced"
	if r.LastSyncedHash != nil {
		last = shortHash(*r.LastSyncedHash)
	}

	_, _ = fmt.Fprintln(w, styles.TextPrimaryBoldStyle.Render("Backlog preview: "+scopeName))
	_, _ = fmt.Fprintln(w, styles.TextMutedStyle.Render(fmt.Sprintf("document %s, last synced %s", shortHash(r.CurrentHash), last)))
	_, _ = fmt.Fprintln(w, styles.TextMutedStyle.Render(strings.Repeat("─", 40)))

	if !r.HasChanges {
		_, _ = fmt.Fprintln(w, styles.TextSuccessStyle.Render("Up to date"))
		return
	}

	for _, a := range p.Adds {
		_, _ = fmt.Fprintf(w, "%s %s %s\n",
			styles.AddStyle.Render("+"),
			a.Content,
			styles.TextMutedStyle.Render(fmt.Sprintf("(line %d, position %d)", a.LineNumber, a.Position)),
		)
	}

	for _, u := range p.Updates {
		_, _ = fmt.Fprintf(w, "%s %s %s %s %s\n",
			styles.UpdateStyle.Render("~"),
			u.ExistingContent,
			styles.TextMutedStyle.Render("→"),
			u.NewContent,
			styles.TextMutedStyle.Render(fmt.Sprintf("(%.2f)", u.Similarity)),
		)
	}

	for _, rm := range p.Removes {
		_, _ = fmt.Fprintf(w, "%s %s\n", styles.RemoveStyle.Render("-"), rm.Content)
	}

	for i, c := range p.Conflicts {
		_, _ = fmt.Fprintf(w, "%s %s %s %s %s\n",
			styles.ConflictStyle.Render(fmt.Sprintf("! [%d]", i)),
			c.MarkdownContent,
			styles.TextMutedStyle.Render("matches"),
			c.ExistingContent,
			styles.BadgeStyle.Render(string(c.ExistingStatus)),
		)
		_, _ = fmt.Fprintln(w, styles.TextMutedStyle.Render("      "+conflictHint(c.Reason, i)))
	}

	if p.UnchangedCount > 0 {
		_, _ = fmt.Fprintln(w, styles.UnchangedStyle.Render(fmt.Sprintf("  %d unchanged", p.UnchangedCount)))
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n",
		styles.AddStyle.Render(fmt.Sprintf("%d to add", len(p.Adds))),
		styles.UpdateStyle.Render(fmt.Sprintf("%d to update", len(p.Updates))),
		styles.RemoveStyle.Render(fmt.Sprintf("%d to remove", len(p.Removes))),
		styles.ConflictStyle.Render(fmt.Sprintf("%d conflicts", len(p.Conflicts))),
	)
}

func conflictHint(reason reconcile.Reason, index int) string {
	if reason == reconcile.ReasonCompletedMatch {
		return fmt.Sprintf("finished item; --requeue %d queues it again", index)
	}
	return "item is in progress and is left untouched"
}

// renderSyncResult writes a human readable sync summary.
func renderSyncResult(w io.Writer, scopeName string, r orchestra.SyncResult) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		styles.TextSuccessStyle.Render("✔"),
		styles.TextForegroundBoldStyle.Render(scopeName+" synced"),
	)
	_, _ = fmt.Fprintf(w, "  added %d, updated %d, removed %d, requeued %d, skipped %d\n",
		r.Added, r.Updated, r.Removed, r.RequeuedConflicts, r.SkippedConflicts)

	if len(r.IgnoredResolutions) > 0 {
		_, _ = fmt.Fprintln(w, styles.TextWarningStyle.Render(
			fmt.Sprintf("  ignored resolutions for unknown conflicts: %v", r.IgnoredResolutions)))
	}
}
