package reconcile

import (
	"slices"

	"github.com/colonyops/orchestra/internal/core/backlog"
)

// Reconcile classifies the differences between parsed markdown entries and
// the persisted items of a scope.
//
// Checked entries are ignored. The remaining entries are processed in
// document order and each claims its best unclaimed match, so when several
// persisted items are near-duplicates the earliest line wins. A matched
// QUEUED item is unchanged only when the title matches exactly and the
// description is byte-identical; any other QUEUED match becomes an update.
// Matches against active or completed items become conflicts. Unmatched
// entries become adds positioned by their order among unchecked entries.
// Unclaimed QUEUED items are removed; unclaimed items in any other status
// are left alone.
func Reconcile(parsed []backlog.ParsedItem, persisted []backlog.Item) Preview {
	var preview Preview

	entries := pending(parsed)
	claims := newPool(persisted)

	for i, entry := range entries {
		existing, similarity, ok := claims.claimBest(entry.Content)
		if !ok {
			preview.Adds = append(preview.Adds, Add{
				Content:     entry.Content,
				Description: entry.Description,
				LineNumber:  entry.LineNumber,
				Position:    i + 1,
			})
			continue
		}

		switch existing.Status.Class() {
		case backlog.ClassActive:
			preview.Conflicts = append(preview.Conflicts, conflict(entry, existing, similarity, ReasonActiveMatch))
		case backlog.ClassCompleted:
			preview.Conflicts = append(preview.Conflicts, conflict(entry, existing, similarity, ReasonCompletedMatch))
		case backlog.ClassModifiable:
			queued, _ := backlog.AsQueued(existing)
			if similarity == 1 && entry.Description == existing.Description {
				preview.Unchanged = append(preview.Unchanged, existing)
				continue
			}
			preview.Updates = append(preview.Updates, Update{
				Existing:       queued,
				NewContent:     entry.Content,
				NewDescription: entry.Description,
				LineNumber:     entry.LineNumber,
				Similarity:     similarity,
			})
		}
	}

	for _, item := range claims.remaining() {
		if queued, ok := backlog.AsQueued(item); ok {
			preview.Removes = append(preview.Removes, Remove{Existing: queued})
			continue
		}
		preview.Unchanged = append(preview.Unchanged, item)
	}

	return preview
}

// pending returns the unchecked entries ordered by line number.
func pending(parsed []backlog.ParsedItem) []backlog.ParsedItem {
	out := make([]backlog.ParsedItem, 0, len(parsed))
	for _, p := range parsed {
		if !p.Checked {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b backlog.ParsedItem) int {
		return a.LineNumber - b.LineNumber
	})
	return out
}

func conflict(entry backlog.ParsedItem, existing backlog.Item, similarity float64, reason Reason) Conflict {
	return Conflict{
		Existing:            existing,
		MarkdownContent:     entry.Content,
		MarkdownDescription: entry.Description,
		LineNumber:          entry.LineNumber,
		Similarity:          similarity,
		Reason:              reason,
	}
}
