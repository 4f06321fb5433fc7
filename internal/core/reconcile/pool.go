package reconcile

import (
	"iter"
	"slices"

	"github.com/colonyops/orchestra/internal/core/backlog"
	"github.com/colonyops/orchestra/internal/core/match"
)

// pool is the set of persisted items not yet claimed by a markdown entry
// during one reconciliation pass. Candidates keep their snapshot order so
// match ties resolve the same way on every run.
type pool struct {
	items []backlog.Item
	live  []int // indexes into items, in snapshot order
}

func newPool(items []backlog.Item) *pool {
	live := make([]int, len(items))
	for i := range live {
		live[i] = i
	}
	return &pool{items: items, live: live}
}

// candidates yields the indexes of unclaimed items in snapshot order.
func (p *pool) candidates() iter.Seq[int] {
	return slices.Values(p.live)
}

// claimBest finds the best unclaimed match for content and removes it from
// the pool.
func (p *pool) claimBest(content string) (backlog.Item, float64, bool) {
	best, ok := match.FindBest(content, p.candidates(), func(i int) string {
		return p.items[i].Content
	})
	if !ok {
		return backlog.Item{}, 0, false
	}

	p.live = slices.DeleteFunc(p.live, func(i int) bool { return i == best.Candidate })
	return p.items[best.Candidate], best.Similarity, true
}

// remaining returns the unclaimed items in snapshot order.
func (p *pool) remaining() []backlog.Item {
	out := make([]backlog.Item, 0, len(p.live))
	for _, i := range p.live {
		out = append(out, p.items[i])
	}
	return out
}
