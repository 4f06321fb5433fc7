// Package match scores how alike two backlog titles are and picks the best
// candidate for a title from a pool.
package match

import (
	"iter"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Threshold is the minimum similarity for two titles to be considered the
// same logical item.
const Threshold = 0.7

// Similarity returns a score in [0, 1] derived from the Levenshtein distance
// of the lower-cased, trimmed inputs:
//
//	1 - distance(a, b) / max(len(a), len(b))
//
// Lengths and distance are counted in runes. Two empty strings score 1; an
// empty string against a non-empty one scores 0.
func Similarity(a, b string) float64 {
	a = normalize(a)
	b = normalize(b)

	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	distance := levenshtein.ComputeDistance(a, b)

	return 1 - float64(distance)/float64(longest)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Result is the winning candidate of a FindBest scan.
type Result[T any] struct {
	Candidate  T
	Similarity float64
}

// FindBest scans candidates in order and returns the one whose text is most
// similar to target. Only scores at or above Threshold qualify and the first
// candidate wins a tie. ok is false when no candidate qualifies.
func FindBest[T any](target string, candidates iter.Seq[T], text func(T) string) (best Result[T], ok bool) {
	for c := range candidates {
		score := Similarity(target, text(c))
		if score < Threshold {
			continue
		}
		if !ok || score > best.Similarity {
			best = Result[T]{Candidate: c, Similarity: score}
			ok = true
		}
	}
	return best, ok
}

// FindBestIn is FindBest over a slice.
func FindBestIn[T any](target string, candidates []T, text func(T) string) (Result[T], bool) {
	return FindBest(target, slices.Values(candidates), text)
}
