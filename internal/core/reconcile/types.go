// Package reconcile computes the differences between a backlog document and
// the persisted items of a scope, and turns a reviewed preview into the set
// of mutations to apply.
//
// Everything in this package is a pure function over its inputs: no I/O,
// no logging, no shared state. Inputs are never modified.
package reconcile

import (
	"github.com/colonyops/orchestra/internal/core/backlog"
)

// Reason explains why a markdown item could not be applied to its match.
type Reason string

const (
	// ReasonCompletedMatch marks a match against a DONE or FAILED item. The
	// user may requeue it.
	ReasonCompletedMatch Reason = "completed_match"
	// ReasonActiveMatch marks a match against an item being worked on. It is
	// never applied.
	ReasonActiveMatch Reason = "active_match"
)

// Add creates a new QUEUED item from a markdown entry.
type Add struct {
	Content     string `json:"content"`
	Description string `json:"description"`
	LineNumber  int    `json:"line_number"`
	Position    int    `json:"position"`
}

// Update rewrites the text of a QUEUED item matched by a markdown entry.
type Update struct {
	Existing       backlog.Queued `json:"-"`
	NewContent     string         `json:"new_content"`
	NewDescription string         `json:"new_description"`
	LineNumber     int            `json:"line_number"`
	Similarity     float64        `json:"similarity"`
}

// Remove deletes a QUEUED item no longer present in the document.
type Remove struct {
	Existing backlog.Queued `json:"-"`
}

// Conflict is a markdown entry that matched an item the sync may not modify.
type Conflict struct {
	Existing            backlog.Item `json:"existing"`
	MarkdownContent     string       `json:"markdown_content"`
	MarkdownDescription string       `json:"markdown_description"`
	LineNumber          int          `json:"line_number"`
	Similarity          float64      `json:"similarity"`
	Reason              Reason       `json:"reason"`
}

// Requeueable reports whether a requeue resolution has any effect.
func (c Conflict) Requeueable() bool {
	return c.Reason == ReasonCompletedMatch
}

// Preview classifies every unchecked markdown entry and every persisted
// item. Each persisted item lands in exactly one of Updates, Removes,
// Conflicts or Unchanged.
type Preview struct {
	Adds      []Add
	Updates   []Update
	Removes   []Remove
	Conflicts []Conflict
	Unchanged []backlog.Item
}

// HasActions reports whether any bucket other than Unchanged is non-empty.
func (p Preview) HasActions() bool {
	return len(p.Adds) > 0 || len(p.Updates) > 0 || len(p.Removes) > 0 || len(p.Conflicts) > 0
}
