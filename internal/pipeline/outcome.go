// Package pipeline runs the concurrent fetch-match-merge pipeline over the
// catalog rows and aggregates the per-item outcomes.
package pipeline

import (
	"errors"

	"github.com/lehigh-university-libraries/bookfill/internal/merge"
	"github.com/lehigh-university-libraries/bookfill/internal/transport"
)

// QueryItem is one row needing enrichment. Existing holds the row's current
// values keyed by internal field name, so the merger only fills gaps.
type QueryItem struct {
	RowIndex int
	Title    string
	Existing map[string]string
}

// Status is the terminal state of one item's pipeline run.
type Status string

const (
	// StatusMatched means at least one provider candidate cleared the
	// acceptance threshold and a merged record was produced.
	StatusMatched Status = "matched"
	// StatusNoMatch means providers answered but nothing cleared the
	// threshold. This is a valid result, not an error.
	StatusNoMatch Status = "no_match"
	// StatusFailed means every configured provider failed for this item,
	// or the run was cancelled before the item completed.
	StatusFailed Status = "failed"
)

// Error kinds attached to failed outcomes beyond the transport taxonomy.
const (
	ErrKindCancelled = string(transport.ErrCancelled)
	ErrKindProvider  = "provider_error"
)

// Outcome is the immutable result of one item's run. Record is set only for
// StatusMatched; ErrKind and Err only for StatusFailed. Scores holds the
// accepted match score per provider for auditing.
type Outcome struct {
	Item    QueryItem
	Status  Status
	Record  merge.Record
	Scores  map[string]float64
	ErrKind string
	Err     error
}

// errKind classifies an error for the run statistics, so a summary can tell
// "API down" apart from "sheet write rejected".
func errKind(err error) string {
	var terr *transport.Error
	if errors.As(err, &terr) {
		return string(terr.Kind)
	}
	return ErrKindProvider
}
