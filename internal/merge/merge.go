// Package merge combines the best candidate from each provider into a single
// record under a fixed provider priority order.
package merge

import (
	"strings"

	"github.com/lehigh-university-libraries/bookfill/internal/match"
)

// Record is the merged result for one query item. A field appears in Values
// only when some provider supplied a non-empty value for it; an omitted field
// is distinct from an explicitly empty one. Provenance names the provider
// that contributed each present field.
type Record struct {
	Values     map[string]string
	Provenance map[string]string
}

// Merge fills the empty fields of a row from per-provider scored candidates.
//
// targetFields fixes which internal fields may be produced and in what order
// they are considered. providerOrder fixes the priority between providers:
// for each field the first provider in that order with a non-empty value
// wins. Fields already non-empty in existing are never produced (gap-fill
// only). Merge is pure: the same inputs always yield the same Record.
func Merge(existing map[string]string, targetFields []string, providerOrder []string, picks map[string]match.ScoredCandidate) Record {
	record := Record{
		Values:     make(map[string]string),
		Provenance: make(map[string]string),
	}

	for _, field := range targetFields {
		if strings.TrimSpace(existing[field]) != "" {
			continue
		}
		for _, provider := range providerOrder {
			pick, ok := picks[provider]
			if !ok {
				continue
			}
			value := strings.TrimSpace(pick.Candidate.Field(field))
			if value == "" {
				continue
			}
			record.Values[field] = value
			record.Provenance[field] = provider
			break
		}
	}

	return record
}

// IsEmpty reports whether the merge produced no usable fields.
func (r Record) IsEmpty() bool {
	return len(r.Values) == 0
}
