package match

import (
	"github.com/lehigh-university-libraries/bookfill/internal/metadata"
)

// ScoredCandidate is a candidate together with its match score and the
// normalization trace that produced it.
type ScoredCandidate struct {
	Candidate       metadata.Candidate
	Score           float64
	NormalizedQuery string
	NormalizedTitle string
}

// Best selects the highest-scoring candidate that clears threshold. A score
// exactly at the threshold is accepted. Ties break by the provider's own rank
// order, then by first-seen order. A query or candidate title that normalizes
// to nothing can never match. The false return is not an error: it is the
// no-match signal for this provider.
func Best(queryTitle string, candidates []metadata.Candidate, threshold float64) (ScoredCandidate, bool) {
	normalizedQuery := Normalize(queryTitle)
	if normalizedQuery == "" {
		return ScoredCandidate{}, false
	}

	var best ScoredCandidate
	found := false

	for _, candidate := range candidates {
		normalizedTitle := Normalize(candidate.Title)
		if normalizedTitle == "" {
			continue
		}
		score := Score(normalizedQuery, normalizedTitle)
		if score < threshold {
			continue
		}

		scored := ScoredCandidate{
			Candidate:       candidate,
			Score:           score,
			NormalizedQuery: normalizedQuery,
			NormalizedTitle: normalizedTitle,
		}

		switch {
		case !found:
			best = scored
			found = true
		case score > best.Score:
			best = scored
		case score == best.Score && candidate.Rank < best.Candidate.Rank:
			best = scored
		}
	}

	return best, found
}
