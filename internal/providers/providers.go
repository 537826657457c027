// Package providers implements the external book metadata sources.
package providers

import (
	"context"
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/bookfill/internal/metadata"
)

// Provider defines the uniform lookup-by-title capability every metadata
// source exposes. Lookup returns zero or more candidates; an empty slice is
// a legitimate "nothing found" answer, not an error.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, title string) ([]metadata.Candidate, error)
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// extractYear pulls a 4-digit year out of a provider date string, falling
// back to the leading characters for odd formats like "198?".
func extractYear(date string) string {
	if date == "" {
		return ""
	}
	if year := yearPattern.FindString(date); year != "" {
		return year
	}
	if len(date) > 4 {
		return date[:4]
	}
	return date
}

// joinLimited joins at most limit entries of list with ", ". Open Library in
// particular returns dozens of publishers and subjects per work.
func joinLimited(list []string, limit int) string {
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return strings.Join(list, ", ")
}

const maxDescription = 500

func truncateDescription(text string) string {
	if len(text) <= maxDescription {
		return text
	}
	return text[:maxDescription] + "..."
}
