package merge

import (
	"reflect"
	"testing"

	"github.com/lehigh-university-libraries/bookfill/internal/match"
	"github.com/lehigh-university-libraries/bookfill/internal/metadata"
)

func scoredCandidate(provider string, fields map[string]string) match.ScoredCandidate {
	return match.ScoredCandidate{
		Candidate: metadata.Candidate{
			Provider: provider,
			Fields:   fields,
		},
		Score: 1.0,
	}
}

var providerOrder = []string{"google_books", "open_library"}

func TestMergePriority(t *testing.T) {
	picks := map[string]match.ScoredCandidate{
		"google_books": scoredCandidate("google_books", map[string]string{
			metadata.FieldAuthors: "F. Scott Fitzgerald",
			metadata.FieldISBN:    "9780743273565",
		}),
		"open_library": scoredCandidate("open_library", map[string]string{
			metadata.FieldAuthors:    "Fitzgerald, F. Scott",
			metadata.FieldCategories: "Fiction",
		}),
	}

	record := Merge(nil,
		[]string{metadata.FieldAuthors, metadata.FieldISBN, metadata.FieldCategories},
		providerOrder, picks)

	// Both providers supplied authors; the primary provider wins and is
	// named in provenance.
	if got := record.Values[metadata.FieldAuthors]; got != "F. Scott Fitzgerald" {
		t.Errorf("authors = %q, want primary provider's value", got)
	}
	if got := record.Provenance[metadata.FieldAuthors]; got != "google_books" {
		t.Errorf("authors provenance = %q, want google_books", got)
	}

	// Fields only the secondary supplied fall through to it.
	if got := record.Values[metadata.FieldCategories]; got != "Fiction" {
		t.Errorf("categories = %q, want Fiction", got)
	}
	if got := record.Provenance[metadata.FieldCategories]; got != "open_library" {
		t.Errorf("categories provenance = %q, want open_library", got)
	}

	if got := record.Values[metadata.FieldISBN]; got != "9780743273565" {
		t.Errorf("isbn = %q", got)
	}
}

func TestMergeGapFillOnly(t *testing.T) {
	existing := map[string]string{
		metadata.FieldAuthors:   "Existing Author",
		metadata.FieldPublisher: "",
	}
	picks := map[string]match.ScoredCandidate{
		"google_books": scoredCandidate("google_books", map[string]string{
			metadata.FieldAuthors:   "Fetched Author",
			metadata.FieldPublisher: "Scribner",
		}),
	}

	record := Merge(existing,
		[]string{metadata.FieldAuthors, metadata.FieldPublisher},
		providerOrder, picks)

	if _, ok := record.Values[metadata.FieldAuthors]; ok {
		t.Error("field already populated in the row must be absent from the merge output")
	}
	if got := record.Values[metadata.FieldPublisher]; got != "Scribner" {
		t.Errorf("publisher = %q, want Scribner", got)
	}
}

func TestMergeOmitsUnresolvedFields(t *testing.T) {
	picks := map[string]match.ScoredCandidate{
		"google_books": scoredCandidate("google_books", map[string]string{
			metadata.FieldISBN:      "",
			metadata.FieldPublisher: "  ",
		}),
		"open_library": scoredCandidate("open_library", map[string]string{
			metadata.FieldISBN: "",
		}),
	}

	record := Merge(nil,
		[]string{metadata.FieldISBN, metadata.FieldPublisher, metadata.FieldLanguage},
		providerOrder, picks)

	// Empty and whitespace-only values never produce a field; omission is
	// distinct from an explicit empty string.
	if len(record.Values) != 0 {
		t.Errorf("expected no fields, got %v", record.Values)
	}
	if len(record.Provenance) != 0 {
		t.Errorf("expected no provenance, got %v", record.Provenance)
	}
	if !record.IsEmpty() {
		t.Error("IsEmpty should report true")
	}
}

func TestMergeDeterministic(t *testing.T) {
	existing := map[string]string{metadata.FieldTitle: "The Great Gatsby"}
	picks := map[string]match.ScoredCandidate{
		"google_books": scoredCandidate("google_books", map[string]string{
			metadata.FieldAuthors:       "F. Scott Fitzgerald",
			metadata.FieldISBN:          "9780743273565",
			metadata.FieldPublishedDate: "1925",
		}),
		"open_library": scoredCandidate("open_library", map[string]string{
			metadata.FieldAuthors:    "Fitzgerald, F. Scott",
			metadata.FieldCategories: "Fiction",
			metadata.FieldPublisher:  "Scribner",
		}),
	}
	fields := []string{
		metadata.FieldTitle,
		metadata.FieldAuthors,
		metadata.FieldPublisher,
		metadata.FieldPublishedDate,
		metadata.FieldISBN,
		metadata.FieldCategories,
	}

	first := Merge(existing, fields, providerOrder, picks)
	for i := 0; i < 20; i++ {
		again := Merge(existing, fields, providerOrder, picks)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("merge not deterministic: %#v vs %#v", first, again)
		}
	}
}
