package match

import (
	"math"
	"testing"

	"github.com/lehigh-university-libraries/bookfill/internal/metadata"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "lowercase and punctuation",
			title: "The Great Gatsby!",
			want:  "the great gatsby",
		},
		{
			name:  "parenthetical removed",
			title: "Dune (Unabridged)",
			want:  "dune",
		},
		{
			name:  "bracketed removed",
			title: "Dune [40th Anniversary]",
			want:  "dune",
		},
		{
			name:  "noise tokens dropped",
			title: "Moby Dick Unabridged Hardcover Edition",
			want:  "moby dick",
		},
		{
			name:  "whitespace collapsed",
			title: "  War   and    Peace ",
			want:  "war and peace",
		},
		{
			name:  "diacritics folded",
			title: "Les Misérables",
			want:  "les miserables",
		},
		{
			name:  "cjk letters preserved",
			title: "ノルウェイの森",
			want:  "ノルウェイの森",
		},
		{
			name:  "cyrillic letters preserved",
			title: "Анна Каренина!",
			want:  "анна каренина",
		},
		{
			name:  "noise-only title normalizes to nothing",
			title: "Unabridged Edition (Hardcover)",
			want:  "",
		},
		{
			name:  "empty",
			title: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.title); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	title := "The Léopard (First Edition) Hardcover!"
	first := Normalize(title)
	for i := 0; i < 10; i++ {
		if got := Normalize(title); got != first {
			t.Fatalf("Normalize not deterministic: %q vs %q", got, first)
		}
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		min  float64
		max  float64
	}{
		{
			name: "exact match scores one",
			a:    "the great gatsby",
			b:    "the great gatsby",
			min:  1.0,
			max:  1.0,
		},
		{
			name: "reordered tokens score one via overlap",
			a:    "the great gatsby",
			b:    "great gatsby the",
			min:  1.0,
			max:  1.0,
		},
		{
			name: "near match scores high",
			a:    "the great gatsby",
			b:    "the great gatsbee",
			min:  0.8,
			max:  0.99,
		},
		{
			name: "unrelated titles score low",
			a:    "the great gatsby",
			b:    "introduction to algorithms",
			min:  0.0,
			max:  0.4,
		},
		{
			name: "empty candidate scores zero",
			a:    "the great gatsby",
			b:    "",
			min:  0.0,
			max:  0.0,
		},
		{
			name: "both empty scores zero",
			a:    "",
			b:    "",
			min:  0.0,
			max:  0.0,
		},
		{
			name: "unrelated cjk titles score low",
			a:    "ノルウェイの森",
			b:    "吾輩は猫である",
			min:  0.0,
			max:  0.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("Score(%q, %q) = %.3f, want within [%.3f, %.3f]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestBestThresholdBoundary(t *testing.T) {
	query := "the great gatsby"
	candidates := []metadata.Candidate{
		{Provider: "google_books", Title: "The Great Gatsby", Rank: 0},
	}

	exact := Score(Normalize(query), Normalize(candidates[0].Title))
	if exact != 1.0 {
		t.Fatalf("expected exact normalized match to score 1.0, got %.3f", exact)
	}

	// A candidate scoring exactly at the threshold is accepted.
	if _, ok := Best(query, candidates, 1.0); !ok {
		t.Error("candidate scoring exactly at threshold was rejected")
	}

	// A candidate scoring any amount under the threshold is rejected: set
	// the threshold to the candidate's own score and then a hair above it.
	near := []metadata.Candidate{
		{Provider: "google_books", Title: "The Great Gatsbee", Rank: 0},
	}
	score := Score(Normalize(query), Normalize(near[0].Title))
	if score <= 0 || score >= 1.0 {
		t.Fatalf("near-match score %.5f outside (0, 1)", score)
	}
	if _, ok := Best(query, near, score); !ok {
		t.Errorf("candidate scoring %.5f rejected at equal threshold", score)
	}
	if _, ok := Best(query, near, math.Nextafter(score, 1)); ok {
		t.Errorf("candidate scoring %.5f accepted at threshold just above it", score)
	}
}

func TestBestRejectsUnrelatedNonLatinTitles(t *testing.T) {
	query := "ノルウェイの森"

	// An unrelated title in the same script must not match: neither side
	// may normalize to an empty string and score as a trivial exact match.
	unrelated := []metadata.Candidate{
		{Provider: "google_books", Title: "吾輩は猫である", Rank: 0},
	}
	if best, ok := Best(query, unrelated, 0.75); ok {
		t.Errorf("unrelated title accepted with score %.3f (query %q, title %q)",
			best.Score, best.NormalizedQuery, best.NormalizedTitle)
	}

	// The same title still matches exactly.
	same := []metadata.Candidate{
		{Provider: "google_books", Title: "ノルウェイの森", Rank: 0},
	}
	best, ok := Best(query, same, 0.75)
	if !ok {
		t.Fatal("identical title rejected")
	}
	if best.Score != 1.0 {
		t.Errorf("identical title score = %.3f, want 1.0", best.Score)
	}
	if best.NormalizedQuery == "" || best.NormalizedTitle == "" {
		t.Errorf("normalization erased the title: query %q, title %q",
			best.NormalizedQuery, best.NormalizedTitle)
	}
}

func TestBestRejectsEmptyNormalizedForms(t *testing.T) {
	// A query that is all noise can never match, even its own text.
	noise := []metadata.Candidate{
		{Provider: "google_books", Title: "Unabridged Edition", Rank: 0},
	}
	if _, ok := Best("Unabridged Edition", noise, 0.0); ok {
		t.Error("noise-only query matched a noise-only candidate")
	}

	// A noise-only candidate is skipped; a real one behind it still wins.
	mixed := []metadata.Candidate{
		{Provider: "google_books", Title: "(Hardcover)", Rank: 0},
		{Provider: "google_books", Title: "Dune", Rank: 1},
	}
	best, ok := Best("Dune", mixed, 0.75)
	if !ok {
		t.Fatal("expected the real candidate to match")
	}
	if best.Candidate.Rank != 1 {
		t.Errorf("matched rank %d, want the non-empty candidate", best.Candidate.Rank)
	}
}

func TestBestSelection(t *testing.T) {
	query := "The Great Gatsby"

	t.Run("highest score wins", func(t *testing.T) {
		candidates := []metadata.Candidate{
			{Provider: "p", Title: "The Great Gatsby and Other Stories", Rank: 0},
			{Provider: "p", Title: "The Great Gatsby", Rank: 1},
		}
		best, ok := Best(query, candidates, 0.5)
		if !ok {
			t.Fatal("expected a match")
		}
		if best.Candidate.Rank != 1 {
			t.Errorf("expected exact title to win, got rank %d (%q)", best.Candidate.Rank, best.Candidate.Title)
		}
		if best.Score != 1.0 {
			t.Errorf("expected winning score 1.0, got %.3f", best.Score)
		}
	})

	t.Run("tie breaks by provider rank", func(t *testing.T) {
		candidates := []metadata.Candidate{
			{Provider: "p", Title: "Great Gatsby, The", Rank: 3},
			{Provider: "p", Title: "The Great Gatsby", Rank: 1},
		}
		best, ok := Best(query, candidates, 0.5)
		if !ok {
			t.Fatal("expected a match")
		}
		// Both normalize to the same token set and score 1.0; the lower
		// provider rank wins.
		if best.Candidate.Rank != 1 {
			t.Errorf("expected rank 1 to win the tie, got rank %d", best.Candidate.Rank)
		}
	})

	t.Run("tie with equal rank keeps first seen", func(t *testing.T) {
		candidates := []metadata.Candidate{
			{Provider: "p", Title: "The Great Gatsby", Rank: 0},
			{Provider: "p", Title: "Great Gatsby, The", Rank: 0},
		}
		best, ok := Best(query, candidates, 0.5)
		if !ok {
			t.Fatal("expected a match")
		}
		if best.Candidate.Title != "The Great Gatsby" {
			t.Errorf("expected first-seen candidate to win, got %q", best.Candidate.Title)
		}
	})

	t.Run("no candidates is a no-match", func(t *testing.T) {
		if _, ok := Best(query, nil, 0.75); ok {
			t.Error("expected no match for empty candidate list")
		}
	})

	t.Run("normalization trace recorded", func(t *testing.T) {
		candidates := []metadata.Candidate{
			{Provider: "p", Title: "The Great Gatsby (Hardcover)", Rank: 0},
		}
		best, ok := Best(query, candidates, 0.75)
		if !ok {
			t.Fatal("expected a match")
		}
		if best.NormalizedQuery != "the great gatsby" {
			t.Errorf("NormalizedQuery = %q", best.NormalizedQuery)
		}
		if best.NormalizedTitle != "the great gatsby" {
			t.Errorf("NormalizedTitle = %q", best.NormalizedTitle)
		}
	})
}
