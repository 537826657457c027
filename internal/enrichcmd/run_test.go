package enrichcmd

import (
	"reflect"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/bookfill/internal/config"
	"github.com/lehigh-university-libraries/bookfill/internal/metadata"
	"github.com/lehigh-university-libraries/bookfill/internal/pipeline"
	"github.com/lehigh-university-libraries/bookfill/internal/store"
)

func TestCollectItems(t *testing.T) {
	cfg := config.Default()
	stats := pipeline.NewStats(reverseMapping(cfg.FieldMapping))

	rows := []store.Row{
		// Needs enrichment: title present, author missing.
		{Index: 2, Fields: map[string]string{
			"Title": "The Great Gatsby", "Author": "", "ISBN": "9780743273565",
		}},
		// Skipped: empty title.
		{Index: 3, Fields: map[string]string{
			"Title": "   ", "Author": "Somebody",
		}},
		// Skipped: every mapped column already filled.
		{Index: 4, Fields: map[string]string{
			"Title": "Dune", "Author": "Frank Herbert", "Genre": "Science fiction",
			"Publisher": "Chilton", "Publication Year": "1965", "ISBN": "9780441013593",
			"Pages": "412", "Language": "en", "Description": "Desert planet.",
		}},
	}

	items := collectItems(cfg, rows, stats)

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	item := items[0]
	if item.RowIndex != 2 || item.Title != "The Great Gatsby" {
		t.Errorf("item = %+v", item)
	}
	if got := item.Existing[metadata.FieldISBN]; got != "9780743273565" {
		t.Errorf("existing isbn = %q", got)
	}
	if got := item.Existing[metadata.FieldAuthors]; got != "" {
		t.Errorf("existing authors = %q, want empty", got)
	}

	if got := stats.Summary().Skipped; got != 2 {
		t.Errorf("skipped = %d, want 2", got)
	}
}

func TestCollectItemsTitleGapDoesNotCount(t *testing.T) {
	cfg := config.Default()
	cfg.FieldMapping = map[string]string{
		"Title":  metadata.FieldTitle,
		"Author": metadata.FieldAuthors,
	}
	stats := pipeline.NewStats(reverseMapping(cfg.FieldMapping))

	// Author filled, so the only "gap" would be the title itself, which is
	// never a target.
	rows := []store.Row{
		{Index: 2, Fields: map[string]string{"Title": "Dune", "Author": "Frank Herbert"}},
	}

	if items := collectItems(cfg, rows, stats); len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
}

func TestTargetFields(t *testing.T) {
	cfg := config.Default()
	cfg.FieldMapping = map[string]string{
		"Title":  metadata.FieldTitle,
		"ISBN":   metadata.FieldISBN,
		"Author": metadata.FieldAuthors,
	}

	got := targetFields(cfg)
	want := []string{metadata.FieldTitle, metadata.FieldAuthors, metadata.FieldISBN}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("targetFields = %v, want vocabulary order %v", got, want)
	}
}

func TestReverseMapping(t *testing.T) {
	columnFor := reverseMapping(map[string]string{
		"Title":     metadata.FieldTitle,
		"Book Name": metadata.FieldTitle,
		"Author":    metadata.FieldAuthors,
	})

	if got := columnFor[metadata.FieldAuthors]; got != "Author" {
		t.Errorf("authors column = %q", got)
	}
	// Duplicate targets resolve to the lexicographically first column.
	if got := columnFor[metadata.FieldTitle]; got != "Book Name" {
		t.Errorf("title column = %q, want Book Name", got)
	}
}

func TestBuildProviders(t *testing.T) {
	cfg := config.Default()
	cfg.Providers = []string{config.ProviderOpenLibrary, config.ProviderGoogleBooks}

	built := buildProviders(cfg, nil)
	if len(built) != 2 {
		t.Fatalf("got %d providers, want 2", len(built))
	}
	// Order follows the config list, which fixes merge priority.
	if built[0].Name() != config.ProviderOpenLibrary || built[1].Name() != config.ProviderGoogleBooks {
		t.Errorf("provider order = %s, %s", built[0].Name(), built[1].Name())
	}
}

func TestRenderSummary(t *testing.T) {
	summary := pipeline.Summary{
		Processed: 10,
		Matched:   6,
		NoMatch:   2,
		Failed:    2,
		Skipped:   3,
		ErrorKinds: map[string]int{
			"exhausted": 1,
			"cancelled": 1,
		},
	}

	out := renderSummary(summary, 14, 1, false)

	for _, want := range []string{
		"Processed", "Matched", "No match", "Failed", "Skipped",
		"Writes applied", "Writes failed",
		"Error: cancelled", "Error: exhausted",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary table missing %q:\n%s", want, out)
		}
	}

	dry := renderSummary(summary, 14, 0, true)
	if !strings.Contains(dry, "Writes planned (dry run)") {
		t.Errorf("dry-run table missing planned-writes label:\n%s", dry)
	}
}
