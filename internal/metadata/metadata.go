// Package metadata defines the internal field vocabulary shared by the
// provider clients, the merger, and the row store mapping.
package metadata

// Internal field names. The field mapping in the run configuration may only
// target names from this set.
const (
	FieldTitle         = "title"
	FieldAuthors       = "authors"
	FieldPublisher     = "publisher"
	FieldPublishedDate = "published_date"
	FieldISBN          = "isbn"
	FieldCategories    = "categories"
	FieldPageCount     = "page_count"
	FieldLanguage      = "language"
	FieldDescription   = "description"
)

// knownFields lists every internal field in a stable order.
var knownFields = []string{
	FieldTitle,
	FieldAuthors,
	FieldPublisher,
	FieldPublishedDate,
	FieldISBN,
	FieldCategories,
	FieldPageCount,
	FieldLanguage,
	FieldDescription,
}

// KnownFields returns the closed set of internal field names in stable order.
func KnownFields() []string {
	out := make([]string, len(knownFields))
	copy(out, knownFields)
	return out
}

// IsKnownField reports whether name is part of the internal field vocabulary.
func IsKnownField(name string) bool {
	for _, f := range knownFields {
		if f == name {
			return true
		}
	}
	return false
}

// Candidate is a single provider's proposed record for a query title. Rank is
// the provider's own result ordering, zero-based; lower ranks were considered
// more relevant by the provider.
type Candidate struct {
	Provider string
	Title    string
	Rank     int
	Fields   map[string]string
}

// Field returns the candidate's value for an internal field name, or "" when
// the provider supplied nothing for it.
func (c Candidate) Field(name string) string {
	if c.Fields == nil {
		return ""
	}
	return c.Fields[name]
}
