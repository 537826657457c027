package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lehigh-university-libraries/bookfill/internal/config"
	"github.com/lehigh-university-libraries/bookfill/internal/metadata"
	"github.com/lehigh-university-libraries/bookfill/internal/transport"
)

const openLibraryBaseURL = "https://openlibrary.org/search.json"

// OpenLibrary queries the Open Library search API. It is the secondary
// provider: a sparser field set, but strong subject coverage.
type OpenLibrary struct {
	baseURL   string
	transport *transport.Transport
}

// NewOpenLibrary creates an Open Library client on top of the shared
// transport. baseURL may be empty to use the public API endpoint.
func NewOpenLibrary(t *transport.Transport, baseURL string) *OpenLibrary {
	if baseURL == "" {
		baseURL = openLibraryBaseURL
	}
	return &OpenLibrary{baseURL: baseURL, transport: t}
}

// Name implements Provider.
func (o *OpenLibrary) Name() string {
	return config.ProviderOpenLibrary
}

// Lookup implements Provider.
func (o *OpenLibrary) Lookup(ctx context.Context, title string) ([]metadata.Candidate, error) {
	if title == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("title", title)
	params.Set("limit", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build open library request: %w", err)
	}

	resp, err := o.transport.Do(ctx, o.Name(), req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Docs []struct {
			Title            string   `json:"title"`
			AuthorName       []string `json:"author_name"`
			Publisher        []string `json:"publisher"`
			FirstPublishYear int      `json:"first_publish_year"`
			ISBN             []string `json:"isbn"`
			Subject          []string `json:"subject"`
			PagesMedian      int      `json:"number_of_pages_median"`
			Language         []string `json:"language"`
		} `json:"docs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode open library response: %w", err)
	}

	candidates := make([]metadata.Candidate, 0, len(payload.Docs))
	for rank, doc := range payload.Docs {
		if doc.Title == "" {
			continue
		}

		isbn := ""
		if len(doc.ISBN) > 0 {
			isbn = doc.ISBN[0]
		}
		year := ""
		if doc.FirstPublishYear > 0 {
			year = strconv.Itoa(doc.FirstPublishYear)
		}
		pageCount := ""
		if doc.PagesMedian > 0 {
			pageCount = strconv.Itoa(doc.PagesMedian)
		}

		candidates = append(candidates, metadata.Candidate{
			Provider: o.Name(),
			Title:    doc.Title,
			Rank:     rank,
			Fields: map[string]string{
				metadata.FieldTitle:         doc.Title,
				metadata.FieldAuthors:       joinLimited(doc.AuthorName, 0),
				metadata.FieldPublisher:     joinLimited(doc.Publisher, 3),
				metadata.FieldPublishedDate: year,
				metadata.FieldISBN:          isbn,
				metadata.FieldCategories:    joinLimited(doc.Subject, 5),
				metadata.FieldPageCount:     pageCount,
				metadata.FieldLanguage:      joinLimited(doc.Language, 2),
			},
		})
	}

	return candidates, nil
}
