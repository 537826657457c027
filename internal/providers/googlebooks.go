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

const googleBooksBaseURL = "https://www.googleapis.com/books/v1/volumes"

// GoogleBooks queries the Google Books volumes API. It is the primary
// provider: richly structured fields and the most reliable identifiers.
type GoogleBooks struct {
	baseURL   string
	transport *transport.Transport
}

// NewGoogleBooks creates a Google Books client on top of the shared
// transport. baseURL may be empty to use the public API endpoint.
func NewGoogleBooks(t *transport.Transport, baseURL string) *GoogleBooks {
	if baseURL == "" {
		baseURL = googleBooksBaseURL
	}
	return &GoogleBooks{baseURL: baseURL, transport: t}
}

// Name implements Provider.
func (g *GoogleBooks) Name() string {
	return config.ProviderGoogleBooks
}

// Lookup implements Provider. Results come back in the API's relevance order,
// preserved in Candidate.Rank.
func (g *GoogleBooks) Lookup(ctx context.Context, title string) ([]metadata.Candidate, error) {
	if title == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", fmt.Sprintf("intitle:%q", title))
	params.Set("maxResults", "5")
	params.Set("printType", "books")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build google books request: %w", err)
	}

	resp, err := g.transport.Do(ctx, g.Name(), req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Items []struct {
			VolumeInfo struct {
				Title               string   `json:"title"`
				Authors             []string `json:"authors"`
				Publisher           string   `json:"publisher"`
				PublishedDate       string   `json:"publishedDate"`
				IndustryIdentifiers []struct {
					Type       string `json:"type"`
					Identifier string `json:"identifier"`
				} `json:"industryIdentifiers"`
				Categories  []string `json:"categories"`
				PageCount   int      `json:"pageCount"`
				Language    string   `json:"language"`
				Description string   `json:"description"`
			} `json:"volumeInfo"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode google books response: %w", err)
	}

	candidates := make([]metadata.Candidate, 0, len(payload.Items))
	for rank, item := range payload.Items {
		info := item.VolumeInfo
		if info.Title == "" {
			continue
		}

		// Prefer ISBN-13, fall back to ISBN-10.
		isbn := ""
		for _, id := range info.IndustryIdentifiers {
			if id.Type == "ISBN_13" {
				isbn = id.Identifier
				break
			}
			if id.Type == "ISBN_10" && isbn == "" {
				isbn = id.Identifier
			}
		}

		pageCount := ""
		if info.PageCount > 0 {
			pageCount = strconv.Itoa(info.PageCount)
		}

		candidates = append(candidates, metadata.Candidate{
			Provider: g.Name(),
			Title:    info.Title,
			Rank:     rank,
			Fields: map[string]string{
				metadata.FieldTitle:         info.Title,
				metadata.FieldAuthors:       joinLimited(info.Authors, 0),
				metadata.FieldPublisher:     info.Publisher,
				metadata.FieldPublishedDate: extractYear(info.PublishedDate),
				metadata.FieldISBN:          isbn,
				metadata.FieldCategories:    joinLimited(info.Categories, 0),
				metadata.FieldPageCount:     pageCount,
				metadata.FieldLanguage:      info.Language,
				metadata.FieldDescription:   truncateDescription(info.Description),
			},
		})
	}

	return candidates, nil
}
