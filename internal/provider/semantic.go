// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,publicationDate,citationCount,venue,url,openAccessPdf"

// SemanticScholarClient queries the Semantic Scholar API.
type SemanticScholarClient struct {
	Client *http.Client
	APIKey string
}

// Name returns the provider identifier.
func (c *SemanticScholarClient) Name() string { return "semantic_scholar" }

// Priority ranks Semantic Scholar after arXiv, before web search.
func (c *SemanticScholarClient) Priority() int { return 1 }

// Search queries the Semantic Scholar API and returns normalized records.
func (c *SemanticScholarClient) Search(ctx context.Context, sub types.SubQuery, cfg types.ProviderConfig) ([]types.SearchRecord, error) {
	if sub.Text == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{
		"query":  {sub.Text},
		"limit":  {fmt.Sprintf("%d", maxResults)},
		"fields": {semanticFields},
	}

	// Recent-preference queries filter to the last five years.
	if sub.TimePreference == types.TimeRecent {
		params.Set("year", fmt.Sprintf("%d-", time.Now().Year()-5))
	}

	reqURL := semanticAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var records []types.SearchRecord
	for _, paper := range sr.Data {
		r := types.SearchRecord{
			Title:         paper.Title,
			Abstract:      paper.Abstract,
			SourceURL:     paper.URL,
			CitationCount: paper.CitationCount,
			Venue:         paper.Venue,
			ProviderID:    c.Name(),
		}

		for _, a := range paper.Authors {
			r.Authors = append(r.Authors, a.Name)
		}

		if paper.OpenAccessPdf.URL != "" {
			r.PDFURL = paper.OpenAccessPdf.URL
		}

		if paper.PublicationDate != "" {
			if t, parseErr := time.Parse("2006-01-02", paper.PublicationDate); parseErr == nil {
				r.Published = t
			}
		} else if paper.Year > 0 {
			r.Published = time.Date(paper.Year, 1, 1, 0, 0, 0, 0, time.UTC)
		}

		if r.SourceURL == "" && paper.ExternalIDs.ArXiv != "" {
			r.SourceURL = "https://arxiv.org/abs/" + paper.ExternalIDs.ArXiv
		}
		if r.SourceURL == "" && paper.ExternalIDs.DOI != "" {
			r.SourceURL = "https://doi.org/" + paper.ExternalIDs.DOI
		}

		records = append(records, r)
	}
	return records, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	CitationCount   int                 `json:"citationCount"`
	Venue           string              `json:"venue"`
	URL             string              `json:"url"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
	OpenAccessPdf   semanticPdf         `json:"openAccessPdf"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

type semanticPdf struct {
	URL string `json:"url"`
}
