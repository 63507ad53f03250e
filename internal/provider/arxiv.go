// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivClient queries the arXiv API.
type ArxivClient struct {
	Client *http.Client
}

// Name returns the provider identifier.
func (c *ArxivClient) Name() string { return "arxiv" }

// Priority ranks arXiv first among providers.
func (c *ArxivClient) Priority() int { return 0 }

// Search queries the arXiv API and returns normalized records.
func (c *ArxivClient) Search(ctx context.Context, sub types.SubQuery, cfg types.ProviderConfig) ([]types.SearchRecord, error) {
	q := buildArxivQuery(sub.Text)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	sortBy := "relevance"
	if sub.TimePreference == types.TimeRecent {
		sortBy = "submittedDate"
	}

	reqURL := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=%s&sortOrder=descending",
		arxivAPIBase, q, maxResults, sortBy)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var records []types.SearchRecord
	for _, entry := range feed.Entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		r := types.SearchRecord{
			Title:         strings.TrimSpace(entry.Title),
			Abstract:      strings.TrimSpace(entry.Summary),
			SourceURL:     "https://arxiv.org/abs/" + arxivID,
			PDFURL:        "https://arxiv.org/pdf/" + arxivID,
			CitationCount: NoCitationCount,
			Venue:         "arXiv",
			ProviderID:    c.Name(),
		}

		for _, a := range entry.Authors {
			r.Authors = append(r.Authors, strings.TrimSpace(a.Name))
		}

		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			r.Published = t
		}

		records = append(records, r)
	}
	return records, nil
}

// buildArxivQuery constructs the search_query parameter from free text.
func buildArxivQuery(text string) string {
	terms := strings.Fields(text)
	if len(terms) == 0 {
		return ""
	}
	escaped := make([]string, len(terms))
	for i, term := range terms {
		escaped[i] = url.QueryEscape(term)
	}
	return "all:" + strings.Join(escaped, "+")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	idx := strings.LastIndex(idURL, "/abs/")
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len("/abs/"):]
	// Strip version suffix.
	if v := strings.LastIndexByte(id, 'v'); v > 0 {
		allDigits := true
		for _, r := range id[v+1:] {
			if r < '0' || r > '9' {
				allDigits = false
				break
			}
		}
		if allDigits && v+1 < len(id) {
			id = id[:v]
		}
	}
	return id
}
