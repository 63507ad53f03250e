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

// WebSearchClient queries a JSON web search API (SearxNG-compatible
// response shape). The endpoint comes from config so deployments can point
// at a self-hosted instance.
type WebSearchClient struct {
	Client   *http.Client
	Endpoint string
	APIKey   string
}

// Name returns the provider identifier.
func (c *WebSearchClient) Name() string { return "web" }

// Priority ranks web search after the academic indexes.
func (c *WebSearchClient) Priority() int { return 2 }

// Search queries the web search API and returns normalized records. Web
// results carry no author or citation metadata; only title, URL, snippet,
// and sometimes a published date.
func (c *WebSearchClient) Search(ctx context.Context, sub types.SubQuery, cfg types.ProviderConfig) ([]types.SearchRecord, error) {
	if sub.Text == "" {
		return nil, fmt.Errorf("empty web search query")
	}
	endpoint := c.Endpoint
	if endpoint == "" {
		return nil, fmt.Errorf("web search endpoint not configured")
	}

	params := url.Values{
		"q":      {sub.Text},
		"format": {"json"},
	}
	if sub.TimePreference == types.TimeRecent {
		params.Set("time_range", "year")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("web search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search API returned HTTP %d", resp.StatusCode)
	}

	var wr webSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, fmt.Errorf("parsing web search response: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	var records []types.SearchRecord
	for _, hit := range wr.Results {
		if len(records) >= maxResults {
			break
		}
		if hit.Title == "" || hit.URL == "" {
			continue
		}

		r := types.SearchRecord{
			Title:         hit.Title,
			Abstract:      hit.Content,
			SourceURL:     hit.URL,
			CitationCount: NoCitationCount,
			Venue:         hostOf(hit.URL),
			ProviderID:    c.Name(),
		}
		if hit.PublishedDate != "" {
			for _, layout := range []string{time.RFC3339, "2006-01-02"} {
				if t, parseErr := time.Parse(layout, hit.PublishedDate); parseErr == nil {
					r.Published = t
					break
				}
			}
		}
		records = append(records, r)
	}
	return records, nil
}

// hostOf extracts the hostname from a URL for use as the venue.
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Web search API JSON structures.
type webSearchResponse struct {
	Results []webSearchHit `json:"results"`
}

type webSearchHit struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Content       string `json:"content"`
	PublishedDate string `json:"publishedDate"`
}
