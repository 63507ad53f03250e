// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider implements the per-source search clients. Each client
// queries one external API and normalizes its response into SearchRecords;
// fault tolerance lives one layer up in the resilient package.
package provider

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Client searches a single external provider. Each client (arXiv,
// Semantic Scholar, web search) implements this interface per the
// Strategy pattern.
type Client interface {
	Name() string

	// Priority orders providers for rank tie-breaking; lower wins.
	// Academic indexes sit before general web search.
	Priority() int

	Search(ctx context.Context, sub types.SubQuery, cfg types.ProviderConfig) ([]types.SearchRecord, error)
}

// NoCitationCount is stored in SearchRecord.CitationCount when a provider
// does not report citation counts.
const NoCitationCount = -1

// Enabled builds the client set from config. Order follows priority.
func Enabled(cfg types.ProviderConfig, httpClient *http.Client) []Client {
	var clients []Client
	if cfg.EnableArxiv {
		clients = append(clients, &ArxivClient{Client: httpClient})
	}
	if cfg.EnableSemanticScholar {
		clients = append(clients, &SemanticScholarClient{Client: httpClient, APIKey: cfg.SemanticScholarAPIKey})
	}
	if cfg.EnableWebSearch {
		clients = append(clients, &WebSearchClient{Client: httpClient, Endpoint: cfg.WebSearchEndpoint, APIKey: cfg.WebSearchAPIKey})
	}
	return clients
}

// NormalizeTitle returns a lowercased, punctuation-stripped version of the
// title, with runs of whitespace collapsed. Used for cross-source identity.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// FirstAuthorSurname returns the lowercased last token of the first author
// name, or "" when there are no authors.
func FirstAuthorSurname(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	fields := strings.Fields(authors[0])
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Trim(fields[len(fields)-1], ".,"))
}

// DedupKey derives the cross-source identity of a record from its
// normalized title and first-author surname.
func DedupKey(r types.SearchRecord) string {
	return NormalizeTitle(r.Title) + "|" + FirstAuthorSurname(r.Authors)
}
