// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the answer-engine pipeline.
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

import "time"

// TimePreference routes a sub-query toward recent or historical material.
type TimePreference string

const (
	TimeAny        TimePreference = "any"
	TimeRecent     TimePreference = "recent"
	TimeHistorical TimePreference = "historical"
)

// SubQuery is one focused variant of the user's question produced by the
// analyzer. SubQueries are immutable after creation.
type SubQuery struct {
	// Text is the query string sent to providers.
	Text string `json:"text" yaml:"text"`

	// Category is the matched topic category (e.g. "cryptography",
	// "machine_learning", or "general" when nothing matched).
	Category string `json:"category" yaml:"category"`

	// Weight is the analyzer's confidence in this variant, in [0.1, 0.95].
	Weight float64 `json:"weight" yaml:"weight"`

	// TimePreference biases ranking toward recent or historical results.
	TimePreference TimePreference `json:"time_preference" yaml:"time_preference"`

	// TopicTags are the category keywords that matched the raw query.
	TopicTags []string `json:"topic_tags,omitempty" yaml:"topic_tags,omitempty"`
}

// SearchRecord is a single normalized result from one provider. Records are
// immutable once a provider client returns them.
type SearchRecord struct {
	// Title is the document title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Authors lists the document authors in provider order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Abstract is the abstract or summary snippet.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// SourceURL is the canonical landing page for the document.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// PDFURL is a direct full-text link when the provider supplies one.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Published is the publication date; zero when unknown.
	Published time.Time `json:"published,omitempty" yaml:"published,omitempty"`

	// CitationCount is the provider-reported citation count, or -1 when the
	// provider does not report one.
	CitationCount int `json:"citation_count" yaml:"citation_count"`

	// Venue is the journal, conference, or site name.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// ProviderID identifies which provider produced this record
	// (e.g. "arxiv", "semantic_scholar", "web").
	ProviderID string `json:"provider_id" yaml:"provider_id"`

	// IsFallback marks synthetic placeholder data produced after a provider
	// outage. Fallback records rank last and are never cited.
	IsFallback bool `json:"is_fallback,omitempty" yaml:"is_fallback,omitempty"`
}

// FieldCount returns the number of populated metadata fields. The merge
// step keeps the record with the higher count when two records collide.
func (r SearchRecord) FieldCount() int {
	n := 0
	if r.Title != "" {
		n++
	}
	if len(r.Authors) > 0 {
		n++
	}
	if r.Abstract != "" {
		n++
	}
	if r.SourceURL != "" {
		n++
	}
	if r.PDFURL != "" {
		n++
	}
	if !r.Published.IsZero() {
		n++
	}
	if r.CitationCount >= 0 {
		n++
	}
	if r.Venue != "" {
		n++
	}
	return n
}

// MergedResult is a deduplicated SearchRecord with merge provenance.
type MergedResult struct {
	SearchRecord `yaml:",inline"`

	// DedupKey is the normalized identity this record was merged under
	// (normalized title + first-author surname).
	DedupKey string `json:"dedup_key" yaml:"dedup_key"`

	// MergedFrom lists every provider that contributed a record with the
	// same dedup key, including the winning provider.
	MergedFrom []string `json:"merged_from" yaml:"merged_from"`
}
