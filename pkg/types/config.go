// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "answer-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ProviderConfig holds settings shared by the search provider clients.
type ProviderConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the per-provider result limit for a single call (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableArxiv controls whether the arXiv client is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// EnableSemanticScholar controls whether the Semantic Scholar client is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// EnableWebSearch controls whether the general web search client is used.
	EnableWebSearch bool `json:"enable_web_search" yaml:"enable_web_search"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// WebSearchEndpoint is the base URL of the JSON web search API.
	WebSearchEndpoint string `json:"web_search_endpoint,omitempty" yaml:"web_search_endpoint,omitempty"`

	// WebSearchAPIKey authenticates against the web search API.
	WebSearchAPIKey string `json:"web_search_api_key,omitempty" yaml:"web_search_api_key,omitempty"`
}

// FetcherConfig holds retry, throttling, and fallback settings for the
// resilient fetch layer.
type FetcherConfig struct {
	// MaxAttempts is the total number of tries per provider call (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// BaseDelay is the first backoff interval; it doubles per attempt (default 1s).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`

	// MinInterval is the politeness interval between requests to one
	// provider (default 500ms).
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`

	// CallTimeout bounds a single provider call including retries (default 8s).
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`

	// FallbackCount is the number of synthetic records produced after an
	// outage (default 3).
	FallbackCount int `json:"fallback_count" yaml:"fallback_count"`
}

// AnalyzerConfig holds settings for query analysis.
type AnalyzerConfig struct {
	// CategoriesFile optionally overrides the built-in topic category table
	// with a YAML file of {category, keywords, templates} entries.
	CategoriesFile string `json:"categories_file,omitempty" yaml:"categories_file,omitempty"`

	// MaxVariants caps the number of sub-queries generated (default 3, max 5).
	MaxVariants int `json:"max_variants" yaml:"max_variants"`
}

// SearcherConfig holds settings for the merge stage.
type SearcherConfig struct {
	// MaxResults is the cap on merged results returned (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// FanOutLimit is the maximum number of concurrent provider calls (default 5).
	FanOutLimit int `json:"fan_out_limit" yaml:"fan_out_limit"`
}

// IndexConfig holds settings for the per-session semantic index.
type IndexConfig struct {
	// ChunkSize is the target chunk length in characters (default 800).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// ChunkOverlap is the character overlap between neighboring chunks (default 120).
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`

	// TopK is the number of chunks handed to synthesis (default 8).
	TopK int `json:"top_k" yaml:"top_k"`

	// Workers is the document-processing pool size (default 3).
	Workers int `json:"workers" yaml:"workers"`
}

// OrchestratorConfig holds session-level settings.
type OrchestratorConfig struct {
	// TimeBudget bounds the whole session (default 180s).
	TimeBudget time.Duration `json:"time_budget" yaml:"time_budget"`

	// MaxSources caps the number of sources in the final response (default 10).
	MaxSources int `json:"max_sources" yaml:"max_sources"`

	// CitationStyle selects the bibliography style: numeric, apa, or mla.
	CitationStyle string `json:"citation_style" yaml:"citation_style"`

	// ExportDir is where completed sessions are written as YAML; empty
	// disables export.
	ExportDir string `json:"export_dir,omitempty" yaml:"export_dir,omitempty"`
}

// ArchiveConfig holds settings for the session archive database.
type ArchiveConfig struct {
	// ArchiveDir is the directory holding the archive database (default
	// "archive"). The database file is answer-engine.db.
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir"`

	// MaxResults is the default limit for archive queries (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// DocFetchConfig holds settings for source document fetching.
type DocFetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// FetchDelay is the politeness delay between consecutive downloads (default 1s).
	FetchDelay time.Duration `json:"fetch_delay" yaml:"fetch_delay"`

	// MaxBodyBytes caps how much of a document body is read (default 512 KiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Providers    ProviderConfig     `json:"providers" yaml:"providers"`
	Fetcher      FetcherConfig      `json:"fetcher" yaml:"fetcher"`
	Analyzer     AnalyzerConfig     `json:"analyzer" yaml:"analyzer"`
	Searcher     SearcherConfig     `json:"searcher" yaml:"searcher"`
	Index        IndexConfig        `json:"index" yaml:"index"`
	DocFetch     DocFetchConfig     `json:"doc_fetch" yaml:"doc_fetch"`
	Orchestrator OrchestratorConfig `json:"orchestrator" yaml:"orchestrator"`
	Archive      ArchiveConfig      `json:"archive" yaml:"archive"`
}
