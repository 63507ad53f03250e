// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Stage names one phase of the research pipeline. Stages advance strictly
// in the order listed; Failed is a parallel terminal state.
type Stage string

const (
	StageAnalyzing    Stage = "analyzing"
	StageSearching    Stage = "searching"
	StageIndexing     Stage = "indexing"
	StageRetrieving   Stage = "retrieving"
	StageSynthesizing Stage = "synthesizing"
	StageCiting       Stage = "citing"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
)

// ProgressEvent reports a stage transition or in-stage milestone. Events
// are appended to the session's progress log in strict stage order.
type ProgressEvent struct {
	Stage     Stage     `json:"stage" yaml:"stage"`
	Message   string    `json:"message" yaml:"message"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// CitationEntry binds a merged source to its stable citation number.
// Numbers are dense starting at 1 and assigned in first-use order; a given
// source keeps its number for the lifetime of the session.
type CitationEntry struct {
	Number    int          `json:"number" yaml:"number"`
	Source    MergedResult `json:"source" yaml:"source"`
	FirstUsed time.Time    `json:"first_used" yaml:"first_used"`
}

// ResearchResponse is the final output of a research session.
type ResearchResponse struct {
	// SessionID identifies the session that produced this response.
	SessionID string `json:"session_id" yaml:"session_id"`

	// Query is the raw question as submitted.
	Query string `json:"query" yaml:"query"`

	// Answer is the synthesized answer text with inline [N] markers, or an
	// explanatory placeholder when synthesis failed or the budget expired.
	Answer string `json:"answer" yaml:"answer"`

	// Sources lists the cited sources in citation-number order.
	Sources []CitationEntry `json:"sources" yaml:"sources"`

	// Bibliography is the rendered reference list in the requested style.
	Bibliography string `json:"bibliography" yaml:"bibliography"`

	// ProgressLog is the ordered sequence of stage events.
	ProgressLog []ProgressEvent `json:"progress_log" yaml:"progress_log"`

	// Degraded reports that at least one provider fell back, synthesis was
	// skipped, or the time budget expired before the pipeline finished.
	Degraded bool `json:"degraded" yaml:"degraded"`

	// Warnings carries human-readable degradation notices
	// (e.g. "provider arxiv unreachable, using fallback data").
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// FailReason is set only when the pipeline reached the Failed state
	// (e.g. "no_sources", "timeout").
	FailReason string `json:"fail_reason,omitempty" yaml:"fail_reason,omitempty"`
}
