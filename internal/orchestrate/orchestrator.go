// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrate drives a research session through the pipeline
// stages: analyzing, searching, indexing, retrieving, synthesizing, and
// citing. The orchestrator runs stages sequentially and fans out within a
// stage; provider outages and synthesis failures degrade the response
// rather than abort it. Only two conditions are fatal: no real sources at
// all, and the session time budget expiring.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/pdiddy/answer-engine/internal/ai"
	"github.com/pdiddy/answer-engine/internal/analyzer"
	"github.com/pdiddy/answer-engine/internal/docfetch"
	"github.com/pdiddy/answer-engine/internal/searcher"
	"github.com/pdiddy/answer-engine/internal/semindex"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Sentinel errors callers branch on. A non-nil response accompanies
// ErrNoSources and ErrBudgetExceeded so partial work is never discarded.
var (
	ErrNoSources      = errors.New("no sources found")
	ErrBudgetExceeded = errors.New("session budget exceeded")
	ErrSessionClosed  = errors.New("session already completed")
)

// Fail reasons recorded in ResearchResponse.FailReason.
const (
	FailNoSources = "no_sources"
	FailTimeout   = "timeout"
)

const (
	defaultTimeBudget = 180 * time.Second
	defaultMaxSources = 10
	defaultWorkers    = 3
)

// ProgressSink receives stage events as they occur. Events arrive in
// strict stage order; a stage's completion event is emitted only after
// all its fan-out tasks have settled. A nil sink is allowed.
type ProgressSink func(types.ProgressEvent)

// Orchestrator holds the pipeline collaborators shared by all sessions.
// Per-session state (index, citation registry, progress log) lives in
// Session.
type Orchestrator struct {
	analyzer    *analyzer.Analyzer
	fetchers    []searcher.Fetcher
	docs        *docfetch.Fetcher
	embedder    ai.Embedder
	synthesizer ai.Synthesizer
	extractor   ai.ContentExtractor
	cfg         types.PipelineConfig
	warn        io.Writer
}

// New assembles an orchestrator. All collaborators are required; warn
// receives human-readable degradation notices as they happen.
func New(an *analyzer.Analyzer, fetchers []searcher.Fetcher, docs *docfetch.Fetcher,
	embedder ai.Embedder, synthesizer ai.Synthesizer, extractor ai.ContentExtractor,
	cfg types.PipelineConfig, warn io.Writer) *Orchestrator {
	return &Orchestrator{
		analyzer:    an,
		fetchers:    fetchers,
		docs:        docs,
		embedder:    embedder,
		synthesizer: synthesizer,
		extractor:   extractor,
		cfg:         cfg,
		warn:        warn,
	}
}

// Run creates a session for query and runs it to completion.
func (o *Orchestrator) Run(ctx context.Context, query string, sink ProgressSink) (*types.ResearchResponse, error) {
	s, err := o.NewSession(query, sink)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}

// Run drives the session state machine. It returns a response for every
// outcome: complete, degraded-partial, or explicit failure. The error is
// nil on success (including degraded success), ErrNoSources or
// ErrBudgetExceeded on the failure paths, each with a non-nil response.
func (s *Session) Run(ctx context.Context) (*types.ResearchResponse, error) {
	if s.done {
		return nil, ErrSessionClosed
	}
	s.done = true
	o := s.o

	budget := o.cfg.Orchestrator.TimeBudget
	if budget <= 0 {
		budget = defaultTimeBudget
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	s.emit(types.StageAnalyzing, "decomposing query")
	s.subs = o.analyzer.Analyze(s.query)
	s.emit(types.StageAnalyzing, fmt.Sprintf("%d sub-queries in category %q", len(s.subs), s.subs[0].Category))

	s.emit(types.StageSearching, fmt.Sprintf("fanning out across %d providers", len(o.fetchers)))
	out, err := searcher.Search(ctx, s.subs, o.fetchers, o.cfg.Searcher, o.warn)
	if err != nil {
		return s.fail(FailNoSources, err.Error()), ErrNoSources
	}
	for _, w := range out.Warnings {
		s.warnf("%s", w)
	}
	if out.RealCount == 0 {
		if ctx.Err() != nil {
			return s.fail(FailTimeout, "time budget expired before any source responded"), ErrBudgetExceeded
		}
		return s.fail(FailNoSources, "every provider returned only fallback or empty data"), ErrNoSources
	}
	s.emit(types.StageSearching, fmt.Sprintf("%d merged results, %d duplicates removed", len(out.Results), out.DupsRemoved))

	s.emit(types.StageIndexing, "fetching and indexing source documents")
	o.ingest(ctx, s, out.Results)
	s.emit(types.StageIndexing, fmt.Sprintf("%d chunks indexed", s.index.Size()))

	if ctx.Err() != nil {
		return s.partial(out.Results), ErrBudgetExceeded
	}

	s.emit(types.StageRetrieving, "selecting relevant chunks")
	retrieved := o.retrieve(ctx, s)
	s.emit(types.StageRetrieving, fmt.Sprintf("%d chunks selected", len(retrieved)))

	if ctx.Err() != nil {
		return s.partial(out.Results), ErrBudgetExceeded
	}

	excerpts := s.registerRetrieved(retrieved, out.Results)

	s.emit(types.StageSynthesizing, fmt.Sprintf("prompting with %d source excerpts", len(excerpts)))
	answer, synthErr := o.synthesizer.Complete(ctx, buildPrompt(s.query, excerpts))
	if synthErr != nil {
		if ctx.Err() != nil {
			return s.partial(out.Results), ErrBudgetExceeded
		}
		s.warnf("synthesis failed, returning sources without an answer: %v", synthErr)
		answer = placeholderAnswer
	}

	s.emit(types.StageCiting, "validating citation markers")
	validation := s.citations.ValidateCitations(answer)
	if len(validation.InvalidMarkers) > 0 {
		s.warnf("stripped %d unverifiable citation markers: %s",
			len(validation.InvalidMarkers), strings.Join(validation.InvalidMarkers, " "))
		answer = s.citations.StripInvalid(answer)
	}
	bibliography, err := s.citations.FormatBibliography(o.cfg.Orchestrator.CitationStyle)
	if err != nil {
		return nil, err
	}

	s.emit(types.StageDone, "session complete")
	resp := s.response(answer, bibliography)

	if dir := o.cfg.Orchestrator.ExportDir; dir != "" {
		if err := ExportSession(dir, resp, s.subs); err != nil {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("session export failed: %v", err))
			fmt.Fprintf(o.warn, "warning: session export failed: %v\n", err)
		}
	}
	return resp, nil
}

// ingest fetches, extracts, chunks, and embeds every real merged result,
// bounded by a worker pool. Fallback records are skipped: placeholder
// text must never enter the index.
func (o *Orchestrator) ingest(ctx context.Context, s *Session, results []types.MergedResult) {
	workers := o.cfg.Index.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		for _, r := range results {
			if !r.IsFallback {
				o.ingestOne(ctx, s, r)
			}
		}
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, r := range results {
		if r.IsFallback {
			continue
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			o.ingestOne(ctx, s, r)
		}
		if err := pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
}

func (o *Orchestrator) ingestOne(ctx context.Context, s *Session, r types.MergedResult) {
	if ctx.Err() != nil {
		return
	}

	raw, _ := o.docs.Fetch(ctx, r)
	extracted, err := o.extractor.Extract(raw)
	if err != nil {
		s.warnf("extracting %q: %v", r.Title, err)
		return
	}

	pieces := semindex.SplitText(extracted.Text, o.cfg.Index.ChunkSize, o.cfg.Index.ChunkOverlap)
	if len(pieces) == 0 {
		return
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Text
	}
	vectors, err := o.embedder.EmbedTexts(ctx, texts)
	if err != nil || len(vectors) != len(pieces) {
		s.warnf("embedding %q: %v", r.Title, err)
		return
	}

	chunks := make([]semindex.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = semindex.NewChunk(vectors[i], p.Text, r, p.Offset)
	}
	s.index.Add(chunks...)
}

// retrieve embeds the query and runs the diversity-filtered similarity
// search. An embedding failure degrades to an empty retrieval set.
func (o *Orchestrator) retrieve(ctx context.Context, s *Session) []semindex.Retrieved {
	queryVector, err := o.embedder.EmbedText(ctx, s.query)
	if err != nil {
		s.warnf("query embedding failed: %v", err)
		return nil
	}
	return semindex.NewRetriever(s.index).Retrieve(queryVector, s.query, o.cfg.Index.TopK)
}
