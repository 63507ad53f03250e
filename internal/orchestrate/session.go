// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/answer-engine/internal/citation"
	"github.com/pdiddy/answer-engine/internal/semindex"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Answers used when synthesis could not run.
const (
	placeholderAnswer = "An answer could not be synthesized for this query. " +
		"The most relevant sources found are listed in the bibliography."
	timeoutAnswer = "The session time budget expired before an answer could be synthesized. " +
		"The sources found so far are listed in the bibliography."
)

// Session is the per-request pipeline state: one query, one semantic
// index, one citation registry, one progress log. Sessions are never
// shared across requests and run exactly once.
type Session struct {
	o     *Orchestrator
	id    string
	query string
	sink  ProgressSink
	done  bool

	subs []types.SubQuery

	index     *semindex.Index
	citations *citation.Manager

	// mu guards log and warnings; ingest workers append warnings
	// concurrently.
	mu       sync.Mutex
	log      []types.ProgressEvent
	warnings []string
}

// NewSession validates the query and configuration and prepares a
// session. The citation style is checked here so the Citing stage cannot
// fail mid-pipeline.
func (o *Orchestrator) NewSession(query string, sink ProgressSink) (*Session, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	switch o.cfg.Orchestrator.CitationStyle {
	case "", citation.StyleNumeric, citation.StyleAPA, citation.StyleMLA:
	default:
		return nil, fmt.Errorf("unknown citation style %q", o.cfg.Orchestrator.CitationStyle)
	}

	return &Session{
		o:         o,
		id:        uuid.NewString(),
		query:     query,
		sink:      sink,
		index:     semindex.NewIndex(),
		citations: citation.NewManager(),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// emit appends a progress event and forwards it to the sink.
func (s *Session) emit(stage types.Stage, message string) {
	event := types.ProgressEvent{Stage: stage, Message: message, Timestamp: time.Now()}
	s.mu.Lock()
	s.log = append(s.log, event)
	s.mu.Unlock()
	if s.sink != nil {
		s.sink(event)
	}
}

// warnf records a degradation notice on the session and the warn writer.
func (s *Session) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.mu.Lock()
	s.warnings = append(s.warnings, msg)
	s.mu.Unlock()
	fmt.Fprintf(s.o.warn, "warning: %s\n", msg)
}

// excerpt pairs a citation number with the chunk text it grounds.
type excerpt struct {
	number int
	text   string
}

// registerRetrieved assigns citation numbers to the sources of the
// retrieved chunks in rank order, capped at MaxSources distinct sources
// across the whole session; chunks from sources over the cap are dropped
// from the prompt. When
// retrieval produced nothing, the top merged results are registered
// directly so the response still carries grounded sources.
func (s *Session) registerRetrieved(retrieved []semindex.Retrieved, merged []types.MergedResult) []excerpt {
	maxSources := s.o.cfg.Orchestrator.MaxSources
	if maxSources <= 0 {
		maxSources = defaultMaxSources
	}

	registered := make(map[string]int)
	for _, e := range s.citations.Entries() {
		registered[e.Source.DedupKey] = e.Number
	}

	var excerpts []excerpt
	for _, c := range retrieved {
		number, ok := registered[c.Source.DedupKey]
		if !ok {
			if len(registered) >= maxSources {
				continue
			}
			entries := s.citations.RegisterSources([]types.MergedResult{c.Source})
			if len(entries) == 0 {
				continue
			}
			number = entries[0].Number
			registered[c.Source.DedupKey] = number
		}
		excerpts = append(excerpts, excerpt{number: number, text: c.Text})
	}

	if len(excerpts) > 0 {
		return excerpts
	}
	for _, m := range merged {
		if m.IsFallback || len(registered) >= maxSources {
			continue
		}
		entries := s.citations.RegisterSources([]types.MergedResult{m})
		if len(entries) == 0 {
			continue
		}
		registered[m.DedupKey] = entries[0].Number
		text := m.Abstract
		if text == "" {
			text = m.Title
		}
		excerpts = append(excerpts, excerpt{number: entries[0].Number, text: text})
	}
	return excerpts
}

// partial builds the budget-expired response: sources registered from
// whatever the search stage assembled, a placeholder answer, and the
// Failed terminal state with partial data preserved.
func (s *Session) partial(merged []types.MergedResult) *types.ResearchResponse {
	s.registerRetrieved(nil, merged)
	s.warnf("time budget expired, returning partial results")

	bibliography, err := s.citations.FormatBibliography(s.o.cfg.Orchestrator.CitationStyle)
	if err != nil {
		bibliography = ""
	}

	s.emit(types.StageFailed, "time budget expired")
	resp := s.response(timeoutAnswer, bibliography)
	resp.FailReason = FailTimeout
	return resp
}

// fail builds the hard-failure response carrying the progress log and
// warnings accumulated so far.
func (s *Session) fail(reason, message string) *types.ResearchResponse {
	s.emit(types.StageFailed, message)
	resp := s.response("", "")
	resp.FailReason = reason
	return resp
}

// response assembles the final ResearchResponse. Degraded is set whenever
// any warning was recorded during the session.
func (s *Session) response(answer, bibliography string) *types.ResearchResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &types.ResearchResponse{
		SessionID:    s.id,
		Query:        s.query,
		Answer:       answer,
		Sources:      s.citations.Entries(),
		Bibliography: bibliography,
		ProgressLog:  append([]types.ProgressEvent(nil), s.log...),
		Degraded:     len(s.warnings) > 0,
		Warnings:     append([]string(nil), s.warnings...),
	}
}
