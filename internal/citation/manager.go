// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citation assigns stable citation numbers to sources, validates
// the markers a synthesis step emits against the registered set, and
// renders bibliographies. Validation is the defense against a synthesizer
// inventing references: any marker outside the registered range is
// reported so the orchestrator can strip it rather than trust it.
package citation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// markerRe matches numeric citation markers like [1], [2], [12].
var markerRe = regexp.MustCompile(`\[(\d+)\]`)

// Styles supported by FormatBibliography.
const (
	StyleNumeric = "numeric"
	StyleAPA     = "apa"
	StyleMLA     = "mla"
)

// Manager owns the citation registry for one research session. It is not
// shared across sessions.
type Manager struct {
	mu      sync.Mutex
	entries []types.CitationEntry
	byKey   map[string]int // dedup key → citation number

	// now is a test seam for FirstUsed timestamps.
	now func() time.Time
}

// NewManager creates an empty registry.
func NewManager() *Manager {
	return &Manager{
		byKey: make(map[string]int),
		now:   time.Now,
	}
}

// RegisterSources assigns numbers to sources in first-use order. Numbers
// are dense starting at 1 and stable: re-registering a source yields its
// existing number. Fallback records are refused; synthetic placeholder
// data must never be citable as genuine.
func (m *Manager) RegisterSources(results []types.MergedResult) []types.CitationEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.CitationEntry, 0, len(results))
	for _, r := range results {
		if r.IsFallback {
			continue
		}
		if n, ok := m.byKey[r.DedupKey]; ok {
			out = append(out, m.entries[n-1])
			continue
		}
		entry := types.CitationEntry{
			Number:    len(m.entries) + 1,
			Source:    r,
			FirstUsed: m.now(),
		}
		m.entries = append(m.entries, entry)
		m.byKey[r.DedupKey] = entry.Number
		out = append(out, entry)
	}
	return out
}

// Entries returns all registered entries in number order.
func (m *Manager) Entries() []types.CitationEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.CitationEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// ValidationResult partitions the markers found in a text.
type ValidationResult struct {
	// ValidMarkers are unique markers resolving to registered entries,
	// in ascending numeric order (e.g. "[1]", "[3]").
	ValidMarkers []string

	// InvalidMarkers are unique markers outside [1, maxRegistered].
	InvalidMarkers []string
}

// ValidateCitations scans text for [N] markers and checks each against
// the registered range.
func (m *Manager) ValidateCitations(text string) ValidationResult {
	m.mu.Lock()
	max := len(m.entries)
	m.mu.Unlock()

	seen := make(map[string]bool)
	var res ValidationResult
	for _, match := range markerRe.FindAllStringSubmatch(text, -1) {
		marker := match[0]
		if seen[marker] {
			continue
		}
		seen[marker] = true

		n, err := strconv.Atoi(match[1])
		if err != nil || n < 1 || n > max {
			res.InvalidMarkers = append(res.InvalidMarkers, marker)
			continue
		}
		res.ValidMarkers = append(res.ValidMarkers, marker)
	}

	sort.Slice(res.ValidMarkers, func(i, j int) bool { return markerNum(res.ValidMarkers[i]) < markerNum(res.ValidMarkers[j]) })
	sort.Slice(res.InvalidMarkers, func(i, j int) bool { return markerNum(res.InvalidMarkers[i]) < markerNum(res.InvalidMarkers[j]) })
	return res
}

// residueRe matches the whitespace left behind by a removed marker, either
// doubled spaces or a space stranded before punctuation.
var residueRe = regexp.MustCompile(`\s+([.,;:!?])| {2,}`)

// StripInvalid removes markers that do not resolve to a registered entry
// and tidies the whitespace their removal leaves behind.
func (m *Manager) StripInvalid(text string) string {
	m.mu.Lock()
	max := len(m.entries)
	m.mu.Unlock()

	stripped := false
	out := markerRe.ReplaceAllStringFunc(text, func(marker string) string {
		n := markerNum(marker)
		if n < 1 || n > max {
			stripped = true
			return ""
		}
		return marker
	})
	if !stripped {
		return out
	}
	return residueRe.ReplaceAllStringFunc(out, func(match string) string {
		if sub := residueRe.FindStringSubmatch(match); sub[1] != "" {
			return sub[1]
		}
		return " "
	})
}

func markerNum(marker string) int {
	n, _ := strconv.Atoi(strings.Trim(marker, "[]"))
	return n
}

// FormatBibliography renders all registered entries in the requested
// style, one entry per line, in citation-number order.
func (m *Manager) FormatBibliography(style string) (string, error) {
	entries := m.Entries()

	var b strings.Builder
	for _, e := range entries {
		switch style {
		case StyleNumeric, "":
			b.WriteString(formatNumeric(e))
		case StyleAPA:
			b.WriteString(formatAPA(e))
		case StyleMLA:
			b.WriteString(formatMLA(e))
		default:
			return "", fmt.Errorf("unknown citation style %q", style)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func formatNumeric(e types.CitationEntry) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%d] %s.", e.Number, authorList(e.Source.Authors)))
	parts = append(parts, e.Source.Title+".")
	if v := venueYear(e.Source); v != "" {
		parts = append(parts, v+".")
	}
	if e.Source.SourceURL != "" {
		parts = append(parts, e.Source.SourceURL)
	}
	return strings.Join(parts, " ")
}

func formatAPA(e types.CitationEntry) string {
	var b strings.Builder
	b.WriteString(authorList(e.Source.Authors))
	if !e.Source.Published.IsZero() {
		fmt.Fprintf(&b, " (%d).", e.Source.Published.Year())
	} else {
		b.WriteString(" (n.d.).")
	}
	b.WriteString(" " + e.Source.Title + ".")
	if e.Source.Venue != "" {
		b.WriteString(" " + e.Source.Venue + ".")
	}
	if e.Source.SourceURL != "" {
		b.WriteString(" " + e.Source.SourceURL)
	}
	return b.String()
}

func formatMLA(e types.CitationEntry) string {
	var b strings.Builder
	b.WriteString(authorList(e.Source.Authors))
	b.WriteString(`. "` + e.Source.Title + `."`)
	if v := venueYear(e.Source); v != "" {
		b.WriteString(" " + v + ".")
	}
	if e.Source.SourceURL != "" {
		b.WriteString(" " + e.Source.SourceURL)
	}
	return b.String()
}

// authorList renders up to three authors, then "et al.".
func authorList(authors []string) string {
	switch {
	case len(authors) == 0:
		return "Unknown"
	case len(authors) <= 3:
		return strings.Join(authors, ", ")
	default:
		return authors[0] + " et al"
	}
}

func venueYear(r types.MergedResult) string {
	var parts []string
	if r.Venue != "" {
		parts = append(parts, r.Venue)
	}
	if !r.Published.IsZero() {
		parts = append(parts, strconv.Itoa(r.Published.Year()))
	}
	return strings.Join(parts, ", ")
}
