// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package searcher

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// mockFetcher returns canned records; err is the informational
// degradation notice the resilient layer attaches to fallback data.
type mockFetcher struct {
	name     string
	priority int
	records  []types.SearchRecord
	err      error
}

func (m *mockFetcher) Name() string  { return m.name }
func (m *mockFetcher) Priority() int { return m.priority }

func (m *mockFetcher) Fetch(_ context.Context, _ types.SubQuery) ([]types.SearchRecord, error) {
	return m.records, m.err
}

func subs(texts ...string) []types.SubQuery {
	out := make([]types.SubQuery, len(texts))
	for i, t := range texts {
		out[i] = types.SubQuery{Text: t, Weight: 0.5}
	}
	return out
}

func rec(title, author, providerID string, citations int) types.SearchRecord {
	return types.SearchRecord{
		Title:         title,
		Authors:       []string{author},
		SourceURL:     "https://example.org/" + providerID,
		CitationCount: citations,
		ProviderID:    providerID,
	}
}

func testCfg() types.SearcherConfig {
	return types.SearcherConfig{MaxResults: 20, FanOutLimit: 5}
}

func TestSearchRequiresInput(t *testing.T) {
	var buf bytes.Buffer
	_, err := Search(context.Background(), nil, []Fetcher{&mockFetcher{name: "m"}}, testCfg(), &buf)
	assert.Error(t, err)

	_, err = Search(context.Background(), subs("q"), nil, testCfg(), &buf)
	assert.Error(t, err)
}

func TestSearchMergesCaseWhitespaceDuplicates(t *testing.T) {
	a := &mockFetcher{name: "arxiv", records: []types.SearchRecord{
		rec("Lattice Based Cryptography", "Oded Regev", "arxiv", -1),
	}}
	b := &mockFetcher{name: "semantic_scholar", priority: 1, records: []types.SearchRecord{
		rec("  lattice based CRYPTOGRAPHY ", "O. Regev", "semantic_scholar", 900),
	}}

	var buf bytes.Buffer
	out, err := Search(context.Background(), subs("q"), []Fetcher{a, b}, testCfg(), &buf)
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, 1, out.DupsRemoved)
	assert.ElementsMatch(t, []string{"arxiv", "semantic_scholar"}, out.Results[0].MergedFrom)
	// The richer record (citation count populated) wins the collision.
	assert.Equal(t, 900, out.Results[0].CitationCount)
}

func TestSearchMergePrefersRealOverFallback(t *testing.T) {
	fallback := types.SearchRecord{
		Title: "Paper A", Authors: []string{"Jane Doe"},
		ProviderID: "web", IsFallback: true, CitationCount: -1,
		Abstract: "placeholder", SourceURL: "fallback://web/1",
	}
	real := rec("Paper A", "Jane Doe", "arxiv", -1)

	a := &mockFetcher{name: "web", priority: 2, records: []types.SearchRecord{fallback}}
	b := &mockFetcher{name: "arxiv", records: []types.SearchRecord{real}}

	var buf bytes.Buffer
	out, err := Search(context.Background(), subs("q"), []Fetcher{a, b}, testCfg(), &buf)
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.False(t, out.Results[0].IsFallback)
	assert.Equal(t, "arxiv", out.Results[0].ProviderID)
	// Missing fields fill in from the losing record.
	assert.Equal(t, "placeholder", out.Results[0].Abstract)
}

func TestSearchRanking(t *testing.T) {
	now := time.Now()
	a := &mockFetcher{name: "arxiv", records: []types.SearchRecord{
		{Title: "Old but cited", Authors: []string{"A One"}, CitationCount: 500, ProviderID: "arxiv", Published: now.AddDate(-10, 0, 0)},
		{Title: "Uncited recent", Authors: []string{"B Two"}, CitationCount: -1, ProviderID: "arxiv", Published: now.AddDate(0, -1, 0)},
		{Title: "Uncited older", Authors: []string{"C Three"}, CitationCount: -1, ProviderID: "arxiv", Published: now.AddDate(-2, 0, 0)},
	}}
	b := &mockFetcher{name: "web", priority: 2, err: fmt.Errorf("web: unreachable"), records: []types.SearchRecord{
		{Title: "Fallback one", Authors: []string{"X"}, CitationCount: -1, ProviderID: "web", IsFallback: true},
	}}

	var buf bytes.Buffer
	out, err := Search(context.Background(), subs("q"), []Fetcher{a, b}, testCfg(), &buf)
	require.NoError(t, err)
	require.Len(t, out.Results, 4)

	assert.Equal(t, "Old but cited", out.Results[0].Title)
	assert.Equal(t, "Uncited recent", out.Results[1].Title)
	assert.Equal(t, "Uncited older", out.Results[2].Title)
	// Fallback always sorts below real records.
	assert.True(t, out.Results[3].IsFallback)

	assert.Equal(t, 3, out.RealCount)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, buf.String(), "warning:")
}

func TestSearchDeterministicAcrossArrivalOrder(t *testing.T) {
	records := []types.SearchRecord{
		rec("Alpha", "A One", "arxiv", 10),
		rec("Beta", "B Two", "arxiv", 10),
	}
	f1 := &mockFetcher{name: "arxiv", records: records}
	f2 := &mockFetcher{name: "arxiv2", priority: 1, records: nil}

	var first []types.MergedResult
	for i := 0; i < 5; i++ {
		var buf bytes.Buffer
		out, err := Search(context.Background(), subs("q", "q2"), []Fetcher{f1, f2}, testCfg(), &buf)
		require.NoError(t, err)
		if first == nil {
			first = out.Results
			continue
		}
		assert.Equal(t, first, out.Results)
	}
}

func TestSearchPerProviderCap(t *testing.T) {
	var rich []types.SearchRecord
	for i := 0; i < 10; i++ {
		rich = append(rich, rec(fmt.Sprintf("Rich %d", i), fmt.Sprintf("A %c", 'a'+i), "arxiv", 100-i))
	}
	poor := []types.SearchRecord{rec("Poor 1", "Z One", "web", -1), rec("Poor 2", "Z Two", "web", -1)}

	a := &mockFetcher{name: "arxiv", records: rich}
	b := &mockFetcher{name: "web", priority: 2, records: poor}

	cfg := types.SearcherConfig{MaxResults: 6, FanOutLimit: 5}
	var buf bytes.Buffer
	out, err := Search(context.Background(), subs("q"), []Fetcher{a, b}, cfg, &buf)
	require.NoError(t, err)
	require.Len(t, out.Results, 6)

	// ceil(6/2) = 3 per provider, then unfilled slots top up from the
	// rich provider; the poor provider keeps its 2 slots.
	byProvider := map[string]int{}
	for _, r := range out.Results {
		byProvider[r.ProviderID]++
	}
	assert.Equal(t, 2, byProvider["web"])
	assert.Equal(t, 4, byProvider["arxiv"])
}

func TestSearchEndToEndScenario(t *testing.T) {
	// Two providers return 5 and 3 records with one exact-duplicate title
	// between them; expect 7 merged results, top result by citations.
	var p1Records []types.SearchRecord
	for i := 0; i < 5; i++ {
		p1Records = append(p1Records, rec(fmt.Sprintf("Lattice Paper %d", i), fmt.Sprintf("Author %c", 'a'+i), "arxiv", 50+i))
	}
	p2Records := []types.SearchRecord{
		rec("Lattice Paper 0", "Author a", "semantic_scholar", 300),
		rec("Web Note 1", "Author x", "semantic_scholar", 10),
		rec("Web Note 2", "Author y", "semantic_scholar", 5),
	}

	p1 := &mockFetcher{name: "arxiv", records: p1Records}
	p2 := &mockFetcher{name: "semantic_scholar", priority: 1, records: p2Records}

	var buf bytes.Buffer
	out, err := Search(context.Background(), subs("recent advances in lattice-based cryptography"), []Fetcher{p1, p2}, testCfg(), &buf)
	require.NoError(t, err)

	require.Len(t, out.Results, 7)
	assert.Equal(t, 1, out.DupsRemoved)
	// Merged duplicate carries the higher citation count, putting it first.
	assert.Equal(t, "Lattice Paper 0", out.Results[0].Title)
	assert.Equal(t, 300, out.Results[0].CitationCount)
	for i := 1; i < len(out.Results); i++ {
		assert.LessOrEqual(t, out.Results[i].CitationCount, out.Results[i-1].CitationCount)
	}
}
