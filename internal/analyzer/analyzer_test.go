// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := New(types.AnalyzerConfig{})
	require.NoError(t, err)
	return a
}

func TestAnalyzeBounds(t *testing.T) {
	a := newAnalyzer(t)
	queries := []string{
		"recent advances in lattice-based cryptography",
		"how do transformers work",
		"xyzzy plugh",
		"",
		"history of consensus protocols in distributed systems",
	}
	for _, q := range queries {
		subs := a.Analyze(q)
		assert.GreaterOrEqual(t, len(subs), 1, "query %q", q)
		assert.LessOrEqual(t, len(subs), 5, "query %q", q)
		for _, sub := range subs {
			assert.GreaterOrEqual(t, sub.Weight, MinConfidence)
			assert.LessOrEqual(t, sub.Weight, MaxConfidence)
		}
	}
}

func TestAnalyzeClassification(t *testing.T) {
	a := newAnalyzer(t)

	subs := a.Analyze("recent advances in lattice-based cryptography")
	assert.Equal(t, "cryptography", subs[0].Category)
	assert.Equal(t, types.TimeRecent, subs[0].TimePreference)
	assert.Contains(t, subs[0].TopicTags, "lattice-based")
	// Original text is always the first sub-query.
	assert.Equal(t, "recent advances in lattice-based cryptography", subs[0].Text)
}

func TestAnalyzeFirstMatchWins(t *testing.T) {
	a := newAnalyzer(t)
	// Matches both cryptography ("post-quantum") and physics ("quantum");
	// cryptography sits earlier in the table.
	subs := a.Analyze("post-quantum signature scheme designs")
	assert.Equal(t, "cryptography", subs[0].Category)
}

func TestAnalyzeUnmatchedQuery(t *testing.T) {
	a := newAnalyzer(t)
	subs := a.Analyze("xyzzy plugh")
	assert.Equal(t, DefaultCategory, subs[0].Category)
	assert.Equal(t, MinConfidence, subs[0].Weight)
	assert.Equal(t, types.TimeAny, subs[0].TimePreference)
	assert.Equal(t, "xyzzy plugh", subs[0].Text)
}

func TestAnalyzeTimePreference(t *testing.T) {
	a := newAnalyzer(t)
	tests := []struct {
		query string
		want  types.TimePreference
	}{
		{"latest transformer benchmarks", types.TimeRecent},
		{"history of public key encryption", types.TimeHistorical},
		{"transformer attention mechanism", types.TimeAny},
		// Recency wins when both kinds of keyword appear.
		{"recent work on the history of ciphers", types.TimeRecent},
	}
	for _, tt := range tests {
		subs := a.Analyze(tt.query)
		assert.Equal(t, tt.want, subs[0].TimePreference, "query %q", tt.query)
	}
}

func TestAnalyzeVariantsShareClassification(t *testing.T) {
	a := newAnalyzer(t)
	subs := a.Analyze("homomorphic encryption performance")
	require.Greater(t, len(subs), 1)
	for _, sub := range subs[1:] {
		assert.Equal(t, subs[0].Category, sub.Category)
		assert.Equal(t, subs[0].TimePreference, sub.TimePreference)
		assert.Less(t, sub.Weight, subs[0].Weight+1e-9)
		assert.Contains(t, sub.Text, "homomorphic encryption performance")
	}
}

func TestAnalyzeMaxVariants(t *testing.T) {
	a, err := New(types.AnalyzerConfig{MaxVariants: 1})
	require.NoError(t, err)
	subs := a.Analyze("deep learning training")
	assert.Len(t, subs, 1)
}

func TestLoadCategories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")
	content := `
- name: gardening
  keywords: [soil, compost, pruning]
  templates: ["%s best practices"]
- name: cooking
  keywords: [recipe, baking]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cats, err := LoadCategories(path)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "gardening", cats[0].Name)
	// Missing templates fall back to defaults.
	assert.Equal(t, defaultTemplates, cats[1].Templates)

	a, err := New(types.AnalyzerConfig{CategoriesFile: path})
	require.NoError(t, err)
	subs := a.Analyze("compost for raised beds")
	assert.Equal(t, "gardening", subs[0].Category)
}

func TestLoadCategoriesRejectsEmptyKeywords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- name: empty\n  keywords: []\n"), 0o644))

	_, err := LoadCategories(path)
	assert.Error(t, err)
}
