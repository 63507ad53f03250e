// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.ArchiveConfig{ArchiveDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func response(id, query, answer string) *types.ResearchResponse {
	return &types.ResearchResponse{
		SessionID: id,
		Query:     query,
		Answer:    answer,
		Sources: []types.CitationEntry{
			{
				Number: 1,
				Source: types.MergedResult{
					SearchRecord: types.SearchRecord{
						Title:   "Some Paper",
						Authors: []string{"Jane Doe"},
					},
					DedupKey: "some paper|doe",
				},
				FirstUsed: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			},
		},
		Bibliography: "[1] Jane Doe. Some Paper.",
		Warnings:     []string{"provider arxiv unreachable, using fallback data"},
		Degraded:     true,
	}
}

func TestSaveAndShow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, response("sess-1", "lattice cryptography", "Lattices are hard [1].")))

	got, err := s.Show(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "lattice cryptography", got.Query)
	assert.Equal(t, "Lattices are hard [1].", got.Answer)
	assert.True(t, got.Degraded)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "Some Paper", got.Sources[0].Source.Title)
	assert.Equal(t, []string{"provider arxiv unreachable, using fallback data"}, got.Warnings)
}

func TestShowNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Show(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestShowCorruptSourcesColumn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, response("sess-1", "query", "answer")))
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET sources = 'not json' WHERE id = 'sess-1'`)
	require.NoError(t, err)

	_, err = s.Show(ctx, "sess-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding stored sources")
}

func TestSaveReplacesExistingSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, response("sess-1", "query", "first answer")))
	require.NoError(t, s.Save(ctx, response("sess-1", "query", "second answer")))

	got, err := s.Show(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "second answer", got.Answer)

	sums, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, sums, 1)
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, response("sess-1", "first query", "a")))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.Save(ctx, response("sess-2", "second query", "b")))

	sums, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, "sess-2", sums[0].ID)
	assert.Equal(t, "sess-1", sums[1].ID)
	assert.Equal(t, 1, sums[0].SourceCount)
}

func TestListLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Save(ctx, response(id, "query "+id, "answer")))
	}

	sums, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, sums, 2)
}

func TestSearchMatchesQueryAndAnswer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, response("sess-1", "lattice cryptography basics", "Lattices underpin post-quantum schemes [1].")))
	require.NoError(t, s.Save(ctx, response("sess-2", "protein folding", "The answer mentions lattice models [1].")))
	require.NoError(t, s.Save(ctx, response("sess-3", "garbage collection", "Tracing collectors scan the heap [1].")))

	sums, err := s.Search(ctx, "lattice", 10)
	require.NoError(t, err)
	require.Len(t, sums, 2)

	ids := []string{sums[0].ID, sums[1].ID}
	assert.Contains(t, ids, "sess-1")
	assert.Contains(t, ids, "sess-2")
}

func TestSearchNoMatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, response("sess-1", "lattice cryptography", "answer")))

	sums, err := s.Search(ctx, "unrelated", 10)
	require.NoError(t, err)
	assert.Empty(t, sums)
}
