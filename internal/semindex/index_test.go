// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package semindex

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func source(key string) types.MergedResult {
	return types.MergedResult{
		SearchRecord: types.SearchRecord{Title: key, ProviderID: "test"},
		DedupKey:     key,
	}
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine(nil, []float32{1}))
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1}))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{0, 0}))
}

func TestIndexQueryOrdering(t *testing.T) {
	idx := NewIndex()
	idx.Add(
		NewChunk([]float32{1, 0}, "exact", source("s1"), 0),
		NewChunk([]float32{0.9, 0.1}, "close", source("s2"), 0),
		NewChunk([]float32{0, 1}, "orthogonal", source("s3"), 0),
	)

	got := idx.Query([]float32{1, 0}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "exact", got[0].Text)
	assert.Equal(t, "close", got[1].Text)
	assert.Equal(t, "orthogonal", got[2].Text)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestIndexQueryLimitsK(t *testing.T) {
	idx := NewIndex()
	for i := 0; i < 10; i++ {
		idx.Add(NewChunk([]float32{1, float32(i)}, fmt.Sprintf("c%d", i), source("s"), i))
	}
	assert.Len(t, idx.Query([]float32{1, 0}, 4), 4)
	assert.Nil(t, idx.Query([]float32{1, 0}, 0))
}

func TestIndexConcurrentAdd(t *testing.T) {
	idx := NewIndex()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				idx.Add(NewChunk([]float32{1, 0}, fmt.Sprintf("w%d-%d", n, j), source("s"), j))
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 200, idx.Size())
}

func TestSplitTextShort(t *testing.T) {
	chunks := SplitText("short text", 800, 120)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Offset)
}

func TestSplitTextEmpty(t *testing.T) {
	assert.Nil(t, SplitText("   ", 800, 120))
}

func TestSplitTextChunksAndOverlap(t *testing.T) {
	var b []byte
	for i := 0; i < 40; i++ {
		b = append(b, []byte(fmt.Sprintf("Sentence number %d is here. ", i))...)
	}
	text := string(b)

	chunks := SplitText(text, 200, 40)
	require.Greater(t, len(chunks), 2)

	for i, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 200)
		assert.NotEmpty(t, c.Text)
		if i > 0 {
			assert.Greater(t, c.Offset, chunks[i-1].Offset)
		}
	}
	// Last chunk reaches the end of the text.
	last := chunks[len(chunks)-1]
	assert.Contains(t, text[last.Offset:], "number 39")
}
