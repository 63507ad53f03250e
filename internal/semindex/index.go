// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package semindex provides the ephemeral per-session semantic index: an
// in-memory store of (vector, text, source) chunks with exact cosine
// nearest-neighbor search. The index lives for one research session and is
// discarded with it; there is no update or delete, and the linear scan is
// intentional at the expected scale of tens to low hundreds of chunks.
package semindex

import (
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Chunk is one indexed unit of source text.
type Chunk struct {
	// ID uniquely identifies the chunk within the session.
	ID string

	// Vector is the embedding of Text.
	Vector []float32

	// Text is the chunk content handed to synthesis.
	Text string

	// Source is the merged result this chunk was cut from.
	Source types.MergedResult

	// Offset is the chunk's character offset within the source text.
	Offset int
}

// NewChunk builds a chunk with a fresh ID.
func NewChunk(vector []float32, text string, source types.MergedResult, offset int) Chunk {
	return Chunk{
		ID:     uuid.NewString(),
		Vector: vector,
		Text:   text,
		Source: source,
		Offset: offset,
	}
}

// Retrieved is a chunk scored against one query.
type Retrieved struct {
	Chunk

	// Score is the cosine similarity from the index query; it is never
	// recomputed downstream.
	Score float64

	// Rank is the final position after retrieval filtering, starting at 1.
	Rank int
}

// Index is the session-scoped vector store. Concurrent writers during
// chunk ingestion synchronize on the internal mutex.
type Index struct {
	mu     sync.RWMutex
	chunks []Chunk
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Add appends chunks to the index. Safe for concurrent use.
func (idx *Index) Add(chunks ...Chunk) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.chunks = append(idx.chunks, chunks...)
}

// Size returns the number of indexed chunks.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks)
}

// Query returns the k chunks most similar to vector by cosine similarity,
// descending. Ties break on chunk ID so results are deterministic.
func (idx *Index) Query(vector []float32, k int) []Retrieved {
	if k <= 0 {
		return nil
	}

	idx.mu.RLock()
	scored := make([]Retrieved, 0, len(idx.chunks))
	for _, c := range idx.chunks {
		scored = append(scored, Retrieved{Chunk: c, Score: Cosine(vector, c.Vector)})
	}
	idx.mu.RUnlock()

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// Cosine computes cosine similarity between two vectors. Mismatched or
// zero-length vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
