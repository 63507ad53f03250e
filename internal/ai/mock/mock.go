// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mock provides deterministic test doubles for the ai contracts.
// The embedder derives vectors from an FNV hash of the text so the same
// input always embeds identically, which keeps similarity comparisons
// stable across runs without a real model.
package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/pdiddy/answer-engine/internal/ai"
)

// Dim is the vector dimension produced by the mock embedder.
const Dim = 128

// Embedder is a test double for ai.Embedder. Behavior can be overridden
// via the function fields.
type Embedder struct {
	EmbedTextFunc  func(ctx context.Context, text string) ([]float32, error)
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)
}

var _ ai.Embedder = (*Embedder)(nil)

// EmbedText generates a deterministic unit vector from the text hash.
func (m *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return deterministicVector(text, Dim), nil
}

// EmbedTexts generates deterministic vectors for each text in order.
func (m *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = deterministicVector(text, Dim)
	}
	return out, nil
}

// deterministicVector creates an embedding from an FNV hash of the text,
// normalized to unit length. Texts sharing a word prefix land closer
// together than unrelated texts because the hash seeds per-word.
func deterministicVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		seed := h.Sum32()
		for i := 0; i < dim; i++ {
			seed = seed*1664525 + 1013904223 // LCG step
			vec[i] += float32(int32(seed%2000)-1000) / 1000.0
		}
	}

	var sumSq float32
	for _, v := range vec {
		sumSq += v * v
	}
	if sumSq > 0 {
		inv := 1.0 / float32(math.Sqrt(float64(sumSq)))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

// Synthesizer is a test double for ai.Synthesizer.
type Synthesizer struct {
	// CompleteFunc overrides the default behavior when set.
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	// Err is returned by Complete when set and CompleteFunc is nil.
	Err error
}

var _ ai.Synthesizer = (*Synthesizer)(nil)

// Complete returns a canned answer that cites the first source.
func (m *Synthesizer) Complete(ctx context.Context, prompt string) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return "The available sources describe the topic in detail [1].", nil
}

// Extractor is a pass-through ai.ContentExtractor: the raw bytes are
// treated as plain text and the first line becomes the title.
type Extractor struct{}

var _ ai.ContentExtractor = (*Extractor)(nil)

// Extract returns the raw document as text.
func (Extractor) Extract(raw []byte) (ai.Extracted, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return ai.Extracted{}, fmt.Errorf("empty document")
	}
	title := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		title = strings.TrimSpace(text[:i])
	}
	return ai.Extracted{Title: title, Text: text}, nil
}
