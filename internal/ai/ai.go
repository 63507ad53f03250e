// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ai declares the external AI collaborator contracts the pipeline
// consumes: embedding, synthesis, and content extraction. The pipeline
// never binds a concrete model; callers inject implementations at session
// creation.
package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be safe for concurrent use, and the same
// model must be used for both document chunks and queries.
type Embedder interface {
	// EmbedText generates a fixed-length vector for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vectors for multiple texts in one batch. The
	// returned slice matches the input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Synthesizer completes a prompt containing numbered source excerpts and
// the question into answer text with inline [N] citation markers. It may
// fail or time out; the orchestrator treats that as recoverable.
type Synthesizer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Extracted is the cleaned form of a fetched document.
type Extracted struct {
	Title    string
	Text     string
	Metadata map[string]string
}

// ContentExtractor turns a raw fetched document (HTML, PDF text, plain
// text) into clean text. Implementations are pure transforms: no network.
type ContentExtractor interface {
	Extract(raw []byte) (Extracted, error)
}
