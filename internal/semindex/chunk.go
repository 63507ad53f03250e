// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package semindex

import "strings"

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 120
)

// TextChunk is a piece of source text with its offset, produced by
// SplitText before embedding.
type TextChunk struct {
	Text   string
	Offset int
}

// SplitText cuts text into chunks of roughly size characters with the
// given overlap between neighbors, preferring to break at sentence or word
// boundaries. Zero or negative arguments use the defaults.
func SplitText(text string, size, overlap int) []TextChunk {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = defaultChunkOverlap
		if overlap >= size {
			overlap = size / 4
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []TextChunk{{Text: text, Offset: 0}}
	}

	var chunks []TextChunk
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			end = len(text)
		} else {
			end = breakPoint(text, start, end)
		}

		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, TextChunk{Text: chunk, Offset: start})
		}
		if end >= len(text) {
			break
		}

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// breakPoint scans backward from end looking for a sentence boundary, then
// a word boundary, within the last quarter of the window. Falls back to a
// hard cut.
func breakPoint(text string, start, end int) int {
	min := end - (end-start)/4
	for i := end - 1; i > min; i-- {
		if text[i] == '.' || text[i] == '!' || text[i] == '?' || text[i] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i > min; i-- {
		if text[i] == ' ' {
			return i + 1
		}
	}
	return end
}
