// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package semindex

import (
	"strings"
	"unicode"
)

const (
	// maxPerSource caps how many chunks from one merged result survive
	// retrieval, so no single source dominates the context.
	maxPerSource = 2

	defaultTopK = 8
)

// stopwords excluded from the keyword-overlap sanity check.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "how": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "this": true, "to": true, "was": true,
	"what": true, "when": true, "where": true, "which": true, "who": true,
	"why": true, "will": true, "with": true,
}

// Retriever queries the semantic index with diversity and relevance
// filtering applied on top of raw similarity.
type Retriever struct {
	index *Index
}

// NewRetriever wraps an index.
func NewRetriever(index *Index) *Retriever {
	return &Retriever{index: index}
}

// Retrieve returns up to topK chunks for the query. It fetches topK*2
// candidates by similarity, caps chunks per source at two, then drops
// candidates sharing no non-stopword token with queryText, unless doing
// so would leave fewer than ceil(topK/2) results. Rank reflects the final
// position; Score is preserved from the index query.
func (r *Retriever) Retrieve(queryVector []float32, queryText string, topK int) []Retrieved {
	if topK <= 0 {
		topK = defaultTopK
	}

	candidates := r.index.Query(queryVector, topK*2)

	// Source-diversity cap, in descending similarity order.
	perSource := make(map[string]int)
	diverse := make([]Retrieved, 0, topK)
	for _, c := range candidates {
		if len(diverse) >= topK {
			break
		}
		key := c.Source.DedupKey
		if perSource[key] >= maxPerSource {
			continue
		}
		perSource[key]++
		diverse = append(diverse, c)
	}

	// Keyword-overlap sanity filter with a floor: never empty the result
	// set below ceil(topK/2) when candidates exist.
	queryTokens := contentTokens(queryText)
	floor := (topK + 1) / 2
	if floor > len(diverse) {
		floor = len(diverse)
	}

	var matching, rest []Retrieved
	for _, c := range diverse {
		if len(queryTokens) == 0 || overlaps(queryTokens, c.Text) {
			matching = append(matching, c)
		} else {
			rest = append(rest, c)
		}
	}
	for len(matching) < floor && len(rest) > 0 {
		matching = append(matching, rest[0])
		rest = rest[1:]
	}

	for i := range matching {
		matching[i].Rank = i + 1
	}
	return matching
}

// contentTokens returns the lowercased non-stopword tokens of text.
func contentTokens(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range tokenize(text) {
		if !stopwords[tok] {
			tokens[tok] = true
		}
	}
	return tokens
}

// overlaps reports whether text shares at least one non-stopword token
// with the query token set.
func overlaps(queryTokens map[string]bool, text string) bool {
	for _, tok := range tokenize(text) {
		if queryTokens[tok] {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
