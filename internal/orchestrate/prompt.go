// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"fmt"
	"strings"
)

// buildPrompt renders the synthesis prompt: numbered source excerpts
// followed by the question. Excerpt numbers are the citation numbers, so
// a well-behaved synthesizer emits markers that validate directly.
func buildPrompt(query string, excerpts []excerpt) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the numbered sources below. ")
	b.WriteString("Cite every claim with its source number in brackets, like [1]. ")
	b.WriteString("Do not cite numbers that are not listed.\n\nSources:\n")
	for _, e := range excerpts {
		fmt.Fprintf(&b, "[%d] %s\n", e.number, e.text)
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", query)
	return b.String()
}
