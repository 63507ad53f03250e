// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyzer decomposes a raw research question into focused
// sub-queries with a topic and time classification. Classification is
// table-driven: an ordered list of {category, keywords, templates} records
// scanned once, first match wins. Analyze never fails; an unmatched query
// yields a single default-category sub-query.
package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

const (
	// DefaultCategory is used when no category keywords match.
	DefaultCategory = "general"

	// MinConfidence and MaxConfidence clip sub-query weights.
	MinConfidence = 0.1
	MaxConfidence = 0.95

	maxSubQueries      = 5
	defaultMaxVariants = 3
)

// recentKeywords and historicalKeywords drive time-preference detection.
var (
	recentKeywords     = []string{"recent", "latest", "new", "current", "modern", "state of the art", "emerging", "advances"}
	historicalKeywords = []string{"history", "historical", "origin", "origins", "early", "classic", "classical", "evolution of"}
)

// Analyzer classifies queries against a category table.
type Analyzer struct {
	categories  []Category
	maxVariants int
}

// New builds an Analyzer from config. When cfg.CategoriesFile is set the
// table is loaded from it; otherwise the built-in table is used.
func New(cfg types.AnalyzerConfig) (*Analyzer, error) {
	categories := builtinCategories
	if cfg.CategoriesFile != "" {
		loaded, err := LoadCategories(cfg.CategoriesFile)
		if err != nil {
			return nil, fmt.Errorf("loading category table: %w", err)
		}
		categories = loaded
	}

	maxVariants := cfg.MaxVariants
	if maxVariants <= 0 {
		maxVariants = defaultMaxVariants
	}
	if maxVariants > maxSubQueries {
		maxVariants = maxSubQueries
	}

	return &Analyzer{categories: categories, maxVariants: maxVariants}, nil
}

// Analyze decomposes query into 1..5 sub-queries. The first sub-query is
// always the original text; the rest are category-template variants.
func (a *Analyzer) Analyze(query string) []types.SubQuery {
	query = strings.TrimSpace(query)
	lower := strings.ToLower(query)

	category, matched, confidence := a.classify(lower)
	timePref := detectTimePreference(lower)

	base := types.SubQuery{
		Text:           query,
		Category:       category.Name,
		Weight:         confidence,
		TimePreference: timePref,
		TopicTags:      matched,
	}
	subs := []types.SubQuery{base}

	for _, tmpl := range category.Templates {
		if len(subs) >= a.maxVariants {
			break
		}
		variant := strings.TrimSpace(fmt.Sprintf(tmpl, query))
		if variant == "" || strings.EqualFold(variant, query) {
			continue
		}
		subs = append(subs, types.SubQuery{
			Text:           variant,
			Category:       category.Name,
			Weight:         clip(confidence * 0.8),
			TimePreference: timePref,
			TopicTags:      matched,
		})
	}

	return subs
}

// classify scans the ordered category table and returns the first category
// with a keyword match, its matched keywords, and a confidence score of
// matched/total keywords clipped to [0.1, 0.95].
func (a *Analyzer) classify(lower string) (Category, []string, float64) {
	for _, cat := range a.categories {
		var matched []string
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) == 0 {
			continue
		}
		sort.Strings(matched)
		confidence := clip(float64(len(matched)) / float64(len(cat.Keywords)))
		return cat, matched, confidence
	}

	return Category{Name: DefaultCategory, Templates: defaultTemplates}, nil, MinConfidence
}

// detectTimePreference matches recency/historicity keywords; recency wins
// when both appear.
func detectTimePreference(lower string) types.TimePreference {
	for _, kw := range recentKeywords {
		if strings.Contains(lower, kw) {
			return types.TimeRecent
		}
	}
	for _, kw := range historicalKeywords {
		if strings.Contains(lower, kw) {
			return types.TimeHistorical
		}
	}
	return types.TimeAny
}

func clip(v float64) float64 {
	if v < MinConfidence {
		return MinConfidence
	}
	if v > MaxConfidence {
		return MaxConfidence
	}
	return v
}
