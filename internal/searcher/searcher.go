// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package searcher fans sub-queries out across all providers concurrently,
// deduplicates results across sources, and ranks the merged set. The merge
// is deterministic given the same set of completed results regardless of
// arrival order.
package searcher

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/answer-engine/internal/provider"
	"github.com/pdiddy/answer-engine/pkg/types"
)

const (
	defaultMaxResults  = 20
	defaultFanOutLimit = 5
)

// Fetcher is the resilient fetch surface the searcher fans out over. Fetch
// never fails outright: the error is an informational degradation notice
// accompanying fallback records.
type Fetcher interface {
	Name() string
	Priority() int
	Fetch(ctx context.Context, sub types.SubQuery) ([]types.SearchRecord, error)
}

// Output holds merged results and fan-out statistics.
type Output struct {
	Results     []types.MergedResult
	DupsRemoved int

	// Warnings lists per-call degradation notices (provider outages).
	Warnings []string

	// RealCount is the number of non-fallback merged results.
	RealCount int
}

// Search fans out one fetch per (subQuery × provider) pair, bounded by
// cfg.FanOutLimit concurrent calls, then deduplicates and ranks. The stage
// completes when every fan-out call settles; individual outages surface
// only as warnings and fallback records.
func Search(ctx context.Context, subs []types.SubQuery, fetchers []Fetcher, cfg types.SearcherConfig, w io.Writer) (Output, error) {
	if len(subs) == 0 {
		return Output{}, fmt.Errorf("no sub-queries to search")
	}
	if len(fetchers) == 0 {
		return Output{}, fmt.Errorf("no search providers configured")
	}

	limit := cfg.FanOutLimit
	if limit <= 0 {
		limit = defaultFanOutLimit
	}

	priorities := make(map[string]int, len(fetchers))
	for _, f := range fetchers {
		priorities[f.Name()] = f.Priority()
	}

	var (
		mu       sync.Mutex
		all      []types.SearchRecord
		warnings []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, sub := range subs {
		for _, f := range fetchers {
			sub, f := sub, f
			g.Go(func() error {
				records, err := f.Fetch(gctx, sub)
				mu.Lock()
				defer mu.Unlock()
				all = append(all, records...)
				if err != nil {
					msg := fmt.Sprintf("degraded: %v", err)
					warnings = append(warnings, msg)
					fmt.Fprintf(w, "warning: %s\n", msg)
				}
				return nil
			})
		}
	}
	g.Wait() // tasks never return errors

	merged, removed := deduplicate(all)
	rank(merged, priorities)

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	merged = capResults(merged, maxResults, len(fetchers))

	out := Output{Results: merged, DupsRemoved: removed, Warnings: dedupeStrings(warnings)}
	for _, m := range merged {
		if !m.IsFallback {
			out.RealCount++
		}
	}
	return out, nil
}

// deduplicate merges records that share a dedup key (normalized title +
// first-author surname). The collision winner is the record with richer
// metadata, with non-fallback records always beating fallback ones; every
// contributing provider is recorded in MergedFrom.
func deduplicate(records []types.SearchRecord) ([]types.MergedResult, int) {
	seen := make(map[string]int) // dedup key → index in merged
	var merged []types.MergedResult
	removed := 0

	for _, r := range records {
		key := provider.DedupKey(r)
		idx, ok := seen[key]
		if !ok {
			seen[key] = len(merged)
			merged = append(merged, types.MergedResult{
				SearchRecord: r,
				DedupKey:     key,
				MergedFrom:   []string{r.ProviderID},
			})
			continue
		}
		mergeInto(&merged[idx], r)
		removed++
	}
	return merged, removed
}

// mergeInto folds src into dst: the richer record's fields win and missing
// fields are filled from the other.
func mergeInto(dst *types.MergedResult, src types.SearchRecord) {
	if !containsString(dst.MergedFrom, src.ProviderID) {
		dst.MergedFrom = append(dst.MergedFrom, src.ProviderID)
	}

	if richer(src, dst.SearchRecord) {
		keep := dst.SearchRecord
		dst.SearchRecord = src
		fillMissing(&dst.SearchRecord, keep)
		return
	}
	fillMissing(&dst.SearchRecord, src)
}

// richer reports whether a should replace b as the collision winner:
// non-fallback beats fallback, then more populated fields win.
func richer(a, b types.SearchRecord) bool {
	if a.IsFallback != b.IsFallback {
		return !a.IsFallback
	}
	return a.FieldCount() > b.FieldCount()
}

// fillMissing copies fields from src into empty fields of dst.
func fillMissing(dst *types.SearchRecord, src types.SearchRecord) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if dst.SourceURL == "" {
		dst.SourceURL = src.SourceURL
	}
	if dst.PDFURL == "" {
		dst.PDFURL = src.PDFURL
	}
	if dst.Published.IsZero() {
		dst.Published = src.Published
	}
	if dst.CitationCount < 0 && src.CitationCount >= 0 {
		dst.CitationCount = src.CitationCount
	}
	if dst.Venue == "" {
		dst.Venue = src.Venue
	}
}

// rank sorts merged results deterministically: real records before
// fallback, then citation count descending, then recency descending, then
// provider priority, then dedup key as the final total-order tiebreak.
func rank(results []types.MergedResult, priorities map[string]int) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]

		if a.IsFallback != b.IsFallback {
			return !a.IsFallback
		}
		if a.CitationCount != b.CitationCount {
			// Absent counts (-1) sort below any real count.
			return a.CitationCount > b.CitationCount
		}
		if !a.Published.Equal(b.Published) {
			return a.Published.After(b.Published)
		}
		if pa, pb := priorities[a.ProviderID], priorities[b.ProviderID]; pa != pb {
			return pa < pb
		}
		return a.DedupKey < b.DedupKey
	})
}

// capResults enforces the overall limit with a per-provider cap of
// ceil(maxResults / providerCount) so one rich provider cannot crowd out
// the others. Slots the cap leaves unfilled are topped up from the skipped
// records in rank order.
func capResults(ranked []types.MergedResult, maxResults, providerCount int) []types.MergedResult {
	if providerCount <= 0 {
		providerCount = 1
	}
	perProvider := (maxResults + providerCount - 1) / providerCount

	counts := make(map[string]int)
	keptIdx := make([]int, 0, maxResults)
	var skippedIdx []int

	for i, r := range ranked {
		if len(keptIdx) >= maxResults {
			break
		}
		if counts[r.ProviderID] >= perProvider {
			skippedIdx = append(skippedIdx, i)
			continue
		}
		counts[r.ProviderID]++
		keptIdx = append(keptIdx, i)
	}

	for _, i := range skippedIdx {
		if len(keptIdx) >= maxResults {
			break
		}
		keptIdx = append(keptIdx, i)
	}

	// Restore rank order after topping up from skipped records.
	sort.Ints(keptIdx)
	kept := make([]types.MergedResult, 0, len(keptIdx))
	for _, i := range keptIdx {
		kept = append(kept, ranked[i])
	}
	return kept
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func dedupeStrings(list []string) []string {
	seen := make(map[string]bool, len(list))
	var out []string
	for _, s := range list {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
