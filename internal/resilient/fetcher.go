// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resilient wraps a provider client with retry, backoff, rate
// limiting, and fallback-result generation. This is the unit of fault
// tolerance: a provider outage degrades result richness but never aborts
// the pipeline.
package resilient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/answer-engine/internal/provider"
	"github.com/pdiddy/answer-engine/pkg/types"
)

const (
	defaultMaxAttempts   = 3
	defaultBaseDelay     = 1 * time.Second
	defaultMinInterval   = 500 * time.Millisecond
	defaultCallTimeout   = 8 * time.Second
	defaultFallbackCount = 3
)

// Fetcher wraps one provider client. Fetch never fails: after exhausting
// retries it synthesizes fallback records so downstream stages always have
// something to rank.
type Fetcher struct {
	client  provider.Client
	pcfg    types.ProviderConfig
	cfg     types.FetcherConfig
	limiter *rate.Limiter

	// mu serializes requests: at most one in-flight call per provider.
	mu sync.Mutex
}

// New builds a Fetcher around client, filling config defaults.
func New(client provider.Client, pcfg types.ProviderConfig, cfg types.FetcherConfig) *Fetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = defaultMinInterval
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.FallbackCount <= 0 {
		cfg.FallbackCount = defaultFallbackCount
	}
	return &Fetcher{
		client:  client,
		pcfg:    pcfg,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
	}
}

// Name returns the wrapped provider's identifier.
func (f *Fetcher) Name() string { return f.client.Name() }

// Priority returns the wrapped provider's tie-break priority.
func (f *Fetcher) Priority() int { return f.client.Priority() }

// Fetch queries the provider with retry and backoff. It always returns a
// usable record list; the error, when non-nil, explains why the records
// are fallback data and is informational only.
func (f *Fetcher) Fetch(ctx context.Context, sub types.SubQuery) ([]types.SearchRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return f.Fallback(sub), fmt.Errorf("%s: cancelled while throttled: %w", f.client.Name(), err)
		}

		callCtx, cancel := context.WithTimeout(ctx, f.cfg.CallTimeout)
		records, err := f.client.Search(callCtx, sub, f.pcfg)
		cancel()

		if err == nil {
			return records, nil
		}
		lastErr = err

		if attempt == f.cfg.MaxAttempts {
			break
		}

		// base * 2^(n-1): 1s, 2s, 4s with defaults.
		backoff := f.cfg.BaseDelay << (attempt - 1)
		select {
		case <-ctx.Done():
			return f.Fallback(sub), fmt.Errorf("%s: cancelled during backoff: %w", f.client.Name(), ctx.Err())
		case <-time.After(backoff):
		}
	}

	return f.Fallback(sub), fmt.Errorf("%s: unreachable after %d attempts: %w", f.client.Name(), f.cfg.MaxAttempts, lastErr)
}

// Fallback synthesizes deterministic, query-relevant placeholder records.
// Every record carries IsFallback=true so it can never be mistaken for a
// genuine source: the searcher ranks fallback data last and the citation
// layer refuses to register it.
func (f *Fetcher) Fallback(sub types.SubQuery) []types.SearchRecord {
	templates := []struct {
		title    string
		abstract string
	}{
		{"Overview of %s", "Placeholder summary: general background on %s. Provider was unreachable."},
		{"Recent work on %s", "Placeholder summary: recent developments related to %s. Provider was unreachable."},
		{"Key challenges in %s", "Placeholder summary: open problems around %s. Provider was unreachable."},
	}

	n := f.cfg.FallbackCount
	if n > len(templates) {
		n = len(templates)
	}

	records := make([]types.SearchRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, types.SearchRecord{
			Title:         fmt.Sprintf(templates[i].title, sub.Text),
			Abstract:      fmt.Sprintf(templates[i].abstract, sub.Text),
			SourceURL:     fmt.Sprintf("fallback://%s/%d", f.client.Name(), i+1),
			CitationCount: provider.NoCitationCount,
			ProviderID:    f.client.Name(),
			IsFallback:    true,
		})
	}
	return records
}
