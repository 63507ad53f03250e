// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docfetch downloads source documents ahead of content
// extraction. A source that cannot be fetched degrades to its abstract so
// the indexing stage always has text to work with; fallback records are
// never fetched at all.
package docfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/pkg/types"
)

const (
	defaultFetchDelay   = 1 * time.Second
	defaultMaxBodyBytes = 512 << 10
)

// Fetcher downloads documents with a politeness delay between requests.
type Fetcher struct {
	client *http.Client
	cfg    types.DocFetchConfig

	mu   sync.Mutex
	last time.Time
}

// New builds a Fetcher, filling config defaults.
func New(client *http.Client, cfg types.DocFetchConfig) *Fetcher {
	if cfg.FetchDelay <= 0 {
		cfg.FetchDelay = defaultFetchDelay
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Fetcher{client: client, cfg: cfg}
}

// Fetch returns the raw document for result. Network content comes from
// SourceURL; on any failure the record's title and abstract are returned
// instead, with fromNetwork=false. Fallback records skip the network
// entirely.
func (f *Fetcher) Fetch(ctx context.Context, result types.MergedResult) (raw []byte, fromNetwork bool) {
	if result.IsFallback || result.SourceURL == "" {
		return abstractDocument(result), false
	}

	if err := f.politeWait(ctx); err != nil {
		return abstractDocument(result), false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, result.SourceURL, nil)
	if err != nil {
		return abstractDocument(result), false
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, f.client, req, 1)
	if err != nil {
		return abstractDocument(result), false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return abstractDocument(result), false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil || len(body) == 0 {
		return abstractDocument(result), false
	}
	return body, true
}

// politeWait sleeps until the configured delay since the previous fetch
// has elapsed.
func (f *Fetcher) politeWait(ctx context.Context) error {
	f.mu.Lock()
	wait := f.cfg.FetchDelay - time.Since(f.last)
	f.last = time.Now().Add(wait)
	f.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// abstractDocument renders the record's own metadata as a plain-text
// document.
func abstractDocument(result types.MergedResult) []byte {
	return []byte(fmt.Sprintf("%s\n%s", result.Title, result.Abstract))
}
