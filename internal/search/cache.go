package search

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	cacheTTL    = 5 * time.Minute
	cacheMaxAge = 30 * time.Minute
)

// BuildFunc produces a fresh index. The cache calls it at most once at
// a time.
type BuildFunc func(ctx context.Context) (*Index, error)

type buildCall struct {
	done chan struct{}
	idx  *Index
	err  error
}

// Cache holds one index, rebuilding it lazily when it expires or is
// invalidated. Concurrent callers during a rebuild share the single
// in-flight build. When a rebuild fails and a previous index exists,
// the stale index is served instead of the error.
type Cache struct {
	mu        sync.Mutex
	index     *Index
	lastBuilt time.Time
	dirty     bool
	inflight  *buildCall

	build  BuildFunc
	ttl    time.Duration
	maxAge time.Duration
	now    func() time.Time
	logger *slog.Logger

	sweepTicker *time.Ticker
	done        chan struct{}
}

// NewCache creates a Cache with a 5m TTL and a 30m maximum index
// lifetime, and starts a background sweep that drops an index past its
// maximum age. Call Dispose to stop the sweep.
func NewCache(build BuildFunc, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		build:  build,
		ttl:    cacheTTL,
		maxAge: cacheMaxAge,
		now:    time.Now,
		logger: logger,

		sweepTicker: time.NewTicker(cacheMaxAge),
		done:        make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// newCacheForTest builds a cache without the background sweep and with
// an injectable clock.
func newCacheForTest(build BuildFunc, now func() time.Time) *Cache {
	return &Cache{
		build:  build,
		ttl:    cacheTTL,
		maxAge: cacheMaxAge,
		now:    now,
		logger: slog.Default(),
	}
}

// GetIndex returns the cached index, rebuilding it first when it is
// absent, older than the TTL, or marked dirty.
func (c *Cache) GetIndex(ctx context.Context) (*Index, error) {
	c.mu.Lock()

	if c.index != nil && !c.dirty && c.now().Sub(c.lastBuilt) < c.ttl {
		idx := c.index
		c.mu.Unlock()
		return idx, nil
	}

	if c.inflight != nil {
		call := c.inflight
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.idx, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &buildCall{done: make(chan struct{})}
	c.inflight = call
	c.mu.Unlock()

	call.idx, call.err = c.rebuild(ctx)

	c.mu.Lock()
	c.inflight = nil
	c.mu.Unlock()
	close(call.done)

	return call.idx, call.err
}

func (c *Cache) rebuild(ctx context.Context) (*Index, error) {
	start := c.now()
	idx, err := c.build(ctx)
	if err != nil {
		c.mu.Lock()
		stale := c.index
		c.mu.Unlock()
		if stale != nil {
			c.logger.Warn("index rebuild failed, serving stale index", "error", err)
			return stale, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.index = idx
	c.lastBuilt = c.now()
	c.dirty = false
	c.mu.Unlock()

	c.logger.Info("search index built",
		"documents", len(idx.Docs),
		"duration", c.now().Sub(start))
	return idx, nil
}

// Invalidate marks the index dirty so the next GetIndex rebuilds it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

// Clear drops the cached index entirely.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.index = nil
	c.lastBuilt = time.Time{}
	c.dirty = false
	c.mu.Unlock()
}

// Stale reports whether idx is older than the TTL, which only happens
// when a failed rebuild fell back to a previous index.
func (c *Cache) Stale(idx *Index) bool {
	return c.now().Sub(idx.BuiltAt) >= c.ttl
}

// CacheStats describes the cache state for the debug endpoint.
type CacheStats struct {
	HasIndex  bool          `json:"has_index"`
	Age       time.Duration `json:"age_ns"`
	Documents int           `json:"documents"`
	Building  bool          `json:"building"`
	Dirty     bool          `json:"dirty"`
}

// GetStats returns a snapshot of the cache state.
func (c *Cache) GetStats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		HasIndex: c.index != nil,
		Building: c.inflight != nil,
		Dirty:    c.dirty,
	}
	if c.index != nil {
		stats.Age = c.now().Sub(c.lastBuilt)
		stats.Documents = len(c.index.Docs)
	}
	return stats
}

// Dispose stops the background sweep and clears the cache.
func (c *Cache) Dispose() {
	if c.sweepTicker != nil {
		c.sweepTicker.Stop()
		close(c.done)
	}
	c.Clear()
}

func (c *Cache) sweepLoop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.sweepTicker.C:
			c.sweep()
		}
	}
}

// sweep drops an index that has lived past its maximum age so a quiet
// server does not hold a large index forever.
func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index != nil && c.now().Sub(c.lastBuilt) > c.maxAge {
		c.logger.Info("clearing aged search index", "documents", len(c.index.Docs))
		c.index = nil
		c.lastBuilt = time.Time{}
	}
}
