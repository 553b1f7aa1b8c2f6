// Package fscache caches directory listings to reduce repeated
// filesystem scans, and watches the data directories to invalidate
// cached state when files change out of band.
package fscache

import (
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	defaultTTL     = 5 * time.Second
	defaultMaxSize = 100
	sweepInterval  = 30 * time.Second
)

// Entry is one directory entry from a cached listing.
type Entry struct {
	Name  string
	IsDir bool
}

type cachedListing struct {
	entries []Entry
	time    time.Time
}

// DirCache memoizes directory listings per path with a short TTL.
// On a filesystem error a stale listing, if present, is returned in
// preference to the error. Eviction past the size cap is oldest-insert
// first (FIFO, not LRU — good enough under a 5s TTL).
type DirCache struct {
	mu      sync.Mutex
	cache   map[string]cachedListing
	order   []string // insertion order for FIFO eviction
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	logger  *slog.Logger

	sweepTicker *time.Ticker
	done        chan struct{}
}

// NewDirCache creates a DirCache with a 5s TTL and a 100-entry cap, and
// starts a background sweep that removes entries older than twice the
// TTL every 30s. Call Dispose to stop the sweep.
func NewDirCache() *DirCache {
	c := &DirCache{
		cache:   make(map[string]cachedListing),
		ttl:     defaultTTL,
		maxSize: defaultMaxSize,
		now:     time.Now,
		logger:  slog.Default(),

		sweepTicker: time.NewTicker(sweepInterval),
		done:        make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// newDirCacheForTest builds a cache without the background sweep and
// with an injectable clock.
func newDirCacheForTest(now func() time.Time) *DirCache {
	return &DirCache{
		cache:   make(map[string]cachedListing),
		ttl:     defaultTTL,
		maxSize: defaultMaxSize,
		now:     now,
		logger:  slog.Default(),
	}
}

// ReadDir returns the entries of dirPath, serving from cache while the
// cached listing is younger than the TTL.
func (c *DirCache) ReadDir(dirPath string) ([]Entry, error) {
	now := c.now()

	c.mu.Lock()
	cached, ok := c.cache[dirPath]
	c.mu.Unlock()

	if ok && now.Sub(cached.time) < c.ttl {
		return cached.entries, nil
	}

	dirEntries, err := os.ReadDir(dirPath)
	if err != nil {
		// Serve stale data over failing the caller.
		if ok {
			c.logger.Warn("using stale directory cache after read error", "dir", dirPath, "error", err)
			return cached.entries, nil
		}
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, e := range dirEntries {
		entries = append(entries, Entry{Name: e.Name(), IsDir: e.IsDir()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	c.mu.Lock()
	if _, exists := c.cache[dirPath]; !exists {
		c.order = append(c.order, dirPath)
	}
	c.cache[dirPath] = cachedListing{entries: entries, time: now}
	if len(c.cache) > c.maxSize {
		c.evictOldest()
	}
	c.mu.Unlock()

	return entries, nil
}

// Invalidate drops every cached listing whose path starts with prefix.
// Called after writes so the next listing reflects them immediately.
func (c *DirCache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.order[:0]
	for _, key := range c.order {
		if strings.HasPrefix(key, prefix) {
			delete(c.cache, key)
		} else {
			kept = append(kept, key)
		}
	}
	c.order = kept
}

// Clear drops all cached listings.
func (c *DirCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cachedListing)
	c.order = nil
}

// Stats describes the cache contents for the debug endpoint.
type Stats struct {
	Size    int           `json:"size"`
	Fresh   int           `json:"fresh"`
	Stale   int           `json:"stale"`
	MaxSize int           `json:"max_size"`
	TTL     time.Duration `json:"ttl_ns"`
}

// GetStats returns a snapshot of the cache state.
func (c *DirCache) GetStats() Stats {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{Size: len(c.cache), MaxSize: c.maxSize, TTL: c.ttl}
	for _, v := range c.cache {
		if now.Sub(v.time) < c.ttl {
			stats.Fresh++
		} else {
			stats.Stale++
		}
	}
	return stats
}

// Dispose stops the background sweep and clears the cache.
func (c *DirCache) Dispose() {
	if c.sweepTicker != nil {
		c.sweepTicker.Stop()
		close(c.done)
	}
	c.Clear()
}

func (c *DirCache) sweepLoop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.sweepTicker.C:
			c.sweep()
		}
	}
}

// sweep removes entries older than twice the TTL to bound memory even
// when nothing re-reads them.
func (c *DirCache) sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.order[:0]
	for _, key := range c.order {
		if v, ok := c.cache[key]; ok && now.Sub(v.time) > 2*c.ttl {
			delete(c.cache, key)
		} else {
			kept = append(kept, key)
		}
	}
	c.order = kept
}

// evictOldest drops the oldest-inserted key. Caller holds c.mu.
func (c *DirCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.cache, oldest)
}
