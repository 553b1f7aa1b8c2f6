package fscache

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestReadDirCachesWithinTTL(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.json", "b.json")

	clock := newFakeClock()
	c := newDirCacheForTest(clock.now)

	first, err := c.ReadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, names(first))

	// A new file is invisible while the listing is fresh.
	writeFiles(t, dir, "c.json")
	second, err := c.ReadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, names(second))

	// Past the TTL the listing is re-read.
	clock.advance(6 * time.Second)
	third, err := c.ReadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json", "c.json"}, names(third))
}

func TestInvalidateByPrefix(t *testing.T) {
	base := t.TempDir()
	sub1 := filepath.Join(base, "metadata")
	sub2 := filepath.Join(base, "storage")
	require.NoError(t, os.MkdirAll(sub1, 0755))
	require.NoError(t, os.MkdirAll(sub2, 0755))
	writeFiles(t, sub1, "one.json")

	clock := newFakeClock()
	c := newDirCacheForTest(clock.now)

	_, err := c.ReadDir(sub1)
	require.NoError(t, err)
	_, err = c.ReadDir(sub2)
	require.NoError(t, err)

	c.Invalidate(sub1)

	// sub1 is re-read, sub2 still cached.
	writeFiles(t, sub1, "two.json")
	writeFiles(t, sub2, "other.json")

	got1, err := c.ReadDir(sub1)
	require.NoError(t, err)
	assert.Equal(t, []string{"one.json", "two.json"}, names(got1))

	got2, err := c.ReadDir(sub2)
	require.NoError(t, err)
	assert.Empty(t, got2)
}

func TestStaleServedOnReadError(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "gone")
	require.NoError(t, os.MkdirAll(sub, 0755))
	writeFiles(t, sub, "kept.json")

	clock := newFakeClock()
	c := newDirCacheForTest(clock.now)

	first, err := c.ReadDir(sub)
	require.NoError(t, err)
	require.Equal(t, []string{"kept.json"}, names(first))

	// Remove the directory, expire the entry, and read again: the stale
	// listing is served instead of the error.
	require.NoError(t, os.RemoveAll(sub))
	clock.advance(10 * time.Second)

	got, err := c.ReadDir(sub)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept.json"}, names(got))
}

func TestErrorPropagatesWithoutCache(t *testing.T) {
	c := newDirCacheForTest(newFakeClock().now)
	_, err := c.ReadDir("/nonexistent/definitely/missing")
	assert.Error(t, err)
}

func TestFIFOEviction(t *testing.T) {
	base := t.TempDir()
	clock := newFakeClock()
	c := newDirCacheForTest(clock.now)
	c.maxSize = 3

	dirs := make([]string, 4)
	for i := range dirs {
		dirs[i] = filepath.Join(base, fmt.Sprintf("d%d", i))
		require.NoError(t, os.MkdirAll(dirs[i], 0755))
		_, err := c.ReadDir(dirs[i])
		require.NoError(t, err)
	}

	// Oldest-inserted key was evicted; the rest remain.
	stats := c.GetStats()
	assert.Equal(t, 3, stats.Size)

	c.mu.Lock()
	_, oldestPresent := c.cache[dirs[0]]
	_, newestPresent := c.cache[dirs[3]]
	c.mu.Unlock()
	assert.False(t, oldestPresent)
	assert.True(t, newestPresent)
}

func TestSweepRemovesExpired(t *testing.T) {
	base := t.TempDir()
	clock := newFakeClock()
	c := newDirCacheForTest(clock.now)

	d := filepath.Join(base, "d")
	require.NoError(t, os.MkdirAll(d, 0755))
	_, err := c.ReadDir(d)
	require.NoError(t, err)

	clock.advance(11 * time.Second) // past 2×TTL
	c.sweep()

	assert.Equal(t, 0, c.GetStats().Size)
}

func TestDispose(t *testing.T) {
	c := NewDirCache()
	c.Dispose()
	assert.Equal(t, 0, c.GetStats().Size)
}
