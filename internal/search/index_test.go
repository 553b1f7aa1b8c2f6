package search

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, libDir string, doc *Document) {
	t.Helper()
	dir := filepath.Join(libDir, doc.Category)
	require.NoError(t, os.MkdirAll(dir, 0755))
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, doc.ID+".json"), data, 0644))
}

func TestBuildIndexesLibraryTree(t *testing.T) {
	libDir := t.TempDir()
	writeDoc(t, libDir, &Document{
		ID:          "content-1",
		Title:       "Understanding Goroutines",
		Summary:     "Concurrency patterns in practice",
		KeyPoints:   []string{"channels carry ownership"},
		Topics:      []string{"Concurrency", "Go"},
		Category:    "articles",
		ContentType: "text",
		ProcessedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	writeDoc(t, libDir, &Document{
		ID:          "content-2",
		Title:       "Sourdough Basics",
		Summary:     "A starter guide",
		Topics:      []string{"Baking"},
		Category:    "notes",
		ContentType: "text",
		ProcessedAt: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	})

	idx, err := NewBuilder().Build(context.Background(), libDir)
	require.NoError(t, err)

	assert.Len(t, idx.Docs, 2)
	assert.Contains(t, idx.Terms, "goroutines")
	assert.Contains(t, idx.Terms, "sourdough")
	assert.NotContains(t, idx.Terms, "go", "short tokens are dropped")
	assert.Equal(t, []string{"content-1"}, idx.Categories["articles"])
	assert.Equal(t, []string{"content-1"}, idx.Topics["concurrency"], "topics are lowercased")
	assert.NotEmpty(t, idx.Docs["content-1"].Path)
	assert.False(t, idx.BuiltAt.IsZero())
}

func TestBuildKeepsDuplicatePostings(t *testing.T) {
	libDir := t.TempDir()
	writeDoc(t, libDir, &Document{
		ID:       "content-1",
		Title:    "caching",
		Summary:  "caching",
		Category: "articles",
	})

	idx, err := NewBuilder().Build(context.Background(), libDir)
	require.NoError(t, err)

	assert.Equal(t, []string{"content-1", "content-1"}, idx.Terms["caching"])
}

func TestBuildSkipsCorruptFiles(t *testing.T) {
	libDir := t.TempDir()
	writeDoc(t, libDir, &Document{ID: "content-ok", Title: "Valid", Category: "articles"})
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "broken.json"), []byte("{not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "ignored.txt"), []byte("plain"), 0644))

	idx, err := NewBuilder().Build(context.Background(), libDir)
	require.NoError(t, err)

	assert.Len(t, idx.Docs, 1)
	assert.Contains(t, idx.Docs, "content-ok")
}

func TestBuildRespectsCancellation(t *testing.T) {
	libDir := t.TempDir()
	writeDoc(t, libDir, &Document{ID: "content-1", Title: "Anything", Category: "articles"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder().Build(ctx, libDir)
	assert.ErrorIs(t, err, context.Canceled)
}
