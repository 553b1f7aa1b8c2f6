package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentstack/internal/search"
	"contentstack/internal/store"
)

func newTestExporter(t *testing.T) (*Exporter, string, string, string) {
	t.Helper()
	base := t.TempDir()
	libraryDir := filepath.Join(base, "library")
	metadataDir := filepath.Join(base, "metadata")
	storageDir := filepath.Join(base, "storage")
	for _, dir := range []string{libraryDir, metadataDir, storageDir} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}
	return New(libraryDir, metadataDir, storageDir), libraryDir, metadataDir, storageDir
}

func writeLibraryDoc(t *testing.T, libraryDir string, doc search.Document) {
	t.Helper()
	dir := filepath.Join(libraryDir, doc.Category)
	require.NoError(t, os.MkdirAll(dir, 0755))
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, doc.ID+".json"), data, 0644))
}

func sampleDocs() []search.Document {
	return []search.Document{
		{
			ID:          "content-1",
			Title:       "Kafka Consumer Groups",
			Summary:     "Partition assignment in practice",
			KeyPoints:   []string{"one consumer per partition", "rebalances pause delivery"},
			Topics:      []string{"Kafka", "Messaging"},
			Category:    "tech",
			ContentType: "text",
			Score:       8,
			Confidence:  "medium",
			ProcessedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:          "content-2",
			Title:       "Sunday Ragu",
			Summary:     "Slow cooked sauce",
			KeyPoints:   []string{"brown the meat"},
			Topics:      []string{"Cooking"},
			Category:    "cooking",
			ContentType: "text",
			Score:       6,
			ProcessedAt: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestCollectAll(t *testing.T) {
	e, libraryDir, _, _ := newTestExporter(t)
	for _, doc := range sampleDocs() {
		writeLibraryDoc(t, libraryDir, doc)
	}
	require.NoError(t, os.WriteFile(filepath.Join(libraryDir, "tech", "bad.json"), []byte("{oops"), 0644))

	items, err := e.CollectAll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "content-1", items[0].ID)
	assert.Equal(t, "content-2", items[1].ID)
}

func TestCollectByIDs(t *testing.T) {
	e, libraryDir, _, _ := newTestExporter(t)
	for _, doc := range sampleDocs() {
		writeLibraryDoc(t, libraryDir, doc)
	}

	items, err := e.CollectByIDs(context.Background(), []string{"content-2"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Sunday Ragu", items[0].Title)

	_, err = e.CollectByIDs(context.Background(), nil)
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestWriteJSON(t *testing.T) {
	e, _, _, _ := newTestExporter(t)

	var buf bytes.Buffer
	require.NoError(t, e.WriteJSON(&buf, sampleDocs()))

	var payload struct {
		TotalItems int               `json:"total_items"`
		Items      []search.Document `json:"items"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, 2, payload.TotalItems)
	assert.Len(t, payload.Items, 2)
}

func TestWriteCSV(t *testing.T) {
	e, _, _, _ := newTestExporter(t)

	var buf bytes.Buffer
	require.NoError(t, e.WriteCSV(&buf, sampleDocs()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "content-1", rows[1][0])
	assert.Equal(t, "one consumer per partition; rebalances pause delivery", rows[1][8])
	assert.Equal(t, "Kafka, Messaging", rows[1][9])
	assert.Equal(t, "medium", rows[1][7])
}

func TestWriteMarkdown(t *testing.T) {
	e, _, _, _ := newTestExporter(t)

	var buf bytes.Buffer
	require.NoError(t, e.WriteMarkdown(&buf, sampleDocs()))
	out := buf.String()

	assert.Contains(t, out, "# Content Stack Export")
	assert.Contains(t, out, "## Tech")
	assert.Contains(t, out, "## Cooking")
	assert.Contains(t, out, "### Kafka Consumer Groups")
	assert.Contains(t, out, "- brown the meat")
}

func TestWriteBackupZip(t *testing.T) {
	e, libraryDir, metadataDir, storageDir := newTestExporter(t)
	writeLibraryDoc(t, libraryDir, sampleDocs()[0])
	require.NoError(t, os.WriteFile(filepath.Join(metadataDir, "content-1.json"), []byte("{}"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(storageDir, "text"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(storageDir, "text", "content-1.txt"), []byte("blob"), 0644))

	var buf bytes.Buffer
	require.NoError(t, e.WriteBackupZip(context.Background(), &buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["library/tech/content-1.json"])
	assert.True(t, names["metadata/content-1.json"])
	assert.True(t, names["storage/text/content-1.txt"])
	require.True(t, names["manifest.json"])

	mf, err := zr.Open("manifest.json")
	require.NoError(t, err)
	defer mf.Close()
	var manifest Manifest
	require.NoError(t, json.NewDecoder(mf).Decode(&manifest))
	assert.Equal(t, 1, manifest.ContentCount["library"])
	assert.Equal(t, 1, manifest.ContentCount["metadata"])
	assert.Equal(t, 1, manifest.ContentCount["storage"])
}
