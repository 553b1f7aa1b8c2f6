// Package export renders the library as JSON, CSV or Markdown and
// produces full ZIP backups of the data directories.
package export

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"contentstack/internal/contextutil"
	"contentstack/internal/search"
	"contentstack/internal/store"
)

// Exporter reads library documents and the raw data directories.
type Exporter struct {
	libraryDir  string
	metadataDir string
	storageDir  string
	now         func() time.Time
}

func New(libraryDir, metadataDir, storageDir string) *Exporter {
	return &Exporter{
		libraryDir:  libraryDir,
		metadataDir: metadataDir,
		storageDir:  storageDir,
		now:         time.Now,
	}
}

// CollectAll loads every parseable library document, sorted by id. The
// directory name wins over the document's own category field so a
// moved file exports under its actual shelf.
func (e *Exporter) CollectAll(ctx context.Context) ([]search.Document, error) {
	return e.collect(ctx, nil)
}

// CollectByIDs loads only the documents whose id is in ids.
func (e *Exporter) CollectByIDs(ctx context.Context, ids []string) ([]search.Document, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no items selected for export", store.ErrInvalidInput)
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	return e.collect(ctx, wanted)
}

func (e *Exporter) collect(ctx context.Context, wanted map[string]bool) ([]search.Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	categories, err := os.ReadDir(e.libraryDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read library: %w", err)
	}

	var items []search.Document
	for _, category := range categories {
		if !category.IsDir() {
			continue
		}
		categoryPath := filepath.Join(e.libraryDir, category.Name())
		files, err := os.ReadDir(categoryPath)
		if err != nil {
			logger.Warn("skipping unreadable library category", "category", category.Name(), "error", err)
			continue
		}

		for _, file := range files {
			if !strings.HasSuffix(file.Name(), ".json") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(categoryPath, file.Name()))
			if err != nil {
				continue
			}
			var doc search.Document
			if err := json.Unmarshal(data, &doc); err != nil {
				logger.Warn("skipping invalid library document", "file", file.Name(), "error", err)
				continue
			}
			if wanted != nil && !wanted[doc.ID] {
				continue
			}
			doc.Category = category.Name()
			items = append(items, doc)
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// WriteJSON writes the export envelope with a timestamp and count.
func (e *Exporter) WriteJSON(w io.Writer, items []search.Document) error {
	payload := struct {
		ExportDate time.Time         `json:"export_date"`
		TotalItems int               `json:"total_items"`
		Items      []search.Document `json:"items"`
	}{
		ExportDate: e.now(),
		TotalItems: len(items),
		Items:      items,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// WriteCSV flattens each document to one row. Key points are joined
// with "; " and topics with ", ".
func (e *Exporter) WriteCSV(w io.Writer, items []search.Document) error {
	cw := csv.NewWriter(w)
	header := []string{"id", "title", "category", "summary", "source", "created", "score", "confidence", "key_points", "topics"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, item := range items {
		row := []string{
			item.ID,
			item.Title,
			item.Category,
			item.Summary,
			item.SourceMetadataID,
			item.ProcessedAt.Format(time.RFC3339),
			strconv.FormatFloat(item.Score, 'f', -1, 64),
			item.Confidence,
			strings.Join(item.KeyPoints, "; "),
			strings.Join(item.Topics, ", "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteMarkdown renders the export grouped by category, one section
// per document with its summary and key points.
func (e *Exporter) WriteMarkdown(w io.Writer, items []search.Document) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Content Stack Export\nGenerated: %s\nTotal Items: %d\n\n---\n\n",
		e.now().Format(time.RFC3339), len(items))

	byCategory := make(map[string][]search.Document)
	var categories []string
	for _, item := range items {
		if _, seen := byCategory[item.Category]; !seen {
			categories = append(categories, item.Category)
		}
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}
	sort.Strings(categories)

	for _, category := range categories {
		fmt.Fprintf(&b, "## %s\n\n", titleCase(category))
		for _, item := range byCategory[category] {
			fmt.Fprintf(&b, "### %s\n\n", item.Title)
			fmt.Fprintf(&b, "**Summary:** %s\n\n", item.Summary)
			if len(item.KeyPoints) > 0 {
				b.WriteString("**Key Points:**\n")
				for _, point := range item.KeyPoints {
					fmt.Fprintf(&b, "- %s\n", point)
				}
				b.WriteString("\n")
			}
			b.WriteString("---\n\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Manifest describes a backup archive.
type Manifest struct {
	Version      string         `json:"version"`
	ExportedAt   time.Time      `json:"exported_at"`
	ContentCount map[string]int `json:"content_count"`
}

// WriteBackupZip streams a ZIP of the library, metadata and storage
// trees plus a manifest with per-tree file counts.
func (e *Exporter) WriteBackupZip(ctx context.Context, w io.Writer) error {
	zw := zip.NewWriter(w)

	trees := []struct {
		root   string
		prefix string
	}{
		{e.libraryDir, "library"},
		{e.metadataDir, "metadata"},
		{e.storageDir, "storage"},
	}

	manifest := Manifest{
		Version:      "1.0",
		ExportedAt:   e.now(),
		ContentCount: make(map[string]int),
	}

	for _, tree := range trees {
		count, err := addTree(zw, tree.root, tree.prefix)
		if err != nil {
			return fmt.Errorf("failed to archive %s: %w", tree.prefix, err)
		}
		manifest.ContentCount[tree.prefix] = count
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	mw, err := zw.Create("manifest.json")
	if err != nil {
		return err
	}
	if _, err := mw.Write(manifestData); err != nil {
		return err
	}

	return zw.Close()
}

// addTree copies every regular file under root into the archive below
// prefix and returns the file count. A missing root archives as empty.
func addTree(zw *zip.Writer, root, prefix string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		fw, err := zw.Create(filepath.ToSlash(filepath.Join(prefix, rel)))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(fw, f); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
