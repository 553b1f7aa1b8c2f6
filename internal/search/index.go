package search

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contentstack/internal/contextutil"
)

// Index is an in-memory inverted index over library documents. Term
// postings keep one entry per occurrence, so a term appearing in both
// the title and a key point of the same document lists that id twice;
// lookups treat postings as a set.
type Index struct {
	Docs       map[string]*Document
	Terms      map[string][]string
	Categories map[string][]string
	Topics     map[string][]string
	BuiltAt    time.Time
}

// Builder constructs an Index by walking a library directory tree.
type Builder struct {
	now func() time.Time
}

func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// Build walks root recursively and indexes every .json file it can
// parse. Unparseable files are logged and skipped so one corrupt
// document never takes search down.
func (b *Builder) Build(ctx context.Context, root string) (*Index, error) {
	logger := contextutil.LoggerFromContext(ctx)

	idx := &Index{
		Docs:       make(map[string]*Document),
		Terms:      make(map[string][]string),
		Categories: make(map[string][]string),
		Topics:     make(map[string][]string),
		BuiltAt:    b.now(),
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable library file", "path", path, "error", err)
			return nil
		}

		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			logger.Warn("skipping invalid library file", "path", path, "error", err)
			return nil
		}
		doc.Path = path

		idx.add(&doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return idx, nil
}

func (idx *Index) add(doc *Document) {
	idx.Docs[doc.ID] = doc

	for _, word := range tokenize(doc.searchableText()) {
		idx.Terms[word] = append(idx.Terms[word], doc.ID)
	}

	idx.Categories[doc.Category] = append(idx.Categories[doc.Category], doc.ID)

	for _, topic := range doc.Topics {
		key := strings.ToLower(topic)
		idx.Topics[key] = append(idx.Topics[key], doc.ID)
	}
}
