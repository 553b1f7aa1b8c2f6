// Package enrich fills in llm_analysis for inbox records and projects
// them into the library as flat search documents. The analysis itself
// is simulated with deterministic heuristics; a real model call would
// slot in behind the same interface.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"contentstack/internal/contextutil"
	"contentstack/internal/search"
	"contentstack/internal/store"
)

// Service enriches records. onLibraryChange, when set, runs after any
// library document is written; wire it to the search cache's
// Invalidate.
type Service struct {
	store           *store.RecordStore
	libraryDir      string
	now             func() time.Time
	onLibraryChange func()
}

func New(recordStore *store.RecordStore, libraryDir string, onLibraryChange func()) *Service {
	return &Service{
		store:           recordStore,
		libraryDir:      libraryDir,
		now:             time.Now,
		onLibraryChange: onLibraryChange,
	}
}

// EnrichedItem identifies one successfully enriched record.
type EnrichedItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// ItemError records a per-id enrichment failure.
type ItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Result summarizes an enrichment run. Already-enriched ids are
// skipped, failures are collected per id, and one bad id never aborts
// the rest.
type Result struct {
	Enriched []EnrichedItem `json:"enrichedFiles"`
	Skipped  int            `json:"skipped"`
	Errors   []ItemError    `json:"errors"`
}

// Enrich analyzes each record, persists the analysis (flipping the
// record to stored), and writes the flat library document the search
// index builds from.
func (s *Service) Enrich(ctx context.Context, ids []string) (*Result, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no files selected for enrichment", store.ErrInvalidInput)
	}

	logger := contextutil.LoggerFromContext(ctx)
	result := &Result{Enriched: []EnrichedItem{}, Errors: []ItemError{}}
	wroteLibrary := false

	for _, id := range ids {
		rec, err := s.store.Get(ctx, id)
		if err != nil {
			result.Errors = append(result.Errors, ItemError{ID: id, Error: err.Error()})
			continue
		}
		if rec.LLMAnalysis != nil {
			result.Skipped++
			continue
		}

		analysis := analyze(rec)
		status := store.StatusStored
		updated, err := s.store.Update(ctx, id, store.RecordPatch{
			Status:   &status,
			Category: &analysis.Category,
			Tags:     tagsFor(rec, analysis.Category),
			LLMAnalysis: &store.AnalysisPatch{
				Category:          &analysis.Category,
				Reasoning:         &analysis.Reasoning,
				Confidence:        &analysis.Confidence,
				Summary:           &analysis.Summary,
				KeyPoints:         &analysis.KeyPoints,
				Topics:            &analysis.Topics,
				Score:             &analysis.Score,
				SuggestedFilename: &analysis.SuggestedFilename,
			},
		})
		if err != nil {
			result.Errors = append(result.Errors, ItemError{ID: id, Error: err.Error()})
			continue
		}

		if err := s.writeLibraryDoc(updated); err != nil {
			result.Errors = append(result.Errors, ItemError{ID: id, Error: err.Error()})
			continue
		}
		wroteLibrary = true

		result.Enriched = append(result.Enriched, EnrichedItem{
			ID:       id,
			Title:    updated.Content.Title,
			Category: analysis.Category,
		})
		logger.Info("content enriched", "id", id, "category", analysis.Category)
	}

	if wroteLibrary && s.onLibraryChange != nil {
		s.onLibraryChange()
	}
	return result, nil
}

// writeLibraryDoc projects a record into library/<category>/<id>.json.
func (s *Service) writeLibraryDoc(rec *store.ContentRecord) error {
	doc := search.Document{
		ID:               rec.ID,
		Title:            rec.Content.Title,
		Summary:          rec.LLMAnalysis.Summary,
		KeyPoints:        rec.LLMAnalysis.KeyPoints,
		Hooks:            rec.LLMAnalysis.Hooks,
		QuotableMoments:  rec.LLMAnalysis.QuotableMoments,
		Topics:           rec.LLMAnalysis.Topics,
		Category:         rec.LLMAnalysis.Category,
		ContentType:      rec.Content.Type,
		Score:            rec.LLMAnalysis.Score,
		Confidence:       rec.LLMAnalysis.Confidence,
		ProcessedAt:      s.now(),
		SourceMetadataID: rec.ID,
	}

	dir := filepath.Join(s.libraryDir, doc.Category)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create library category %s: %w", doc.Category, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode library document %s: %w", doc.ID, err)
	}
	if err := os.WriteFile(filepath.Join(dir, doc.ID+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write library document %s: %w", doc.ID, err)
	}
	return nil
}

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"tech", []string{"code", "programming", "api", "software"}},
	{"business", []string{"business", "marketing", "startup"}},
	{"health", []string{"health", "fitness", "exercise"}},
	{"cooking", []string{"recipe", "cooking", "ingredient"}},
}

var tagKeywords = []string{"ai", "programming", "tutorial", "guide", "tips", "review"}

// analyze derives a plausible analysis from the record's own text.
func analyze(rec *store.ContentRecord) *store.Analysis {
	haystack := strings.ToLower(rec.Content.Title + " " + rec.Content.Text)

	category := "general"
	for _, ck := range categoryKeywords {
		for _, kw := range ck.keywords {
			if strings.Contains(haystack, kw) {
				category = ck.category
				break
			}
		}
		if category != "general" {
			break
		}
	}

	return &store.Analysis{
		Category:          category,
		Reasoning:         "keyword analysis of title and text",
		Confidence:        "medium",
		Summary:           summarize(rec),
		KeyPoints:         keyPoints(rec),
		Topics:            topicsFor(rec, category),
		Score:             7,
		SuggestedFilename: slugify(rec.Content.Title) + suggestedExt(rec),
	}
}

func suggestedExt(rec *store.ContentRecord) string {
	if rec.Content.FileType != "" {
		return "." + rec.Content.FileType
	}
	return ".md"
}

func tagsFor(rec *store.ContentRecord, category string) *[]string {
	haystack := strings.ToLower(rec.Content.Title + " " + rec.Content.Text)
	tags := []string{}
	for _, kw := range tagKeywords {
		if strings.Contains(haystack, kw) {
			tags = append(tags, kw)
		}
	}
	if category != "general" {
		tags = append(tags, category)
	}
	return &tags
}

// summarize takes the first body line, truncated.
func summarize(rec *store.ContentRecord) string {
	for _, line := range strings.Split(rec.Content.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(line) > 200 {
			return line[:200] + "..."
		}
		return line
	}
	return rec.Content.Title
}

// keyPoints lifts up to three bullet lines from the text, falling back
// to the first sentences.
func keyPoints(rec *store.ContentRecord) []string {
	points := []string{}
	for _, line := range strings.Split(rec.Content.Text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			points = append(points, strings.TrimSpace(line[2:]))
			if len(points) == 3 {
				return points
			}
		}
	}
	if len(points) > 0 {
		return points
	}

	for _, sentence := range strings.SplitAfter(rec.Content.Text, ". ") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" || strings.HasPrefix(sentence, "#") {
			continue
		}
		points = append(points, sentence)
		if len(points) == 3 {
			break
		}
	}
	if len(points) == 0 {
		points = append(points, rec.Content.Title)
	}
	return points
}

func topicsFor(rec *store.ContentRecord, category string) []string {
	topics := []string{category}
	if rec.Content.Type != "" && rec.Content.Type != category {
		topics = append(topics, rec.Content.Type)
	}
	return topics
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	slug := nonSlug.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "untitled"
	}
	if len(slug) > 60 {
		slug = slug[:60]
	}
	return slug
}
