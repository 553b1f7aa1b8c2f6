// Package search builds and queries an in-memory inverted index over
// the library of enriched content documents.
package search

import (
	"strings"
	"time"
)

// Document is the flat library projection of an enriched record, one
// JSON file per document under library/<category>/.
type Document struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Summary          string    `json:"summary"`
	KeyPoints        []string  `json:"key_points"`
	Hooks            []string  `json:"hooks"`
	QuotableMoments  []string  `json:"quotable_moments"`
	Topics           []string  `json:"topics"`
	Category         string    `json:"category"`
	ContentType      string    `json:"content_type"`
	Score            float64   `json:"score"`
	Confidence       string    `json:"confidence,omitempty"`
	ProcessedAt      time.Time `json:"processed_at"`
	SourceMetadataID string    `json:"source_metadata_id,omitempty"`

	// Path is the file the document was loaded from. Not serialized.
	Path string `json:"-"`
}

// searchableText joins every indexed field into one lowercase string.
func (d *Document) searchableText() string {
	parts := make([]string, 0, 2+len(d.KeyPoints)+len(d.Hooks)+len(d.QuotableMoments)+len(d.Topics))
	parts = append(parts, d.Title, d.Summary)
	parts = append(parts, d.KeyPoints...)
	parts = append(parts, d.Hooks...)
	parts = append(parts, d.QuotableMoments...)
	parts = append(parts, d.Topics...)
	return strings.ToLower(strings.Join(parts, " "))
}

// tokenize splits on whitespace and drops tokens of length <= 2.
// Tokens are already lowercase when they come from searchableText;
// query input is lowered here.
func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}
