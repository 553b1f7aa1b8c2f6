// Package store persists content records as one pretty-printed JSON
// metadata file plus one raw blob per record, and keeps the two in
// sync through listings, audits and a self-healing orphan sweep.
package store

import "time"

// Record status values. A record arrives in the inbox and moves to
// stored once processed or enriched.
const (
	StatusInbox  = "inbox"
	StatusStored = "stored"
)

// Capture methods accepted on submission.
var validMethods = map[string]bool{
	"paste":  true,
	"upload": true,
	"url":    true,
	"drop":   true,
}

// Source records how the content arrived.
type Source struct {
	Method string  `json:"method"`
	URL    *string `json:"url"`
}

// Content describes the captured text and its derived properties.
type Content struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Text        string `json:"text,omitempty"`
	WordCount   int    `json:"word_count"`
	Hash        string `json:"hash"`
	Fingerprint string `json:"fingerprint,omitempty"`
	FileType    string `json:"file_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Location keeps legacy path fields consumed by older clients.
type Location struct {
	InboxPath string  `json:"inbox_path"`
	FinalPath *string `json:"final_path"`
}

// StorageInfo points at the blob backing a record. Path is relative to
// the storage root.
type StorageInfo struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Analysis holds the enrichment output for a record.
type Analysis struct {
	Category          string   `json:"category"`
	Reasoning         string   `json:"reasoning,omitempty"`
	Confidence        string   `json:"confidence"`
	Summary           string   `json:"summary"`
	KeyPoints         []string `json:"key_points"`
	Topics            []string `json:"topics"`
	Hooks             []string `json:"hooks,omitempty"`
	QuotableMoments   []string `json:"quotable_moments,omitempty"`
	Score             float64  `json:"score"`
	SuggestedFilename string   `json:"suggested_filename,omitempty"`
}

// ContentRecord is the full metadata for one captured item, stored as
// metadata/<id>.json.
type ContentRecord struct {
	ID          string      `json:"id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Status      string      `json:"status"`
	Source      Source      `json:"source"`
	Content     Content     `json:"content"`
	Location    Location    `json:"location"`
	Storage     StorageInfo `json:"storage"`
	Category    string      `json:"category"`
	Tags        []string    `json:"tags"`
	LLMAnalysis *Analysis   `json:"llm_analysis"`
}

// CreateInput is a content submission.
type CreateInput struct {
	Method   string       `json:"method"`
	Content  string       `json:"content"`
	URL      string       `json:"url,omitempty"`
	Filename string       `json:"filename,omitempty"`
	Metadata *InputExtras `json:"metadata,omitempty"`
}

// InputExtras carries optional submission metadata.
type InputExtras struct {
	ReferenceURL string `json:"reference_url,omitempty"`
}

// SourcePatch updates source fields. Nil pointers leave the field
// untouched; URL set to an empty string clears the stored URL.
type SourcePatch struct {
	Method *string `json:"method,omitempty"`
	URL    *string `json:"url,omitempty"`
}

// ContentPatch updates content fields.
type ContentPatch struct {
	Type     *string `json:"type,omitempty"`
	Title    *string `json:"title,omitempty"`
	Text     *string `json:"text,omitempty"`
	FileType *string `json:"file_type,omitempty"`
}

// AnalysisPatch updates enrichment fields.
type AnalysisPatch struct {
	Category          *string   `json:"category,omitempty"`
	Reasoning         *string   `json:"reasoning,omitempty"`
	Confidence        *string   `json:"confidence,omitempty"`
	Summary           *string   `json:"summary,omitempty"`
	KeyPoints         *[]string `json:"key_points,omitempty"`
	Topics            *[]string `json:"topics,omitempty"`
	Hooks             *[]string `json:"hooks,omitempty"`
	QuotableMoments   *[]string `json:"quotable_moments,omitempty"`
	Score             *float64  `json:"score,omitempty"`
	SuggestedFilename *string   `json:"suggested_filename,omitempty"`
}

// RecordPatch is a partial update. Top-level fields replace; nested
// content, source and llm_analysis patches merge field by field so an
// update never clobbers sibling values it did not mention.
type RecordPatch struct {
	Status      *string        `json:"status,omitempty"`
	Category    *string        `json:"category,omitempty"`
	Tags        *[]string      `json:"tags,omitempty"`
	Source      *SourcePatch   `json:"source,omitempty"`
	Content     *ContentPatch  `json:"content,omitempty"`
	LLMAnalysis *AnalysisPatch `json:"llm_analysis,omitempty"`
}

// apply merges the patch into rec. When the text changes the word
// count is recalculated; the hash is left as captured.
func (p *RecordPatch) apply(rec *ContentRecord) {
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.Category != nil {
		rec.Category = *p.Category
	}
	if p.Tags != nil {
		rec.Tags = *p.Tags
	}

	if p.Source != nil {
		if p.Source.Method != nil {
			rec.Source.Method = *p.Source.Method
		}
		if p.Source.URL != nil {
			if *p.Source.URL == "" {
				rec.Source.URL = nil
			} else {
				rec.Source.URL = p.Source.URL
			}
		}
	}

	if p.Content != nil {
		if p.Content.Type != nil {
			rec.Content.Type = *p.Content.Type
		}
		if p.Content.Title != nil {
			rec.Content.Title = *p.Content.Title
		}
		if p.Content.FileType != nil {
			rec.Content.FileType = *p.Content.FileType
		}
		if p.Content.Text != nil {
			rec.Content.Text = *p.Content.Text
			rec.Content.WordCount = wordCount(*p.Content.Text)
		}
	}

	if p.LLMAnalysis != nil {
		if rec.LLMAnalysis == nil {
			rec.LLMAnalysis = &Analysis{}
		}
		a := rec.LLMAnalysis
		ap := p.LLMAnalysis
		if ap.Category != nil {
			a.Category = *ap.Category
		}
		if ap.Reasoning != nil {
			a.Reasoning = *ap.Reasoning
		}
		if ap.Confidence != nil {
			a.Confidence = *ap.Confidence
		}
		if ap.Summary != nil {
			a.Summary = *ap.Summary
		}
		if ap.KeyPoints != nil {
			a.KeyPoints = *ap.KeyPoints
		}
		if ap.Topics != nil {
			a.Topics = *ap.Topics
		}
		if ap.Hooks != nil {
			a.Hooks = *ap.Hooks
		}
		if ap.QuotableMoments != nil {
			a.QuotableMoments = *ap.QuotableMoments
		}
		if ap.Score != nil {
			a.Score = *ap.Score
		}
		if ap.SuggestedFilename != nil {
			a.SuggestedFilename = *ap.SuggestedFilename
		}
	}
}
