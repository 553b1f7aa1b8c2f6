package store

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"contentstack/internal/hashing"
)

// generateID builds a unique record id: content-<unix ms>-<8 hex>.
func generateID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("content-%d-%s", now.UnixMilli(), suffix)
}

// newRecord derives a full record from a submission.
func newRecord(input CreateInput, now time.Time) *ContentRecord {
	contentType := detectContentType(input.Content, input.Filename)

	title := input.Filename
	if title == "" {
		title = extractTitle(input.Content)
	}

	var sourceURL *string
	if input.Metadata != nil && input.Metadata.ReferenceURL != "" {
		u := input.Metadata.ReferenceURL
		sourceURL = &u
	} else if input.URL != "" {
		u := input.URL
		sourceURL = &u
	}

	id := generateID(now)
	blobName := id + "." + fileExtension(contentType, input.Filename)
	blobPath := filepath.Join(contentType, blobName)

	rec := &ContentRecord{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    StatusInbox,
		Source: Source{
			Method: input.Method,
			URL:    sourceURL,
		},
		Content: Content{
			Type:        contentType,
			Title:       title,
			WordCount:   wordCount(input.Content),
			Hash:        hashing.HashString(input.Content),
			Fingerprint: hashing.Fingerprint([]byte(input.Content)),
			Size:        int64(len(input.Content)),
		},
		Location: Location{
			InboxPath: blobPath,
			FinalPath: nil,
		},
		Storage: StorageInfo{
			Path: blobPath,
			Type: contentType,
			Size: int64(len(input.Content)),
		},
		Category: "general",
		Tags:     []string{},
	}

	if shouldExtractText(contentType) {
		rec.Content.Text = input.Content
	}
	if input.Filename != "" {
		rec.Content.FileType = strings.TrimPrefix(filepath.Ext(input.Filename), ".")
	}

	return rec
}

// extractTitle takes the first markdown heading or non-empty line,
// truncated to 50 characters.
func extractTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if after, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(after)
		}
		if after, ok := strings.CutPrefix(line, "## "); ok {
			return strings.TrimSpace(after)
		}
		if len(line) > 50 {
			return line[:50] + "..."
		}
		return line
	}
	return "Untitled Content"
}

func wordCount(content string) int {
	return len(strings.Fields(content))
}

var codePatterns = []*regexp.Regexp{
	regexp.MustCompile("```"),
	regexp.MustCompile(`function\s+\w+`),
	regexp.MustCompile(`const\s+\w+\s*=`),
	regexp.MustCompile(`import\s+.*from`),
	regexp.MustCompile(`export\s+`),
	regexp.MustCompile(`console\.log`),
	regexp.MustCompile(`async\s+function`),
	regexp.MustCompile(`class\s+\w+`),
	regexp.MustCompile(`def\s+\w+\(`),
	regexp.MustCompile(`func\s+\w+\(`),
}

var htmlPatterns = regexp.MustCompile(`(?i)<html|<!DOCTYPE|<div|<span|<p>`)

// detectContentType classifies a submission. A filename takes
// precedence; otherwise the text itself is probed for URLs, code and
// HTML.
func detectContentType(content, filename string) string {
	if filename != "" {
		return detectFileType(filename, content)
	}

	if isURL(content) {
		return "web"
	}
	if hasCodePatterns(content) {
		return "code"
	}
	if htmlPatterns.MatchString(content) {
		return "text" // HTML reads as an article
	}
	return "text"
}

func hasCodePatterns(content string) bool {
	for _, p := range codePatterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

func isURL(content string) bool {
	trimmed := strings.TrimSpace(content)
	u, err := url.Parse(trimmed)
	return err == nil && u.Scheme != "" && u.Host != "" && !strings.ContainsAny(trimmed, " \n")
}

var extensionTypes = map[string]string{}

func registerExtensions(contentType string, exts ...string) {
	for _, ext := range exts {
		extensionTypes[ext] = contentType
	}
}

func init() {
	registerExtensions("text", "txt", "md", "markdown", "xml", "yaml", "yml", "toml", "ini", "cfg", "conf", "log")
	registerExtensions("document", "pdf", "doc", "docx", "odt", "rtf", "ppt", "pptx", "odp", "xls", "xlsx", "ods")
	registerExtensions("audio", "mp3", "wav", "m4a", "aac", "flac", "ogg", "wma", "aiff")
	registerExtensions("video", "mp4", "mov", "webm", "avi", "mkv", "flv", "wmv", "mpg", "mpeg", "m4v")
	registerExtensions("image", "png", "jpg", "jpeg", "webp", "gif", "bmp", "svg", "tiff", "ico", "heic", "avif")
	registerExtensions("code", "js", "ts", "jsx", "tsx", "mjs", "py", "ipynb", "css", "scss", "java", "c", "cpp", "h", "cs", "php", "rb", "go", "rs", "swift", "kt", "scala", "sh", "bash", "zsh", "ps1", "bat", "sql", "r", "pl", "lua")
	registerExtensions("data", "csv", "tsv", "json", "jsonl", "parquet", "avro", "feather", "db", "sqlite")
	registerExtensions("design", "fig", "sketch", "ai", "eps", "psd", "xd")
	registerExtensions("archive", "zip", "rar", "7z", "tar", "gz", "bz2", "xz", "iso")
	registerExtensions("email", "eml", "mbox", "msg", "pst")
}

// detectFileType classifies by filename extension, with a content
// probe deciding between plain text and code for text extensions.
func detectFileType(filename, content string) string {
	if strings.HasPrefix(filename, "http://") || strings.HasPrefix(filename, "https://") {
		return "web"
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	contentType, ok := extensionTypes[ext]
	if !ok {
		return "text"
	}
	if contentType == "text" && content != "" && hasCodePatterns(content) {
		return "code"
	}
	return contentType
}

var defaultExtensions = map[string]string{
	"text":     "txt",
	"code":     "js",
	"data":     "json",
	"document": "pdf",
	"image":    "png",
	"video":    "mp4",
	"audio":    "mp3",
	"web":      "html",
	"email":    "eml",
	"design":   "svg",
	"archive":  "zip",
}

// fileExtension picks the blob extension: the original filename's when
// there is one, otherwise a default per content type.
func fileExtension(contentType, filename string) string {
	if filename != "" {
		if ext := strings.TrimPrefix(filepath.Ext(filename), "."); ext != "" {
			return ext
		}
	}
	if ext, ok := defaultExtensions[contentType]; ok {
		return ext
	}
	return "txt"
}

// shouldExtractText reports whether the inline text is kept on the
// record. Binary-ish types only live as blobs.
func shouldExtractText(contentType string) bool {
	switch contentType {
	case "text", "code", "data", "web", "email":
		return true
	}
	return false
}

// Previewable reports whether blobs of the given content type can be
// rendered as a text preview.
func Previewable(contentType string) bool {
	return shouldExtractText(contentType)
}
