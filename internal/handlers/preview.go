package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"contentstack/internal/contextutil"
	"contentstack/internal/store"
)

// PreviewHandler renders inbox items as HTML preview pages. Markdown
// sources go through goldmark; everything else textual is shown as a
// preformatted block.
type PreviewHandler struct {
	store    *store.RecordStore
	parser   goldmark.Markdown
	template *template.Template
}

// previewPageData holds template data for rendered preview pages.
type previewPageData struct {
	Title     string
	ID        string
	Type      string
	WordCount int
	Content   template.HTML
}

func NewPreviewHandler(recordStore *store.RecordStore) *PreviewHandler {
	tmpl := template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    :root {
      color-scheme: dark;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 900px;
      line-height: 1.7;
      background: #050b18;
      color: #e4ecff;
    }
    header {
      margin-bottom: 2rem;
      border-bottom: 1px solid rgba(148, 163, 184, 0.2);
      padding-bottom: 1.5rem;
    }
    h1 {
      margin-top: 0;
      color: #fff;
      font-size: 2rem;
    }
    article {
      background: rgba(12, 19, 35, 0.85);
      border: 1px solid rgba(99, 102, 241, 0.2);
      border-radius: 16px;
      padding: 2rem;
      box-shadow: 0 15px 35px rgba(2, 6, 23, 0.8);
    }
    article h2, article h3, article h4 {
      color: #c7d2fe;
      margin-top: 1.5rem;
    }
    article p {
      color: #cbd5f5;
    }
    pre {
      background: #0f172a;
      padding: 1rem;
      overflow-x: auto;
      border-radius: 10px;
      border: 1px solid rgba(99, 102, 241, 0.2);
      white-space: pre-wrap;
      word-break: break-word;
    }
    code {
      font-family: 'SFMono-Regular', Consolas, 'Liberation Mono', Menlo, monospace;
      background: rgba(99, 102, 241, 0.18);
      padding: 2px 5px;
      border-radius: 6px;
      color: #cbd5ff;
    }
    pre code {
      background: transparent;
      padding: 0;
    }
    blockquote {
      border-left: 4px solid rgba(96, 165, 250, 0.6);
      padding-left: 1rem;
      margin-left: 0;
      color: #93c5fd;
      background: rgba(59, 130, 246, 0.08);
      border-radius: 6px;
    }
    a {
      color: #60a5fa;
      text-decoration: none;
    }
    a:hover {
      text-decoration: underline;
    }
    .meta {
      color: #94a3b8;
      font-size: 0.95rem;
      margin-top: 0.5rem;
    }
    @media (max-width: 640px) {
      body {
        padding: 1rem;
      }
      article {
        padding: 1.25rem;
      }
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">{{.ID}} &middot; {{.Type}} &middot; {{.WordCount}} words</p>
  </header>
  <article>{{.Content}}</article>
</body>
</html>`))

	return &PreviewHandler{
		store: recordStore,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Table,
				extension.TaskList,
				extension.Strikethrough,
				extension.Linkify,
				extension.Typographer,
			),
			goldmark.WithRendererOptions(
				ghhtml.WithUnsafe(),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: tmpl,
	}
}

// Item handles GET /api/content-inbox/item/{id}/preview.
func (h *PreviewHandler) Item(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	rec, err := h.store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	if !store.Previewable(rec.Content.Type) {
		writeError(w, http.StatusUnsupportedMediaType, kindValidation,
			fmt.Sprintf("content type %q has no text preview", rec.Content.Type))
		return
	}

	text, err := h.loadText(rec)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read content blob", "id", rec.ID, "error", err)
		writeError(w, http.StatusInternalServerError, kindStorage, "Failed to read content")
		return
	}

	content, err := h.renderBody(rec, text)
	if err != nil {
		logger.ErrorContext(ctx, "failed to render preview", "id", rec.ID, "error", err)
		writeError(w, http.StatusInternalServerError, kindStorage, "Failed to render preview")
		return
	}

	page := previewPageData{
		Title:     rec.Content.Title,
		ID:        rec.ID,
		Type:      rec.Content.Type,
		WordCount: rec.Content.WordCount,
		Content:   content,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, page); err != nil {
		logger.ErrorContext(ctx, "failed to execute preview template", "id", rec.ID, "error", err)
	}
}

// loadText prefers the stored blob over the inline copy so edits made
// directly on disk show up in the preview.
func (h *PreviewHandler) loadText(rec *store.ContentRecord) (string, error) {
	data, err := os.ReadFile(h.store.BlobPath(rec))
	if err == nil {
		return string(data), nil
	}
	if errors.Is(err, fs.ErrNotExist) && rec.Content.Text != "" {
		return rec.Content.Text, nil
	}
	return "", err
}

func (h *PreviewHandler) renderBody(rec *store.ContentRecord, text string) (template.HTML, error) {
	switch rec.Content.FileType {
	case "md", "markdown":
		var buf bytes.Buffer
		if err := h.parser.Convert([]byte(text), &buf); err != nil {
			return "", fmt.Errorf("convert markdown: %w", err)
		}
		return template.HTML(buf.String()), nil
	}

	escaped := template.HTMLEscapeString(text)
	if rec.Content.Type == "code" {
		return template.HTML("<pre><code>" + escaped + "</code></pre>"), nil
	}
	return template.HTML("<pre>" + escaped + "</pre>"), nil
}
