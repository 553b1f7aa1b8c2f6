package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"contentstack/internal/contextutil"
	"contentstack/internal/export"
	"contentstack/internal/search"
)

// ExportHandler serves library exports and full backups.
type ExportHandler struct {
	exporter *export.Exporter
}

func NewExportHandler(exporter *export.Exporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

// All handles GET /api/export/all/{format}.
func (h *ExportHandler) All(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format := chi.URLParam(r, "format")
	if format == "" {
		format = "json"
	}

	items, err := h.exporter.CollectAll(ctx)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	h.render(w, r, format, items)
}

// Selected handles POST /api/export/selected.
func (h *ExportHandler) Selected(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req struct {
		IDs    []string `json:"ids"`
		Format string   `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, kindValidation, "Invalid request body")
		return
	}
	if req.Format == "" {
		req.Format = "json"
	}

	items, err := h.exporter.CollectByIDs(ctx, req.IDs)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	h.render(w, r, req.Format, items)
}

// Backup handles GET /api/export/backup.
func (h *ExportHandler) Backup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="content-stack-backup.zip"`)

	if err := h.exporter.WriteBackupZip(ctx, w); err != nil {
		// Headers are gone; all we can do is log.
		logger.ErrorContext(ctx, "backup failed mid-stream", "error", err)
	}
}

func (h *ExportHandler) render(w http.ResponseWriter, r *http.Request, format string, items []search.Document) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var err error
	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="content-export.json"`)
		err = h.exporter.WriteJSON(w, items)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="content-export.csv"`)
		err = h.exporter.WriteCSV(w, items)
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown")
		w.Header().Set("Content-Disposition", `attachment; filename="content-export.md"`)
		err = h.exporter.WriteMarkdown(w, items)
	default:
		writeError(w, http.StatusBadRequest, kindValidation, fmt.Sprintf("unknown export format %q", format))
		return
	}

	if err != nil {
		logger.ErrorContext(ctx, "export render failed", "format", format, "error", err)
	}
}
