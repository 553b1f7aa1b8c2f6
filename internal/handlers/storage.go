package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"contentstack/internal/contextutil"
	"contentstack/internal/enrich"
	"contentstack/internal/store"
)

// StorageHandler serves the blob-level storage endpoints and the
// enrichment trigger.
type StorageHandler struct {
	store    *store.RecordStore
	enricher *enrich.Service
}

func NewStorageHandler(recordStore *store.RecordStore, enricher *enrich.Service) *StorageHandler {
	return &StorageHandler{store: recordStore, enricher: enricher}
}

// Stats handles GET /api/storage/stats.
func (h *StorageHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.store.StorageStats(ctx)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool                       `json:"success"`
		Stats   map[string]store.TypeStats `json:"stats"`
	}{Success: true, Stats: stats})
}

// Files handles GET /api/storage/files.
func (h *StorageHandler) Files(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	all, err := h.store.AllBlobs(ctx)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	totalFiles := 0
	var totalSize int64
	for _, blobs := range all {
		totalFiles += len(blobs)
		for _, b := range blobs {
			totalSize += b.Size
		}
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Total   struct {
			Files int   `json:"files"`
			Size  int64 `json:"size"`
		} `json:"total"`
		FilesByType map[string][]store.BlobInfo `json:"filesByType"`
	}{
		Success: true,
		Total: struct {
			Files int   `json:"files"`
			Size  int64 `json:"size"`
		}{Files: totalFiles, Size: totalSize},
		FilesByType: all,
	})
}

// ByType handles GET /api/storage/{type}.
func (h *StorageHandler) ByType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contentType := chi.URLParam(r, "type")

	blobs, err := h.store.ListBlobs(ctx, contentType)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool             `json:"success"`
		Type    string           `json:"type"`
		Files   []store.BlobInfo `json:"files"`
	}{Success: true, Type: contentType, Files: blobs})
}

// Enrich handles POST /api/storage/enrich.
func (h *StorageHandler) Enrich(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req struct {
		FileIDs []string `json:"fileIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, kindValidation, "Invalid request body")
		return
	}

	result, err := h.enricher.Enrich(ctx, req.FileIDs)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success  bool           `json:"success"`
		Enriched int            `json:"enriched"`
		Skipped  int            `json:"skipped"`
		Errors   int            `json:"errors"`
		Details  *enrich.Result `json:"details"`
	}{
		Success:  true,
		Enriched: len(result.Enriched),
		Skipped:  result.Skipped,
		Errors:   len(result.Errors),
		Details:  result,
	})
}
