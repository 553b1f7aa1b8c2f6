package handlers

import (
	"net/http"
	"time"

	"contentstack/internal/contextutil"
	"contentstack/internal/store"
)

// HealthHandler serves liveness and the storage consistency audit.
type HealthHandler struct {
	store *store.RecordStore
}

func NewHealthHandler(recordStore *store.RecordStore) *HealthHandler {
	return &HealthHandler{store: recordStore}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status    string   `json:"status"`
		Timestamp string   `json:"timestamp"`
		Endpoints []string `json:"endpoints"`
	}{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Endpoints: []string{
			"/api/health",
			"/api/health/storage-audit",
		},
	})
}

// StorageAudit handles GET /api/health/storage-audit. It cross-checks
// every blob against its metadata record and reports orphans, missing
// files and size drift.
func (h *HealthHandler) StorageAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	report, err := h.store.Audit(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "storage audit failed", "error", err)
		writeError(w, http.StatusInternalServerError, kindStorage, "Audit failed")
		return
	}

	logger.InfoContext(ctx, "storage audit complete",
		"status", report.Status,
		"storage_items", report.TotalStorageItems,
		"metadata_items", report.TotalMetadataItems,
	)
	writeJSON(w, http.StatusOK, report)
}
