// Package handlers implements the HTTP API. Responses use a common
// envelope: successful payloads carry "success": true, failures carry
// {"success": false, "error": ..., "kind": ...}.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"contentstack/internal/contextutil"
	"contentstack/internal/store"
)

// Error kinds surfaced to clients alongside the HTTP status.
const (
	kindValidation = "validation"
	kindNotFound   = "not_found"
	kindConflict   = "conflict"
	kindStorage    = "storage"
)

type errorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Kind       string `json:"kind"`
	ExistingID string `json:"existing_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, statusCode int, kind, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message, Kind: kind})
}

// writeStoreError maps store errors onto the envelope: invalid input
// is 400, unknown ids 404, duplicate content 409 with the existing id,
// anything else 500.
func writeStoreError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	var conflict *store.ConflictError
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, kindValidation, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, kindNotFound, err.Error())
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:      conflict.Error(),
			Kind:       kindConflict,
			ExistingID: conflict.ExistingID,
		})
	default:
		logger.ErrorContext(ctx, "request failed", "error", err)
		writeError(w, http.StatusInternalServerError, kindStorage, err.Error())
	}
}
