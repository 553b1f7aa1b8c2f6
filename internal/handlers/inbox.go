package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"contentstack/internal/contextutil"
	"contentstack/internal/store"
)

// InboxHandler serves the content-inbox CRUD surface.
type InboxHandler struct {
	store *store.RecordStore
}

func NewInboxHandler(recordStore *store.RecordStore) *InboxHandler {
	return &InboxHandler{store: recordStore}
}

// Items handles GET /api/content-inbox/items.
func (h *InboxHandler) Items(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.store.List(ctx)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool                   `json:"success"`
		Items   []*store.ContentRecord `json:"items"`
	}{Success: true, Items: records})
}

// Add handles POST /api/content-inbox/add.
func (h *InboxHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var input store.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, kindValidation, "Invalid request body")
		return
	}

	rec, err := h.store.Create(ctx, input)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool                 `json:"success"`
		Item    *store.ContentRecord `json:"item"`
	}{Success: true, Item: rec})
}

// Item handles GET /api/content-inbox/item/{id}.
func (h *InboxHandler) Item(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := h.store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool                 `json:"success"`
		Item    *store.ContentRecord `json:"item"`
	}{Success: true, Item: rec})
}

// updateItemRequest is the client-facing update shape; it is
// translated into a record patch so nested metadata merges instead of
// replacing.
type updateItemRequest struct {
	Content  *string `json:"content,omitempty"`
	Title    *string `json:"title,omitempty"`
	Metadata *struct {
		Title    *string   `json:"title,omitempty"`
		Tags     *[]string `json:"tags,omitempty"`
		Category *string   `json:"category,omitempty"`
		URL      *string   `json:"url,omitempty"`
	} `json:"metadata,omitempty"`
}

func (req *updateItemRequest) toPatch() store.RecordPatch {
	var patch store.RecordPatch

	content := func() *store.ContentPatch {
		if patch.Content == nil {
			patch.Content = &store.ContentPatch{}
		}
		return patch.Content
	}

	if req.Content != nil {
		content().Text = req.Content
	}
	if req.Title != nil {
		content().Title = req.Title
	}
	if req.Metadata != nil {
		if req.Metadata.Title != nil {
			content().Title = req.Metadata.Title
		}
		if req.Metadata.Tags != nil {
			patch.Tags = req.Metadata.Tags
		}
		if req.Metadata.Category != nil {
			patch.Category = req.Metadata.Category
			patch.LLMAnalysis = &store.AnalysisPatch{Category: req.Metadata.Category}
		}
		if req.Metadata.URL != nil {
			patch.Source = &store.SourcePatch{URL: req.Metadata.URL}
		}
	}
	return patch
}

// UpdateItem handles PUT /api/content-inbox/item/{id}.
func (h *InboxHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, kindValidation, "Invalid request body")
		return
	}

	rec, err := h.store.Update(ctx, chi.URLParam(r, "id"), req.toPatch())
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool                 `json:"success"`
		Item    *store.ContentRecord `json:"item"`
	}{Success: true, Item: rec})
}

// ProcessItem handles POST /api/content-inbox/process/{id}.
func (h *InboxHandler) ProcessItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := h.store.Process(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool                 `json:"success"`
		Item    *store.ContentRecord `json:"item"`
	}{Success: true, Item: rec})
}

// DeleteItem handles DELETE /api/content-inbox/item/{id}.
func (h *InboxHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.store.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{Success: true, Message: "Content deleted successfully"})
}

// Stats handles GET /api/content-inbox/stats.
func (h *InboxHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.store.Stats(ctx)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool         `json:"success"`
		Stats   *store.Stats `json:"stats"`
	}{Success: true, Stats: stats})
}
