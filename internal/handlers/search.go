package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"contentstack/internal/contextutil"
	"contentstack/internal/fscache"
	"contentstack/internal/search"
)

// SearchHandler serves search, similarity, duplicate detection and the
// cache debug endpoint.
type SearchHandler struct {
	cache     *search.Cache
	dirCache  *fscache.DirCache
	startedAt time.Time
}

func NewSearchHandler(cache *search.Cache, dirCache *fscache.DirCache) *SearchHandler {
	return &SearchHandler{cache: cache, dirCache: dirCache, startedAt: time.Now()}
}

// Search handles GET /api/content/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query()
	params := search.Params{
		Query:       q.Get("q"),
		Category:    q.Get("category"),
		ContentType: q.Get("type"),
		DateFrom:    q.Get("dateFrom"),
		DateTo:      q.Get("dateTo"),
		Limit:       intParam(q.Get("limit"), 50),
		Offset:      intParam(q.Get("offset"), 0),
	}
	if topics := q.Get("topics"); topics != "" {
		params.Topics = strings.Split(topics, ",")
	}
	if minScore := q.Get("minScore"); minScore != "" {
		if v, err := strconv.ParseFloat(minScore, 64); err == nil {
			params.MinScore = v
		}
	}

	idx, err := h.cache.GetIndex(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "search index unavailable", "error", err)
		writeError(w, http.StatusInternalServerError, kindStorage, "Search index unavailable")
		return
	}

	page := search.Search(idx, params)
	writeJSON(w, http.StatusOK, struct {
		Success bool            `json:"success"`
		Stale   bool            `json:"stale"`
		Results []search.Result `json:"results"`
		Total   int             `json:"total"`
		Offset  int             `json:"offset"`
		Limit   int             `json:"limit"`
	}{
		Success: true,
		Stale:   h.cache.Stale(idx),
		Results: page.Results,
		Total:   page.Total,
		Offset:  page.Offset,
		Limit:   page.Limit,
	})
}

// Similar handles GET /api/content/{id}/similar.
func (h *SearchHandler) Similar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	idx, err := h.cache.GetIndex(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, kindStorage, "Search index unavailable")
		return
	}

	if _, ok := idx.Docs[id]; !ok {
		writeError(w, http.StatusNotFound, kindNotFound, "Content not found in library")
		return
	}

	limit := intParam(r.URL.Query().Get("limit"), 5)
	writeJSON(w, http.StatusOK, struct {
		Success bool                   `json:"success"`
		Similar []search.SimilarResult `json:"similar"`
	}{Success: true, Similar: search.FindSimilar(idx, id, limit)})
}

// Duplicates handles GET /api/content/duplicates.
func (h *SearchHandler) Duplicates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	threshold := 0.8
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v > 1 {
			writeError(w, http.StatusBadRequest, kindValidation, "threshold must be in (0, 1]")
			return
		}
		threshold = v
	}

	idx, err := h.cache.GetIndex(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, kindStorage, "Search index unavailable")
		return
	}

	groups := search.DetectDuplicates(idx, threshold)
	writeJSON(w, http.StatusOK, struct {
		Success    bool                    `json:"success"`
		Threshold  float64                 `json:"threshold"`
		Groups     []search.DuplicateGroup `json:"groups"`
		GroupCount int                     `json:"group_count"`
	}{Success: true, Threshold: threshold, Groups: groups, GroupCount: len(groups)})
}

type categoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Categories handles GET /api/content/categories.
func (h *SearchHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	idx, err := h.cache.GetIndex(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, kindStorage, "Search index unavailable")
		return
	}

	categories := make([]categoryCount, 0, len(idx.Categories))
	for name, ids := range idx.Categories {
		categories = append(categories, categoryCount{Name: name, Count: len(ids)})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })

	writeJSON(w, http.StatusOK, struct {
		Success    bool            `json:"success"`
		Categories []categoryCount `json:"categories"`
	}{Success: true, Categories: categories})
}

// CacheStats handles GET /api/content/debug/cache-stats.
func (h *SearchHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Success       bool              `json:"success"`
		SearchCache   search.CacheStats `json:"search_cache"`
		DirCache      fscache.Stats     `json:"dir_cache"`
		UptimeSeconds int64             `json:"uptime_seconds"`
	}{
		Success:       true,
		SearchCache:   h.cache.GetStats(),
		DirCache:      h.dirCache.GetStats(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	})
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
