// Package http assembles the chi router for the content stack API.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"contentstack/internal/enrich"
	"contentstack/internal/export"
	"contentstack/internal/fscache"
	"contentstack/internal/handlers"
	"contentstack/internal/search"
	"contentstack/internal/store"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Store       *store.RecordStore
	SearchCache *search.Cache
	DirCache    *fscache.DirCache
	Enricher    *enrich.Service
	Exporter    *export.Exporter
	Logger      *slog.Logger
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware(logger))
	r.Use(CORS)

	inbox := handlers.NewInboxHandler(deps.Store)
	preview := handlers.NewPreviewHandler(deps.Store)
	searchH := handlers.NewSearchHandler(deps.SearchCache, deps.DirCache)
	storageH := handlers.NewStorageHandler(deps.Store, deps.Enricher)
	exportH := handlers.NewExportHandler(deps.Exporter)
	health := handlers.NewHealthHandler(deps.Store)

	r.Route("/api", func(r chi.Router) {
		r.Route("/content-inbox", func(r chi.Router) {
			r.Get("/items", inbox.Items)
			r.Post("/add", inbox.Add)
			r.Get("/stats", inbox.Stats)
			r.Get("/item/{id}", inbox.Item)
			r.Put("/item/{id}", inbox.UpdateItem)
			r.Delete("/item/{id}", inbox.DeleteItem)
			r.Get("/item/{id}/preview", preview.Item)
			r.Post("/process/{id}", inbox.ProcessItem)
		})

		r.Route("/content", func(r chi.Router) {
			r.Get("/search", searchH.Search)
			r.Get("/categories", searchH.Categories)
			r.Get("/duplicates", searchH.Duplicates)
			r.Get("/debug/cache-stats", searchH.CacheStats)
			r.Get("/{id}/similar", searchH.Similar)
		})

		r.Route("/storage", func(r chi.Router) {
			r.Get("/stats", storageH.Stats)
			r.Get("/files", storageH.Files)
			r.Post("/enrich", storageH.Enrich)
			r.Get("/{type}", storageH.ByType)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/all/{format}", exportH.All)
			r.Post("/selected", exportH.Selected)
			r.Get("/backup", exportH.Backup)
		})

		r.Route("/health", func(r chi.Router) {
			r.Get("/", health.Health)
			r.Get("/storage-audit", health.StorageAudit)
		})
	})

	return r
}
