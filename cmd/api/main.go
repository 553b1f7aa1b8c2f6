package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contentstack/internal/config"
	"contentstack/internal/enrich"
	"contentstack/internal/export"
	"contentstack/internal/filelock"
	"contentstack/internal/fscache"
	"contentstack/internal/http"
	"contentstack/internal/search"
	"contentstack/internal/store"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	dirCache := fscache.NewDirCache()
	defer dirCache.Dispose()

	recordStore := store.New(cfg.StorageDir, cfg.MetadataDir, filelock.New(), dirCache)
	slog.Info("Content store initialized", "storage", cfg.StorageDir, "metadata", cfg.MetadataDir)

	builder := search.NewBuilder()
	searchCache := search.NewCache(func(ctx context.Context) (*search.Index, error) {
		return builder.Build(ctx, cfg.LibraryDir)
	}, logger)
	defer searchCache.Dispose()

	enricher := enrich.New(recordStore, cfg.LibraryDir, searchCache.Invalidate)
	exporter := export.New(cfg.LibraryDir, cfg.MetadataDir, cfg.StorageDir)

	router := http.NewRouter(&http.Deps{
		Store:       recordStore,
		SearchCache: searchCache,
		DirCache:    dirCache,
		Enricher:    enricher,
		Exporter:    exporter,
		Logger:      logger,
	})

	// Warm the search index in the background after the router is ready.
	go func() {
		if _, err := searchCache.GetIndex(context.Background()); err != nil {
			slog.Error("Initial index build failed", "error", err)
		} else {
			slog.Info("Search index warmed")
		}
	}()

	// Keep the directory cache honest when the data tree changes out
	// from under us. Watch failures are not fatal; caches still expire
	// by TTL.
	if cfg.WatchEnabled {
		watcher, err := fscache.NewWatcher(dirCache, searchCache.Invalidate, logger,
			cfg.StorageDir, cfg.MetadataDir, cfg.LibraryDir)
		if err != nil {
			slog.Warn("File watcher disabled", "error", err)
		} else {
			defer func() {
				_ = watcher.Close()
			}()
			slog.Info("File watcher started", "roots", 3)
		}
	}

	addr := ":" + cfg.Port
	server := &nethttp.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}
