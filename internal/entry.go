// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/comicshelf/internal/api"
	"github.com/starford/comicshelf/internal/archive"
	"github.com/starford/comicshelf/internal/catalog"
	"github.com/starford/comicshelf/internal/ingest"
	"github.com/starford/comicshelf/internal/library"
	"github.com/starford/comicshelf/internal/mcpserver"
	"github.com/starford/comicshelf/internal/resolver"
	"github.com/starford/comicshelf/internal/sse"
	"github.com/starford/comicshelf/internal/storage"
	"github.com/starford/comicshelf/internal/structure"
)

// buildService assembles the library service and its collaborators from
// configuration. The returned cleanup closes the lookup cache.
func buildService(cfg *Config, logger *slog.Logger) (*library.Service, storage.Provider, func(), error) {
	if err := os.MkdirAll(cfg.Library.ScanDir, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create scan dir: %w", err)
	}
	if err := os.MkdirAll(cfg.Library.StoreDir, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create store dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Library.ScanDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}

	var cache *resolver.Cache
	cleanup := func() {}
	if cfg.Library.CacheDB != "" {
		cache, err = resolver.OpenCache(cfg.Library.CacheDB)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init lookup cache: %w", err)
		}
		cleanup = func() { cache.Close() }
	}

	res := resolver.New(resolver.Config{
		TesseractPath:      cfg.Resolver.TesseractPath,
		AmazonSearchURL:    cfg.Resolver.AmazonSearchURL,
		YodobashiSearchURL: cfg.Resolver.YodobashiSearchURL,
		GoogleBooksURL:     cfg.Resolver.GoogleBooksURL,
		Timeout:            cfg.Resolver.Timeout(),
	}, cfg.Library.ScanDir, cache, logger)

	svc := library.New(store, catalog.New(), structure.NewStore(store),
		res, archive.New(cfg.Library.StoreDir), logger)
	return svc, store, cleanup, nil
}

func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := newLogger(cfg)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("scan_dir", cfg.Library.ScanDir),
		slog.String("store_dir", cfg.Library.StoreDir),
		slog.String("ingest_mode", cfg.Ingest.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, store, cleanup, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// SSE broker, fed by library change events.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	svc.OnChange(broker.PublishComicEvent)

	// Restore the snapshot and reconcile against the directory before
	// anything else observes the catalog.
	if err := svc.LoadOrScan(); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	pipeline := ingest.New(cfg.Ingest.Pipeline(), svc, store, logger)

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Feed filesystem changes into the catalog.
	g.Go(func() error {
		return pipeline.Run(gCtx)
	})

	// Persist the catalog on a timer, bounding crash data loss.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.Library.SaveInterval())
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				if err := svc.Persist(); err != nil {
					logger.Warn("periodic persist failed", slog.String("error", err.Error()))
				}
			}
		}
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	err = g.Wait()

	// Final snapshot so a clean shutdown never loses catalog state.
	if perr := svc.Persist(); perr != nil {
		logger.Error("final persist failed", slog.String("error", perr.Error()))
	}

	if err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP stdio server over the same library service. No
// HTTP server or file watcher runs in this mode; the catalog is loaded
// once and persisted on exit.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := newLogger(cfg)

	svc, _, cleanup, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.LoadOrScan(); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	defer func() {
		if err := svc.Persist(); err != nil {
			logger.Error("final persist failed", slog.String("error", err.Error()))
		}
	}()

	logger.Info("Starting MCP server on stdio")
	return mcpserver.New(svc).ServeStdio()
}
