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

	"github.com/starford/daymark/internal/api"
	"github.com/starford/daymark/internal/engine"
	"github.com/starford/daymark/internal/gate"
	"github.com/starford/daymark/internal/journal"
	"github.com/starford/daymark/internal/sse"
	"github.com/starford/daymark/internal/storage"
)

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

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("base_tag", cfg.Stamp.BaseTag),
		slog.Int("debounce_ms", cfg.Stamp.DebounceMs),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize the SQLite stamp journal.
	db, err := journal.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init journal: %w", err)
	}
	defer db.Close()

	// Stamp engine and change gate.
	eng := engine.NewService(store, db, cfg.Stamp.PolicyOptions(), cfg.Stamp.IndentWidth)
	g := gate.New(cfg.Vault.Folders, cfg.Stamp.DebounceMs, cfg.Stamp.TemplaterDelayMs, db)

	// Backfill notes that predate the journal.
	stamped, skipped, err := eng.Sweep(ctx, func(path string, err error) {
		logger.Warn("sweep skipped document", slog.String("path", path), slog.String("error", err.Error()))
	})
	if err != nil {
		logger.Warn("initial sweep failed", slog.String("error", err.Error()))
	} else {
		logger.Info("Initial sweep complete", slog.Int("stamped", stamped), slog.Int("skipped", skipped))
	}

	// SSE broker.
	broker := sse.NewBroker()

	// Build API router.
	apiRouter := api.NewRouter(eng, g, db, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	grp, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	grp.Go(func() error {
		if err := gate.Watch(gCtx, g, eng, store, db, cfg.Vault.Path, logger, func(kind, path string) {
			broker.PublishStampEvent(kind, path)
		}); err != nil {
			return fmt.Errorf("watcher error: %w", err)
		}
		return nil
	})

	// Start HTTP server.
	grp.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	grp.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := grp.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
