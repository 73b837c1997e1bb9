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

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/docservice"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/toc"
)

// Version is reported by the MCP server.
var Version = "0.1.0"

func newApplication(opts []Option) (*application, *slog.Logger, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	if err := app.config.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)

	return app, logger, nil
}

// logBroken writes one log line per unresolved TOC entry.
func logBroken(logger *slog.Logger, err error) {
	var ble *apperr.BrokenLinkError
	if !errors.As(err, &ble) {
		return
	}
	for _, e := range ble.Entries {
		logger.Error("broken toc entry",
			slog.Int("position", e.Position),
			slog.String("section", e.Section),
			slog.String("label", e.Label),
			slog.String("target", e.Target),
			slog.String("path", e.Path))
	}
}

// Check loads the table of contents and verifies that every entry resolves.
func Check(_ context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	store, err := storage.NewFS(cfg.Site.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	t, err := toc.Load(store, cfg.Site.Index)
	if err != nil {
		return err
	}
	if err := t.Validate(store); err != nil {
		logBroken(logger, err)
		return err
	}

	logger.Info("Table of contents OK",
		slog.String("index", cfg.Site.Index),
		slog.Int("entries", t.Len()),
		slog.Int("sections", len(t.Sections())))
	return nil
}

// Build renders the site into the configured output directory.
func Build(ctx context.Context, opts ...Option) (*site.Manifest, error) {
	app, logger, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	cfg := app.config

	logger.Info("Build starting",
		slog.String("site_root", cfg.Site.Root),
		slog.String("output_dir", cfg.Site.OutputDir),
		slog.Int("workers", cfg.Build.Workers))

	store, err := storage.NewFS(cfg.Site.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	out, err := storage.NewWriter(cfg.Site.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("init output: %w", err)
	}
	renderer, err := render.New(render.Options{SiteTitle: cfg.Site.Title, BaseURL: cfg.Site.BaseURL})
	if err != nil {
		return nil, err
	}

	m, err := site.NewBuilder(store, out, renderer, cfg.Site.Index, cfg.Build.Workers, logger).Build(ctx)
	if err != nil {
		logBroken(logger, err)
		return nil, err
	}
	return m, nil
}

// services holds the components shared by the serve and mcp commands.
type services struct {
	store storage.Provider
	db    *catalog.DB
	svc   *docservice.Service
}

func openServices(cfg *Config, logger *slog.Logger) (*services, error) {
	store, err := storage.NewFS(cfg.Site.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := catalog.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}

	stats, err := catalog.Sync(db, store, logger)
	if err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else {
		logger.Info("Catalog synced",
			slog.Int("indexed", stats.Indexed),
			slog.Int("unchanged", stats.Unchanged),
			slog.Int("removed", stats.Removed),
			slog.Int("failed", stats.Failed))
	}

	renderer, err := render.New(render.Options{SiteTitle: cfg.Site.Title, BaseURL: cfg.Site.BaseURL})
	if err != nil {
		db.Close()
		return nil, err
	}

	svc := docservice.NewService(store, db, renderer, cfg.Site.Index)
	if t, err := toc.Load(store, cfg.Site.Index); err != nil {
		logger.Warn("table of contents unavailable", slog.String("error", err.Error()))
	} else if err := t.Validate(store); err != nil {
		logger.Warn("table of contents has broken entries", slog.String("error", err.Error()))
		logBroken(logger, err)
	}

	return &services{store: store, db: db, svc: svc}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("site_root", cfg.Site.Root),
		slog.String("index", cfg.Site.Index),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt, err := openServices(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	// Mount API routes under /api and the live site at the root.
	r.Mount("/api", apiRouter)
	r.Mount("/", api.NewSiteRouter(rt.svc))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		w := catalog.NewWatcher(rt.db, rt.store, cfg.Site.Index, logger, broker.PublishChange)
		if err := w.Run(gCtx); err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
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
		defer signal.Stop(quit)

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

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown ends the errgroup so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// ServeMCP runs the MCP server on stdin/stdout. The catalog is kept in step
// with the site by a watcher for as long as the server runs.
func ServeMCP(ctx context.Context, opts ...Option) error {
	// stdout carries the protocol.
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	rt, err := openServices(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		w := catalog.NewWatcher(rt.db, rt.store, cfg.Site.Index, logger, nil)
		if err := w.Run(wctx); err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
	}()

	logger.Info("MCP server starting on stdio", slog.String("site_root", cfg.Site.Root))
	return mcpserver.New(rt.svc, Version).ServeStdio()
}
