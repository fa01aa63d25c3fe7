// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/travelcms/internal/cache"
	"github.com/olegiv/travelcms/internal/config"
	"github.com/olegiv/travelcms/internal/handler/api"
	"github.com/olegiv/travelcms/internal/logging"
	"github.com/olegiv/travelcms/internal/middleware"
	"github.com/olegiv/travelcms/internal/scheduler"
	"github.com/olegiv/travelcms/internal/service"
	"github.com/olegiv/travelcms/internal/store"
	"github.com/olegiv/travelcms/internal/translate"
	"github.com/olegiv/travelcms/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "travelcms - translation coverage and auto-translation service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TCMS_DB_PATH                  SQLite database path (default: ./data/travelcms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TCMS_SERVER_PORT              Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TCMS_TRANSLATION_PROVIDER     deepl|google|openai (default: deepl)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TCMS_DEEPL_API_KEY            DeepL API key\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TCMS_AUTO_TRANSLATE_SCHEDULE  Cron spec for the auto-translation sweep (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TCMS_REDIS_URL                Redis URL for the translation memo (optional)\n")
	}
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Println(version.Get().String())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(textHandler))

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// From here on WARN and ERROR records also land in the event log.
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SeedDemo {
		if _, err := store.SeedDemo(ctx, db); err != nil {
			return err
		}
	}

	memo := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:    cfg.CacheMaxSize,
	}, logger)
	defer func() { _ = memo.Close() }()

	provider, err := translate.NewFromConfig(cfg, memo, logger)
	if err != nil {
		return fmt.Errorf("creating translation provider: %w", err)
	}

	events := service.NewEventService(db, logger)
	coverage := service.NewCoverageService(db, logger)
	content := service.NewContentService(db, events, logger)

	dispatcher := translate.NewDispatcher(db, translate.NewTranslator(db, provider, logger), logger, translate.Config{
		Workers: cfg.TranslationWorkers,
	})
	// Workers outlive the signal context so Stop can drain running jobs.
	if err := dispatcher.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("starting translation dispatcher: %w", err)
	}
	defer dispatcher.Stop()

	sched := scheduler.New(coverage, dispatcher, events, logger, scheduler.Config{
		SweepSpec:      cfg.AutoTranslateSchedule,
		JobRetention:   time.Duration(cfg.JobRetentionDays) * 24 * time.Hour,
		EventRetention: time.Duration(cfg.EventRetentionDays) * 24 * time.Hour,
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.APIHeaders(middleware.DefaultHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.NewGlobalRateLimiter(cfg.APIRateLimit, cfg.APIRateBurst).Middleware())
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	api.NewHandler(api.Deps{
		DB:          db,
		Coverage:    coverage,
		Content:     content,
		Events:      events,
		Dispatcher:  dispatcher,
		Memo:        memo,
		Logger:      logger,
		WaitTimeout: cfg.RequestTimeout - time.Second,
	}).Routes(r)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env,
			"provider", provider.Name(), "version", version.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
