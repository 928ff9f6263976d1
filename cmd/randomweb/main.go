// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/olegiv/randomweb/internal/auth"
	"github.com/olegiv/randomweb/internal/backend"
	"github.com/olegiv/randomweb/internal/catalog"
	"github.com/olegiv/randomweb/internal/config"
	"github.com/olegiv/randomweb/internal/handler"
	"github.com/olegiv/randomweb/internal/logging"
	"github.com/olegiv/randomweb/internal/middleware"
	"github.com/olegiv/randomweb/internal/notice"
	"github.com/olegiv/randomweb/internal/render"
	"github.com/olegiv/randomweb/internal/scheduler"
	"github.com/olegiv/randomweb/internal/session"
	"github.com/olegiv/randomweb/internal/store"
	"github.com/olegiv/randomweb/internal/version"
	"github.com/olegiv/randomweb/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "RandomWeb - a random trip through a curated list of websites\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RANDOMWEB_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RANDOMWEB_TOKEN_SECRET      Access token signing key (default: session secret)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RANDOMWEB_DB_PATH           SQLite database path (default: ./data/randomweb.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RANDOMWEB_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RANDOMWEB_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RANDOMWEB_REDIS_URL         Redis URL for relaying session changes (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RANDOMWEB_LOGIN_PROTECTION  Rate limit and lock out repeated failed sign-ins\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RANDOMWEB_DO_SEED           Create the admin account on startup\n")
		_, _ = fmt.Fprintf(os.Stderr, "  RANDOMWEB_DEMO_MODE         Fill an empty catalog with sample websites\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("randomweb %s\n", buildInfo())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func buildInfo() version.Info {
	return version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
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

	ctx := context.Background()

	slog.Info("running database migrations")
	if err := store.Migrate(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Also write WARN and ERROR logs to the events table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	if err := seed(ctx, db, cfg); err != nil {
		return err
	}

	local, err := backend.NewLocal(db, backend.LocalConfig{
		TokenSecret:     cfg.AccessTokenSecret(),
		SessionLifetime: cfg.SessionLifetime,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("initializing session store: %w", err)
	}

	if cfg.UseRedisRelay() {
		relay, err := backend.NewRedisRelay(local.Events(), backend.RedisRelayOptions{
			URL:     cfg.RedisURL,
			Channel: cfg.RedisChannel,
			Logger:  logger,
		})
		if err != nil {
			return fmt.Errorf("connecting session relay: %w", err)
		}
		if err := relay.Start(ctx); err != nil {
			relay.Stop()
			return fmt.Errorf("starting session relay: %w", err)
		}
		defer relay.Stop()
	}

	sessionManager := session.New(db, cfg.CookieLifetime, cfg.IsDevelopment())
	notifier := notice.NewSessionNotifier(sessionManager, session.KeyNotices)
	slog.Info("session manager initialized")

	authManager := auth.NewManager(local, notifier, logger)
	authManager.Start()
	defer authManager.Stop()

	purger := scheduler.New(db, local, cfg.PurgeSchedule, logger)
	if err := purger.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer purger.Stop()

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS: templatesFS,
		Notices:     notifier,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	var loginProtection *middleware.LoginProtection
	if cfg.LoginProtection {
		loginProtection = middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
		defer loginProtection.Stop()
		slog.Info("login protection enabled")
	}

	router, err := handler.NewRouter(handler.RouterConfig{
		Renderer:     renderer,
		Sessions:     sessionManager,
		Auth:         authManager,
		Catalog:      catalog.NewService(local, notifier, catalog.DefaultSource, logger),
		Notifier:     notifier,
		DB:           db,
		Version:      buildInfo(),
		HomeMarkdown: web.HomeMarkdown,
		StaticFS:     staticFS,
		CSRF:         middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerAddr()),
		IsDev:        cfg.IsDevelopment(),

		LoginProtection: loginProtection,
	})
	if err != nil {
		return fmt.Errorf("building router: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", buildInfo().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
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

// seed creates the admin account and, in demo mode, the starter catalog
// owned by that account.
func seed(ctx context.Context, db *sql.DB, cfg *config.Config) error {
	// Sign-in looks accounts up by normalized email.
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	if cfg.DoSeed {
		hash, err := backend.HashPassword(cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("hashing admin password: %w", err)
		}
		if err := store.Seed(ctx, db, true, store.AdminSeed{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: hash,
		}); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	if !cfg.DemoMode {
		return nil
	}

	owner, err := store.New(db).GetAuthUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Warn("demo mode needs the admin account, skipping demo websites", "email", email)
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up demo owner: %w", err)
	}
	if err := store.SeedDemo(ctx, db, true, owner.ID); err != nil {
		return fmt.Errorf("seeding demo content: %w", err)
	}
	return nil
}
