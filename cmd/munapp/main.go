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
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/seechoy/mun-app/internal/cache"
	"github.com/seechoy/mun-app/internal/config"
	"github.com/seechoy/mun-app/internal/geoip"
	"github.com/seechoy/mun-app/internal/handler"
	"github.com/seechoy/mun-app/internal/logging"
	"github.com/seechoy/mun-app/internal/middleware"
	"github.com/seechoy/mun-app/internal/render"
	"github.com/seechoy/mun-app/internal/scheduler"
	"github.com/seechoy/mun-app/internal/service"
	"github.com/seechoy/mun-app/internal/session"
	"github.com/seechoy/mun-app/internal/store"
	"github.com/seechoy/mun-app/internal/version"
	"github.com/seechoy/mun-app/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "munapp - Model United Nations conference directory\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MUNAPP_SESSION_SECRET        Session secret (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MUNAPP_DB_PATH               SQLite database path (default: ./data/munapp.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MUNAPP_SERVER_HOST           Listen host (default: localhost)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MUNAPP_SERVER_PORT           Listen port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MUNAPP_ENV                   development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MUNAPP_LOG_LEVEL             debug|info|warn|error (default: info)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MUNAPP_TRUST_PROXY           Read the client IP from X-Real-IP/X-Forwarded-For (default: false)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MUNAPP_REDIS_URL             Redis URL for shared count caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MUNAPP_GEOIP_DB_PATH         GeoLite2 country database (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MUNAPP_ADMIN_EMAIL           Administrator created on first start (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MUNAPP_ADMIN_PASSWORD        Password for MUNAPP_ADMIN_EMAIL\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MUNAPP_EVENT_RETENTION_DAYS  Audit log retention, 0 keeps forever (default: 90)\n")
	}

	flag.Parse()

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Println(versionInfo.String())
		os.Exit(0)
	}

	if err := run(versionInfo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(versionInfo version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
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

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// WARN and ERROR records also go to the audit event log.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if cfg.SeedAdmin() {
		if err := store.SeedAdmin(ctx, db, store.AdminSeed{
			Alias:    cfg.AdminAlias,
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		}); err != nil {
			return fmt.Errorf("seeding admin: %w", err)
		}
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	countCache, cacheKind := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTLDuration(),
		MaxSize:    cfg.CacheMaxSize,
	}, logger)
	defer func() { _ = countCache.Close() }()
	counts := cache.NewCounts(countCache, cfg.CacheTTLDuration())
	slog.Info("cache initialized", "backend", cacheKind)

	geo, err := geoip.New(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip database unavailable, country suggestions disabled", "path", cfg.GeoIPDBPath, "error", err)
	}
	defer func() { _ = geo.Close() }()

	eventService := service.NewEventService(db)

	sched := scheduler.New(logger)
	if err := sched.AddEventPruning(eventService, cfg.EventRetention()); err != nil {
		return fmt.Errorf("scheduling event pruning: %w", err)
	}
	if cfg.GeoIPEnabled() {
		if err := sched.AddGeoIPReload(geo); err != nil {
			return fmt.Errorf("scheduling geoip reload: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	staticFS, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS: templatesFS,
		Sessions:    sessionManager,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Stop()
	slog.Info("login protection initialized",
		"ip_rate_limit", "0.5 req/s",
		"max_failed_attempts", 5,
		"lockout_duration", "15m",
	)

	r := handler.NewRouter(handler.Deps{
		DB:              db,
		Sessions:        sessionManager,
		Renderer:        renderer,
		Accounts:        service.NewAccounts(db, counts),
		Conferences:     service.NewConferences(db, counts),
		Attendance:      service.NewAttendance(db),
		Events:          eventService,
		LoginProtection: loginProtection,
		Countries:       geo,
		Cache:           countCache,
		CacheKind:       cacheKind,
		GeoIP:           geo,
		Scheduler:       sched,
		Version:         versionInfo,
		StaticFS:        staticFS,
		IsDevelopment:   cfg.IsDevelopment(),
		SessionSecret:   cfg.SessionSecret,
		ServerAddr:      cfg.ServerAddr(),
		RequestTimeout:  30 * time.Second,
		TrustProxy:      cfg.TrustProxy,
		AccessLog:       true,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.WithDefaults().Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
