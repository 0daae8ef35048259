// Package main is the entry point for the refto catalog API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"refto/internal/config"
	"refto/internal/database"
	"refto/internal/feed"
	"refto/internal/handlers"
	"refto/internal/middleware"
	"refto/internal/router"
	"refto/internal/session"
	"refto/internal/storage"
	"refto/internal/store"
	"refto/internal/valkey"
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env", "error", err)
	}

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text otherwise.
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Env == "production" {
		opts.Level = slog.LevelInfo
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"feed_timezone", cfg.FeedTimezone,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions and the shared like limiter).
	valkeyClient, err := valkey.Connect(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// S3-compatible object storage is optional; uploads are disabled without it.
	var storageClient *storage.Client
	if cfg.StorageEnabled() {
		storageClient, err = storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, media uploads disabled")
	}

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	siteStore := store.NewSiteStore(db)
	pageStore := store.NewPageStore(db)
	versionStore := store.NewVersionStore(db)
	feedStore := store.NewFeedStore(db)
	likeStore := store.NewLikeStore(db)
	tagStore := store.NewTagStore(db)
	submissionStore := store.NewSubmissionStore(db)

	// The feed engine pins calendar math to the configured timezone.
	feedService := feed.NewService(siteStore, pageStore, versionStore, feedStore, likeStore, feed.Options{
		Location:     cfg.Location(),
		DefaultLimit: cfg.FeedDefaultLimit,
		MaxLimit:     cfg.FeedMaxLimit,
	})

	// Create handler groups with their dependencies.
	h := router.Handlers{
		Feed:        handlers.NewFeed(feedService, cfg.AnonWeekLimit),
		Sites:       handlers.NewSites(feedService, siteStore, pageStore, versionStore, likeStore, tagStore),
		Admin:       handlers.NewAdmin(siteStore, pageStore, tagStore, submissionStore, storageClient),
		Auth:        handlers.NewAuth(sessionStore, userStore),
		Submissions: handlers.NewSubmissions(submissionStore),
	}

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer loginLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, h, router.Options{
		SecureCookies: secureCookies,
		LoginLimiter:  loginLimiter,
		LikeLimiter:   valkey.NewLimiter(valkeyClient, "like", cfg.LikeRateLimit, time.Minute),
		LikeWindow:    time.Minute,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
