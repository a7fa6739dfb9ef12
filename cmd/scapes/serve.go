// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"scapes/internal/cache"
	"scapes/internal/config"
	"scapes/internal/database"
	"scapes/internal/editor"
	"scapes/internal/events"
	"scapes/internal/handlers"
	"scapes/internal/metrics"
	"scapes/internal/middleware"
	"scapes/internal/publisher"
	"scapes/internal/router"
	"scapes/internal/session"
	"scapes/internal/storage"
	"scapes/internal/store"
)

// sweepInterval is how often idle editor sessions are evicted.
const sweepInterval = time.Minute

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	// Connect to PostgreSQL and run pending migrations.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			return err
		}
	}

	// Valkey holds editor snapshots, the public view cache and the
	// change feed.
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		return err
	}
	defer valkeyClient.Close()

	// S3-compatible media storage is optional; without it media refs are
	// served as stored.
	storageClient, err := storage.New(cfg.Storage())
	if err != nil {
		return fmt.Errorf("s3 storage: %w", err)
	}
	var (
		mediaResolver   handlers.MediaResolver
		mediaNormalizer handlers.MediaNormalizer
	)
	if storageClient != nil {
		mediaResolver, mediaNormalizer = storageClient, storageClient
		slog.Info("s3 storage configured",
			"endpoint", cfg.S3Endpoint,
			"public_bucket", cfg.S3PublicBucket,
			"private_bucket", cfg.S3PrivateBucket,
		)
	} else {
		slog.Warn("s3 storage not configured, media refs are served unresolved")
	}

	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET is empty, every API request will be rejected")
	}

	m := metrics.New()
	scapeStore := store.NewScapeStore(db)
	changeLog := store.NewChangeLogStore(db)
	views := cache.NewScapeCache(valkeyClient, cfg.ScapeCacheTTL)

	svc := publisher.New(scapeStore,
		publisher.WithNotifier(views),
		publisher.WithNotifier(events.NewPublisher(valkeyClient)),
		publisher.WithNotifier(changeLog),
		publisher.WithRecorder(m),
	)

	sessions := editor.NewManager(svc, scapeStore, session.NewStore(valkeyClient, cfg.EditorSessionTTL),
		editor.Config{
			Limits:        cfg.Limits(),
			Policy:        cfg.Policy(),
			Debounce:      cfg.NameCheckDebounce,
			LookupTimeout: cfg.NameCheckTimeout,
			IdleTTL:       cfg.EditorIdleTTL,
		},
		editor.WithNameObserver(m.NameCheckObserver()),
		editor.WithSessionGauge(m.Sessions()),
	)
	defer sessions.Close()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sessions.Run(sweepCtx, sweepInterval)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
	defer limiter.Stop()

	r := router.New(router.Deps{
		Editor:      handlers.NewEditor(sessions, mediaNormalizer),
		Library:     handlers.NewLibrary(scapeStore, svc, changeLog),
		Public:      handlers.NewPublic(scapeStore, mediaResolver, views),
		Metrics:     m,
		RateLimiter: limiter,
		JWTSecret:   []byte(cfg.JWTSecret),
		Checks: map[string]router.Check{
			"postgres": db.PingContext,
			"valkey":   func(ctx context.Context) error { return valkeyClient.Ping(ctx).Err() },
		},
	})

	// Editor streams are long-lived websockets that manage their own
	// deadlines, so WriteTimeout only bounds ordinary requests.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
