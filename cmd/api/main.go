// The api binary runs database migrations and serves the REST API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadflow_backend/internal/activity"
	"leadflow_backend/internal/adapters/notifier"
	"leadflow_backend/internal/adapters/storage"
	"leadflow_backend/internal/auth"
	"leadflow_backend/internal/email"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/http/router"
	"leadflow_backend/internal/identity"
	"leadflow_backend/internal/leads"
	"leadflow_backend/internal/meetings"
	"leadflow_backend/internal/notification"
	"leadflow_backend/internal/reassignment"
	"leadflow_backend/platform/cache"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/db"
	platformevents "leadflow_backend/platform/events"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	migrationsDir   = "migrations"
	startupAttempts = 5
	startupBackoff  = 2 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "run migrations", func() error {
		return db.RunMigrations(ctx, cfg, migrationsDir)
	}); err != nil {
		return err
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "connect database", func() error {
		pool, err = db.NewPool(ctx, cfg)
		return err
	}); err != nil {
		return err
	}
	defer pool.Close()

	bus := platformevents.NewInMemoryBus(log)
	val := validator.New()

	userCache, err := cache.NewRedis(cfg.GetRedisURL(), "user", cfg.GetUserCacheTTL())
	if err != nil {
		return fmt.Errorf("connect redis cache: %w", err)
	}

	var storageSvc storage.StorageService
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			return fmt.Errorf("create storage service: %w", err)
		}
		if err := minioSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketLeadAttachments()); err != nil {
			return fmt.Errorf("ensure attachment bucket: %w", err)
		}
		storageSvc = minioSvc
	} else {
		log.Warn("MinIO is not configured; attachment endpoints will reject requests")
	}

	identityModule := identity.NewModule(pool, bus, val)

	authModule := auth.NewModule(pool, identityModule.Service(), userCache, cfg, log, val)
	authModule.RegisterHandlers(bus)

	leadsModule := leads.NewModule(pool, bus, storageSvc, cfg.GetMinioBucketLeadAttachments(), val)

	notificationModule := notification.NewModule(pool, bus, log)

	reassignmentModule := reassignment.NewModule(
		pool,
		leadsModule.Service().Repository(),
		notifier.New(notificationModule.Service()),
		bus,
		cfg,
		log,
		val,
	)

	activityModule := activity.NewModule(pool, log)
	activityModule.RegisterHandlers(bus)

	meetingsModule := meetings.NewModule(pool, bus, val)

	if cfg.GetEmailEnabled() {
		subscriber := email.NewSubscriber(email.NewSender(cfg), identityModule.Service(), log)
		subscriber.RegisterHandlers(bus)
		log.Info("email notification fan-out enabled")
	}

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: bus,
		Modules: []apphttp.Module{
			identityModule,
			authModule,
			leadsModule,
			reassignmentModule,
			notificationModule,
			activityModule,
			meetingsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.GetHTTPAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// withRetry runs fn with a fixed backoff; the database may still be
// coming up when the container starts.
func withRetry(ctx context.Context, log *logger.Logger, name string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= startupAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		log.Warn("startup step failed, retrying",
			"step", name,
			"attempt", attempt,
			"error", err.Error(),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(startupBackoff):
		}
	}
	return fmt.Errorf("%s: %w", name, err)
}
