// The scheduler binary runs the asynq worker pool and the periodic
// dispatcher that enqueues per-tenant call-check jobs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"leadflow_backend/internal/activity"
	"leadflow_backend/internal/adapters/notifier"
	"leadflow_backend/internal/email"
	"leadflow_backend/internal/identity"
	identityrepo "leadflow_backend/internal/identity/repository"
	leadsrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/notification"
	"leadflow_backend/internal/reassignment"
	"leadflow_backend/internal/scheduler"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/db"
	platformevents "leadflow_backend/platform/events"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"

	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
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

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	bus := platformevents.NewInMemoryBus(log)
	val := validator.New()

	identityModule := identity.NewModule(pool, bus, val)
	notificationModule := notification.NewModule(pool, bus, log)

	reassignmentModule := reassignment.NewModule(
		pool,
		leadsrepo.New(pool),
		notifier.New(notificationModule.Service()),
		bus,
		cfg,
		log,
		val,
	)

	activityModule := activity.NewModule(pool, log)
	activityModule.RegisterHandlers(bus)

	if cfg.GetEmailEnabled() {
		subscriber := email.NewSubscriber(email.NewSender(cfg), identityModule.Service(), log)
		subscriber.RegisterHandlers(bus)
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("create scheduler client: %w", err)
	}
	defer client.Close()

	worker, err := scheduler.NewWorker(cfg, reassignmentModule.Service(), log)
	if err != nil {
		return fmt.Errorf("create scheduler worker: %w", err)
	}

	dispatcher := scheduler.NewDispatcher(client, identityrepo.New(pool), cfg.GetCallCheckInterval(), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("scheduler worker starting",
			"queue", cfg.GetAsynqQueueName(),
			"concurrency", cfg.GetAsynqConcurrency(),
		)
		return worker.Run()
	})
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		worker.Shutdown()
		return nil
	})

	return g.Wait()
}
