package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	trajectservice "traject/contexts/assessment-workflow/traject-service"
	postgresadapter "traject/contexts/assessment-workflow/traject-service/adapters/postgres"
	"traject/contexts/assessment-workflow/traject-service/application/workers"
	"traject/contexts/assessment-workflow/traject-service/ports"
	"traject/internal/platform/config"
	"traject/internal/platform/db"
	"traject/internal/platform/httpserver"
	"traject/internal/platform/messaging"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres        *db.Postgres
	closers         []func() error
	archiver        workers.ArchiveExpired
	outboxRelay     workers.OutboxRelay
	archiveInterval time.Duration
	outboxInterval  time.Duration
	enableArchiver  bool
	enableRelay     bool
	logger          *slog.Logger
}

// BuildModule connects to Postgres and wires the traject module against it.
// The caller owns the returned connection.
func BuildModule(cfg config.Config, publisher ports.EventPublisher, logger *slog.Logger) (trajectservice.Module, *db.Postgres, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return trajectservice.Module{}, nil, errors.New("POSTGRES_DSN is required")
	}
	pg, err := db.Connect(cfg.PostgresDSN, dbOptions(cfg, logger))
	if err != nil {
		return trajectservice.Module{}, nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, db.TxPolicy{
		MaxAttempts: cfg.TxMaxAttempts,
		Timeout:     cfg.TxTimeout,
		Backoff:     20 * time.Millisecond,
	}, logger)
	module := trajectservice.NewModule(trajectservice.Dependencies{
		Transactions:     repo,
		Reader:           repo,
		Outbox:           repo,
		Publisher:        publisher,
		Clock:            postgresadapter.SystemClock{},
		IDGenerator:      postgresadapter.UUIDGenerator{},
		HistoryCap:       cfg.HistoryCap,
		ArchiveBatchSize: cfg.ArchiveBatchSize,
		OutboxBatchSize:  cfg.OutboxBatchSize,
		Logger:           logger,
	})
	return module, pg, nil
}

func dbOptions(cfg config.Config, logger *slog.Logger) db.Options {
	return db.Options{
		PingTimeout:        cfg.DBPingTimeout,
		MaxOpenConns:       cfg.DBMaxOpenConns,
		MaxIdleConns:       cfg.DBMaxIdleConns,
		ConnMaxLifetime:    cfg.DBConnMaxLifetime,
		SlowQueryThreshold: cfg.DBSlowQueryThreshold,
		Logger:             logger,
	}
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	module, pg, err := BuildModule(cfg, nil, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	publisher, closePublisher, err := BuildPublisher(cfg, logger)
	if err != nil {
		return nil, err
	}
	module, pg, err := BuildModule(cfg, publisher, logger)
	if err != nil {
		_ = closePublisher()
		return nil, err
	}

	closers := []func() error{closePublisher}
	if bus, ok := publisher.(*messaging.Bus); ok {
		closers = append(closers, SubscribeNotifications(bus, module.Workers.Notifications))
	}

	return &WorkerApp{
		postgres:        pg,
		closers:         closers,
		archiver:        module.Workers.ArchiveExpired,
		outboxRelay:     module.Workers.OutboxRelay,
		archiveInterval: cfg.ArchiveInterval,
		outboxInterval:  cfg.OutboxInterval,
		enableArchiver:  cfg.EnableArchiver,
		enableRelay:     cfg.EnableOutboxRelay,
		logger:          logger,
	}, nil
}

// BuildPublisher selects the event bus named by cfg.EventBus.
func BuildPublisher(cfg config.Config, logger *slog.Logger) (ports.EventPublisher, func() error, error) {
	switch cfg.EventBus {
	case config.EventBusRedis:
		streams, err := messaging.NewRedisStreams(cfg.RedisAddr, cfg.ServiceName, logger)
		if err != nil {
			return nil, nil, err
		}
		return streams, streams.Close, nil
	default:
		return messaging.NewBus(logger), func() error { return nil }, nil
	}
}

// SubscribeNotifications attaches the notification dispatcher to every topic
// it handles on the in-process bus. With a Redis stream the consumers run in
// their own processes. The returned func unsubscribes.
func SubscribeNotifications(bus *messaging.Bus, dispatcher workers.NotificationDispatcher) func() error {
	topics := dispatcher.Topics()
	unsubscribes := make([]func(), 0, len(topics))
	for _, topic := range topics {
		unsubscribes = append(unsubscribes, bus.Subscribe(topic, "traject-notifications", dispatcher.Handle))
	}
	return func() error {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
		return nil
	}
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(a.server.Start)
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

// Run drives the archiver and outbox relay on independent tickers until ctx
// is cancelled or one of them fails.
func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"archive_interval", w.archiveInterval.String(),
		"outbox_interval", w.outboxInterval.String(),
		"archiver_enabled", w.enableArchiver,
		"outbox_relay_enabled", w.enableRelay,
	)

	group, ctx := errgroup.WithContext(ctx)
	if w.enableArchiver {
		group.Go(func() error {
			return runEvery(ctx, w.archiveInterval, func(ctx context.Context) error {
				_, err := w.archiver.RunOnce(ctx)
				return err
			})
		})
	}
	if w.enableRelay {
		group.Go(func() error {
			return runEvery(ctx, w.outboxInterval, w.outboxRelay.RunOnce)
		})
	}
	return group.Wait()
}

func (w *WorkerApp) Close() error {
	var errs []error
	for _, closer := range w.closers {
		errs = append(errs, closer())
	}
	if w.postgres != nil {
		errs = append(errs, w.postgres.Close())
	}
	return errors.Join(errs...)
}

// runEvery calls job immediately and then on every tick. A cancelled context
// ends the loop without error.
func runEvery(ctx context.Context, interval time.Duration, job func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := job(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
