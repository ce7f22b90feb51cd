package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/asset-sync/internal/adapters/driven/auth"
	"github.com/custodia-labs/asset-sync/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/asset-sync/internal/adapters/driven/redis"
	"github.com/custodia-labs/asset-sync/internal/adapters/driven/rest"
	"github.com/custodia-labs/asset-sync/internal/config"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driving"
	"github.com/custodia-labs/asset-sync/internal/core/services"
	"github.com/custodia-labs/asset-sync/internal/metrics"
)

// app holds every wired component. Close releases the connections it opened.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db          *postgres.DB
	redisClient *redis.Client
	lock        driven.DistributedLock
	metrics     *metrics.Metrics

	authService        driving.AuthService
	integrationService driving.IntegrationService
	syncService        *services.SyncService
	webhookIngestor    *services.WebhookIngestor
	scheduler          *services.Scheduler
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	// ===== PostgreSQL =====
	logger.Info("connecting to postgres")
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db

	if err := db.InitSchema(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// ===== Distributed Lock (Redis if available, otherwise PostgreSQL advisory locks) =====
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		a.redisClient = redis.NewClient(opts)
		if err := a.redisClient.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.lock = redisadapter.NewLock(a.redisClient)
		logger.Info("using redis distributed lock")
	} else {
		a.lock = postgres.NewAdvisoryLock(db)
		logger.Info("using postgres advisory lock")
	}

	// ===== Driven adapters =====
	cipher, err := postgres.NewCredentialCipherFromHex(cfg.CredentialsKey)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid credentials key: %w", err)
	}
	authAdapter := auth.NewAdapter(cfg.JWTSecret)
	fetcher := rest.NewFetcher(rest.Config{
		Timeout:      cfg.Fetch.Timeout,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		Breaker: rest.BreakerConfig{
			ConsecutiveFailures: cfg.Fetch.BreakerFailures,
			OpenTimeout:         cfg.Fetch.BreakerOpenTimeout,
			HalfOpenRequests:    cfg.Fetch.BreakerHalfOpenReqs,
		},
		Logger: logger.With("component", "fetcher"),
	})

	integrationStore := postgres.NewIntegrationStore(db, cipher)
	syncLogStore := postgres.NewSyncLogStore(db)
	assetStore := postgres.NewAssetStore(db)
	notificationStore := postgres.NewNotificationStore(db)

	a.metrics = metrics.New()

	// ===== Services =====
	executor := services.NewSyncExecutor(services.SyncExecutorConfig{
		Fetcher:        fetcher,
		Logs:           syncLogStore,
		Assets:         assetStore,
		Logger:         logger,
		FetchTimeout:   cfg.Fetch.Timeout,
		FailureBackoff: cfg.Fetch.FailureBackoff,
	})

	a.authService = services.NewAuthService(authAdapter)
	a.integrationService = services.NewIntegrationService(integrationStore, fetcher, authAdapter, logger)
	a.syncService = services.NewSyncService(services.SyncServiceConfig{
		Configs:  integrationStore,
		Logs:     syncLogStore,
		Executor: executor,
		Notifier: notificationStore,
		Lock:     a.lock,
		Metrics:  a.metrics,
		Logger:   logger,
	})
	a.webhookIngestor = services.NewWebhookIngestor(services.WebhookIngestorConfig{
		Configs:  integrationStore,
		Executor: executor,
		Lock:     a.lock,
		Metrics:  a.metrics,
		Logger:   logger,
	})
	a.scheduler = services.NewScheduler(services.SchedulerConfig{
		Configs:      integrationStore,
		Syncs:        a.syncService,
		Lock:         a.lock,
		Metrics:      a.metrics,
		Logger:       logger.With("component", "scheduler"),
		Interval:     cfg.Scheduler.Interval,
		QueueSize:    cfg.Scheduler.QueueSize,
		LockRequired: cfg.Scheduler.LockRequired,
	})

	return a, nil
}

// Close releases database and redis connections
func (a *app) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis client", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", "error", err)
		}
	}
}
