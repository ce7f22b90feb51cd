package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driving"
	"github.com/custodia-labs/asset-sync/internal/metrics"
)

// Ensure WebhookIngestor implements driving.WebhookIngestor
var _ driving.WebhookIngestor = (*WebhookIngestor)(nil)

// WebhookIngestor runs pushed payloads through the record pipeline. The
// caller is expected to have authenticated the request.
type WebhookIngestor struct {
	configs  driven.IntegrationStore
	executor *SyncExecutor
	lock     driven.DistributedLock
	metrics  *metrics.Metrics
	logger   *slog.Logger

	lockTTL      time.Duration
	retryOptFunc func() []backoff.RetryOption
}

// WebhookIngestorConfig holds dependencies for WebhookIngestor.
type WebhookIngestorConfig struct {
	Configs      driven.IntegrationStore
	Executor     *SyncExecutor
	Lock         driven.DistributedLock // Optional
	Metrics      *metrics.Metrics       // Optional
	Logger       *slog.Logger
	LockTTL      time.Duration
	RetryOptFunc func() []backoff.RetryOption
}

// NewWebhookIngestor creates a new WebhookIngestor.
func NewWebhookIngestor(cfg WebhookIngestorConfig) *WebhookIngestor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultRunLockTTL
	}
	retryOptFunc := cfg.RetryOptFunc
	if retryOptFunc == nil {
		retryOptFunc = newPersistRetryOptions
	}

	return &WebhookIngestor{
		configs:      cfg.Configs,
		executor:     cfg.Executor,
		lock:         cfg.Lock,
		metrics:      cfg.Metrics,
		logger:       logger,
		lockTTL:      lockTTL,
		retryOptFunc: retryOptFunc,
	}
}

// Ingest processes one pushed payload.
func (w *WebhookIngestor) Ingest(ctx context.Context, integrationID string, body []byte) (*domain.SyncLog, error) {
	cfg, err := w.configs.Get(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	if err := w.executor.CheckPush(cfg); err != nil {
		return nil, err
	}

	release, err := acquireRunLock(ctx, w.lock, w.logger, integrationID, w.lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	runCtx := context.WithoutCancel(ctx)
	started := time.Now()

	log, delta, runErr := w.executor.Push(runCtx, cfg.Snapshot(), body)
	if log == nil {
		return nil, runErr
	}
	w.metrics.ObserveRun(log, time.Since(started))

	if runErr != nil {
		return log, fmt.Errorf("ingest webhook for integration %s: %w", integrationID, runErr)
	}

	if err := applyDelta(runCtx, w.configs, w.retryOptFunc, integrationID, delta); err != nil {
		// The records are already applied and the log is final.
		w.logger.Warn("failed to record webhook sync on integration",
			"integration_id", integrationID,
			"sync_log_id", log.ID,
			"error", err,
		)
	}
	return log, nil
}
