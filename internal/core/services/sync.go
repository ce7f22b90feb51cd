package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driving"
	"github.com/custodia-labs/asset-sync/internal/metrics"
)

const (
	// DefaultHistoryLimit is the sync-history page size when none is given.
	DefaultHistoryLimit = 20
	// MaxHistoryLimit caps the sync-history page size.
	MaxHistoryLimit = 200

	defaultRunLockTTL = 10 * time.Minute
)

// Ensure SyncService implements driving.SyncService
var _ driving.SyncService = (*SyncService)(nil)

// SyncService runs pull syncs: it takes the per-integration lock, hands a
// snapshot to the executor, persists the returned delta and alerts the owner
// on failure.
type SyncService struct {
	configs  driven.IntegrationStore
	logs     driven.SyncLogStore
	executor *SyncExecutor
	notifier driven.Notifier
	lock     driven.DistributedLock
	metrics  *metrics.Metrics
	logger   *slog.Logger

	lockTTL      time.Duration
	retryOptFunc func() []backoff.RetryOption
}

// SyncServiceConfig holds dependencies for SyncService.
type SyncServiceConfig struct {
	Configs      driven.IntegrationStore
	Logs         driven.SyncLogStore
	Executor     *SyncExecutor
	Notifier     driven.Notifier        // Optional
	Lock         driven.DistributedLock // Optional: per-integration single-flight
	Metrics      *metrics.Metrics       // Optional
	Logger       *slog.Logger
	LockTTL      time.Duration // default: 10m
	RetryOptFunc func() []backoff.RetryOption
}

// NewSyncService creates a new SyncService.
func NewSyncService(cfg SyncServiceConfig) *SyncService {
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

	return &SyncService{
		configs:      cfg.Configs,
		logs:         cfg.Logs,
		executor:     cfg.Executor,
		notifier:     cfg.Notifier,
		lock:         cfg.Lock,
		metrics:      cfg.Metrics,
		logger:       logger,
		lockTTL:      lockTTL,
		retryOptFunc: retryOptFunc,
	}
}

// Sync runs one pull sync. The run is detached from ctx cancellation once it
// starts, so a disconnecting caller cannot leave a log in RUNNING.
func (s *SyncService) Sync(ctx context.Context, integrationID string, source domain.SyncSource) (*domain.SyncLog, error) {
	cfg, err := s.configs.Get(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	if err := s.executor.CheckPull(cfg); err != nil {
		return nil, err
	}

	release, err := acquireRunLock(ctx, s.lock, s.logger, integrationID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	runCtx := context.WithoutCancel(ctx)
	started := time.Now()

	log, delta, runErr := s.executor.Pull(runCtx, cfg.Snapshot(), source)
	if log == nil {
		// Guard failure after the config changed under us.
		return nil, runErr
	}

	deltaErr := applyDelta(runCtx, s.configs, s.retryOptFunc, integrationID, delta)
	if deltaErr != nil {
		s.logger.Error("failed to update integration after sync",
			"integration_id", integrationID,
			"sync_log_id", log.ID,
			"error", deltaErr,
		)
	}
	s.metrics.ObserveRun(log, time.Since(started))

	if runErr != nil {
		s.notifyFailure(runCtx, cfg, runErr)
		return log, fmt.Errorf("sync integration %s: %w", integrationID, runErr)
	}
	if deltaErr != nil {
		s.notifyFailure(runCtx, cfg, deltaErr)
		return log, fmt.Errorf("update integration %s after sync: %w", integrationID, deltaErr)
	}
	return log, nil
}

// History returns the newest sync logs for a configuration.
func (s *SyncService) History(ctx context.Context, integrationID string, limit int) ([]*domain.SyncLog, error) {
	if _, err := s.configs.Get(ctx, integrationID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.logs.ListByIntegration(ctx, integrationID, limit)
}

func (s *SyncService) notifyFailure(ctx context.Context, cfg *domain.IntegrationConfig, cause error) {
	if s.notifier == nil || cfg.CreatedByID == "" {
		return
	}

	n := &domain.Notification{
		ID:         uuid.NewString(),
		UserID:     cfg.CreatedByID,
		Type:       domain.NotificationTypeSyncFailed,
		Priority:   domain.NotificationPriorityHigh,
		Title:      "Integration sync failed",
		Message:    fmt.Sprintf("Sync for integration %q failed: %v", cfg.Name, cause),
		EntityType: "integration",
		EntityID:   cfg.ID,
		ActionURL:  "/integrations/" + cfg.ID,
		CreatedAt:  time.Now(),
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("failed to send sync failure notification",
			"integration_id", cfg.ID,
			"user_id", cfg.CreatedByID,
			"error", err,
		)
	}
}

// applyDelta persists a sync outcome onto its configuration, retrying briefly.
func applyDelta(ctx context.Context, configs driven.IntegrationStore, retryOptFunc func() []backoff.RetryOption, integrationID string, delta domain.ConfigDelta) error {
	if delta.IsEmpty() {
		return nil
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := configs.ApplyDelta(ctx, integrationID, delta)
		if err != nil && isPermanent(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, retryOptFunc()...)
	return err
}

// isPermanent reports store errors a retry cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput)
}

// acquireRunLock takes the per-integration lock. Without a lock backend, or
// when the backend errors, the run proceeds unguarded.
func acquireRunLock(ctx context.Context, lock driven.DistributedLock, logger *slog.Logger, integrationID string, ttl time.Duration) (func(), error) {
	noop := func() {}
	if lock == nil {
		return noop, nil
	}

	name := runLockName(integrationID)
	acquired, err := lock.Acquire(ctx, name, ttl)
	if err != nil {
		logger.Warn("failed to acquire sync lock, running unguarded",
			"integration_id", integrationID,
			"error", err,
		)
		return noop, nil
	}
	if !acquired {
		return nil, fmt.Errorf("%w: integration %s", domain.ErrSyncInProgress, integrationID)
	}

	return func() {
		if err := lock.Release(context.WithoutCancel(ctx), name); err != nil {
			logger.Warn("failed to release sync lock", "integration_id", integrationID, "error", err)
		}
	}, nil
}

func runLockName(integrationID string) string {
	return "integration-sync:" + integrationID
}
