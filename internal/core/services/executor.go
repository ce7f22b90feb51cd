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
)

const (
	// DefaultFetchTimeout bounds one GET against an integration endpoint.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultFailureBackoff is how far a failed pull sync pushes nextSyncAt.
	DefaultFailureBackoff = 15 * time.Minute
)

// SyncExecutor runs one synchronization against an immutable configuration
// snapshot. It writes the sync log and returns the change to apply to the
// configuration; it never writes the configuration itself.
//
// Pull runs go RUNNING → COMPLETED | PARTIAL | FAILED:
//  1. Guard the snapshot (ACTIVE, pull-capable type, endpoint set)
//  2. Create the log in RUNNING
//  3. Build auth headers and GET the endpoint
//  4. Decode the body into records
//  5. Map, match, resolve and apply each record
//  6. Complete the log and schedule the next run from syncInterval
//  7. On a run-level failure, fail the log and back off
type SyncExecutor struct {
	fetcher  driven.RecordFetcher
	logs     driven.SyncLogStore
	pipeline *recordPipeline
	logger   *slog.Logger

	fetchTimeout   time.Duration
	failureBackoff backoff.BackOff
	retryOptFunc   func() []backoff.RetryOption
	now            func() time.Time
}

// SyncExecutorConfig holds dependencies for SyncExecutor.
type SyncExecutorConfig struct {
	Fetcher        driven.RecordFetcher
	Logs           driven.SyncLogStore
	Assets         driven.AssetStore
	Logger         *slog.Logger
	FetchTimeout   time.Duration                // default: 30s
	FailureBackoff time.Duration                // default: 15m
	RetryOptFunc   func() []backoff.RetryOption // retries for best-effort log writes
	Clock          func() time.Time
}

// NewSyncExecutor creates a new sync executor.
func NewSyncExecutor(cfg SyncExecutorConfig) *SyncExecutor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}

	failureBackoff := cfg.FailureBackoff
	if failureBackoff <= 0 {
		failureBackoff = DefaultFailureBackoff
	}

	retryOptFunc := cfg.RetryOptFunc
	if retryOptFunc == nil {
		retryOptFunc = newPersistRetryOptions
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &SyncExecutor{
		fetcher:        cfg.Fetcher,
		logs:           cfg.Logs,
		pipeline:       newRecordPipeline(cfg.Assets, logger),
		logger:         logger,
		fetchTimeout:   fetchTimeout,
		failureBackoff: &backoff.ConstantBackOff{Interval: failureBackoff},
		retryOptFunc:   retryOptFunc,
		now:            clock,
	}
}

func newPersistRetryOptions() []backoff.RetryOption {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(3),
	}
}

// CheckPull validates that a configuration can be pulled right now.
func (e *SyncExecutor) CheckPull(cfg *domain.IntegrationConfig) error {
	if !cfg.IsActive() {
		return fmt.Errorf("%w: %s is %s", domain.ErrIntegrationInactive, cfg.ID, cfg.Status)
	}
	kind, err := cfg.IntegrationType.Kind()
	if err != nil {
		return err
	}
	if !kind.Pulls() {
		return fmt.Errorf("%w: %s integrations cannot be pulled", domain.ErrInvalidIntegrationType, cfg.IntegrationType)
	}
	if cfg.EndpointURL == "" {
		return fmt.Errorf("%w: integration %s has no endpoint", domain.ErrInvalidIntegrationType, cfg.ID)
	}
	return nil
}

// CheckPush validates that a configuration accepts webhook payloads. Only
// the type is checked: pushes are accepted whatever the status.
func (e *SyncExecutor) CheckPush(cfg *domain.IntegrationConfig) error {
	kind, err := cfg.IntegrationType.Kind()
	if err != nil {
		return err
	}
	if !kind.AcceptsPush() {
		return fmt.Errorf("%w: %s integrations do not accept webhooks", domain.ErrInvalidIntegrationType, cfg.IntegrationType)
	}
	return nil
}

// Pull fetches records from the configuration's endpoint and applies them.
// Guard failures return a nil log. Run-level failures return the FAILED log,
// a backoff delta and the cause.
func (e *SyncExecutor) Pull(ctx context.Context, cfg domain.IntegrationConfig, source domain.SyncSource) (*domain.SyncLog, domain.ConfigDelta, error) {
	if err := e.CheckPull(&cfg); err != nil {
		return nil, domain.ConfigDelta{}, err
	}

	logger := e.logger.With("integration_id", cfg.ID, "source", source)

	log, err := e.begin(ctx, &cfg, source)
	if err != nil {
		return e.failPull(ctx, logger, &cfg, log, domain.SyncCounters{}, fmt.Errorf("create sync log: %w", err), false)
	}
	logger = logger.With("sync_log_id", log.ID)
	logger.Info("starting sync")

	counters, err := e.fetchAndProcess(ctx, logger, &cfg, log)
	if err != nil {
		return e.failPull(ctx, logger, &cfg, log, counters, err, true)
	}

	completedAt := e.now()
	log.Complete(counters, completedAt)
	if err := e.logs.Update(ctx, log); err != nil {
		log.CompletedAt = nil
		return e.failPull(ctx, logger, &cfg, log, counters, fmt.Errorf("persist sync log: %w", err), true)
	}

	logger.Info("sync completed",
		"status", log.Status,
		"total", counters.TotalRecords,
		"successful", counters.SuccessfulSyncs,
		"failed", counters.FailedSyncs,
		"skipped", counters.SkippedRecords,
		"duration", completedAt.Sub(log.StartedAt),
	)

	cleared := ""
	delta := domain.ConfigDelta{
		LastSyncAt:    &completedAt,
		LastSyncError: &cleared,
		SetNextSyncAt: true,
	}
	if cfg.SyncInterval != "" {
		next := domain.NextSyncFrom(cfg.SyncInterval, completedAt)
		delta.NextSyncAt = &next
	}
	return log, delta, nil
}

// Push applies a webhook payload. It never reschedules the configuration and
// a failure only marks the log FAILED.
func (e *SyncExecutor) Push(ctx context.Context, cfg domain.IntegrationConfig, body []byte) (*domain.SyncLog, domain.ConfigDelta, error) {
	if err := e.CheckPush(&cfg); err != nil {
		return nil, domain.ConfigDelta{}, err
	}

	logger := e.logger.With("integration_id", cfg.ID, "source", domain.SyncSourceWebhook)

	log, err := e.begin(ctx, &cfg, domain.SyncSourceWebhook)
	if err != nil {
		return e.failPush(ctx, logger, log, domain.SyncCounters{}, fmt.Errorf("create sync log: %w", err), false)
	}
	logger = logger.With("sync_log_id", log.ID)

	payload, err := domain.DecodePayload(body)
	if err != nil {
		return e.failPush(ctx, logger, log, domain.SyncCounters{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err), true)
	}

	counters := e.pipeline.run(ctx, &cfg, payload, &log.SyncDetails)

	completedAt := e.now()
	log.Complete(counters, completedAt)
	if err := e.logs.Update(ctx, log); err != nil {
		log.CompletedAt = nil
		return e.failPush(ctx, logger, log, counters, fmt.Errorf("persist sync log: %w", err), true)
	}

	logger.Info("webhook processed",
		"status", log.Status,
		"total", counters.TotalRecords,
		"successful", counters.SuccessfulSyncs,
		"failed", counters.FailedSyncs,
		"skipped", counters.SkippedRecords,
	)

	cleared := ""
	return log, domain.ConfigDelta{LastSyncAt: &completedAt, LastSyncError: &cleared}, nil
}

func (e *SyncExecutor) begin(ctx context.Context, cfg *domain.IntegrationConfig, source domain.SyncSource) (*domain.SyncLog, error) {
	log := &domain.SyncLog{
		ID:                  uuid.NewString(),
		IntegrationConfigID: cfg.ID,
		Status:              domain.SyncStatusRunning,
		SyncDetails:         domain.SyncDetails{Source: source},
		StartedAt:           e.now(),
	}
	return log, e.logs.Create(ctx, log)
}

func (e *SyncExecutor) fetchAndProcess(ctx context.Context, logger *slog.Logger, cfg *domain.IntegrationConfig, log *domain.SyncLog) (domain.SyncCounters, error) {
	headers, err := domain.BuildAuthHeaders(cfg.AuthenticationType, cfg.Credentials)
	if errors.Is(err, domain.ErrOAuth2NotImplemented) {
		logger.Warn("OAUTH2 token acquisition is not available, fetching without credentials")
	} else if err != nil {
		return domain.SyncCounters{}, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	body, err := e.fetcher.Fetch(fetchCtx, cfg.EndpointURL, headers)
	if err != nil {
		return domain.SyncCounters{}, err
	}

	payload, err := domain.DecodePayload(body)
	if err != nil {
		return domain.SyncCounters{}, &domain.TransportError{URL: cfg.EndpointURL, Err: err}
	}

	return e.pipeline.run(ctx, cfg, payload, &log.SyncDetails), nil
}

func (e *SyncExecutor) failPull(ctx context.Context, logger *slog.Logger, cfg *domain.IntegrationConfig, log *domain.SyncLog, counters domain.SyncCounters, cause error, created bool) (*domain.SyncLog, domain.ConfigDelta, error) {
	failedAt := e.now()
	log.Fail(counters, cause, failedAt)
	e.persistBestEffort(ctx, logger, log, created)

	logger.Error("sync failed", "error", cause)

	message := cause.Error()
	next := failedAt.Add(e.failureBackoff.NextBackOff())
	return log, domain.ConfigDelta{
		LastSyncError: &message,
		SetNextSyncAt: true,
		NextSyncAt:    &next,
	}, cause
}

func (e *SyncExecutor) failPush(ctx context.Context, logger *slog.Logger, log *domain.SyncLog, counters domain.SyncCounters, cause error, created bool) (*domain.SyncLog, domain.ConfigDelta, error) {
	log.Fail(counters, cause, e.now())
	e.persistBestEffort(ctx, logger, log, created)

	logger.Error("webhook processing failed", "error", cause)
	return log, domain.ConfigDelta{}, cause
}

// persistBestEffort writes a terminal log with a short retry. Failures are
// logged and swallowed so the original cause is what the caller sees.
func (e *SyncExecutor) persistBestEffort(ctx context.Context, logger *slog.Logger, log *domain.SyncLog, created bool) {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		var err error
		if created {
			err = e.logs.Update(ctx, log)
		} else {
			err = e.logs.Create(ctx, log)
		}
		if errors.Is(err, domain.ErrLogCompleted) || errors.Is(err, domain.ErrAlreadyExists) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, e.retryOptFunc()...)
	if err != nil {
		logger.Error("failed to persist sync log", "error", err)
	}
}
