package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driving"
	"github.com/custodia-labs/asset-sync/internal/metrics"
	"github.com/custodia-labs/asset-sync/internal/worker"
)

// DefaultSchedulerInterval is the tick period of the scheduler.
const DefaultSchedulerInterval = 5 * time.Minute

const schedulerLockName = "scheduler"

// Ensure Scheduler implements driving.Scheduler
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler periodically syncs every ACTIVE integration whose nextSyncAt has
// passed. Ticks never overlap, and within a tick due integrations go through
// a bounded queue drained by a single worker, so runs are strictly sequential.
//
// For multi-instance deployments, configure a DistributedLock so only one
// instance scans per tick.
type Scheduler struct {
	configs driven.IntegrationStore
	syncs   driving.SyncService
	lock    driven.DistributedLock
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	// Internal state
	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	worker  *worker.Worker

	interval  time.Duration
	queueSize int

	// Lock configuration
	lockTTL      time.Duration
	lockRequired bool
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Configs      driven.IntegrationStore
	Syncs        driving.SyncService
	Lock         driven.DistributedLock // Optional: distributed lock for multi-instance coordination
	Metrics      *metrics.Metrics       // Optional
	Logger       *slog.Logger
	Interval     time.Duration // Tick period (default: 5m)
	QueueSize    int           // Bounded queue capacity (default: 64)
	LockTTL      time.Duration // TTL for the scheduler lock (default: 2x interval)
	LockRequired bool          // If true, skip the tick when the lock backend errors
	Clock        func() time.Time
}

// NewScheduler creates a new scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultSchedulerInterval
	}

	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 2 * interval
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Scheduler{
		configs:      cfg.Configs,
		syncs:        cfg.Syncs,
		lock:         cfg.Lock,
		metrics:      cfg.Metrics,
		logger:       logger,
		now:          clock,
		interval:     interval,
		queueSize:    cfg.QueueSize,
		lockTTL:      lockTTL,
		lockRequired: cfg.LockRequired,
	}
}

// Start starts the queue worker and the cron tick.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	s.worker = worker.NewWorker(worker.WorkerConfig{
		Handler:     s.runJob,
		Logger:      s.logger.With("component", "sync_queue"),
		Concurrency: 1,
		QueueSize:   s.queueSize,
	})
	if err := s.worker.Start(ctx); err != nil {
		return err
	}

	cronLog := cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.DelayIfStillRunning(cronLog)),
	)
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() { s.Tick(ctx) }); err != nil {
		s.worker.Stop()
		return fmt.Errorf("schedule tick: %w", err)
	}
	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler starting", "interval", s.interval)
	return nil
}

// Stop stops the tick, waits for a tick in progress, then stops the worker.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	c, w := s.cron, s.worker
	s.mu.Unlock()

	var err error
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		err = ctx.Err()
	}
	w.Stop()

	s.logger.Info("scheduler stopped")
	return err
}

// Tick scans for due integrations and runs them one after another, returning
// once every queued run has finished. Failures are logged per integration.
func (s *Scheduler) Tick(ctx context.Context) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, schedulerLockName, s.lockTTL)
		if err != nil {
			s.logger.Warn("failed to acquire scheduler lock", "error", err)
			if s.lockRequired {
				s.metrics.ObserveTick("locked", 0)
				return
			}
		} else if !acquired {
			s.logger.Debug("scheduler lock held by another instance, skipping tick")
			s.metrics.ObserveTick("locked", 0)
			return
		} else {
			defer func() {
				if err := s.lock.Release(context.WithoutCancel(ctx), schedulerLockName); err != nil {
					s.logger.Warn("failed to release scheduler lock", "error", err)
				}
			}()
		}
	}

	due, err := s.configs.ListDue(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to list due integrations", "error", err)
		s.metrics.ObserveTick("error", 0)
		return
	}
	if len(due) == 0 {
		s.metrics.ObserveTick("idle", 0)
		return
	}

	s.mu.Lock()
	w := s.worker
	s.mu.Unlock()
	if w == nil {
		s.logger.Error("scheduler tick before start")
		return
	}

	s.logger.Info("syncing due integrations", "count", len(due))

	var wg sync.WaitGroup
	for _, cfg := range due {
		wg.Add(1)
		job := worker.Job{
			IntegrationID: cfg.ID,
			Source:        domain.SyncSourceScheduled,
			Done:          func(error) { wg.Done() },
		}
		if err := w.Submit(ctx, job); err != nil {
			wg.Done()
			s.logger.Error("failed to queue scheduled sync", "integration_id", cfg.ID, "error", err)
		}
	}
	wg.Wait()

	s.metrics.ObserveTick("ran", len(due))
}

func (s *Scheduler) runJob(ctx context.Context, job worker.Job) error {
	_, err := s.syncs.Sync(ctx, job.IntegrationID, job.Source)
	if errors.Is(err, domain.ErrSyncInProgress) {
		s.logger.Info("integration already syncing, skipped", "integration_id", job.IntegrationID)
		return nil
	}
	return err
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
