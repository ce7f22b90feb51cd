package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
)

// ErrStopped is returned for jobs submitted to, or still queued in, a stopped worker.
var ErrStopped = errors.New("worker stopped")

// Job is one sync run waiting in the queue.
type Job struct {
	IntegrationID string
	Source        domain.SyncSource

	// Done, if set, is called exactly once with the job's outcome.
	Done func(err error)
}

// Handler runs a single job.
type Handler func(ctx context.Context, job Job) error

// Worker drains a bounded in-memory job queue. The scheduler runs it with a
// single consumer so that sync runs within a tick never overlap.
type Worker struct {
	handler Handler
	logger  *slog.Logger

	// Configuration
	concurrency int
	queue       chan Job

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	Handler     Handler
	Logger      *slog.Logger
	Concurrency int // Number of consumers (default: 1)
	QueueSize   int // Jobs buffered before Submit blocks (default: 64)
}

// NewWorker creates a new job worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}

	return &Worker{
		handler:     cfg.Handler,
		logger:      logger,
		concurrency: concurrency,
		queue:       make(chan Job, queueSize),
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if w.handler == nil {
		w.mu.Unlock()
		return fmt.Errorf("worker: handler is required")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"queue_size", cap(w.queue),
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		w.drain()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker. The job in progress finishes; jobs still
// queued complete with ErrStopped.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Submit queues a job, blocking while the queue is full.
func (w *Worker) Submit(ctx context.Context, job Job) error {
	// Holding the read lock keeps Stop from closing stopCh mid-send, so every
	// accepted job is either processed or drained.
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.running {
		return ErrStopped
	}
	select {
	case <-w.stopCh:
		return ErrStopped
	default:
	}

	select {
	case w.queue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Debug("worker goroutine started")

	for {
		// Stop takes priority over queued work.
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Debug("worker stop signal received")
			return
		default:
		}

		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Debug("worker stop signal received")
			return
		case job := <-w.queue:
			w.processJob(ctx, job, logger)
		}
	}
}

// processJob runs a single job and reports its outcome.
func (w *Worker) processJob(ctx context.Context, job Job, logger *slog.Logger) {
	logger = logger.With("integration_id", job.IntegrationID, "source", job.Source)
	logger.Debug("processing job")

	startTime := time.Now()
	err := w.run(ctx, job)
	duration := time.Since(startTime)

	if err != nil {
		logger.Error("job failed", "duration", duration, "error", err)
	} else {
		logger.Info("job completed", "duration", duration)
	}

	if job.Done != nil {
		job.Done(err)
	}
}

// run calls the handler, turning a panic into an error so one bad
// configuration cannot take the consumer down.
func (w *Worker) run(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return w.handler(ctx, job)
}

// drain completes every job left in the queue with ErrStopped.
func (w *Worker) drain() {
	for {
		select {
		case job := <-w.queue:
			if job.Done != nil {
				job.Done(ErrStopped)
			}
		default:
			return
		}
	}
}

// Health is the worker's reported status.
type Health struct {
	Running bool `json:"running"`
	Pending int  `json:"pending"`
}

// Health returns the health status of the worker.
func (w *Worker) Health() Health {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Health{
		Running: w.running,
		Pending: len(w.queue),
	}
}
