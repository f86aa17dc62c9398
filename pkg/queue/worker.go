package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Worker processes jobs from the priority queues.
//
// Each worker runs an independent poll loop against the shared store
// (competing consumers): promote due scheduled jobs, requeue expired
// in-flight jobs, pop the next job in strict high→normal→low order, execute
// its handler, and apply the retry/DLQ policy. Within one worker these steps
// are sequential; a slow handler blocks only its own loop.
type Worker struct {
	repo     WorkerRepository
	handlers map[string]Handler
	workerID uuid.UUID
	mu       sync.RWMutex
	wg       sync.WaitGroup

	// Configuration
	pollInterval      time.Duration
	visibilityTimeout time.Duration
	promoteBatchSize  int
	heartbeatTTL      time.Duration
	errorBackoff      time.Duration
	logger            *slog.Logger

	// State management
	ctx    context.Context
	cancel context.CancelFunc
}

// NewWorker creates a new job worker
func NewWorker(repo WorkerRepository, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &workerOptions{
		pollInterval:      time.Second,
		visibilityTimeout: 5 * time.Minute,
		promoteBatchSize:  10,
		heartbeatTTL:      60 * time.Second,
		errorBackoff:      5 * time.Second,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Worker{
		repo:              repo,
		handlers:          make(map[string]Handler),
		workerID:          uuid.New(),
		pollInterval:      options.pollInterval,
		visibilityTimeout: options.visibilityTimeout,
		promoteBatchSize:  options.promoteBatchSize,
		heartbeatTTL:      options.heartbeatTTL,
		errorBackoff:      options.errorBackoff,
		logger:            options.logger,
	}, nil
}

// RegisterHandler registers a single job handler
func (w *Worker) RegisterHandler(handler Handler) error {
	if handler == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.handlers[handler.Type()] = handler
	return nil
}

// RegisterHandlers registers multiple job handlers
func (w *Worker) RegisterHandlers(handlers ...Handler) error {
	for _, h := range handlers {
		if err := w.RegisterHandler(h); err != nil {
			return err
		}
	}
	return nil
}

// Start begins processing jobs in the background
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return fmt.Errorf("worker already started")
	}

	if len(w.handlers) == 0 {
		w.mu.Unlock()
		return ErrNoHandlers
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run()

	w.logger.Info("worker started",
		slog.String("worker_id", w.workerID.String()),
		slog.Any("queues", Priorities()))

	return nil
}

// Stop shuts the worker down cooperatively: the in-flight job runs to
// completion before Stop returns
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return fmt.Errorf("worker not started")
	}
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	cancel()

	w.logger.Info("worker stopping, waiting for in-flight job to complete",
		slog.String("worker_id", w.workerID.String()))

	w.wg.Wait()

	w.logger.Info("worker stopped",
		slog.String("worker_id", w.workerID.String()))

	return nil
}

// Run starts the worker and returns a function suitable for errgroup
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()

		return w.Stop()
	}
}

// run is the main processing loop
func (w *Worker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		w.iterate()
	}
}

// iterate performs one loop pass: promote, reap, heartbeat, poll, execute
func (w *Worker) iterate() {
	now := time.Now()

	if _, err := w.repo.PromoteDue(w.ctx, now, w.promoteBatchSize); err != nil {
		w.storageError("failed to promote scheduled jobs", err)
		return
	}

	if n, err := w.repo.RequeueExpired(w.ctx, now, w.promoteBatchSize); err != nil {
		w.storageError("failed to requeue expired jobs", err)
		return
	} else if n > 0 {
		w.logger.Warn("requeued expired in-flight jobs",
			slog.String("worker_id", w.workerID.String()),
			slog.Int("count", n))
	}

	w.heartbeat()

	job, err := w.repo.Dequeue(w.ctx, w.workerID, w.visibilityTimeout)
	if err != nil {
		if errors.Is(err, ErrNoJobAvailable) {
			w.sleep(w.pollInterval)
			return
		}
		w.storageError("failed to dequeue job", err)
		return
	}

	w.logger.Debug("claimed job",
		slog.String("worker_id", w.workerID.String()),
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.Type),
		slog.String("priority", string(job.Priority)))

	if err := w.processJob(job); err != nil && !errors.Is(err, ErrHandlerNotFound) {
		w.logger.Error("failed to process job",
			slog.String("worker_id", w.workerID.String()),
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
	}
}

// processJob executes a job with its handler
func (w *Worker) processJob(job *Job) (retErr error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("panic in handler: %v", r)
			w.logger.Error("handler panicked",
				slog.String("worker_id", w.workerID.String()),
				slog.String("job_id", job.ID.String()),
				slog.String("job_type", job.Type),
				slog.Any("panic", r))
			_ = w.handleJobFailure(job, retErr, time.Since(start))
		}
	}()

	w.mu.RLock()
	handler, ok := w.handlers[job.Type]
	w.mu.RUnlock()

	if !ok {
		return w.handleMissingHandler(job)
	}

	// Handler context is detached from the worker lifecycle so graceful
	// shutdown lets the in-flight job finish; the visibility timeout bounds it
	ctx, cancel := context.WithTimeout(context.Background(), w.visibilityTimeout)
	defer cancel()

	err := handler.Handle(ctx, job.Payload)
	duration := time.Since(start)

	if err != nil {
		return w.handleJobFailure(job, err, duration)
	}

	return w.handleJobSuccess(job, duration)
}

// handleMissingHandler dead-letters jobs that have no registered handler.
// Retrying cannot help without a handler; the DLQ keeps the job recoverable
// once the missing handler is deployed.
func (w *Worker) handleMissingHandler(job *Job) error {
	w.logger.Error("no handler registered for job type",
		slog.String("worker_id", w.workerID.String()),
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.Type))

	errMsg := "no handler registered for job type: " + job.Type
	if err := w.repo.MoveToDLQ(w.ctx, job.ID, errMsg); err != nil {
		return fmt.Errorf("failed to move job %s to DLQ: %w", job.ID, err)
	}

	return ErrHandlerNotFound
}

// handleJobFailure applies the retry/backoff/DLQ policy after a failed attempt
func (w *Worker) handleJobFailure(job *Job, execErr error, duration time.Duration) error {
	w.logger.Error("job failed",
		slog.String("worker_id", w.workerID.String()),
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.Type),
		slog.Int("attempts", job.Attempts),
		slog.Int("max_retries", job.MaxRetries),
		slog.Duration("duration", duration),
		slog.String("error", execErr.Error()))

	if job.Attempts < job.MaxRetries {
		runAt := time.Now().Add(job.RetryDelay())
		if err := w.repo.RetryJob(w.ctx, job.ID, runAt, execErr.Error()); err != nil {
			return fmt.Errorf("failed to reschedule job %s: %w", job.ID, err)
		}
		return nil
	}

	if err := w.repo.MoveToDLQ(w.ctx, job.ID, execErr.Error()); err != nil {
		return fmt.Errorf("failed to move job %s to DLQ after max retries: %w", job.ID, err)
	}

	w.logger.Warn("job moved to dead letter queue",
		slog.String("worker_id", w.workerID.String()),
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.Type))

	return nil
}

// handleJobSuccess marks a job completed
func (w *Worker) handleJobSuccess(job *Job, duration time.Duration) error {
	if err := w.repo.CompleteJob(w.ctx, job.ID); err != nil {
		return fmt.Errorf("failed to mark job %s as completed: %w", job.ID, err)
	}

	w.logger.Info("job completed",
		slog.String("worker_id", w.workerID.String()),
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.Type),
		slog.String("priority", string(job.Priority)),
		slog.Duration("duration", duration))

	return nil
}

// heartbeat refreshes the worker liveness record; heartbeat failures are not
// fatal to the loop
func (w *Worker) heartbeat() {
	hostname, _ := os.Hostname()
	hb := WorkerHeartbeat{
		WorkerID: w.workerID,
		Hostname: hostname,
		PID:      os.Getpid(),
		Queues:   Priorities(),
		SeenAt:   time.Now(),
	}
	if err := w.repo.Heartbeat(w.ctx, hb, w.heartbeatTTL); err != nil {
		w.logger.Warn("failed to refresh heartbeat",
			slog.String("worker_id", w.workerID.String()),
			slog.String("error", err.Error()))
	}
}

// storageError logs a storage failure and pauses the loop so a degraded
// store is not hammered in a tight loop
func (w *Worker) storageError(msg string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	w.logger.Error(msg,
		slog.String("worker_id", w.workerID.String()),
		slog.String("error", err.Error()))
	w.sleep(w.errorBackoff)
}

// sleep pauses the loop while staying responsive to shutdown
func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.ctx.Done():
	case <-time.After(d):
	}
}

// WorkerInfo returns information about the worker
func (w *Worker) WorkerInfo() (id string, hostname string, pid int) {
	hostname, _ = os.Hostname()
	return w.workerID.String(), hostname, os.Getpid()
}
