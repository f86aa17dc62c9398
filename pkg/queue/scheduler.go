package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// leaderLockKey guards the enqueue pass across scheduler replicas
const leaderLockKey = "jobs:scheduler:leader"

// Scheduler evaluates recurring job definitions and enqueues jobs when due.
// It is logically a privileged producer: it creates jobs through the same
// repository the Enqueuer uses.
//
// Last-run marks live in the store, so a restarted scheduler resumes where
// the previous one left off. When a LeaderLock is configured, only one
// replica fires per tick; without it, running replicas will double-enqueue.
type Scheduler struct {
	repo     SchedulerRepository
	lock     LeaderLock
	jobs     map[string]*recurringJob
	mu       sync.RWMutex
	interval time.Duration
	logger   *slog.Logger
}

// recurringJob holds configuration for a recurring definition
type recurringJob struct {
	name       string
	schedule   Schedule
	jobType    string
	payload    json.RawMessage
	priority   Priority
	maxRetries int
}

// NewScheduler creates a new job scheduler
func NewScheduler(repo SchedulerRepository, opts ...SchedulerOption) (*Scheduler, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &schedulerOptions{
		checkInterval: 30 * time.Second,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Scheduler{
		repo:     repo,
		lock:     options.lock,
		jobs:     make(map[string]*recurringJob),
		interval: options.checkInterval,
		logger:   options.logger,
	}, nil
}

// AddJob registers a recurring job definition
func (s *Scheduler) AddJob(name string, schedule Schedule, opts ...RecurringJobOption) error {
	jobOpts := &recurringJobOptions{
		jobType:    name,
		priority:   PriorityDefault,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(jobOpts)
	}

	payload, err := json.Marshal(jobOpts.payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for recurring job %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return ErrJobAlreadyRegistered
	}

	s.jobs[name] = &recurringJob{
		name:       name,
		schedule:   schedule,
		jobType:    jobOpts.jobType,
		payload:    payload,
		priority:   jobOpts.priority,
		maxRetries: jobOpts.maxRetries,
	}

	s.logger.Info("registered recurring job",
		slog.String("name", name),
		slog.String("schedule", schedule.String()))

	return nil
}

// Start begins the scheduler's periodic evaluation; it blocks until the
// context is cancelled
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.RLock()
	jobCount := len(s.jobs)
	s.mu.RUnlock()

	if jobCount == 0 {
		return ErrSchedulerNotConfigured
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one evaluation pass over all registered definitions
func (s *Scheduler) tick(ctx context.Context) {
	if s.lock != nil {
		ok, err := s.lock.TryLock(ctx, leaderLockKey, s.interval)
		if err != nil {
			s.logger.Error("failed to acquire scheduler leader lock",
				slog.String("error", err.Error()))
			return
		}
		if !ok {
			s.logger.Debug("another scheduler instance holds the leader lock")
			return
		}
	}

	s.mu.RLock()
	jobs := make([]*recurringJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	s.mu.RUnlock()

	now := time.Now()

	for _, job := range jobs {
		if err := s.fireIfDue(ctx, job, now); err != nil {
			s.logger.Error("failed to schedule recurring job",
				slog.String("name", job.name),
				slog.String("error", err.Error()))
		}
	}
}

// fireIfDue enqueues the definition's job when its next occurrence after the
// stored last-run mark has passed.
//
// The first-ever evaluation only initializes the mark; otherwise every
// definition would fire immediately on first deploy.
func (s *Scheduler) fireIfDue(ctx context.Context, job *recurringJob, now time.Time) error {
	lastRun, err := s.repo.LastRun(ctx, job.name)
	if err != nil {
		return fmt.Errorf("failed to read last run: %w", err)
	}

	if lastRun.IsZero() {
		if err := s.repo.SetLastRun(ctx, job.name, now); err != nil {
			return fmt.Errorf("failed to initialize last run: %w", err)
		}
		s.logger.Info("initialized recurring job",
			slog.String("name", job.name),
			slog.Time("next_run", job.schedule.Next(now)))
		return nil
	}

	next := job.schedule.Next(lastRun)
	if next.After(now) {
		return nil
	}

	if err := s.createJob(ctx, job, now); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	if err := s.repo.SetLastRun(ctx, job.name, now); err != nil {
		return fmt.Errorf("failed to update last run: %w", err)
	}

	s.logger.Info("fired recurring job",
		slog.String("name", job.name),
		slog.Time("next_run", job.schedule.Next(now)))

	return nil
}

// createJob persists a job instance for a due definition
func (s *Scheduler) createJob(ctx context.Context, job *recurringJob, now time.Time) error {
	return s.repo.CreateJob(ctx, &Job{
		ID:          uuid.New(),
		Type:        job.jobType,
		Payload:     job.payload,
		Priority:    job.priority,
		Status:      StatusPending,
		MaxRetries:  job.maxRetries,
		RetryDelays: DefaultRetryDelays,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// RemoveJob removes a recurring definition from the scheduler
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.jobs, name)

	s.logger.Info("removed recurring job", slog.String("name", name))
}

// ListJobs returns the names of all registered recurring definitions
func (s *Scheduler) ListJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}
