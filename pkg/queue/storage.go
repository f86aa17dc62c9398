package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EnqueuerRepository defines the interface for job creation and lookup
type EnqueuerRepository interface {
	// CreateJob persists a new job record and places it on its priority list,
	// or into the scheduled set when the job carries a future run time
	CreateJob(ctx context.Context, job *Job) error

	// GetJob returns the current job record or ErrJobNotFound
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
}

// WorkerRepository defines the interface for worker operations.
//
// Dequeue and PromoteDue are the two contended operations: list pops and
// sorted-set removals act as atomic compare-and-remove primitives, so at
// most one worker can claim a given job id.
type WorkerRepository interface {
	// PromoteDue moves up to limit due scheduled jobs onto their priority
	// lists and returns how many were promoted. Removal from the scheduled
	// set is the ownership signal between competing workers.
	PromoteDue(ctx context.Context, now time.Time, limit int) (int, error)

	// RequeueExpired returns jobs whose in-flight visibility deadline passed
	// back to their priority lists so another worker can pick them up
	RequeueExpired(ctx context.Context, now time.Time, limit int) (int, error)

	// Dequeue pops the next job in strict priority order, marks it
	// processing, increments its attempt counter, and registers it in the
	// in-flight set with the given visibility timeout. Returns
	// ErrNoJobAvailable when every priority list is empty.
	Dequeue(ctx context.Context, workerID uuid.UUID, visibility time.Duration) (*Job, error)

	// CompleteJob marks the job completed and removes it from the in-flight set
	CompleteJob(ctx context.Context, id uuid.UUID) error

	// RetryJob reschedules a failed job for a later attempt
	RetryJob(ctx context.Context, id uuid.UUID, runAt time.Time, errMsg string) error

	// MoveToDLQ dead-letters a job that exhausted its retry budget
	MoveToDLQ(ctx context.Context, id uuid.UUID, errMsg string) error

	// Heartbeat refreshes the worker liveness record with a short TTL
	Heartbeat(ctx context.Context, hb WorkerHeartbeat, ttl time.Duration) error
}

// SchedulerRepository defines the interface for recurring job scheduling
type SchedulerRepository interface {
	// CreateJob persists a job produced by a due recurring definition
	CreateJob(ctx context.Context, job *Job) error

	// LastRun returns when the named definition last fired; the zero time
	// means the definition has never run
	LastRun(ctx context.Context, name string) (time.Time, error)

	// SetLastRun records the fire time for the named definition
	SetLastRun(ctx context.Context, name string, t time.Time) error
}

// LeaderLock guards the scheduler's enqueue pass so that only one replica
// fires recurring jobs per tick
type LeaderLock interface {
	// TryLock attempts to acquire a short-lived lock; returns false when
	// another holder owns it
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// StatsRepository exposes queue depth and liveness snapshots for metrics
type StatsRepository interface {
	Stats(ctx context.Context) (*Stats, error)
	ActiveWorkers(ctx context.Context) ([]WorkerHeartbeat, error)
}
