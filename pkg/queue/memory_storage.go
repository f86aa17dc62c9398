package queue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements all queue repository interfaces for testing and
// local development. It mirrors the Redis layout: per-priority FIFO slices,
// a run-at ordered scheduled map, an in-flight map with deadlines, and a
// DLQ slice.
type MemoryStorage struct {
	mu         sync.Mutex
	jobs       map[uuid.UUID]*Job
	queues     map[Priority][]uuid.UUID
	scheduled  map[uuid.UUID]time.Time
	processing map[uuid.UUID]time.Time
	dlq        []uuid.UUID
	lastRuns   map[string]time.Time
	heartbeats map[uuid.UUID]heartbeatEntry
	locks      map[string]time.Time
}

type heartbeatEntry struct {
	hb        WorkerHeartbeat
	expiresAt time.Time
}

// NewMemoryStorage creates a new in-memory storage implementation
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		jobs:       make(map[uuid.UUID]*Job),
		queues:     make(map[Priority][]uuid.UUID),
		scheduled:  make(map[uuid.UUID]time.Time),
		processing: make(map[uuid.UUID]time.Time),
		lastRuns:   make(map[string]time.Time),
		heartbeats: make(map[uuid.UUID]heartbeatEntry),
		locks:      make(map[string]time.Time),
	}
}

// CreateJob implements EnqueuerRepository and SchedulerRepository
func (ms *MemoryStorage) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.jobs[job.ID]; exists {
		return fmt.Errorf("job with ID %s already exists", job.ID)
	}

	// Clone to prevent external modifications
	jobCopy := *job
	ms.jobs[job.ID] = &jobCopy

	if job.Status == StatusScheduled && job.RunAt != nil {
		ms.scheduled[job.ID] = *job.RunAt
		return nil
	}

	ms.queues[job.Priority] = append(ms.queues[job.Priority], job.ID)
	return nil
}

// GetJob implements EnqueuerRepository
func (ms *MemoryStorage) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, exists := ms.jobs[id]
	if !exists {
		return nil, ErrJobNotFound
	}

	jobCopy := *job
	return &jobCopy, nil
}

// PromoteDue implements WorkerRepository
func (ms *MemoryStorage) PromoteDue(ctx context.Context, now time.Time, limit int) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	promoted := 0
	for id, runAt := range ms.scheduled {
		if promoted >= limit {
			break
		}
		if runAt.After(now) {
			continue
		}

		delete(ms.scheduled, id)
		ms.requeueLocked(id, now)
		promoted++
	}

	return promoted, nil
}

// RequeueExpired implements WorkerRepository
func (ms *MemoryStorage) RequeueExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	requeued := 0
	for id, deadline := range ms.processing {
		if requeued >= limit {
			break
		}
		if deadline.After(now) {
			continue
		}

		delete(ms.processing, id)
		ms.requeueLocked(id, now)
		requeued++
	}

	return requeued, nil
}

func (ms *MemoryStorage) requeueLocked(id uuid.UUID, now time.Time) {
	job, exists := ms.jobs[id]
	if !exists {
		return
	}
	job.Status = StatusPending
	job.UpdatedAt = now
	ms.queues[job.Priority] = append(ms.queues[job.Priority], id)
}

// Dequeue implements WorkerRepository
func (ms *MemoryStorage) Dequeue(ctx context.Context, workerID uuid.UUID, visibility time.Duration) (*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for _, priority := range Priorities() {
		for len(ms.queues[priority]) > 0 {
			id := ms.queues[priority][0]
			ms.queues[priority] = ms.queues[priority][1:]

			job, exists := ms.jobs[id]
			if !exists {
				continue
			}

			job.Status = StatusProcessing
			job.Attempts++
			job.UpdatedAt = now
			ms.processing[id] = now.Add(visibility)

			jobCopy := *job
			return &jobCopy, nil
		}
	}

	return nil, ErrNoJobAvailable
}

// CompleteJob implements WorkerRepository
func (ms *MemoryStorage) CompleteJob(ctx context.Context, id uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, exists := ms.jobs[id]
	if !exists {
		return ErrJobNotFound
	}

	delete(ms.processing, id)
	job.Status = StatusCompleted
	job.LastError = ""
	job.UpdatedAt = time.Now()
	return nil
}

// RetryJob implements WorkerRepository
func (ms *MemoryStorage) RetryJob(ctx context.Context, id uuid.UUID, runAt time.Time, errMsg string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, exists := ms.jobs[id]
	if !exists {
		return ErrJobNotFound
	}

	delete(ms.processing, id)
	job.Status = StatusPending
	job.LastError = errMsg
	job.RunAt = &runAt
	job.UpdatedAt = time.Now()
	ms.scheduled[id] = runAt
	return nil
}

// MoveToDLQ implements WorkerRepository
func (ms *MemoryStorage) MoveToDLQ(ctx context.Context, id uuid.UUID, errMsg string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, exists := ms.jobs[id]
	if !exists {
		return ErrJobNotFound
	}

	delete(ms.processing, id)
	job.Status = StatusDLQ
	job.LastError = errMsg
	job.UpdatedAt = time.Now()
	ms.dlq = append(ms.dlq, id)
	return nil
}

// Heartbeat implements WorkerRepository
func (ms *MemoryStorage) Heartbeat(ctx context.Context, hb WorkerHeartbeat, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.heartbeats[hb.WorkerID] = heartbeatEntry{
		hb:        hb,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// LastRun implements SchedulerRepository
func (ms *MemoryStorage) LastRun(ctx context.Context, name string) (time.Time, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return ms.lastRuns[name], nil
}

// SetLastRun implements SchedulerRepository
func (ms *MemoryStorage) SetLastRun(ctx context.Context, name string, t time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.lastRuns[name] = t
	return nil
}

// TryLock implements LeaderLock
func (ms *MemoryStorage) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	if expiry, held := ms.locks[key]; held && expiry.After(now) {
		return false, nil
	}

	ms.locks[key] = now.Add(ttl)
	return true, nil
}

// Stats implements StatsRepository
func (ms *MemoryStorage) Stats(ctx context.Context) (*Stats, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	stats := &Stats{
		QueueLengths: make(map[Priority]int64, 3),
		Scheduled:    int64(len(ms.scheduled)),
		Processing:   int64(len(ms.processing)),
		DeadLettered: int64(len(ms.dlq)),
	}
	for _, priority := range Priorities() {
		stats.QueueLengths[priority] = int64(len(ms.queues[priority]))
	}
	return stats, nil
}

// ActiveWorkers implements StatsRepository
func (ms *MemoryStorage) ActiveWorkers(ctx context.Context) ([]WorkerHeartbeat, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	var workers []WorkerHeartbeat
	for id, entry := range ms.heartbeats {
		if entry.expiresAt.Before(now) {
			delete(ms.heartbeats, id)
			continue
		}
		workers = append(workers, entry.hb)
	}
	return workers, nil
}

// DeadLetters returns up to limit dead-lettered jobs in arrival order
func (ms *MemoryStorage) DeadLetters(ctx context.Context, limit int) ([]*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	n := min(limit, len(ms.dlq))
	jobs := make([]*Job, 0, n)
	for _, id := range ms.dlq[:n] {
		if job, exists := ms.jobs[id]; exists {
			jobCopy := *job
			jobs = append(jobs, &jobCopy)
		}
	}
	return jobs, nil
}

// RequeueDeadLetter puts a dead-lettered job back onto its priority list
// with a fresh attempt budget
func (ms *MemoryStorage) RequeueDeadLetter(ctx context.Context, id uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	idx := slices.Index(ms.dlq, id)
	if idx < 0 {
		return ErrJobNotFound
	}
	ms.dlq = slices.Delete(ms.dlq, idx, idx+1)

	job, exists := ms.jobs[id]
	if !exists {
		return ErrJobNotFound
	}

	job.Status = StatusPending
	job.Attempts = 0
	job.LastError = ""
	job.UpdatedAt = time.Now()
	ms.queues[job.Priority] = append(ms.queues[job.Priority], id)
	return nil
}
