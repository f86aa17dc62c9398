package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis key layout:
//
//	jobs:job:{id}     job record (JSON string, TTL = job retention)
//	jobs:queue:{prio} per-priority FIFO list of job ids
//	jobs:scheduled    sorted set, score = run-at epoch seconds
//	jobs:processing   sorted set, score = visibility deadline epoch seconds
//	jobs:dlq          list of dead-lettered job ids
//	jobs:lastrun      hash, recurring definition name → last fire time
//	jobs:worker:{id}  worker heartbeat (JSON string, short TTL)
const (
	jobKeyPrefix       = "jobs:job:"
	queueKeyPrefix     = "jobs:queue:"
	scheduledKey       = "jobs:scheduled"
	processingKey      = "jobs:processing"
	dlqKey             = "jobs:dlq"
	lastRunKey         = "jobs:lastrun"
	heartbeatKeyPrefix = "jobs:worker:"
)

// RedisStorage implements all queue repository interfaces on top of Redis.
//
// List pops and sorted-set removals are the claim primitives: LPOP hands a
// job id to exactly one worker, and a successful ZREM on the scheduled or
// processing set is the ownership signal between competing workers.
type RedisStorage struct {
	client redis.UniversalClient
	jobTTL time.Duration
}

// RedisStorageOption is a functional option for configuring RedisStorage
type RedisStorageOption func(*RedisStorage)

// WithJobTTL sets the retention on job records. Records are retained with
// this TTL regardless of path, terminal states included.
func WithJobTTL(ttl time.Duration) RedisStorageOption {
	return func(s *RedisStorage) {
		if ttl > 0 {
			s.jobTTL = ttl
		}
	}
}

// NewRedisStorage creates a Redis-backed queue storage
func NewRedisStorage(client redis.UniversalClient, opts ...RedisStorageOption) (*RedisStorage, error) {
	if client == nil {
		return nil, ErrRepositoryNil
	}

	s := &RedisStorage{
		client: client,
		jobTTL: DefaultJobTTL,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// CreateJob implements EnqueuerRepository and SchedulerRepository
func (s *RedisStorage) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}

	if err := s.saveJob(ctx, job, s.jobTTL); err != nil {
		return err
	}

	if job.Status == StatusScheduled && job.RunAt != nil {
		err := s.client.ZAdd(ctx, scheduledKey, redis.Z{
			Score:  float64(job.RunAt.Unix()),
			Member: job.ID.String(),
		}).Err()
		if err != nil {
			return fmt.Errorf("failed to add job to scheduled set: %w", err)
		}
		return nil
	}

	if err := s.client.RPush(ctx, queueKey(job.Priority), job.ID.String()).Err(); err != nil {
		return fmt.Errorf("failed to push job to %s queue: %w", job.Priority, err)
	}
	return nil
}

// GetJob implements EnqueuerRepository
func (s *RedisStorage) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	return s.loadJob(ctx, id.String())
}

// PromoteDue implements WorkerRepository.
//
// A successful ZREM claims the entry; losing the race to another worker is
// not an error, the entry is simply skipped.
func (s *RedisStorage) PromoteDue(ctx context.Context, now time.Time, limit int) (int, error) {
	ids, err := s.client.ZRangeByScore(ctx, scheduledKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read due scheduled jobs: %w", err)
	}

	promoted := 0
	for _, id := range ids {
		removed, err := s.client.ZRem(ctx, scheduledKey, id).Result()
		if err != nil {
			return promoted, fmt.Errorf("failed to claim scheduled job %s: %w", id, err)
		}
		if removed == 0 {
			continue // another worker claimed it
		}

		if err := s.requeue(ctx, id); err != nil {
			return promoted, err
		}
		promoted++
	}

	return promoted, nil
}

// RequeueExpired implements WorkerRepository. In-flight entries whose
// visibility deadline passed belong to crashed or stalled workers and go
// back onto their priority lists.
func (s *RedisStorage) RequeueExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	ids, err := s.client.ZRangeByScore(ctx, processingKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read expired in-flight jobs: %w", err)
	}

	requeued := 0
	for _, id := range ids {
		removed, err := s.client.ZRem(ctx, processingKey, id).Result()
		if err != nil {
			return requeued, fmt.Errorf("failed to claim expired job %s: %w", id, err)
		}
		if removed == 0 {
			continue
		}

		if err := s.requeue(ctx, id); err != nil {
			return requeued, err
		}
		requeued++
	}

	return requeued, nil
}

// requeue resets a claimed job to pending and pushes it to its priority list
func (s *RedisStorage) requeue(ctx context.Context, id string) error {
	job, err := s.loadJob(ctx, id)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil // record expired, nothing to requeue
		}
		return err
	}

	job.Status = StatusPending
	job.UpdatedAt = time.Now()
	if err := s.saveJob(ctx, job, redis.KeepTTL); err != nil {
		return err
	}

	if err := s.client.RPush(ctx, queueKey(job.Priority), id).Err(); err != nil {
		return fmt.Errorf("failed to push job to %s queue: %w", job.Priority, err)
	}
	return nil
}

// Dequeue implements WorkerRepository. Lists are polled in strict priority
// order, so a non-empty high list is always drained before normal is
// considered.
func (s *RedisStorage) Dequeue(ctx context.Context, workerID uuid.UUID, visibility time.Duration) (*Job, error) {
	for _, priority := range Priorities() {
		for {
			id, err := s.client.LPop(ctx, queueKey(priority)).Result()
			if errors.Is(err, redis.Nil) {
				break // list empty, try the next priority
			}
			if err != nil {
				return nil, fmt.Errorf("failed to pop from %s queue: %w", priority, err)
			}

			job, err := s.loadJob(ctx, id)
			if err != nil {
				if errors.Is(err, ErrJobNotFound) {
					continue // record expired while queued, drop the id
				}
				return nil, err
			}

			job.Status = StatusProcessing
			job.Attempts++
			job.UpdatedAt = time.Now()
			if err := s.saveJob(ctx, job, redis.KeepTTL); err != nil {
				return nil, err
			}

			deadline := time.Now().Add(visibility)
			err = s.client.ZAdd(ctx, processingKey, redis.Z{
				Score:  float64(deadline.Unix()),
				Member: id,
			}).Err()
			if err != nil {
				return nil, fmt.Errorf("failed to register in-flight job %s: %w", id, err)
			}

			return job, nil
		}
	}

	return nil, ErrNoJobAvailable
}

// CompleteJob implements WorkerRepository
func (s *RedisStorage) CompleteJob(ctx context.Context, id uuid.UUID) error {
	if err := s.client.ZRem(ctx, processingKey, id.String()).Err(); err != nil {
		return fmt.Errorf("failed to remove job %s from in-flight set: %w", id, err)
	}

	job, err := s.loadJob(ctx, id.String())
	if err != nil {
		return err
	}

	job.Status = StatusCompleted
	job.LastError = ""
	job.UpdatedAt = time.Now()
	return s.saveJob(ctx, job, redis.KeepTTL)
}

// RetryJob implements WorkerRepository. The job stays pending while it
// waits in the scheduled set for its next attempt.
func (s *RedisStorage) RetryJob(ctx context.Context, id uuid.UUID, runAt time.Time, errMsg string) error {
	if err := s.client.ZRem(ctx, processingKey, id.String()).Err(); err != nil {
		return fmt.Errorf("failed to remove job %s from in-flight set: %w", id, err)
	}

	job, err := s.loadJob(ctx, id.String())
	if err != nil {
		return err
	}

	job.Status = StatusPending
	job.LastError = errMsg
	job.RunAt = &runAt
	job.UpdatedAt = time.Now()
	if err := s.saveJob(ctx, job, redis.KeepTTL); err != nil {
		return err
	}

	err = s.client.ZAdd(ctx, scheduledKey, redis.Z{
		Score:  float64(runAt.Unix()),
		Member: id.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to reschedule job %s: %w", id, err)
	}
	return nil
}

// MoveToDLQ implements WorkerRepository
func (s *RedisStorage) MoveToDLQ(ctx context.Context, id uuid.UUID, errMsg string) error {
	if err := s.client.ZRem(ctx, processingKey, id.String()).Err(); err != nil {
		return fmt.Errorf("failed to remove job %s from in-flight set: %w", id, err)
	}

	job, err := s.loadJob(ctx, id.String())
	if err != nil {
		return err
	}

	job.Status = StatusDLQ
	job.LastError = errMsg
	job.UpdatedAt = time.Now()
	if err := s.saveJob(ctx, job, redis.KeepTTL); err != nil {
		return err
	}

	if err := s.client.RPush(ctx, dlqKey, id.String()).Err(); err != nil {
		return fmt.Errorf("failed to push job %s to DLQ: %w", id, err)
	}
	return nil
}

// Heartbeat implements WorkerRepository
func (s *RedisStorage) Heartbeat(ctx context.Context, hb WorkerHeartbeat, ttl time.Duration) error {
	data, err := json.Marshal(hb)
	if err != nil {
		return fmt.Errorf("failed to marshal heartbeat: %w", err)
	}

	key := heartbeatKeyPrefix + hb.WorkerID.String()
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set heartbeat: %w", err)
	}
	return nil
}

// LastRun implements SchedulerRepository; the zero time means the
// definition has never fired
func (s *RedisStorage) LastRun(ctx context.Context, name string) (time.Time, error) {
	val, err := s.client.HGet(ctx, lastRunKey, name).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read last run for %q: %w", name, err)
	}

	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last run for %q: %w", name, err)
	}
	return t, nil
}

// SetLastRun implements SchedulerRepository
func (s *RedisStorage) SetLastRun(ctx context.Context, name string, t time.Time) error {
	if err := s.client.HSet(ctx, lastRunKey, name, t.Format(time.RFC3339Nano)).Err(); err != nil {
		return fmt.Errorf("failed to set last run for %q: %w", name, err)
	}
	return nil
}

// TryLock implements LeaderLock via conditional set-if-absent with expiry
func (s *RedisStorage) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, time.Now().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %q: %w", key, err)
	}
	return ok, nil
}

// Stats implements StatsRepository
func (s *RedisStorage) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{QueueLengths: make(map[Priority]int64, 3)}

	for _, priority := range Priorities() {
		n, err := s.client.LLen(ctx, queueKey(priority)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s queue length: %w", priority, err)
		}
		stats.QueueLengths[priority] = n
	}

	var err error
	if stats.Scheduled, err = s.client.ZCard(ctx, scheduledKey).Result(); err != nil {
		return nil, fmt.Errorf("failed to read scheduled set size: %w", err)
	}
	if stats.Processing, err = s.client.ZCard(ctx, processingKey).Result(); err != nil {
		return nil, fmt.Errorf("failed to read in-flight set size: %w", err)
	}
	if stats.DeadLettered, err = s.client.LLen(ctx, dlqKey).Result(); err != nil {
		return nil, fmt.Errorf("failed to read DLQ length: %w", err)
	}

	return stats, nil
}

// ActiveWorkers implements StatsRepository by scanning live heartbeat keys
func (s *RedisStorage) ActiveWorkers(ctx context.Context) ([]WorkerHeartbeat, error) {
	var workers []WorkerHeartbeat

	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, heartbeatKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan heartbeat keys: %w", err)
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Result()
			if errors.Is(err, redis.Nil) {
				continue // key expired between scan and get
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read heartbeat %q: %w", key, err)
			}

			var hb WorkerHeartbeat
			if err := json.Unmarshal([]byte(data), &hb); err != nil {
				continue
			}
			workers = append(workers, hb)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return workers, nil
}

// DeadLetters returns up to limit dead-lettered jobs for operator triage
func (s *RedisStorage) DeadLetters(ctx context.Context, limit int) ([]*Job, error) {
	ids, err := s.client.LRange(ctx, dlqKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read DLQ: %w", err)
	}

	jobs := make([]*Job, 0, len(ids))
	for _, id := range ids {
		job, err := s.loadJob(ctx, id)
		if err != nil {
			if errors.Is(err, ErrJobNotFound) {
				continue
			}
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// RequeueDeadLetter puts a dead-lettered job back onto its priority list
// with a fresh attempt budget
func (s *RedisStorage) RequeueDeadLetter(ctx context.Context, id uuid.UUID) error {
	removed, err := s.client.LRem(ctx, dlqKey, 1, id.String()).Result()
	if err != nil {
		return fmt.Errorf("failed to remove job %s from DLQ: %w", id, err)
	}
	if removed == 0 {
		return ErrJobNotFound
	}

	job, err := s.loadJob(ctx, id.String())
	if err != nil {
		return err
	}

	job.Status = StatusPending
	job.Attempts = 0
	job.LastError = ""
	job.UpdatedAt = time.Now()
	if err := s.saveJob(ctx, job, redis.KeepTTL); err != nil {
		return err
	}

	if err := s.client.RPush(ctx, queueKey(job.Priority), id.String()).Err(); err != nil {
		return fmt.Errorf("failed to push job to %s queue: %w", job.Priority, err)
	}
	return nil
}

// Helpers

func (s *RedisStorage) loadJob(ctx context.Context, id string) (*Job, error) {
	data, err := s.client.Get(ctx, jobKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}

	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}
	return &job, nil
}

func (s *RedisStorage) saveJob(ctx context.Context, job *Job, ttl time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}

	if err := s.client.Set(ctx, jobKeyPrefix+job.ID.String(), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

func queueKey(p Priority) string {
	return queueKeyPrefix + string(p)
}
