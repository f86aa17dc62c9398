package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Validator is implemented by payload types that can check their own shape.
// Validation happens at enqueue time so malformed payloads never reach a worker.
type Validator interface {
	Validate() error
}

// Enqueuer is the producer-facing API for submitting work, immediate or delayed
type Enqueuer struct {
	repo               EnqueuerRepository
	defaultPriority    Priority
	defaultMaxRetries  int
	defaultRetryDelays []time.Duration
}

// NewEnqueuer creates a new Enqueuer
func NewEnqueuer(repo EnqueuerRepository, opts ...EnqueuerOption) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &enqueuerOptions{
		defaultPriority:    PriorityDefault,
		defaultMaxRetries:  DefaultMaxRetries,
		defaultRetryDelays: DefaultRetryDelays,
	}

	for _, opt := range opts {
		opt(options)
	}

	return &Enqueuer{
		repo:               repo,
		defaultPriority:    options.defaultPriority,
		defaultMaxRetries:  options.defaultMaxRetries,
		defaultRetryDelays: options.defaultRetryDelays,
	}, nil
}

// Enqueue adds a new job and returns its id.
//
// The job record is persisted regardless of path: jobs with a future run
// time land in the scheduled set, everything else on the tail of its
// priority list. Enqueue never blocks on handler availability.
func (e *Enqueuer) Enqueue(ctx context.Context, payload any, opts ...EnqueueOption) (uuid.UUID, error) {
	if payload == nil {
		return uuid.Nil, ErrPayloadNil
	}

	options := &enqueueOptions{
		priority:    e.defaultPriority,
		maxRetries:  e.defaultMaxRetries,
		retryDelays: e.defaultRetryDelays,
	}
	for _, opt := range opts {
		opt(options)
	}

	if !options.priority.Valid() {
		return uuid.Nil, ErrInvalidPriority
	}

	if v, ok := payload.(Validator); ok {
		if err := v.Validate(); err != nil {
			return uuid.Nil, errors.Join(ErrInvalidPayload, err)
		}
	}

	job, err := e.buildJob(payload, options)
	if err != nil {
		return uuid.Nil, err
	}

	if err := e.repo.CreateJob(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create job %q: %w", job.Type, err)
	}

	return job.ID, nil
}

// Job returns the current record for a job id, reflecting the most recent
// status written by any worker
func (e *Enqueuer) Job(ctx context.Context, id uuid.UUID) (*Job, error) {
	return e.repo.GetJob(ctx, id)
}

// buildJob constructs a Job from payload and options
func (e *Enqueuer) buildJob(payload any, options *enqueueOptions) (*Job, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload of type %T: %w", payload, err)
	}

	jobType := options.jobType
	if jobType == "" {
		jobType = qualifiedStructName(payload)
	}

	now := time.Now()
	job := &Job{
		ID:          uuid.New(),
		Type:        jobType,
		Payload:     payloadBytes,
		Priority:    options.priority,
		Status:      StatusPending,
		MaxRetries:  options.maxRetries,
		RetryDelays: options.retryDelays,
		TenantID:    options.tenantID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	runAt := options.runAt
	if runAt == nil && options.delay > 0 {
		t := now.Add(options.delay)
		runAt = &t
	}
	if runAt != nil && runAt.After(now) {
		job.RunAt = runAt
		job.Status = StatusScheduled
	}

	return job, nil
}
