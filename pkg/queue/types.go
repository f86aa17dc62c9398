package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Priority represents a job priority class. Each class is backed by its own
// FIFO list; workers drain higher classes before lower ones.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"

	PriorityDefault = PriorityNormal
)

// Valid checks if the priority is one of the known classes
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// Priorities returns all priority classes in strict polling order,
// highest first. Workers rely on this order for the drain guarantee.
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityNormal, PriorityLow}
}

// Status represents the lifecycle state of a job
type Status string

const (
	StatusPending    Status = "pending"
	StatusScheduled  Status = "scheduled"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusDLQ        Status = "dlq"
)

// Terminal reports whether the status is a terminal state. Terminal jobs are
// retained read-only until their record TTL expires.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusDLQ
}

// Job represents a unit of background work.
//
// A job id, once created, is never reused. Attempts is monotonically
// non-decreasing; it is incremented by the storage layer when a worker
// claims the job.
type Job struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Priority    Priority        `json:"priority"`
	Status      Status          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxRetries  int             `json:"max_retries"`
	RetryDelays []time.Duration `json:"retry_delays,omitempty"`
	TenantID    string          `json:"tenant_id,omitempty"`
	RunAt       *time.Time      `json:"run_at,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RetryDelay returns the delay to apply before the next execution attempt.
// The delay sequence is indexed by the number of attempts already made;
// attempts beyond the sequence fall back to the last configured delay.
func (j *Job) RetryDelay() time.Duration {
	if len(j.RetryDelays) == 0 {
		return DefaultRetryDelay
	}
	idx := j.Attempts - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(j.RetryDelays) {
		idx = len(j.RetryDelays) - 1
	}
	return j.RetryDelays[idx]
}

// WorkerHeartbeat is a short-TTL liveness record refreshed by each worker
// loop iteration. A missing heartbeat means the worker is no longer running.
type WorkerHeartbeat struct {
	WorkerID uuid.UUID  `json:"worker_id"`
	Hostname string     `json:"hostname"`
	PID      int        `json:"pid"`
	Queues   []Priority `json:"queues"`
	SeenAt   time.Time  `json:"seen_at"`
}

// Stats is a point-in-time snapshot of queue depths used for observability
type Stats struct {
	QueueLengths map[Priority]int64 `json:"queue_lengths"`
	Scheduled    int64              `json:"scheduled"`
	Processing   int64              `json:"processing"`
	DeadLettered int64              `json:"dead_lettered"`
}

// Default retry schedule applied when no explicit delay sequence is provided
var DefaultRetryDelays = []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute}

const (
	// DefaultRetryDelay is used when a job carries no delay sequence at all
	DefaultRetryDelay = 5 * time.Minute

	// DefaultMaxRetries bounds execution attempts before dead-lettering
	DefaultMaxRetries = 3

	// DefaultJobTTL keeps finished job records readable for a week
	DefaultJobTTL = 7 * 24 * time.Hour
)
