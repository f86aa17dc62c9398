package queue

import (
	"log/slog"
	"time"
)

// SchedulerOption is a functional option for configuring a scheduler
type SchedulerOption func(*schedulerOptions)

type schedulerOptions struct {
	checkInterval time.Duration
	lock          LeaderLock
	logger        *slog.Logger
}

// WithCheckInterval sets how often the scheduler evaluates definitions
func WithCheckInterval(d time.Duration) SchedulerOption {
	return func(o *schedulerOptions) {
		if d > 0 {
			o.checkInterval = d
		}
	}
}

// WithLeaderLock guards each tick's enqueue pass with a short-lived
// distributed lock so scheduler replicas don't double-fire
func WithLeaderLock(lock LeaderLock) SchedulerOption {
	return func(o *schedulerOptions) {
		o.lock = lock
	}
}

// WithSchedulerLogger sets the logger for the scheduler
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(o *schedulerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// RecurringJobOption is a functional option for configuring a recurring definition
type RecurringJobOption func(*recurringJobOptions)

type recurringJobOptions struct {
	jobType    string
	payload    any
	priority   Priority
	maxRetries int
}

// WithRecurringJobType sets the job type enqueued by the definition;
// defaults to the definition name
func WithRecurringJobType(jobType string) RecurringJobOption {
	return func(o *recurringJobOptions) {
		if jobType != "" {
			o.jobType = jobType
		}
	}
}

// WithRecurringPayload sets the payload attached to every fired job
func WithRecurringPayload(payload any) RecurringJobOption {
	return func(o *recurringJobOptions) {
		o.payload = payload
	}
}

// WithRecurringPriority sets the priority class for fired jobs
func WithRecurringPriority(priority Priority) RecurringJobOption {
	return func(o *recurringJobOptions) {
		if priority.Valid() {
			o.priority = priority
		}
	}
}

// WithRecurringMaxRetries sets the retry budget for fired jobs (0-10)
// Capped at 10 to prevent infinite retry loops on persistent failures
func WithRecurringMaxRetries(maxRetries int) RecurringJobOption {
	return func(o *recurringJobOptions) {
		if maxRetries >= 0 && maxRetries <= 10 {
			o.maxRetries = maxRetries
		}
	}
}
