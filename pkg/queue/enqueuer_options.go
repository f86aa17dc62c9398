package queue

import "time"

// EnqueuerOption is a functional option for configuring an Enqueuer
type EnqueuerOption func(*enqueuerOptions)

type enqueuerOptions struct {
	defaultPriority    Priority
	defaultMaxRetries  int
	defaultRetryDelays []time.Duration
}

// WithDefaultPriority sets the default priority class
func WithDefaultPriority(priority Priority) EnqueuerOption {
	return func(o *enqueuerOptions) {
		if priority.Valid() {
			o.defaultPriority = priority
		}
	}
}

// WithDefaultMaxRetries sets the default retry budget
func WithDefaultMaxRetries(maxRetries int) EnqueuerOption {
	return func(o *enqueuerOptions) {
		if maxRetries >= 0 {
			o.defaultMaxRetries = maxRetries
		}
	}
}

// WithDefaultRetryDelays sets the default retry delay sequence
func WithDefaultRetryDelays(delays ...time.Duration) EnqueuerOption {
	return func(o *enqueuerOptions) {
		if len(delays) > 0 {
			o.defaultRetryDelays = delays
		}
	}
}

// EnqueueOption is a functional option for the Enqueue method
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	jobType     string
	priority    Priority
	maxRetries  int
	retryDelays []time.Duration
	delay       time.Duration
	runAt       *time.Time
	tenantID    string
}

// WithJobType sets an explicit job type instead of deriving it from the payload type
func WithJobType(jobType string) EnqueueOption {
	return func(o *enqueueOptions) {
		if jobType != "" {
			o.jobType = jobType
		}
	}
}

// WithPriority sets the priority class for the job
func WithPriority(priority Priority) EnqueueOption {
	return func(o *enqueueOptions) {
		o.priority = priority
	}
}

// WithMaxRetries sets the maximum number of execution attempts (0-10)
// Capped at 10 to prevent infinite retry loops on persistent failures
func WithMaxRetries(maxRetries int) EnqueueOption {
	return func(o *enqueueOptions) {
		if maxRetries >= 0 && maxRetries <= 10 {
			o.maxRetries = maxRetries
		}
	}
}

// WithRetryDelays sets the delay sequence applied between failed attempts
func WithRetryDelays(delays ...time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		if len(delays) > 0 {
			o.retryDelays = delays
		}
	}
}

// WithDelay defers job execution by the given duration
func WithDelay(delay time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		if delay > 0 {
			o.delay = delay
		}
	}
}

// WithRunAt defers job execution until the given time
func WithRunAt(runAt time.Time) EnqueueOption {
	return func(o *enqueueOptions) {
		o.runAt = &runAt
	}
}

// WithTenant attributes the job to a tenant
func WithTenant(tenantID string) EnqueueOption {
	return func(o *enqueueOptions) {
		o.tenantID = tenantID
	}
}
