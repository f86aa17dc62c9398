package queue

import (
	"log/slog"
	"time"
)

// WorkerOption is a functional option for configuring a worker
type WorkerOption func(*workerOptions)

type workerOptions struct {
	pollInterval      time.Duration
	visibilityTimeout time.Duration
	promoteBatchSize  int
	heartbeatTTL      time.Duration
	errorBackoff      time.Duration
	logger            *slog.Logger
}

// WithPollInterval sets the sleep between polls when no job is available
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithVisibilityTimeout sets how long a claimed job may stay in flight
// before it is requeued for another worker
func WithVisibilityTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.visibilityTimeout = d
		}
	}
}

// WithPromoteBatchSize bounds how many due scheduled jobs are promoted per iteration
func WithPromoteBatchSize(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.promoteBatchSize = n
		}
	}
}

// WithHeartbeatTTL sets the expiry on the worker liveness record
func WithHeartbeatTTL(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.heartbeatTTL = d
		}
	}
}

// WithErrorBackoff sets the pause after a storage error
func WithErrorBackoff(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.errorBackoff = d
		}
	}
}

// WithWorkerLogger sets the logger for the worker
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewWorkerFromConfig creates a worker applying non-zero values from the config
func NewWorkerFromConfig(repo WorkerRepository, cfg Config, opts ...WorkerOption) (*Worker, error) {
	configOpts := make([]WorkerOption, 0, 5)

	if cfg.PollInterval > 0 {
		configOpts = append(configOpts, WithPollInterval(cfg.PollInterval))
	}
	if cfg.VisibilityTimeout > 0 {
		configOpts = append(configOpts, WithVisibilityTimeout(cfg.VisibilityTimeout))
	}
	if cfg.PromoteBatchSize > 0 {
		configOpts = append(configOpts, WithPromoteBatchSize(cfg.PromoteBatchSize))
	}
	if cfg.HeartbeatTTL > 0 {
		configOpts = append(configOpts, WithHeartbeatTTL(cfg.HeartbeatTTL))
	}
	if cfg.ErrorBackoff > 0 {
		configOpts = append(configOpts, WithErrorBackoff(cfg.ErrorBackoff))
	}

	configOpts = append(configOpts, opts...)

	return NewWorker(repo, configOpts...)
}
