package webhook

import (
	"log/slog"
	"time"
)

// dispatcherOptions holds dispatcher configuration
type dispatcherOptions struct {
	sender         *Sender
	maxRetries     int
	backoff        BackoffStrategy
	timeout        time.Duration
	sweepInterval  time.Duration
	sweepBatchSize int
	logger         *slog.Logger
	newBreaker     func() *CircuitBreaker
}

// DispatcherOption is a functional option for configuring a dispatcher
type DispatcherOption func(*dispatcherOptions)

// WithSender sets the HTTP sender used for delivery attempts
func WithSender(sender *Sender) DispatcherOption {
	return func(o *dispatcherOptions) {
		if sender != nil {
			o.sender = sender
		}
	}
}

// WithMaxRetries sets the attempt budget before a delivery is recorded as
// permanently failed; default is 3
func WithMaxRetries(n int) DispatcherOption {
	return func(o *dispatcherOptions) {
		if n > 0 {
			o.maxRetries = n
		}
	}
}

// WithBackoff sets the retry delay strategy; default is power backoff
// (2s, 4s, 8s)
func WithBackoff(strategy BackoffStrategy) DispatcherOption {
	return func(o *dispatcherOptions) {
		if strategy != nil {
			o.backoff = strategy
		}
	}
}

// WithDeliveryTimeout bounds each HTTP attempt; default is 10 seconds
func WithDeliveryTimeout(timeout time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithSweepInterval sets how often Run re-attempts due pending deliveries
func WithSweepInterval(interval time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if interval > 0 {
			o.sweepInterval = interval
		}
	}
}

// WithSweepBatchSize caps the deliveries re-attempted per sweep
func WithSweepBatchSize(n int) DispatcherOption {
	return func(o *dispatcherOptions) {
		if n > 0 {
			o.sweepBatchSize = n
		}
	}
}

// WithDispatcherLogger sets the logger for the dispatcher
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(o *dispatcherOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEndpointCircuitBreaker protects each endpoint with its own circuit
// breaker: after failureThreshold consecutive failures attempts are deferred
// without consuming retry budget until the endpoint recovers
func WithEndpointCircuitBreaker(failureThreshold, successThreshold int, recoveryTimeout time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.newBreaker = func() *CircuitBreaker {
			return NewCircuitBreaker(failureThreshold, successThreshold, recoveryTimeout)
		}
	}
}
