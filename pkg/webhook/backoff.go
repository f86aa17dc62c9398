package webhook

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy calculates the delay before the next retry attempt.
// Implementations must be safe for concurrent use.
type BackoffStrategy interface {
	// NextInterval returns the backoff duration after the given attempt.
	// Attempt starts at 1 for the first completed attempt.
	NextInterval(attempt int) time.Duration
}

// PowerBackoff waits Base^attempt seconds: with the default base of 2 the
// sequence is 2s, 4s, 8s, 16s. MaxInterval caps the growth.
type PowerBackoff struct {
	Base        float64
	MaxInterval time.Duration
}

func (p PowerBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	base := p.Base
	if base <= 1 {
		base = 2
	}

	max := p.MaxInterval
	if max == 0 {
		max = 5 * time.Minute
	}

	delay := time.Duration(math.Pow(base, float64(attempt)) * float64(time.Second))
	if delay > max || delay <= 0 {
		delay = max
	}
	return delay
}

// ExponentialBackoff grows from InitialInterval by Multiplier per attempt,
// with optional jitter to spread coordinated retries.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial == 0 {
		initial = time.Second
	}

	max := e.MaxInterval
	if max == 0 {
		max = 30 * time.Second
	}

	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))

	if e.JitterFactor > 0 {
		randomJitter := (rand.Float64()*2 - 1) * e.JitterFactor
		interval = interval * (1 + randomJitter)
	}

	if interval > float64(max) {
		interval = float64(max)
	}

	return time.Duration(interval)
}

// LinearBackoff waits Interval * attempt, capped at MaxInterval
type LinearBackoff struct {
	Interval    time.Duration
	MaxInterval time.Duration
}

func (l LinearBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	interval := l.Interval
	if interval == 0 {
		interval = time.Second
	}

	max := l.MaxInterval
	if max == 0 {
		max = 30 * time.Second
	}

	delay := interval * time.Duration(attempt)
	if delay > max {
		delay = max
	}

	return delay
}

// FixedBackoff waits the same interval between every retry
type FixedBackoff struct {
	Interval time.Duration
}

func (f FixedBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

// DefaultBackoffStrategy returns the power backoff used for persisted
// delivery retries: 2s, 4s, 8s between attempts.
func DefaultBackoffStrategy() BackoffStrategy {
	return PowerBackoff{Base: 2, MaxInterval: 5 * time.Minute}
}
