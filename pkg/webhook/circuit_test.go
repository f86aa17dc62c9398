package webhook_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/jobkit/pkg/webhook"
)

func TestCircuitBreaker(t *testing.T) {
	t.Parallel()

	t.Run("opens after failure threshold", func(t *testing.T) {
		t.Parallel()

		cb := webhook.NewCircuitBreaker(3, 1, time.Minute)
		assert.True(t, cb.Allow())

		cb.RecordFailure()
		cb.RecordFailure()
		assert.True(t, cb.Allow())
		assert.Equal(t, webhook.CircuitClosed, cb.State())

		cb.RecordFailure()
		assert.Equal(t, webhook.CircuitOpen, cb.State())
		assert.False(t, cb.Allow())
	})

	t.Run("success resets failure streak while closed", func(t *testing.T) {
		t.Parallel()

		cb := webhook.NewCircuitBreaker(3, 1, time.Minute)
		cb.RecordFailure()
		cb.RecordFailure()
		cb.RecordSuccess()
		cb.RecordFailure()
		cb.RecordFailure()
		assert.Equal(t, webhook.CircuitClosed, cb.State())
	})

	t.Run("probes after recovery timeout and closes on success", func(t *testing.T) {
		t.Parallel()

		cb := webhook.NewCircuitBreaker(1, 2, 20*time.Millisecond)
		cb.RecordFailure()
		assert.False(t, cb.Allow())

		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, webhook.CircuitHalfOpen, cb.State())
		assert.True(t, cb.Allow())

		cb.RecordSuccess()
		assert.Equal(t, webhook.CircuitHalfOpen, cb.State())
		cb.RecordSuccess()
		assert.Equal(t, webhook.CircuitClosed, cb.State())
	})

	t.Run("failed probe reopens", func(t *testing.T) {
		t.Parallel()

		cb := webhook.NewCircuitBreaker(1, 1, 20*time.Millisecond)
		cb.RecordFailure()

		time.Sleep(30 * time.Millisecond)
		assert.True(t, cb.Allow())

		cb.RecordFailure()
		assert.False(t, cb.Allow())
	})

	t.Run("reset closes the circuit", func(t *testing.T) {
		t.Parallel()

		cb := webhook.NewCircuitBreaker(1, 1, time.Minute)
		cb.RecordFailure()
		assert.False(t, cb.Allow())

		cb.Reset()
		assert.True(t, cb.Allow())
		assert.Equal(t, webhook.CircuitClosed, cb.State())
	})

	t.Run("state strings", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "closed", webhook.CircuitClosed.String())
		assert.Equal(t, "open", webhook.CircuitOpen.String())
		assert.Equal(t, "half-open", webhook.CircuitHalfOpen.String())
	})
}
