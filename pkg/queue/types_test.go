package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/jobkit/pkg/queue"
)

func TestPriority_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		priority queue.Priority
		valid    bool
	}{
		{"high priority", queue.PriorityHigh, true},
		{"normal priority", queue.PriorityNormal, true},
		{"low priority", queue.PriorityLow, true},
		{"empty priority", queue.Priority(""), false},
		{"unknown priority", queue.Priority("urgent"), false},
		{"case sensitive", queue.Priority("High"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, tt.priority.Valid())
		})
	}
}

func TestPriorities_Order(t *testing.T) {
	t.Parallel()

	// Polling order drives the strict drain guarantee
	assert.Equal(t, []queue.Priority{
		queue.PriorityHigh,
		queue.PriorityNormal,
		queue.PriorityLow,
	}, queue.Priorities())

	assert.Equal(t, queue.PriorityNormal, queue.PriorityDefault)
}

func TestStatus_Terminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   queue.Status
		terminal bool
	}{
		{queue.StatusPending, false},
		{queue.StatusScheduled, false},
		{queue.StatusProcessing, false},
		{queue.StatusFailed, false},
		{queue.StatusCompleted, true},
		{queue.StatusDLQ, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.terminal, tt.status.Terminal())
		})
	}
}

func TestJob_RetryDelay(t *testing.T) {
	t.Parallel()

	delays := []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}

	t.Run("indexes by attempts already made", func(t *testing.T) {
		t.Parallel()

		job := &queue.Job{Attempts: 1, RetryDelays: delays}
		assert.Equal(t, time.Second, job.RetryDelay())

		job.Attempts = 2
		assert.Equal(t, 5*time.Second, job.RetryDelay())

		job.Attempts = 3
		assert.Equal(t, 30*time.Second, job.RetryDelay())
	})

	t.Run("attempts beyond sequence reuse last delay", func(t *testing.T) {
		t.Parallel()

		job := &queue.Job{Attempts: 9, RetryDelays: delays}
		assert.Equal(t, 30*time.Second, job.RetryDelay())
	})

	t.Run("zero attempts clamps to first delay", func(t *testing.T) {
		t.Parallel()

		job := &queue.Job{Attempts: 0, RetryDelays: delays}
		assert.Equal(t, time.Second, job.RetryDelay())
	})

	t.Run("no sequence falls back to default", func(t *testing.T) {
		t.Parallel()

		job := &queue.Job{Attempts: 2}
		assert.Equal(t, queue.DefaultRetryDelay, job.RetryDelay())
	})
}
