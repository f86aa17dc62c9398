package metrics_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/metrics"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

func TestMustRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { metrics.MustRegister(reg) })

	metrics.RecordJobEnqueued("high")
	metrics.RecordJobProcessed("completed", "email.send", 20*time.Millisecond)
	metrics.RecordWebhookDelivery("success", 200, 50*time.Millisecond)
	metrics.RecordInboundEvent("stripe", "received")

	families, err := reg.Gather()
	require.NoError(t, err)

	registered := make(map[string]bool, len(families))
	for _, family := range families {
		registered[family.GetName()] = true
	}
	for _, name := range []string{
		"jobkit_jobs_enqueued_total",
		"jobkit_jobs_processed_total",
		"jobkit_job_duration_seconds",
		"jobkit_webhook_deliveries_total",
		"jobkit_webhook_delivery_duration_seconds",
		"jobkit_inbound_events_total",
	} {
		assert.True(t, registered[name], "metric %s not registered", name)
	}
}

func TestRecordJobEnqueued(t *testing.T) {
	metrics.JobsEnqueuedTotal.Reset()

	metrics.RecordJobEnqueued("normal")
	metrics.RecordJobEnqueued("normal")
	metrics.RecordJobEnqueued("low")

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.JobsEnqueuedTotal.WithLabelValues("normal")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.JobsEnqueuedTotal.WithLabelValues("low")))
}

func TestRecordWebhookDelivery(t *testing.T) {
	metrics.WebhookDeliveriesTotal.Reset()

	metrics.RecordWebhookDelivery("success", 200, 10*time.Millisecond)
	metrics.RecordWebhookDelivery("retried", 503, time.Second)
	metrics.RecordWebhookDelivery("retried", 503, 2*time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.WebhookDeliveriesTotal.WithLabelValues("success")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.WebhookDeliveriesTotal.WithLabelValues("retried")))
}

func TestQueueCollector(t *testing.T) {
	storage := queue.NewMemoryStorage()
	ctx := context.Background()

	for i, priority := range []queue.Priority{queue.PriorityHigh, queue.PriorityHigh, queue.PriorityNormal} {
		require.NoError(t, storage.CreateJob(ctx, &queue.Job{
			ID:        uuid.New(),
			Type:      "test.job",
			Priority:  priority,
			Status:    queue.StatusPending,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Millisecond),
		}))
	}

	runAt := time.Now().Add(time.Hour)
	require.NoError(t, storage.CreateJob(ctx, &queue.Job{
		ID:        uuid.New(),
		Type:      "test.job",
		Priority:  queue.PriorityLow,
		Status:    queue.StatusScheduled,
		RunAt:     &runAt,
		CreatedAt: time.Now(),
	}))

	require.NoError(t, storage.Heartbeat(ctx, queue.WorkerHeartbeat{
		WorkerID: uuid.New(),
		SeenAt:   time.Now(),
	}, time.Minute))

	collector := metrics.NewQueueCollector(storage)

	expected := `
		# HELP jobkit_queue_depth Number of jobs waiting in each priority queue.
		# TYPE jobkit_queue_depth gauge
		jobkit_queue_depth{priority="high"} 2
		jobkit_queue_depth{priority="normal"} 1
		jobkit_queue_depth{priority="low"} 0
		# HELP jobkit_scheduled_jobs Number of jobs waiting for their scheduled run time.
		# TYPE jobkit_scheduled_jobs gauge
		jobkit_scheduled_jobs 1
		# HELP jobkit_processing_jobs Number of jobs currently claimed by workers.
		# TYPE jobkit_processing_jobs gauge
		jobkit_processing_jobs 0
		# HELP jobkit_dead_letter_jobs Number of jobs parked in the dead letter queue.
		# TYPE jobkit_dead_letter_jobs gauge
		jobkit_dead_letter_jobs 0
		# HELP jobkit_active_workers Number of workers with a live heartbeat.
		# TYPE jobkit_active_workers gauge
		jobkit_active_workers 1
	`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected)))
}

func TestQueueCollectorDescribe(t *testing.T) {
	collector := metrics.NewQueueCollector(queue.NewMemoryStorage())

	ch := make(chan *prometheus.Desc, 10)
	collector.Describe(ch)
	close(ch)

	var count int
	for range ch {
		count++
	}
	assert.Equal(t, 5, count)
}
