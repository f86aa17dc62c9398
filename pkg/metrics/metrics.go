package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	JobsEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobkit_jobs_enqueued_total",
			Help: "Total number of jobs enqueued by priority.",
		},
		[]string{"priority"},
	)

	JobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobkit_jobs_processed_total",
			Help: "Total number of job executions by outcome.",
		},
		[]string{"outcome"}, // completed, retried, dead_lettered
	)

	JobDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobkit_job_duration_seconds",
			Help:    "Handler execution time by job type.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job_type"},
	)

	WebhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobkit_webhook_deliveries_total",
			Help: "Total number of outbound webhook delivery attempts by outcome.",
		},
		[]string{"outcome"}, // success, retried, failed, deferred
	)

	WebhookDeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobkit_webhook_delivery_duration_seconds",
			Help:    "Outbound webhook request time by response status code.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status_code"},
	)

	InboundEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobkit_inbound_events_total",
			Help: "Total number of inbound webhook events by provider and result.",
		},
		[]string{"provider", "result"}, // received, duplicate, rejected
	)
)

// MustRegister registers all jobkit metrics on the given registry
func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(
		JobsEnqueuedTotal,
		JobsProcessedTotal,
		JobDurationSeconds,
		WebhookDeliveriesTotal,
		WebhookDeliveryDuration,
		InboundEventsTotal,
	)
}

func RecordJobEnqueued(priority string) {
	JobsEnqueuedTotal.WithLabelValues(priority).Inc()
}

func RecordJobProcessed(outcome string, jobType string, duration time.Duration) {
	JobsProcessedTotal.WithLabelValues(outcome).Inc()
	JobDurationSeconds.WithLabelValues(jobType).Observe(duration.Seconds())
}

func RecordWebhookDelivery(outcome string, statusCode int, duration time.Duration) {
	WebhookDeliveriesTotal.WithLabelValues(outcome).Inc()
	WebhookDeliveryDuration.WithLabelValues(strconv.Itoa(statusCode)).Observe(duration.Seconds())
}

func RecordInboundEvent(provider, result string) {
	InboundEventsTotal.WithLabelValues(provider, result).Inc()
}
