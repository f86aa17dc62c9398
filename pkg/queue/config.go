package queue

import "time"

// Config holds the configuration for the job queue
type Config struct {
	PollInterval      time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"1s"`       // PollInterval is the sleep between polls when no job is available.
	VisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT" envDefault:"5m"`  // VisibilityTimeout bounds how long a claimed job may stay in flight before requeue.
	PromoteBatchSize  int           `env:"QUEUE_PROMOTE_BATCH_SIZE" envDefault:"10"`  // PromoteBatchSize bounds how many due scheduled jobs are promoted per iteration.
	HeartbeatTTL      time.Duration `env:"QUEUE_HEARTBEAT_TTL" envDefault:"60s"`      // HeartbeatTTL is the expiry on worker liveness records.
	ErrorBackoff      time.Duration `env:"QUEUE_ERROR_BACKOFF" envDefault:"5s"`       // ErrorBackoff is the pause after a storage error to avoid tight failure loops.
	JobTTL            time.Duration `env:"QUEUE_JOB_TTL" envDefault:"168h"`           // JobTTL is the retention on job records, including terminal ones.
	SchedulerInterval time.Duration `env:"QUEUE_SCHEDULER_INTERVAL" envDefault:"30s"` // SchedulerInterval is the tick for evaluating recurring definitions.
}
