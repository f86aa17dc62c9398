// Package queue provides a Redis-backed priority job queue with delayed
// execution, recurring schedules, and dead-lettering.
//
// The package is organised around three main components:
//
//   - Enqueuer   — submits one-time jobs, immediate or delayed
//   - Scheduler  — fires recurring definitions on cron-like schedules
//   - Worker     — claims pending jobs and dispatches them to a registered Handler
//
// Components interact only through a set of small repository interfaces,
// keeping the processing logic decoupled from persistence. RedisStorage is
// the production implementation; MemoryStorage backs tests and local
// development with identical semantics.
//
// # Semantics
//
// The queue delivers at least once, not exactly once. A claimed job is
// tracked in an in-flight set with a visibility deadline; if the claiming
// worker dies, the job is requeued once the deadline passes, so handlers
// must tolerate duplicate execution. Within a priority class jobs are
// processed FIFO; across classes a non-empty high queue is always drained
// before normal, and normal before low.
//
// Failed jobs are rescheduled per their retry delay sequence until the
// retry budget is exhausted, then moved to the dead-letter queue for
// manual triage and requeue.
//
// # Usage
//
// Basic one-time job:
//
//	type SendEmailPayload struct {
//	    To      string `json:"to"`
//	    Subject string `json:"subject"`
//	}
//
//	enqueuer, _ := queue.NewEnqueuer(storage)
//	jobID, err := enqueuer.Enqueue(ctx, SendEmailPayload{To: "a@b.com", Subject: "Hi"},
//	    queue.WithPriority(queue.PriorityHigh))
//
//	worker, _ := queue.NewWorker(storage)
//	worker.RegisterHandler(queue.NewJobHandler(func(ctx context.Context, p SendEmailPayload) error {
//	    return mailer.Send(ctx, p.To, p.Subject)
//	}))
//	worker.Start(ctx)
//
// Recurring job, guarded against double-firing across replicas:
//
//	scheduler, _ := queue.NewScheduler(storage, queue.WithLeaderLock(storage))
//	_ = scheduler.AddJob("nightly_backup", queue.MustCron("0 2 * * *"),
//	    queue.WithRecurringPriority(queue.PriorityLow))
//	go scheduler.Start(ctx)
package queue
