// Package inbox receives provider webhooks idempotently and hands them to
// the job queue for asynchronous processing.
//
// Each provider registers a Verifier that authenticates the raw request and
// extracts the event identity. Verified events are stored keyed by the
// (provider, event_id) pair, so a provider retrying a delivered webhook gets
// the stored row back and nothing is processed twice. Stored events are
// enqueued as queue jobs carrying only the event id; the job handler reloads
// the row, does the work, and records the outcome with UpdateStatus.
//
// Basic usage:
//
//	store, _ := inbox.NewPostgresStorage(pool)
//	service, _ := inbox.NewService(store, enqueuer)
//
//	handler := inbox.Handler(service,
//		inbox.NewStripeVerifier(stripeSecret, 0),
//		inbox.NewGitHubVerifier(githubSecret),
//	)
//	http.ListenAndServe(":8080", handler)
//
// Events that failed processing can be re-enqueued with Replay once the
// underlying problem is fixed; the stored identity and payload are reused.
package inbox
