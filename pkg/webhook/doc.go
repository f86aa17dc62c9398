// Package webhook provides signed outbound webhook delivery with
// subscription matching, persisted retries, and permanent-failure records.
//
// The package splits the problem in two:
//
//   - Sender     — one signed HTTP POST attempt; stateless apart from its
//     connection pool
//   - Dispatcher — matches events against subscriptions, persists a
//     Delivery per match, and drives the retry loop over a
//     DeliveryRepository
//
// Because attempt state is persisted, retries survive process restarts and
// multiple dispatcher replicas can sweep the same store.
//
// # Signing
//
// Payloads are signed with HMAC-SHA256 over "<unix_ts>.<payload>" and the
// result is carried in the X-Webhook-Signature header as
// "t=<unix_ts>,v1=<hex>". Receivers verify with Verify, which uses a
// constant-time comparison and rejects stale timestamps.
//
// # Subscription matching
//
// A Config carries an ordered set of event-type patterns: "*" matches
// everything, "payment.success" matches exactly, "payment.*" matches by
// prefix. MatchEvent implements the check.
//
// # Usage
//
//	storage := webhook.NewMemoryStorage()
//	dispatcher, _ := webhook.NewDispatcher(storage, storage)
//
//	// Fan out an event; one pending delivery per matching active config
//	ids, err := dispatcher.TriggerWebhooks(ctx, "payment.success",
//	    map[string]any{"amount": 100})
//
//	// Retry sweep, typically run alongside the HTTP server
//	go dispatcher.Run(ctx)
//
// Failed deliveries back off per the configured strategy (default: power
// backoff, 2s/4s/8s) until the attempt budget is exhausted, then a Failure
// row preserves the payload and last error for manual triage.
package webhook
