package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Dispatcher fans events out to subscribed endpoints and drives the
// persisted retry loop.
//
// TriggerWebhooks creates one Delivery per matching active Config and
// attempts each immediately; Run periodically re-attempts pending
// deliveries whose retry time has come. Attempt state lives in the
// DeliveryRepository, so a restarted dispatcher picks up where the previous
// one stopped. Each attempt runs in its own goroutine: a slow endpoint
// delays only its own delivery.
type Dispatcher struct {
	configs    ConfigRepository
	deliveries DeliveryRepository
	sender     *Sender

	maxRetries     int
	backoff        BackoffStrategy
	timeout        time.Duration
	sweepInterval  time.Duration
	sweepBatchSize int
	logger         *slog.Logger

	newBreaker func() *CircuitBreaker
	breakers   map[uuid.UUID]*CircuitBreaker
	mu         sync.Mutex
	wg         sync.WaitGroup
}

// NewDispatcher creates a dispatcher over the given repositories
func NewDispatcher(configs ConfigRepository, deliveries DeliveryRepository, opts ...DispatcherOption) (*Dispatcher, error) {
	if configs == nil || deliveries == nil {
		return nil, ErrRepositoryNil
	}

	options := &dispatcherOptions{
		sender:         NewSender(),
		maxRetries:     DefaultMaxRetries,
		backoff:        DefaultBackoffStrategy(),
		timeout:        DefaultTimeout,
		sweepInterval:  15 * time.Second,
		sweepBatchSize: 50,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Dispatcher{
		configs:        configs,
		deliveries:     deliveries,
		sender:         options.sender,
		maxRetries:     options.maxRetries,
		backoff:        options.backoff,
		timeout:        options.timeout,
		sweepInterval:  options.sweepInterval,
		sweepBatchSize: options.sweepBatchSize,
		logger:         options.logger,
		newBreaker:     options.newBreaker,
		breakers:       make(map[uuid.UUID]*CircuitBreaker),
	}, nil
}

// TriggerWebhooks creates pending deliveries for every active config whose
// patterns match the event type, then attempts each one concurrently. It
// returns the ids of the created deliveries; delivery outcomes are recorded
// asynchronously in the repository.
func (d *Dispatcher) TriggerWebhooks(ctx context.Context, eventType string, payload any) ([]uuid.UUID, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	configs, err := d.configs.ActiveConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active configs: %w", err)
	}

	now := time.Now()
	var ids []uuid.UUID

	for _, cfg := range configs {
		if !MatchEvent(cfg.EventTypePatterns, eventType) {
			continue
		}

		delivery := &Delivery{
			ID:        uuid.New(),
			ConfigID:  cfg.ID,
			EventType: eventType,
			Payload:   body,
			Status:    DeliveryPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := d.deliveries.CreateDelivery(ctx, delivery); err != nil {
			return ids, fmt.Errorf("failed to create delivery for config %s: %w", cfg.ID, err)
		}
		ids = append(ids, delivery.ID)

		d.attemptAsync(delivery)
	}

	d.logger.Info("triggered webhooks",
		slog.String("event_type", eventType),
		slog.Int("deliveries", len(ids)))

	return ids, nil
}

// ExecuteAttempt performs one delivery attempt and applies the retry or
// permanent-failure policy. It returns an error only when the attempt state
// could not be persisted; delivery outcomes live on the Delivery row.
func (d *Dispatcher) ExecuteAttempt(ctx context.Context, delivery *Delivery) error {
	if delivery.Status.Terminal() {
		return ErrDeliveryTerminal
	}

	cfg, err := d.configs.GetConfig(ctx, delivery.ConfigID)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", delivery.ConfigID, err)
	}

	breaker := d.breakerFor(cfg.ID)
	if breaker != nil && !breaker.Allow() {
		// Not an execution attempt: push the retry out without consuming budget
		next := time.Now().Add(d.backoff.NextInterval(delivery.AttemptCount + 1))
		delivery.NextRetryAt = &next
		delivery.UpdatedAt = time.Now()
		if err := d.deliveries.UpdateDelivery(ctx, delivery); err != nil {
			return fmt.Errorf("failed to defer delivery %s: %w", delivery.ID, err)
		}
		return ErrCircuitOpen
	}

	result, sendErr := d.sender.Send(ctx, cfg.URL, delivery.Payload,
		WithSignature(cfg.Secret),
		WithEventID(delivery.ID.String()),
		WithTimeout(d.timeout),
	)

	now := time.Now()
	delivery.AttemptCount++
	delivery.ResponseStatus = result.StatusCode
	delivery.UpdatedAt = now

	if sendErr == nil {
		if breaker != nil {
			breaker.RecordSuccess()
		}
		delivery.Status = DeliverySuccess
		delivery.NextRetryAt = nil
		delivery.LastError = ""
		if err := d.deliveries.UpdateDelivery(ctx, delivery); err != nil {
			return fmt.Errorf("failed to record delivery success %s: %w", delivery.ID, err)
		}

		d.logger.Info("webhook delivered",
			slog.String("delivery_id", delivery.ID.String()),
			slog.String("event_type", delivery.EventType),
			slog.Int("status", result.StatusCode),
			slog.Int("attempts", delivery.AttemptCount),
			slog.Duration("duration", result.Duration))
		return nil
	}

	if breaker != nil {
		breaker.RecordFailure()
	}
	delivery.LastError = sendErr.Error()

	if delivery.AttemptCount < d.maxRetries {
		next := now.Add(d.backoff.NextInterval(delivery.AttemptCount))
		delivery.NextRetryAt = &next
		if err := d.deliveries.UpdateDelivery(ctx, delivery); err != nil {
			return fmt.Errorf("failed to reschedule delivery %s: %w", delivery.ID, err)
		}

		d.logger.Warn("webhook attempt failed, retry scheduled",
			slog.String("delivery_id", delivery.ID.String()),
			slog.String("event_type", delivery.EventType),
			slog.Int("attempts", delivery.AttemptCount),
			slog.Time("next_retry_at", next),
			slog.String("error", sendErr.Error()))
		return nil
	}

	delivery.Status = DeliveryFailed
	delivery.NextRetryAt = nil
	if err := d.deliveries.UpdateDelivery(ctx, delivery); err != nil {
		return fmt.Errorf("failed to record delivery failure %s: %w", delivery.ID, err)
	}

	failure := &Failure{
		ID:         uuid.New(),
		DeliveryID: delivery.ID,
		ConfigID:   delivery.ConfigID,
		EventType:  delivery.EventType,
		Payload:    delivery.Payload,
		Error:      sendErr.Error(),
		CreatedAt:  now,
	}
	if err := d.deliveries.CreateFailure(ctx, failure); err != nil {
		return fmt.Errorf("failed to record permanent failure %s: %w", delivery.ID, err)
	}

	d.logger.Error("webhook permanently failed",
		slog.String("delivery_id", delivery.ID.String()),
		slog.String("event_type", delivery.EventType),
		slog.Int("attempts", delivery.AttemptCount),
		slog.String("error", sendErr.Error()))

	return nil
}

// Run sweeps pending deliveries whose retry time has passed, re-attempting
// each in its own goroutine. It blocks until the context is cancelled and
// waits for in-flight attempts before returning.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.sweepInterval)
	defer ticker.Stop()

	d.logger.Info("webhook dispatcher started",
		slog.Duration("sweep_interval", d.sweepInterval))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("webhook dispatcher shutting down")
			d.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			d.sweep(ctx)
		}
	}
}

// sweep re-attempts every due pending delivery once
func (d *Dispatcher) sweep(ctx context.Context) {
	due, err := d.deliveries.PendingDue(ctx, time.Now(), d.sweepBatchSize)
	if err != nil {
		d.logger.Error("failed to load due deliveries",
			slog.String("error", err.Error()))
		return
	}

	for _, delivery := range due {
		d.attemptAsync(delivery)
	}
}

// attemptAsync runs one attempt in its own goroutine. The attempt context
// is detached from the caller so an HTTP request keeps its full timeout
// even when the triggering request has already returned.
func (d *Dispatcher) attemptAsync(delivery *Delivery) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout+5*time.Second)
		defer cancel()

		if err := d.ExecuteAttempt(ctx, delivery); err != nil {
			d.logger.Error("webhook attempt error",
				slog.String("delivery_id", delivery.ID.String()),
				slog.String("error", err.Error()))
		}
	}()
}

// Wait blocks until all in-flight attempts have finished. Useful in tests
// and during shutdown when Run is not in use.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// breakerFor returns the per-endpoint circuit breaker, creating one on
// first use; nil when breakers are not configured
func (d *Dispatcher) breakerFor(configID uuid.UUID) *CircuitBreaker {
	if d.newBreaker == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cb, ok := d.breakers[configID]
	if !ok {
		cb = d.newBreaker()
		d.breakers[configID] = cb
	}
	return cb
}
