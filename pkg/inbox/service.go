package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/jobkit/pkg/queue"
)

// Enqueuer hands received event ids to the processing queue.
// *queue.Enqueuer satisfies this interface.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) (uuid.UUID, error)
}

// Service receives provider webhooks idempotently and hands them off to the
// processing queue. Verification happens at the HTTP boundary before
// Receive is called; the service trusts its inputs.
type Service struct {
	repo   EventRepository
	jobs   Enqueuer
	logger *slog.Logger
}

// NewService creates an inbox service. The enqueuer may be nil when queue
// handoff is handled elsewhere; received events then stay pending until
// something picks them up.
func NewService(repo EventRepository, jobs Enqueuer, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &serviceOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Service{
		repo:   repo,
		jobs:   jobs,
		logger: options.logger,
	}, nil
}

// Receive stores a verified provider event and enqueues it for processing.
//
// The (provider, eventID) pair is the idempotency key: when a row for the
// pair already exists, the stored row is returned unchanged and nothing is
// enqueued. The provider's retry of a delivered webhook is therefore
// harmless.
func (s *Service) Receive(ctx context.Context, provider string, identity Identity, payload json.RawMessage, headers map[string]string) (*Event, error) {
	if provider == "" || identity.EventID == "" {
		return nil, ErrMissingIdentity
	}

	if existing, err := s.repo.FindByProviderEventID(ctx, provider, identity.EventID); err == nil {
		s.logger.Debug("duplicate webhook receipt",
			slog.String("provider", provider),
			slog.String("event_id", identity.EventID))
		return existing, nil
	} else if !errors.Is(err, ErrEventNotFound) {
		return nil, fmt.Errorf("failed to check for existing event: %w", err)
	}

	event := &Event{
		ID:        uuid.New(),
		Provider:  provider,
		EventID:   identity.EventID,
		EventType: identity.EventType,
		Payload:   payload,
		Headers:   headers,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		// Lost a race against a concurrent receipt of the same pair
		if errors.Is(err, ErrDuplicateEvent) {
			return s.repo.FindByProviderEventID(ctx, provider, identity.EventID)
		}
		return nil, fmt.Errorf("failed to store event: %w", err)
	}

	s.enqueue(ctx, event)

	s.logger.Info("webhook event received",
		slog.String("provider", provider),
		slog.String("event_id", identity.EventID),
		slog.String("event_type", identity.EventType))

	return event, nil
}

// UpdateStatus records the processing outcome of an event, stamping
// processed_at for the processed and failed states
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, errorMessage string) (*Event, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	event.Status = status
	event.ErrorMessage = errorMessage
	if status == StatusProcessed || status == StatusFailed {
		now := time.Now()
		event.ProcessedAt = &now
	}

	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event status: %w", err)
	}

	return event, nil
}

// Replay resets an event to pending and re-enqueues it under the same
// identity, for reprocessing after a failure was fixed
func (s *Service) Replay(ctx context.Context, id uuid.UUID) (*Event, error) {
	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	event.Status = StatusPending
	event.ErrorMessage = ""
	event.ProcessedAt = nil

	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to reset event for replay: %w", err)
	}

	s.enqueue(ctx, event)

	s.logger.Info("webhook event replayed",
		slog.String("provider", event.Provider),
		slog.String("event_id", event.EventID))

	return event, nil
}

// Event returns the stored record for an internal event id
func (s *Service) Event(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.GetEvent(ctx, id)
}

// ListEvents returns up to limit events with the given status, oldest first
func (s *Service) ListEvents(ctx context.Context, status Status, limit int) ([]*Event, error) {
	return s.repo.ListEvents(ctx, status, limit)
}

// enqueue hands the event id to the processing queue. A failed handoff is
// logged rather than surfaced: the row is durable and pending, so an
// operator can Replay it once the queue recovers.
func (s *Service) enqueue(ctx context.Context, event *Event) {
	if s.jobs == nil {
		return
	}

	_, err := s.jobs.Enqueue(ctx, ProcessEventPayload{
		EventID:  event.ID,
		Provider: event.Provider,
	}, queue.WithJobType(ProcessEventJobType))
	if err != nil {
		s.logger.Error("failed to enqueue received event",
			slog.String("provider", event.Provider),
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()))
	}
}
