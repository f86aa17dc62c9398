package inbox

import (
	"context"

	"github.com/google/uuid"
)

// EventRepository persists received events
type EventRepository interface {
	// CreateEvent persists a new event. It returns ErrDuplicateEvent when a
	// row with the same (provider, event_id) pair already exists.
	CreateEvent(ctx context.Context, event *Event) error

	// GetEvent returns an event by internal id, or ErrEventNotFound
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)

	// FindByProviderEventID returns the event for an idempotency pair,
	// or ErrEventNotFound
	FindByProviderEventID(ctx context.Context, provider, eventID string) (*Event, error)

	// UpdateEvent overwrites the mutable fields of an existing event
	UpdateEvent(ctx context.Context, event *Event) error

	// ListEvents returns up to limit events with the given status,
	// oldest first
	ListEvents(ctx context.Context, status Status, limit int) ([]*Event, error)
}
