package webhook

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConfigRepository reads outbound subscriptions. Configs are written by
// configuration management outside this package.
type ConfigRepository interface {
	// ActiveConfigs returns every config with is_active set
	ActiveConfigs(ctx context.Context) ([]*Config, error)

	// GetConfig returns a config by id, or ErrConfigNotFound
	GetConfig(ctx context.Context, id uuid.UUID) (*Config, error)
}

// DeliveryRepository persists delivery attempts and permanent failures
type DeliveryRepository interface {
	// CreateDelivery persists a new delivery row
	CreateDelivery(ctx context.Context, d *Delivery) error

	// UpdateDelivery overwrites the mutable fields of an existing row
	UpdateDelivery(ctx context.Context, d *Delivery) error

	// GetDelivery returns a delivery by id, or ErrDeliveryNotFound
	GetDelivery(ctx context.Context, id uuid.UUID) (*Delivery, error)

	// PendingDue returns up to limit pending deliveries whose next_retry_at
	// is at or before now, oldest first
	PendingDue(ctx context.Context, now time.Time, limit int) ([]*Delivery, error)

	// CreateFailure appends a permanent-failure record
	CreateFailure(ctx context.Context, f *Failure) error

	// ListFailures returns up to limit failure records, newest first
	ListFailures(ctx context.Context, limit int) ([]*Failure, error)
}
