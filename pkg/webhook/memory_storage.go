package webhook

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements ConfigRepository and DeliveryRepository for
// testing and local development. It also exposes the config writes that
// configuration management performs in production.
type MemoryStorage struct {
	mu         sync.Mutex
	configs    map[uuid.UUID]*Config
	deliveries map[uuid.UUID]*Delivery
	failures   []*Failure
}

// NewMemoryStorage creates a new in-memory storage implementation
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		configs:    make(map[uuid.UUID]*Config),
		deliveries: make(map[uuid.UUID]*Delivery),
	}
}

// CreateConfig stores a subscription config
func (ms *MemoryStorage) CreateConfig(ctx context.Context, cfg *Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.configs[cfg.ID]; exists {
		return fmt.Errorf("config with ID %s already exists", cfg.ID)
	}

	cfgCopy := *cfg
	ms.configs[cfg.ID] = &cfgCopy
	return nil
}

// UpdateConfig overwrites an existing config
func (ms *MemoryStorage) UpdateConfig(ctx context.Context, cfg *Config) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.configs[cfg.ID]; !exists {
		return ErrConfigNotFound
	}

	cfgCopy := *cfg
	ms.configs[cfg.ID] = &cfgCopy
	return nil
}

// ActiveConfigs implements ConfigRepository
func (ms *MemoryStorage) ActiveConfigs(ctx context.Context) ([]*Config, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var active []*Config
	for _, cfg := range ms.configs {
		if cfg.IsActive {
			cfgCopy := *cfg
			active = append(active, &cfgCopy)
		}
	}
	return active, nil
}

// GetConfig implements ConfigRepository
func (ms *MemoryStorage) GetConfig(ctx context.Context, id uuid.UUID) (*Config, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	cfg, exists := ms.configs[id]
	if !exists {
		return nil, ErrConfigNotFound
	}

	cfgCopy := *cfg
	return &cfgCopy, nil
}

// CreateDelivery implements DeliveryRepository
func (ms *MemoryStorage) CreateDelivery(ctx context.Context, d *Delivery) error {
	if d == nil {
		return errors.New("delivery cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.deliveries[d.ID]; exists {
		return fmt.Errorf("delivery with ID %s already exists", d.ID)
	}

	dCopy := *d
	ms.deliveries[d.ID] = &dCopy
	return nil
}

// UpdateDelivery implements DeliveryRepository
func (ms *MemoryStorage) UpdateDelivery(ctx context.Context, d *Delivery) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.deliveries[d.ID]; !exists {
		return ErrDeliveryNotFound
	}

	dCopy := *d
	ms.deliveries[d.ID] = &dCopy
	return nil
}

// GetDelivery implements DeliveryRepository
func (ms *MemoryStorage) GetDelivery(ctx context.Context, id uuid.UUID) (*Delivery, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	d, exists := ms.deliveries[id]
	if !exists {
		return nil, ErrDeliveryNotFound
	}

	dCopy := *d
	return &dCopy, nil
}

// PendingDue implements DeliveryRepository
func (ms *MemoryStorage) PendingDue(ctx context.Context, now time.Time, limit int) ([]*Delivery, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var due []*Delivery
	for _, d := range ms.deliveries {
		if d.Status != DeliveryPending || d.NextRetryAt == nil || d.NextRetryAt.After(now) {
			continue
		}
		dCopy := *d
		due = append(due, &dCopy)
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].NextRetryAt.Before(*due[j].NextRetryAt)
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// CreateFailure implements DeliveryRepository
func (ms *MemoryStorage) CreateFailure(ctx context.Context, f *Failure) error {
	if f == nil {
		return errors.New("failure cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	fCopy := *f
	ms.failures = append(ms.failures, &fCopy)
	return nil
}

// ListFailures implements DeliveryRepository
func (ms *MemoryStorage) ListFailures(ctx context.Context, limit int) ([]*Failure, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	failures := make([]*Failure, 0, len(ms.failures))
	// Newest first
	for i := len(ms.failures) - 1; i >= 0; i-- {
		if limit > 0 && len(failures) >= limit {
			break
		}
		fCopy := *ms.failures[i]
		failures = append(failures, &fCopy)
	}
	return failures, nil
}
