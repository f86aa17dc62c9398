package inbox

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStorage implements EventRepository for testing and local
// development
type MemoryStorage struct {
	mu     sync.Mutex
	events map[uuid.UUID]*Event
	byPair map[string]uuid.UUID
}

// NewMemoryStorage creates a new in-memory storage implementation
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		events: make(map[uuid.UUID]*Event),
		byPair: make(map[string]uuid.UUID),
	}
}

func pairKey(provider, eventID string) string {
	return provider + "\x00" + eventID
}

// CreateEvent implements EventRepository
func (ms *MemoryStorage) CreateEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	key := pairKey(event.Provider, event.EventID)
	if _, exists := ms.byPair[key]; exists {
		return ErrDuplicateEvent
	}

	eventCopy := *event
	ms.events[event.ID] = &eventCopy
	ms.byPair[key] = event.ID
	return nil
}

// GetEvent implements EventRepository
func (ms *MemoryStorage) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	event, exists := ms.events[id]
	if !exists {
		return nil, ErrEventNotFound
	}

	eventCopy := *event
	return &eventCopy, nil
}

// FindByProviderEventID implements EventRepository
func (ms *MemoryStorage) FindByProviderEventID(ctx context.Context, provider, eventID string) (*Event, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	id, exists := ms.byPair[pairKey(provider, eventID)]
	if !exists {
		return nil, ErrEventNotFound
	}

	eventCopy := *ms.events[id]
	return &eventCopy, nil
}

// UpdateEvent implements EventRepository
func (ms *MemoryStorage) UpdateEvent(ctx context.Context, event *Event) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.events[event.ID]; !exists {
		return ErrEventNotFound
	}

	eventCopy := *event
	ms.events[event.ID] = &eventCopy
	return nil
}

// ListEvents implements EventRepository
func (ms *MemoryStorage) ListEvents(ctx context.Context, status Status, limit int) ([]*Event, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var events []*Event
	for _, event := range ms.events {
		if event.Status != status {
			continue
		}
		eventCopy := *event
		events = append(events, &eventCopy)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})

	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
