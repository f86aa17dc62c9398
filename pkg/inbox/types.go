package inbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the processing state of a received event
type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
	StatusIgnored   Status = "ignored"
)

// Valid checks if the status is one of the known states
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessed, StatusFailed, StatusIgnored:
		return true
	}
	return false
}

// Event is one received provider webhook.
//
// The pair (Provider, EventID) is the natural idempotency key: at most one
// row exists per pair, and a duplicate receipt returns the stored row
// unchanged. Rows are never deleted; replay resets the status, not the
// identity.
type Event struct {
	ID           uuid.UUID         `json:"id"`
	Provider     string            `json:"provider"`
	EventID      string            `json:"event_id"`
	EventType    string            `json:"event_type"`
	Payload      json.RawMessage   `json:"payload"`
	Headers      map[string]string `json:"headers,omitempty"`
	Status       Status            `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	ProcessedAt  *time.Time        `json:"processed_at,omitempty"`
}

// Identity is what a Verifier extracts from a validated request: the
// provider-scoped event id and the event type
type Identity struct {
	EventID   string
	EventType string
}

// ProcessEventJobType is the queue job type for received-event handoff
const ProcessEventJobType = "webhook.inbox.process"

// ProcessEventPayload is the queue payload enqueued per received event.
// Only the identifier crosses the queue; the processor reloads the row.
type ProcessEventPayload struct {
	EventID  uuid.UUID `json:"event_id"`
	Provider string    `json:"provider"`
}
