package webhook

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus represents the lifecycle state of an outbound delivery
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Terminal reports whether the delivery will never be attempted again
func (s DeliveryStatus) Terminal() bool {
	return s == DeliverySuccess || s == DeliveryFailed
}

// Config is an outbound subscription: where to deliver, how to sign, and
// which event types the endpoint wants. Configs are owned by configuration
// management; the dispatcher treats them as read-only.
type Config struct {
	ID                uuid.UUID `json:"id"`
	URL               string    `json:"url"`
	Secret            string    `json:"secret"`
	EventTypePatterns []string  `json:"event_type_patterns"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Delivery is one payload bound for one endpoint.
//
// AttemptCount increases by exactly one per execution attempt, and
// NextRetryAt, when set, is strictly after the attempt that set it. A
// delivery is terminal on success or once its attempt budget is exhausted.
type Delivery struct {
	ID             uuid.UUID       `json:"id"`
	ConfigID       uuid.UUID       `json:"config_id"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	Status         DeliveryStatus  `json:"status"`
	ResponseStatus int             `json:"response_status,omitempty"`
	AttemptCount   int             `json:"attempt_count"`
	NextRetryAt    *time.Time      `json:"next_retry_at,omitempty"`
	LastError      string          `json:"last_error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Failure is a permanent-failure record appended when a delivery exhausts
// its retries. The full payload is preserved for manual triage and replay.
type Failure struct {
	ID         uuid.UUID       `json:"id"`
	DeliveryID uuid.UUID       `json:"delivery_id"`
	ConfigID   uuid.UUID       `json:"config_id"`
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	Error      string          `json:"error"`
	CreatedAt  time.Time       `json:"created_at"`
}

const (
	// DefaultMaxRetries bounds execution attempts before a delivery is
	// recorded as permanently failed
	DefaultMaxRetries = 3

	// DefaultTimeout bounds a single HTTP delivery attempt
	DefaultTimeout = 10 * time.Second
)
