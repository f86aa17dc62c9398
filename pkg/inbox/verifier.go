package inbox

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Verifier validates a provider request and extracts the event identity.
// Verification runs at the HTTP boundary: a request that fails here is
// rejected with a 400-class response and never reaches storage.
type Verifier interface {
	// Provider returns the provider slug this verifier handles,
	// e.g. "stripe"
	Provider() string

	// Verify checks the request signature against the raw body and
	// extracts the event identity. A signature failure returns
	// ErrInvalidSignature; an unparsable body returns ErrInvalidPayload.
	Verify(header http.Header, body []byte) (Identity, error)
}

// GenericVerifier accepts unsigned webhooks, taking the identity from the
// body's id and event_type fields. Use for providers whose authenticity is
// enforced upstream (mTLS, IP allowlists) or in development.
type GenericVerifier struct {
	provider string
}

// NewGenericVerifier creates a verifier for the given provider slug
func NewGenericVerifier(provider string) *GenericVerifier {
	return &GenericVerifier{provider: provider}
}

func (v *GenericVerifier) Provider() string {
	return v.provider
}

func (v *GenericVerifier) Verify(header http.Header, body []byte) (Identity, error) {
	var envelope struct {
		ID        string `json:"id"`
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if envelope.ID == "" {
		return Identity{}, fmt.Errorf("%w: body id is required", ErrMissingIdentity)
	}

	return Identity{EventID: envelope.ID, EventType: envelope.EventType}, nil
}
