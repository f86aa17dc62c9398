package inbox

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrymomot/jobkit/pkg/webhook"
)

// stripeSignatureHeader carries the t=<ts>,v1=<hmac> signature Stripe
// computes over "<ts>.<body>"
const stripeSignatureHeader = "Stripe-Signature"

// DefaultStripeTolerance matches Stripe's recommended five-minute window
// for signature timestamps
const DefaultStripeTolerance = 5 * time.Minute

// StripeVerifier validates Stripe webhook signatures. Stripe's scheme is
// the same HMAC construction our outbound sender uses, so verification is
// shared with the webhook package.
type StripeVerifier struct {
	secret    string
	tolerance time.Duration
}

// NewStripeVerifier creates a verifier for the endpoint's signing secret.
// A non-positive tolerance falls back to the five-minute default.
func NewStripeVerifier(secret string, tolerance time.Duration) *StripeVerifier {
	if tolerance <= 0 {
		tolerance = DefaultStripeTolerance
	}
	return &StripeVerifier{secret: secret, tolerance: tolerance}
}

func (v *StripeVerifier) Provider() string {
	return "stripe"
}

func (v *StripeVerifier) Verify(header http.Header, body []byte) (Identity, error) {
	signature := header.Get(stripeSignatureHeader)
	if signature == "" {
		return Identity{}, fmt.Errorf("%w: missing %s header", ErrInvalidSignature, stripeSignatureHeader)
	}

	if err := webhook.Verify(v.secret, body, signature, v.tolerance); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	var envelope struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if envelope.ID == "" || envelope.Type == "" {
		return Identity{}, fmt.Errorf("%w: body must carry id and type", ErrInvalidPayload)
	}

	return Identity{EventID: envelope.ID, EventType: envelope.Type}, nil
}
