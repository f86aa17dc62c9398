package webhook

import (
	"net/http"
	"time"
)

// sendOptions configures a single delivery attempt
type sendOptions struct {
	timeout    time.Duration
	headers    map[string]string
	httpClient *http.Client
	secret     string
	signedAt   time.Time
	eventID    string
}

func defaultSendOptions() *sendOptions {
	return &sendOptions{
		timeout: DefaultTimeout,
		headers: make(map[string]string),
	}
}

// SendOption is a functional option for a single send
type SendOption func(*sendOptions)

// WithTimeout bounds the HTTP request; default is 10 seconds
func WithTimeout(timeout time.Duration) SendOption {
	return func(o *sendOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHeader adds a custom header to the request. Content-Type and
// User-Agent are always set and cannot be removed.
func WithHeader(key, value string) SendOption {
	return func(o *sendOptions) {
		if key != "" && value != "" {
			o.headers[key] = value
		}
	}
}

// WithHeaders adds multiple custom headers to the request
func WithHeaders(headers map[string]string) SendOption {
	return func(o *sendOptions) {
		for k, v := range headers {
			if k != "" && v != "" {
				o.headers[k] = v
			}
		}
	}
}

// WithSignature signs the payload with the secret, adding the
// X-Webhook-Signature header in t=<ts>,v1=<hmac> form
func WithSignature(secret string) SendOption {
	return func(o *sendOptions) {
		o.secret = secret
	}
}

// WithSignedAt pins the signature timestamp instead of using the wall
// clock. Intended for tests that need deterministic signatures.
func WithSignedAt(ts time.Time) SendOption {
	return func(o *sendOptions) {
		o.signedAt = ts
	}
}

// WithEventID sets the X-Webhook-ID header so receivers can deduplicate
// repeated attempts of the same delivery
func WithEventID(id string) SendOption {
	return func(o *sendOptions) {
		o.eventID = id
	}
}

// WithHTTPClient overrides the sender's pooled client for this send
func WithHTTPClient(client *http.Client) SendOption {
	return func(o *sendOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}
