package webhook

import "errors"

// Domain errors for outbound webhook delivery, designed for wrapping and
// classification with errors.Is.
var (
	ErrRepositoryNil    = errors.New("webhook repository cannot be nil")
	ErrInvalidURL       = errors.New("invalid webhook URL")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrMissingSecret    = errors.New("webhook secret is required")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrSignatureExpired = errors.New("webhook signature timestamp outside tolerance")
	ErrConfigNotFound   = errors.New("webhook config not found")
	ErrDeliveryNotFound = errors.New("webhook delivery not found")
	ErrDeliveryFailed   = errors.New("webhook delivery failed")
	ErrDeliveryTerminal = errors.New("webhook delivery is in a terminal state")
	ErrCircuitOpen      = errors.New("webhook circuit breaker is open")
	ErrTimeout          = errors.New("webhook request timeout")
)
