package inbox

import "errors"

// Domain errors for inbound webhook reception
var (
	ErrRepositoryNil    = errors.New("inbox repository cannot be nil")
	ErrEventNotFound    = errors.New("inbox event not found")
	ErrDuplicateEvent   = errors.New("inbox event already exists")
	ErrUnknownProvider  = errors.New("unknown webhook provider")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrInvalidStatus    = errors.New("invalid inbox event status")
	ErrMissingIdentity  = errors.New("webhook event identity missing")
)
