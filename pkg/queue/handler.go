package queue

import (
	"context"
	"encoding/json"
)

type (
	// Handler processes jobs of a single type. Handlers must tolerate
	// duplicate execution: the queue delivers at least once, not exactly once.
	Handler interface {
		Type() string
		Handle(ctx context.Context, payload json.RawMessage) error
	}

	JobHandlerFunc[T any] func(ctx context.Context, payload T) error
	RawHandlerFunc        func(ctx context.Context, payload json.RawMessage) error
)

// NewJobHandler creates a type-safe handler; the job type is derived from the
// payload type name, matching what Enqueue derives for the same payload.
func NewJobHandler[T any](handler JobHandlerFunc[T]) Handler {
	var payload T
	return &typedJobHandler[T]{
		jobType: qualifiedStructName(payload),
		handler: handler,
	}
}

// NewNamedJobHandler creates a handler for an explicitly named job type,
// receiving the raw payload bytes
func NewNamedJobHandler(jobType string, handler RawHandlerFunc) Handler {
	return &rawJobHandler{
		jobType: jobType,
		handler: handler,
	}
}

type typedJobHandler[T any] struct {
	jobType string
	handler JobHandlerFunc[T]
}

func (h *typedJobHandler[T]) Type() string {
	return h.jobType
}

func (h *typedJobHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return err
	}
	return h.handler(ctx, t)
}

type rawJobHandler struct {
	jobType string
	handler RawHandlerFunc
}

func (h *rawJobHandler) Type() string {
	return h.jobType
}

func (h *rawJobHandler) Handle(ctx context.Context, payload json.RawMessage) error {
	return h.handler(ctx, payload)
}
