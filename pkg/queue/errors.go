package queue

import "errors"

// Common errors
var (
	// ErrRepositoryNil is returned when a nil repository is provided
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrPayloadNil is returned when attempting to enqueue a nil payload
	ErrPayloadNil = errors.New("payload cannot be nil")

	// ErrInvalidPriority is returned when priority is not a known class
	ErrInvalidPriority = errors.New("priority must be one of high, normal, low")

	// ErrInvalidPayload is returned when payload validation fails at enqueue time
	ErrInvalidPayload = errors.New("payload validation failed")

	// ErrJobNotFound is returned when a job record does not exist or expired
	ErrJobNotFound = errors.New("job not found")

	// ErrNoJobAvailable is returned by Dequeue when all priority lists are empty
	ErrNoJobAvailable = errors.New("no job available")

	// ErrHandlerNotFound is returned when no handler is registered for a job type
	ErrHandlerNotFound = errors.New("no handler registered for job type")

	// ErrNoHandlers is returned when worker is started without handlers
	ErrNoHandlers = errors.New("no job handlers registered")

	// ErrJobAlreadyRegistered is returned when a recurring definition name is reused
	ErrJobAlreadyRegistered = errors.New("recurring job already registered")

	// ErrSchedulerNotConfigured is returned when scheduler has no definitions
	ErrSchedulerNotConfigured = errors.New("scheduler has no registered jobs")

	// ErrInvalidSchedule is returned when a cron expression cannot be parsed
	ErrInvalidSchedule = errors.New("invalid schedule expression")
)
