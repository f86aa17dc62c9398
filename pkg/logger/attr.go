package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
// A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups multiple non-nil errors under the key "errors"
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Component records the component name under the key "component"
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// JobID records a job identifier under the key "job_id"
func JobID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("job_id", id)
}

// JobType records the job type under the key "job_type"
func JobType(jobType string) slog.Attr {
	return slog.String("job_type", jobType)
}

// Attempt records the attempt number under the key "attempt"
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Provider records a webhook provider slug under the key "provider"
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}

// EventType records the event type under the key "event_type"
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// DeliveryID records a delivery identifier under the key "delivery_id"
func DeliveryID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("delivery_id", id)
}

// Duration records a duration under the key "duration"
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
