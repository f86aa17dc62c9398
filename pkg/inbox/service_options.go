package inbox

import "log/slog"

// serviceOptions holds service configuration
type serviceOptions struct {
	logger *slog.Logger
}

// ServiceOption is a functional option for configuring the service
type ServiceOption func(*serviceOptions)

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
