// Package logger builds configured slog loggers for the queue worker,
// scheduler, and webhook services.
//
// New applies functional options over production-safe defaults (JSON to
// stdout at info level) and wraps the handler with ContextHandler, which
// injects request-scoped attributes pulled from context on every log call.
// Attribute constructors in attr.go keep field naming consistent across
// components.
//
//	log := logger.New(
//	    logger.WithProduction("jobkit-worker"),
//	    logger.WithContextValue("request_id", requestIDKey),
//	)
//	logger.SetAsDefault(log)
//
//	log.Info("job completed",
//	    logger.JobID(job.ID),
//	    logger.JobType(job.Type),
//	    logger.Duration(elapsed),
//	)
package logger
