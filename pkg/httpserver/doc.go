// Package httpserver runs the inbound webhook endpoint with graceful
// shutdown.
//
// Server wraps http.Server: Run blocks until the context is cancelled or the
// process receives SIGINT/SIGTERM, then drains in-flight requests within the
// shutdown timeout. HealthCheckHandler aggregates dependency probes for
// liveness and readiness endpoints.
//
//	srv := httpserver.NewFromConfig(cfg,
//	    httpserver.WithLogger(log),
//	    httpserver.WithStartHook(func(l *slog.Logger) {
//	        l.Info("inbound webhook server listening", "addr", cfg.Addr)
//	    }),
//	)
//
//	handler := inbox.Handler(service, verifiers...)
//	if err := srv.Run(ctx, handler); err != nil {
//	    log.Error("server stopped", logger.Error(err))
//	}
package httpserver
