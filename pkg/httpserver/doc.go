// Package httpserver runs an http.Handler with graceful shutdown.
//
// Config comes from HTTP_* environment variables. Run blocks until the context
// passed to it is cancelled, then drains in-flight requests for up to
// ShutdownTimeout:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// LivenessHandler and ReadinessHandler back the usual Kubernetes probes.
package httpserver
