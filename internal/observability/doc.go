// Package observability provides logging, metrics, and tracing
// for the router and its transport.
//
// # Logging
//
// The Logger interface provides structured logging over zap:
//
//	logger, err := observability.NewLogger(observability.LogConfig{
//	    Level: "info", Format: "json",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Loggers created by NewLogger also implement LevelSetter, so the level can
// be changed while the process runs.
//
// # Metrics
//
// Prometheus metrics for dispatch outcomes live on a per-instance registry:
//
//	metrics := observability.NewMetrics("avroute")
//	handler := metrics.Handler()
//
// # Tracing
//
// OpenTelemetry tracing with an optional OTLP gRPC exporter:
//
//	tracer, err := observability.NewTracer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(ctx)
package observability
