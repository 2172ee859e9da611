// Package telemetry holds the Prometheus collectors and the OpenTelemetry
// tracer shared by the tau runtime components.
//
// Every App builds its own Metrics so that several apps (or tests) in one
// process never collide on registration:
//
//	m := telemetry.NewMetrics(telemetry.WithNamespace("myapp"))
//	http.Handle("/metrics", m.Handler())
//
// All Metrics methods are safe to call on a nil receiver, which turns them
// into no-ops.
//
// Spans use the global OpenTelemetry tracer provider. Configure it in main()
// before starting the app:
//
//	otel.SetTracerProvider(tp)
package telemetry
