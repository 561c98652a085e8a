// Package middleware provides the HTTP middleware of the plugin server.
//
// This package includes:
//   - Prometheus metrics for requests and live sessions
//   - OpenTelemetry tracing of requests
//
// # Prometheus Metrics
//
// NewMetrics registers the plugin's collectors:
//   - demo_plugin_http_requests_total: requests by method, route and status
//   - demo_plugin_http_request_duration_seconds: request duration histogram
//   - demo_plugin_active_sessions: open live sessions
//   - demo_plugin_increments_total: increments dispatched by live sessions
//   - demo_plugin_heartbeats_total: heartbeats sent to the host, by status
//
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	r.Use(m.Handler)
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Routes are labeled by their chi pattern, never the raw path, so chunk
// names do not create new series.
//
// # OpenTelemetry Middleware
//
// Tracing starts one server span per request using the global tracer
// provider. Configure the provider in main() before starting the server:
//
//	otel.SetTracerProvider(tp)
//	r.Use(middleware.Tracing(middleware.WithTracerName("demo-plugin")))
package middleware
