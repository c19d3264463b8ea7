// Package observability provides an OpenTelemetry-based metrics extension.
// The MetricsExtension implements lifecycle hooks to record system-wide
// counters for instance creation, completion, pause/resume/cancel,
// transitions, and human decisions.
//
// For per-node tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
