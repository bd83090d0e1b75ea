// Package tracing is a thin wrapper around OpenTelemetry tracing so that the
// rest of the code-base can start and end spans without being concerned with
// the underlying implementation.
package tracing
