// Package otel provides OpenTelemetry instrumentation for FleetForge.
// Tracer provider setup is a stub until an OTLP collector is deployed
// alongside the worker fleet; spans are recorded through the global
// (no-op by default) provider.
package otel

import (
	"context"
	"log/slog"
)

// ShutdownFunc is called to flush and shut down the trace provider.
type ShutdownFunc func(ctx context.Context) error

// InitTracer returns a no-op shutdown function. Exporter wiring lands with
// the collector deployment.
func InitTracer(serviceName string) ShutdownFunc {
	slog.Info("otel stub: InitTracer called", "service", serviceName)
	return func(_ context.Context) error {
		slog.Info("otel stub: shutdown called")
		return nil
	}
}
