package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "fleetforge"

// StartOrchestrationSpan starts a span for one maintenance orchestration.
func StartOrchestrationSpan(ctx context.Context, sessionID, vin, analysisType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "orchestration",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("vehicle.vin", vin),
			attribute.String("analysis.type", analysisType),
		),
	)
}

// StartWorkerCallSpan starts a span for one worker call within an orchestration.
func StartWorkerCallSpan(ctx context.Context, workerName, endpoint string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "worker.call",
		trace.WithAttributes(
			attribute.String("worker.name", workerName),
			attribute.String("worker.endpoint", endpoint),
		),
	)
}
