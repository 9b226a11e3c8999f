package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "fleetforge"

// Metrics holds all FleetForge metric instruments.
type Metrics struct {
	OrchestrationsStarted   metric.Int64Counter
	OrchestrationsCompleted metric.Int64Counter
	OrchestrationsFailed    metric.Int64Counter
	WorkerCalls             metric.Int64Counter
	WorkerCallFailures      metric.Int64Counter
	ActionsBlocked          metric.Int64Counter
	OrchestrationDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.OrchestrationsStarted, err = meter.Int64Counter("fleetforge.orchestrations.started",
		metric.WithDescription("Number of orchestrations started"))
	if err != nil {
		return nil, err
	}

	m.OrchestrationsCompleted, err = meter.Int64Counter("fleetforge.orchestrations.completed",
		metric.WithDescription("Number of orchestrations completed"))
	if err != nil {
		return nil, err
	}

	m.OrchestrationsFailed, err = meter.Int64Counter("fleetforge.orchestrations.failed",
		metric.WithDescription("Number of orchestrations failed"))
	if err != nil {
		return nil, err
	}

	m.WorkerCalls, err = meter.Int64Counter("fleetforge.worker.calls",
		metric.WithDescription("Number of worker invocation attempts"))
	if err != nil {
		return nil, err
	}

	m.WorkerCallFailures, err = meter.Int64Counter("fleetforge.worker.call_failures",
		metric.WithDescription("Number of worker calls that exhausted retries"))
	if err != nil {
		return nil, err
	}

	m.ActionsBlocked, err = meter.Int64Counter("fleetforge.risk.blocked",
		metric.WithDescription("Number of worker calls blocked by the risk gate"))
	if err != nil {
		return nil, err
	}

	m.OrchestrationDuration, err = meter.Float64Histogram("fleetforge.orchestration.duration_seconds",
		metric.WithDescription("Orchestration duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
