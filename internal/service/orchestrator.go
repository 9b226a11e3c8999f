package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/FleetForge/internal/adapter/otel"
	"github.com/Strob0t/FleetForge/internal/config"
	"github.com/Strob0t/FleetForge/internal/domain/maintenance"
	"github.com/Strob0t/FleetForge/internal/domain/worker"
	"github.com/Strob0t/FleetForge/internal/logger"
	"github.com/Strob0t/FleetForge/internal/port/events"
)

// Thresholds and texts of the fixed recommendation table. Rules inspect
// specific fields of specific workers' results; this is a static table,
// not a learned model.
const (
	anomalyConfidenceMin   = 0.7
	diagnosisConfidenceMin = 0.6
	failureProbabilityMin  = 0.7
)

var (
	anomalyRecommendations = []string{
		"Schedule immediate inspection",
		"Monitor sensor readings closely",
	}
	failureRecommendations = []string{
		"Schedule preventive maintenance",
		"Prepare for potential component replacement",
	}
	emergencyRecommendations = []string{
		"IMMEDIATE: Dispatch emergency service",
		"Contact customer immediately",
	}
)

// step is one planned worker call of a workflow.
type step struct {
	worker   string
	endpoint string
	payload  map[string]any
}

// Orchestrator composes the per-request workflow: it builds the step list
// for a request, fans the steps out through the call executor, and
// aggregates the partial results into one ranked Result.
type Orchestrator struct {
	sessions  *SessionStore
	executor  *CallExecutor
	maxAge    time.Duration
	publisher events.Publisher // optional
	metrics   *otel.Metrics    // optional
	now       func() time.Time
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(sessions *SessionStore, executor *CallExecutor, sessionCfg config.Session) *Orchestrator {
	return &Orchestrator{
		sessions: sessions,
		executor: executor,
		maxAge:   sessionCfg.MaxAge,
		now:      time.Now,
	}
}

// SetPublisher attaches an event publisher for orchestration results.
func (o *Orchestrator) SetPublisher(p events.Publisher) {
	o.publisher = p
}

// SetMetrics attaches metric instruments.
func (o *Orchestrator) SetMetrics(m *otel.Metrics) {
	o.metrics = m
}

// Analyze runs the maintenance workflow for one vehicle: it creates the
// session, orchestrates the worker fan-out and schedules the background
// session sweep.
func (o *Orchestrator) Analyze(ctx context.Context, req maintenance.Request) (*maintenance.Result, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sessionID := o.sessions.Create(req.VIN, req.CustomerID)
	ctx = logger.WithCorrelationID(ctx, sessionID[:8])

	slog.Info("starting maintenance analysis",
		"vin", req.VIN, "analysis_type", string(req.AnalysisType),
		"priority", string(req.Priority), "correlation_id", logger.CorrelationID(ctx))

	result, err := o.orchestrate(ctx, req, sessionID)
	if err != nil {
		return nil, err
	}

	o.sweepAsync()
	slog.Info("completed maintenance analysis",
		"vin", req.VIN, "overall_confidence", result.OverallConfidence,
		"correlation_id", logger.CorrelationID(ctx))
	return result, nil
}

// HandleEmergency runs the workflow for an active alert. Emergencies force
// CRITICAL priority, skip proactive customer engagement in favor of
// immediate dispatch, and carry two fixed recommendations first.
func (o *Orchestrator) HandleEmergency(ctx context.Context, req maintenance.EmergencyRequest) (*maintenance.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sessionID := o.sessions.Create(req.VIN, req.CustomerID)
	ctx = logger.WithCorrelationID(ctx, sessionID[:8])

	slog.Warn("emergency alert received",
		"vin", req.VIN, "alert_type", req.AlertType, "severity", req.Severity,
		"correlation_id", logger.CorrelationID(ctx))

	if err := o.sessions.MergeContext(sessionID, map[string]any{
		"alert_type": req.AlertType,
		"severity":   req.Severity,
		"location":   req.Location,
	}); err != nil {
		return nil, fmt.Errorf("emergency context: %w", err)
	}

	result, err := o.orchestrate(ctx, maintenance.Request{
		VIN:          req.VIN,
		CustomerID:   req.CustomerID,
		Priority:     maintenance.PriorityCritical,
		AnalysisType: maintenance.AnalysisEmergency,
	}, sessionID)
	if err != nil {
		return nil, err
	}

	result.Recommendations = append(append([]string{}, emergencyRecommendations...), result.Recommendations...)

	o.sweepAsync()
	slog.Warn("emergency response completed",
		"vin", req.VIN, "correlation_id", logger.CorrelationID(ctx))
	return result, nil
}

// orchestrate dispatches all workflow steps concurrently and aggregates
// whatever subset of workers succeeded. Individual worker failures never
// abort the orchestration; they only lower the overall confidence.
func (o *Orchestrator) orchestrate(ctx context.Context, req maintenance.Request, sessionID string) (*maintenance.Result, error) {
	started := o.now()
	ctx, span := otel.StartOrchestrationSpan(ctx, sessionID, req.VIN, string(req.AnalysisType))
	defer span.End()
	o.countStarted(ctx)

	steps := o.buildSteps(req, sessionID)

	var mu sync.Mutex
	results := make(map[string]worker.Response, len(steps))

	// Fan-out: the steps of this workflow have no data dependencies on one
	// another, so all are dispatched at once and joined at the barrier.
	g, gctx := errgroup.WithContext(ctx)
	for _, st := range steps {
		g.Go(func() error {
			resp := o.executor.CallWorker(gctx, st.worker, st.endpoint, st.payload, sessionID)
			mu.Lock()
			results[st.worker] = resp
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		o.countFailed(ctx)
		return nil, fmt.Errorf("workflow barrier: %w", err)
	}

	result := &maintenance.Result{
		SessionID:         sessionID,
		Status:            maintenance.StatusCompleted,
		Results:           results,
		OverallConfidence: overallConfidence(results),
		Recommendations:   recommend(results),
		RiskStatus:        o.riskSummary(sessionID),
		ProcessingSeconds: o.now().Sub(started).Seconds(),
		Timestamp:         o.now(),
	}

	o.countCompleted(ctx, result.ProcessingSeconds)
	o.publishResult(req, result)
	return result, nil
}

// buildSteps derives the worker call plan from the request's analysis type.
// Emergency flows skip proactive customer contact.
func (o *Orchestrator) buildSteps(req maintenance.Request, sessionID string) []step {
	base := map[string]any{
		"session_id":    sessionID,
		"vin":           req.VIN,
		"customer_id":   req.CustomerID,
		"priority":      string(req.Priority),
		"analysis_type": string(req.AnalysisType),
	}

	diagnosisType := "predictive"
	if req.AnalysisType == maintenance.AnalysisEmergency {
		diagnosisType = "emergency"
	}

	steps := []step{
		{worker: "data_analysis", endpoint: "/task", payload: withField(base, "analysis_type", string(req.AnalysisType))},
		{worker: "diagnosis", endpoint: "/task", payload: withField(base, "diagnosis_type", diagnosisType)},
	}
	if req.AnalysisType != maintenance.AnalysisEmergency {
		steps = append(steps, step{
			worker:   "customer_engagement",
			endpoint: "/task",
			payload:  withField(base, "engagement_type", "proactive"),
		})
	}
	return steps
}

// recommend applies the fixed rule table to the worker results.
func recommend(results map[string]worker.Response) []string {
	recs := []string{}

	if da, ok := results["data_analysis"]; ok && da.Confidence > anomalyConfidenceMin {
		if da.Bool("anomaly_detected") {
			recs = append(recs, anomalyRecommendations...)
		}
	}
	if dg, ok := results["diagnosis"]; ok && dg.Confidence > diagnosisConfidenceMin {
		if dg.Float("failure_prediction", "probability") > failureProbabilityMin {
			recs = append(recs, failureRecommendations...)
		}
	}
	return recs
}

// overallConfidence is the arithmetic mean of all strictly positive worker
// confidences, or 0 when no worker produced one. Blocked and errored
// workers are excluded from the denominator rather than counted as zeros.
func overallConfidence(results map[string]worker.Response) float64 {
	sum, n := 0.0, 0
	for _, r := range results {
		if r.Confidence > 0 {
			sum += r.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// riskSummary condenses the session's gate evaluations.
func (o *Orchestrator) riskSummary(sessionID string) maintenance.RiskSummary {
	sess, err := o.sessions.Get(sessionID)
	if err != nil {
		return maintenance.RiskSummary{}
	}

	summary := maintenance.RiskSummary{TotalEvents: len(sess.RiskEvents)}
	for _, ev := range sess.RiskEvents {
		if ev.Score > 0.7 {
			summary.HighRiskEvents++
		}
	}
	if n := len(sess.RiskEvents); n > 0 {
		summary.LastRiskScore = sess.RiskEvents[n-1].Score
	}
	return summary
}

// sweepAsync triggers expired-session cleanup off the request path.
// The sweep is independent of any single request's cancellation.
func (o *Orchestrator) sweepAsync() {
	go o.sessions.SweepExpired(o.maxAge)
}

func (o *Orchestrator) publishResult(req maintenance.Request, result *maintenance.Result) {
	if o.publisher == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	subject := "maintenance.result." + string(req.AnalysisType)
	pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := o.publisher.Publish(pubCtx, subject, data); err != nil {
		slog.Warn("result event not published", "subject", subject, "error", err)
	}
}

func (o *Orchestrator) countStarted(ctx context.Context) {
	if o.metrics != nil {
		o.metrics.OrchestrationsStarted.Add(ctx, 1)
	}
}

func (o *Orchestrator) countCompleted(ctx context.Context, seconds float64) {
	if o.metrics != nil {
		o.metrics.OrchestrationsCompleted.Add(ctx, 1)
		o.metrics.OrchestrationDuration.Record(ctx, seconds)
	}
}

func (o *Orchestrator) countFailed(ctx context.Context) {
	if o.metrics != nil {
		o.metrics.OrchestrationsFailed.Add(ctx, 1)
	}
}

// withField copies the base payload and sets one additional field.
func withField(base map[string]any, key string, value any) map[string]any {
	payload := make(map[string]any, len(base)+1)
	for k, v := range base {
		payload[k] = v
	}
	payload[key] = value
	return payload
}
