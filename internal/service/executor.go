package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Strob0t/FleetForge/internal/adapter/otel"
	"github.com/Strob0t/FleetForge/internal/config"
	"github.com/Strob0t/FleetForge/internal/domain/risk"
	"github.com/Strob0t/FleetForge/internal/domain/worker"
	"github.com/Strob0t/FleetForge/internal/port/events"
)

// CallExecutor invokes one worker endpoint with risk gating, retry, backoff
// and timeout. Failures of every kind come back as error worker.Responses
// with confidence 0; the executor itself never returns an error.
type CallExecutor struct {
	workers   map[string]string // worker name -> base URL, read-only
	monitor   *RiskMonitor
	sessions  *SessionStore
	publisher events.Publisher // optional
	metrics   *otel.Metrics    // optional

	httpClient  *http.Client
	attempts    int
	callTimeout time.Duration
	backoffBase time.Duration
}

// NewCallExecutor creates an executor over the configured worker table.
func NewCallExecutor(cfg config.Executor, workers map[string]string, monitor *RiskMonitor, sessions *SessionStore) *CallExecutor {
	return &CallExecutor{
		workers:     workers,
		monitor:     monitor,
		sessions:    sessions,
		httpClient:  &http.Client{},
		attempts:    cfg.RetryAttempts,
		callTimeout: cfg.CallTimeout,
		backoffBase: cfg.BackoffBase,
	}
}

// SetPublisher attaches an event publisher for blocked-action events.
func (e *CallExecutor) SetPublisher(p events.Publisher) {
	e.publisher = p
}

// SetMetrics attaches metric instruments.
func (e *CallExecutor) SetMetrics(m *otel.Metrics) {
	e.metrics = m
}

// CallWorker performs one gated worker call and records both the risk event
// and the outcome on the session.
//
// A block decision is a hard stop: no network attempt is made and nothing is
// retried, since retrying cannot change the decision. Transient transport
// failures are retried with linear backoff; a well-formed HTTP 200 carrying
// an invalid body is a contract violation and fails immediately.
func (e *CallExecutor) CallWorker(ctx context.Context, workerName, endpoint string, payload map[string]any, sessionID string) worker.Response {
	ctx, span := otel.StartWorkerCallSpan(ctx, workerName, endpoint)
	defer span.End()

	baseURL, ok := e.workers[workerName]
	if !ok {
		resp := worker.Failure(workerName, fmt.Sprintf("worker %s not configured", workerName))
		e.record(sessionID, workerName, resp)
		return resp
	}

	ev := e.monitor.Evaluate(ctx, workerName, actionFor(workerName), map[string]any{
		"session_id":   sessionID,
		"payload_keys": keysOf(payload),
	})
	if err := e.sessions.AppendRiskEvent(sessionID, ev); err != nil {
		slog.Warn("risk event not recorded", "session_id", sessionID, "error", err)
	}

	if e.monitor.ShouldBlock(ev.Score) {
		slog.Warn("worker call blocked by risk gate",
			"worker", workerName, "risk_score", ev.Score, "risk_level", string(ev.Level))
		e.countBlocked(ctx)
		e.publishBlocked(sessionID, workerName, ev)
		resp := worker.Failure(workerName,
			fmt.Sprintf("action blocked by risk monitor (risk: %.3f)", ev.Score))
		e.record(sessionID, workerName, resp)
		return resp
	}

	resp, err := e.attemptCall(ctx, workerName, baseURL+endpoint, payload)
	if err != nil {
		e.countFailure(ctx)
		slog.Error("worker call failed", "worker", workerName, "error", err)
		resp = worker.Failure(workerName, err.Error())
	}
	e.record(sessionID, workerName, resp)
	return resp
}

// attemptCall runs the retry loop: up to e.attempts tries with a linear,
// context-cancellable backoff between them.
func (e *CallExecutor) attemptCall(ctx context.Context, workerName, url string, payload map[string]any) (worker.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return worker.Response{}, fmt.Errorf("marshal payload: %w", err)
	}

	var result worker.Response
	attempt := 0
	op := func() error {
		attempt++
		e.countCall(ctx)

		reqCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		httpResp, err := e.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("worker request: %w", err)
		}
		defer func() { _ = httpResp.Body.Close() }()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("read worker response: %w", err)
		}

		if httpResp.StatusCode != http.StatusOK {
			slog.Warn("worker returned non-200",
				"worker", workerName, "status", httpResp.StatusCode, "attempt", attempt)
			return fmt.Errorf("worker returned %d: %s", httpResp.StatusCode, string(data))
		}

		var parsed worker.Response
		if err := json.Unmarshal(data, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("malformed worker body: %w", err))
		}
		if err := parsed.Validate(); err != nil {
			return backoff.Permanent(fmt.Errorf("worker contract violation: %w", err))
		}
		if parsed.Worker == "" {
			parsed.Worker = workerName
		}
		result = parsed
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newLinearBackOff(e.backoffBase), uint64(e.attempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return worker.Response{}, err
	}
	return result, nil
}

func (e *CallExecutor) record(sessionID, workerName string, resp worker.Response) {
	if err := e.sessions.SetWorkerResult(sessionID, workerName, resp); err != nil {
		slog.Warn("worker result not recorded", "session_id", sessionID, "error", err)
	}
}

func (e *CallExecutor) publishBlocked(sessionID, workerName string, ev risk.Event) {
	if e.publisher == nil {
		return
	}
	data, _ := json.Marshal(map[string]any{
		"session_id": sessionID,
		"worker":     workerName,
		"action":     ev.Action,
		"risk_score": ev.Score,
		"timestamp":  ev.Timestamp,
	})
	// Best effort with a detached deadline: blocked-call auditing must not
	// depend on the request's remaining lifetime.
	pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.publisher.Publish(pubCtx, "maintenance.risk.blocked", data); err != nil {
		slog.Warn("blocked event not published", "error", err)
	}
}

func (e *CallExecutor) countCall(ctx context.Context) {
	if e.metrics != nil {
		e.metrics.WorkerCalls.Add(ctx, 1)
	}
}

func (e *CallExecutor) countFailure(ctx context.Context) {
	if e.metrics != nil {
		e.metrics.WorkerCallFailures.Add(ctx, 1)
	}
}

func (e *CallExecutor) countBlocked(ctx context.Context) {
	if e.metrics != nil {
		e.metrics.ActionsBlocked.Add(ctx, 1)
	}
}

// actionFor maps a worker to the action kind it performs. Unknown workers
// fall through to the default weight via risk.ActionKind.Weight.
func actionFor(workerName string) risk.ActionKind {
	switch workerName {
	case "data_analysis", "diagnosis":
		return risk.ActionDataAccess
	case "customer_engagement", "feedback":
		return risk.ActionCustomerContact
	case "scheduling":
		return risk.ActionServiceBooking
	case "manufacturing_insights":
		return risk.ActionManufacturingFeedback
	default:
		return risk.ActionKind(workerName)
	}
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// linearBackOff waits attempt × base between tries: base after the first
// failure, 2×base after the second, and so on.
type linearBackOff struct {
	base time.Duration
	n    int
}

func newLinearBackOff(base time.Duration) *linearBackOff {
	return &linearBackOff{base: base}
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.n++
	return time.Duration(l.n) * l.base
}

func (l *linearBackOff) Reset() {
	l.n = 0
}
