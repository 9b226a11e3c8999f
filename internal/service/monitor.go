package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/Strob0t/FleetForge/internal/config"
	"github.com/Strob0t/FleetForge/internal/domain/risk"
	"github.com/Strob0t/FleetForge/internal/resilience"
)

// RiskMonitor is the check-before-action security gate. Every worker call is
// scored before any network traffic to the worker; scores above the block
// threshold stop the call.
//
// Scoring prefers a remote scorer service when one is configured. The gate
// fails open: if the scorer is unreachable the action proceeds with a low
// default score, trading strictness for availability.
type RiskMonitor struct {
	threshold     float64
	failOpenScore float64
	scorerURL     string
	scorerTimeout time.Duration
	httpClient    *http.Client
	breaker       *resilience.Breaker
	perturb       func() float64 // bounded noise added to table weights
	now           func() time.Time
}

// NewRiskMonitor creates a monitor from config. The breaker guards the
// remote scorer and may be nil when no scorer URL is configured.
func NewRiskMonitor(cfg config.Risk, breaker *resilience.Breaker) *RiskMonitor {
	return &RiskMonitor{
		threshold:     cfg.BlockThreshold,
		failOpenScore: cfg.FailOpenScore,
		scorerURL:     cfg.ScorerURL,
		scorerTimeout: cfg.ScorerTimeout,
		httpClient:    &http.Client{},
		breaker:       breaker,
		perturb:       func() float64 { return rand.Float64()*0.2 - 0.1 },
		now:           time.Now,
	}
}

// Threshold returns the configured block threshold.
func (m *RiskMonitor) Threshold() float64 {
	return m.threshold
}

// ShouldBlock reports whether an action with the given score must be
// stopped. The comparison is strict.
func (m *RiskMonitor) ShouldBlock(score float64) bool {
	return score > m.threshold
}

// Evaluate scores a proposed action. It never fails: scorer outages resolve
// to the fail-open event. Recording the event on the session is the
// caller's responsibility.
func (m *RiskMonitor) Evaluate(ctx context.Context, agentID string, action risk.ActionKind, evalContext map[string]any) risk.Event {
	if m.scorerURL == "" {
		return m.scoreLocal(agentID, action)
	}

	ev, err := m.scoreRemote(ctx, agentID, action, evalContext)
	if err != nil {
		slog.Warn("risk scorer unavailable, failing open",
			"agent_id", agentID, "action", string(action), "error", err)
		return m.failOpen(agentID, action)
	}
	return ev
}

// scoreLocal computes a score from the static action weight table with a
// bounded perturbation.
func (m *RiskMonitor) scoreLocal(agentID string, action risk.ActionKind) risk.Event {
	score := risk.Clamp(action.Weight() + m.perturb())
	level := risk.Classify(score)
	return risk.Event{
		AgentID:   agentID,
		Action:    action,
		Score:     score,
		Level:     level,
		Anomaly:   level == risk.LevelHigh,
		Timestamp: m.now(),
	}
}

// failOpen builds the low, non-blocking default event used when the remote
// scorer cannot be reached.
func (m *RiskMonitor) failOpen(agentID string, action risk.ActionKind) risk.Event {
	return risk.Event{
		AgentID:   agentID,
		Action:    action,
		Score:     m.failOpenScore,
		Level:     risk.Classify(m.failOpenScore),
		Anomaly:   false,
		Timestamp: m.now(),
	}
}

type scoreRequest struct {
	AgentID   string         `json:"agent_id"`
	Action    string         `json:"action"`
	Context   map[string]any `json:"context"`
	Timestamp string         `json:"timestamp"`
}

type scoreResponse struct {
	RiskScore float64 `json:"risk_score"`
	RiskLevel string  `json:"risk_level"`
	Anomaly   bool    `json:"anomaly_detected"`
}

// scoreRemote asks the configured scorer service through the circuit breaker.
func (m *RiskMonitor) scoreRemote(ctx context.Context, agentID string, action risk.ActionKind, evalContext map[string]any) (risk.Event, error) {
	body, err := json.Marshal(scoreRequest{
		AgentID:   agentID,
		Action:    string(action),
		Context:   evalContext,
		Timestamp: m.now().Format(time.RFC3339),
	})
	if err != nil {
		return risk.Event{}, fmt.Errorf("marshal score request: %w", err)
	}

	var parsed scoreResponse
	call := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, m.scorerTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, m.scorerURL+"/ueba/monitor", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := m.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("scorer returned %d: %s", resp.StatusCode, string(data))
		}
		if err := json.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("unmarshal score: %w", err)
		}
		return nil
	}

	var callErr error
	if m.breaker != nil {
		callErr = m.breaker.Do(call)
	} else {
		callErr = call()
	}
	if callErr != nil {
		return risk.Event{}, callErr
	}

	score := risk.Clamp(parsed.RiskScore)
	level := risk.Level(parsed.RiskLevel)
	if level == "" {
		level = risk.Classify(score)
	}
	return risk.Event{
		AgentID:   agentID,
		Action:    action,
		Score:     score,
		Level:     level,
		Anomaly:   parsed.Anomaly,
		Timestamp: m.now(),
	}, nil
}
