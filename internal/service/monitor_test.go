package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Strob0t/FleetForge/internal/config"
	"github.com/Strob0t/FleetForge/internal/domain/risk"
	"github.com/Strob0t/FleetForge/internal/resilience"
)

func riskConfig(scorerURL string) config.Risk {
	return config.Risk{
		ScorerURL:      scorerURL,
		BlockThreshold: 0.7,
		FailOpenScore:  0.1,
		ScorerTimeout:  time.Second,
	}
}

func TestShouldBlockIsStrict(t *testing.T) {
	m := NewRiskMonitor(riskConfig(""), nil)

	if m.ShouldBlock(0.7) {
		t.Error("score equal to threshold must not block")
	}
	if !m.ShouldBlock(0.71) {
		t.Error("score above threshold must block")
	}
	if m.ShouldBlock(0.0) {
		t.Error("zero score must not block")
	}
}

func TestEvaluateLocalUsesWeightTable(t *testing.T) {
	m := NewRiskMonitor(riskConfig(""), nil)
	m.perturb = func() float64 { return 0 }

	ev := m.Evaluate(context.Background(), "scheduling", risk.ActionServiceBooking, nil)
	if ev.Score != 0.1 {
		t.Errorf("expected score 0.1, got %v", ev.Score)
	}
	if ev.Level != risk.LevelLow {
		t.Errorf("expected LOW, got %s", ev.Level)
	}
	if ev.Anomaly {
		t.Error("expected no anomaly at low score")
	}

	ev = m.Evaluate(context.Background(), "ops", risk.ActionEmergencyOverride, nil)
	if ev.Score != 0.8 {
		t.Errorf("expected score 0.8, got %v", ev.Score)
	}
	if ev.Level != risk.LevelHigh || !ev.Anomaly {
		t.Errorf("expected HIGH anomaly event, got %+v", ev)
	}
}

func TestEvaluateLocalClampsPerturbation(t *testing.T) {
	m := NewRiskMonitor(riskConfig(""), nil)
	m.perturb = func() float64 { return 0.5 }

	ev := m.Evaluate(context.Background(), "ops", risk.ActionEmergencyOverride, nil)
	if ev.Score != 1.0 {
		t.Errorf("expected clamped score 1.0, got %v", ev.Score)
	}
}

func TestEvaluateRemote(t *testing.T) {
	scorer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ueba/monitor" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"risk_score":0.9,"risk_level":"HIGH","anomaly_detected":true}`))
	}))
	defer scorer.Close()

	m := NewRiskMonitor(riskConfig(scorer.URL), nil)

	ev := m.Evaluate(context.Background(), "diagnosis", risk.ActionDataAccess, map[string]any{"session_id": "s1"})
	if ev.Score != 0.9 {
		t.Errorf("expected remote score 0.9, got %v", ev.Score)
	}
	if ev.Level != risk.LevelHigh || !ev.Anomaly {
		t.Errorf("expected HIGH anomaly event, got %+v", ev)
	}
}

func TestEvaluateFailsOpenOnScorerOutage(t *testing.T) {
	scorer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer scorer.Close()

	m := NewRiskMonitor(riskConfig(scorer.URL), nil)

	ev := m.Evaluate(context.Background(), "diagnosis", risk.ActionDataAccess, nil)
	if ev.Score != 0.1 {
		t.Errorf("expected fail-open score 0.1, got %v", ev.Score)
	}
	if ev.Level != risk.LevelLow || ev.Anomaly {
		t.Errorf("expected benign fail-open event, got %+v", ev)
	}
	if m.ShouldBlock(ev.Score) {
		t.Error("fail-open score must never block")
	}
}

func TestEvaluateFailsOpenWhenScorerUnreachable(t *testing.T) {
	m := NewRiskMonitor(riskConfig("http://127.0.0.1:1"), nil)

	ev := m.Evaluate(context.Background(), "diagnosis", risk.ActionDataAccess, nil)
	if ev.Score != 0.1 {
		t.Errorf("expected fail-open score 0.1, got %v", ev.Score)
	}
}

func TestEvaluateFailsOpenWhenBreakerOpen(t *testing.T) {
	scorer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer scorer.Close()

	breaker := resilience.NewBreaker(1, time.Minute)
	m := NewRiskMonitor(riskConfig(scorer.URL), breaker)

	// First call trips the breaker, second is rejected without traffic.
	_ = m.Evaluate(context.Background(), "diagnosis", risk.ActionDataAccess, nil)
	ev := m.Evaluate(context.Background(), "diagnosis", risk.ActionDataAccess, nil)
	if ev.Score != 0.1 {
		t.Errorf("expected fail-open score with open breaker, got %v", ev.Score)
	}
}
