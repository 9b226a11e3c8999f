// Package session defines the per-request context accumulated across the
// lifetime of one orchestration.
package session

import (
	"time"

	"github.com/Strob0t/FleetForge/internal/domain/risk"
	"github.com/Strob0t/FleetForge/internal/domain/worker"
)

// Session holds the mutable context of one orchestration request. It is
// owned exclusively by the session store; components outside the store only
// ever hold the ID or a copy.
type Session struct {
	ID            string                     `json:"id"`
	VIN           string                     `json:"vin"`
	CustomerID    string                     `json:"customer_id,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
	LastUpdated   time.Time                  `json:"last_updated"`
	Context       map[string]any             `json:"context"`
	WorkerResults map[string]worker.Response `json:"worker_results"`
	RiskEvents    []risk.Event               `json:"risk_events"`
}

// Copy returns a deep enough copy for read-only use outside the store:
// fresh maps and event slice, shared immutable values.
func (s *Session) Copy() *Session {
	cp := *s
	cp.Context = make(map[string]any, len(s.Context))
	for k, v := range s.Context {
		cp.Context[k] = v
	}
	cp.WorkerResults = make(map[string]worker.Response, len(s.WorkerResults))
	for k, v := range s.WorkerResults {
		cp.WorkerResults[k] = v
	}
	cp.RiskEvents = append([]risk.Event(nil), s.RiskEvents...)
	return &cp
}
