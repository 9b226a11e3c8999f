package maintenance

import (
	"time"

	"github.com/Strob0t/FleetForge/internal/domain/worker"
)

// Status represents the terminal state of an orchestration.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RiskSummary condenses the risk-gate evaluations of one session.
type RiskSummary struct {
	TotalEvents    int     `json:"total_events"`
	HighRiskEvents int     `json:"high_risk_events"`
	LastRiskScore  float64 `json:"last_risk_score"`
}

// Result is the aggregate outcome of one orchestration. Individual worker
// failures are visible only inside Results; they never fail the request.
type Result struct {
	SessionID         string                     `json:"session_id"`
	Status            Status                     `json:"status"`
	Results           map[string]worker.Response `json:"results"`
	OverallConfidence float64                    `json:"overall_confidence"`
	Recommendations   []string                   `json:"recommendations"`
	RiskStatus        RiskSummary                `json:"risk_status"`
	ProcessingSeconds float64                    `json:"processing_time_seconds"`
	Timestamp         time.Time                  `json:"timestamp"`
}
