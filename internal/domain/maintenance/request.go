// Package maintenance defines the request and result entities for
// fleet maintenance orchestrations.
package maintenance

import (
	"fmt"

	"github.com/Strob0t/FleetForge/internal/domain"
)

// Priority represents the urgency of a maintenance request.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// AnalysisType selects the workflow shape for a request.
type AnalysisType string

const (
	AnalysisPredictive AnalysisType = "predictive"
	AnalysisEmergency  AnalysisType = "emergency"
	AnalysisRoutine    AnalysisType = "routine"
)

// Request asks for a maintenance analysis of one vehicle.
type Request struct {
	VIN          string       `json:"vin"`
	CustomerID   string       `json:"customer_id,omitempty"`
	Priority     Priority     `json:"priority"`
	AnalysisType AnalysisType `json:"analysis_type"`
}

// Normalize fills zero-valued fields with defaults.
func (r *Request) Normalize() {
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if r.AnalysisType == "" {
		r.AnalysisType = AnalysisPredictive
	}
}

// Validate checks that the request is well-formed.
func (r *Request) Validate() error {
	if r.VIN == "" {
		return fmt.Errorf("%w: vin is required", domain.ErrValidation)
	}
	switch r.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
	default:
		return fmt.Errorf("%w: unknown priority %q", domain.ErrValidation, r.Priority)
	}
	switch r.AnalysisType {
	case AnalysisPredictive, AnalysisEmergency, AnalysisRoutine:
	default:
		return fmt.Errorf("%w: unknown analysis type %q", domain.ErrValidation, r.AnalysisType)
	}
	return nil
}

// EmergencyRequest reports an active vehicle alert. Emergencies always run
// the workflow at CRITICAL priority.
type EmergencyRequest struct {
	VIN        string `json:"vin"`
	AlertType  string `json:"alert_type"`
	Severity   string `json:"severity,omitempty"`
	Location   string `json:"location,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
}

// Validate checks that the emergency request is well-formed.
func (r *EmergencyRequest) Validate() error {
	if r.VIN == "" {
		return fmt.Errorf("%w: vin is required", domain.ErrValidation)
	}
	if r.AlertType == "" {
		return fmt.Errorf("%w: alert_type is required", domain.ErrValidation)
	}
	return nil
}
