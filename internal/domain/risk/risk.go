// Package risk defines the action taxonomy and event model for the
// behavior-analytics gate that clears every outbound worker call.
package risk

import "time"

// ActionKind classifies what a worker call is about to do. The weight table
// over ActionKind is total: unlisted kinds score WeightDefault.
type ActionKind string

const (
	ActionDataAccess            ActionKind = "data_access"
	ActionCustomerContact       ActionKind = "customer_contact"
	ActionServiceBooking        ActionKind = "service_booking"
	ActionManufacturingFeedback ActionKind = "manufacturing_feedback"
	ActionEmergencyOverride     ActionKind = "emergency_override"
)

// WeightDefault is the base risk weight for unrecognized actions.
const WeightDefault = 0.5

var weights = map[ActionKind]float64{
	ActionDataAccess:            0.2,
	ActionCustomerContact:       0.3,
	ActionServiceBooking:        0.1,
	ActionManufacturingFeedback: 0.4,
	ActionEmergencyOverride:     0.8,
}

// Weight returns the base risk weight for the action kind.
func (k ActionKind) Weight() float64 {
	if w, ok := weights[k]; ok {
		return w
	}
	return WeightDefault
}

// Level classifies a risk score into bands.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Band thresholds. Classify is monotonic in the score.
const (
	HighThreshold   = 0.7
	MediumThreshold = 0.4
)

// Classify maps a score to its risk level.
func Classify(score float64) Level {
	switch {
	case score > HighThreshold:
		return LevelHigh
	case score > MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Clamp bounds a score to [0, 1].
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Event is one gate evaluation. Events are appended to their session's
// event list and never mutated afterwards.
type Event struct {
	AgentID   string     `json:"agent_id"`
	Action    ActionKind `json:"action"`
	Score     float64    `json:"risk_score"`
	Level     Level      `json:"risk_level"`
	Anomaly   bool       `json:"anomaly_detected"`
	Timestamp time.Time  `json:"timestamp"`
}
