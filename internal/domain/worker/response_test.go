package worker

import (
	"errors"
	"testing"

	"github.com/Strob0t/FleetForge/internal/domain"
)

func TestValidateAcceptsWellFormed(t *testing.T) {
	r := Response{
		Worker:     "diagnosis",
		Data:       map[string]any{"component": "brakes"},
		Confidence: 0.85,
		Sources:    []string{"telemetry"},
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("expected valid response, got %v", err)
	}

	// Error responses with zero confidence are also valid.
	f := Failure("diagnosis", "timeout")
	if err := f.Validate(); err != nil {
		t.Fatalf("expected valid failure response, got %v", err)
	}
}

func TestValidateRejectsOutOfRangeConfidence(t *testing.T) {
	for _, c := range []float64{-0.1, 1.5} {
		r := Response{Worker: "diagnosis", Data: map[string]any{}, Confidence: c}
		err := r.Validate()
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("confidence %v: expected validation error, got %v", c, err)
		}
	}
}

func TestValidateRejectsConfidentResponseWithoutData(t *testing.T) {
	r := Response{Worker: "diagnosis", Confidence: 0.5}
	if err := r.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateRejectsConfidentResponseWithError(t *testing.T) {
	r := Response{
		Worker:     "diagnosis",
		Data:       map[string]any{},
		Error:      "partial failure",
		Confidence: 0.5,
	}
	if err := r.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNestedAccessors(t *testing.T) {
	r := Response{
		Worker: "diagnosis",
		Data: map[string]any{
			"anomaly_detected": true,
			"failure_prediction": map[string]any{
				"probability": 0.82,
			},
		},
		Confidence: 0.9,
	}

	if !r.Bool("anomaly_detected") {
		t.Error("expected anomaly_detected true")
	}
	if got := r.Float("failure_prediction", "probability"); got != 0.82 {
		t.Errorf("expected probability 0.82, got %v", got)
	}
	// Missing paths read as zero values.
	if r.Bool("missing") {
		t.Error("expected missing bool to read false")
	}
	if got := r.Float("failure_prediction", "missing"); got != 0 {
		t.Errorf("expected missing float to read 0, got %v", got)
	}
	// Nil data never panics.
	empty := Failure("diagnosis", "err")
	if empty.Bool("anomaly_detected") {
		t.Error("expected false from nil data")
	}
}
