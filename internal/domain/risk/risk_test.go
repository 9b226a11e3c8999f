package risk

import "testing"

func TestWeightTable(t *testing.T) {
	cases := []struct {
		action ActionKind
		weight float64
	}{
		{ActionDataAccess, 0.2},
		{ActionCustomerContact, 0.3},
		{ActionServiceBooking, 0.1},
		{ActionManufacturingFeedback, 0.4},
		{ActionEmergencyOverride, 0.8},
		{ActionKind("something_new"), WeightDefault},
	}

	for _, tc := range cases {
		if got := tc.action.Weight(); got != tc.weight {
			t.Errorf("%s: expected weight %v, got %v", tc.action, tc.weight, got)
		}
	}
}

func TestClassifyBands(t *testing.T) {
	cases := []struct {
		score float64
		level Level
	}{
		{0.0, LevelLow},
		{0.4, LevelLow}, // band edges are strict
		{0.41, LevelMedium},
		{0.7, LevelMedium},
		{0.71, LevelHigh},
		{1.0, LevelHigh},
	}

	for _, tc := range cases {
		if got := Classify(tc.score); got != tc.level {
			t.Errorf("score %v: expected %s, got %s", tc.score, tc.level, got)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(-0.2); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	if got := Clamp(1.3); got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
	if got := Clamp(0.5); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
}
