package resilience

import (
	"errors"
	"testing"
	"time"
)

var errFail = errors.New("downstream failure")

func failing() error { return errFail }
func succeeding() error { return nil }

func TestBreakerClosedPassesCalls(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	for i := 0; i < 5; i++ {
		if err := b.Do(succeeding); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
}

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker(2, time.Minute)

	for i := 0; i < 2; i++ {
		if err := b.Do(failing); !errors.Is(err, errFail) {
			t.Fatalf("failure %d: expected downstream error, got %v", i, err)
		}
	}
	if err := b.Do(succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}

func TestBreakerBelowThresholdStaysClosed(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	_ = b.Do(failing)
	_ = b.Do(failing)
	if err := b.Do(succeeding); err != nil {
		t.Fatalf("circuit should still be closed: %v", err)
	}
}

func TestBreakerProbesAfterCooldown(t *testing.T) {
	current := time.Now()
	b := NewBreaker(1, 30*time.Second)
	b.now = func() time.Time { return current }

	_ = b.Do(failing)
	if err := b.Do(succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}

	current = current.Add(31 * time.Second)
	if err := b.Do(succeeding); err != nil {
		t.Fatalf("probe after cooldown should pass: %v", err)
	}
	// Successful probe closed the circuit.
	if err := b.Do(succeeding); err != nil {
		t.Fatalf("circuit should be closed again: %v", err)
	}
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	current := time.Now()
	b := NewBreaker(1, 30*time.Second)
	b.now = func() time.Time { return current }

	_ = b.Do(failing)
	current = current.Add(31 * time.Second)
	if err := b.Do(failing); !errors.Is(err, errFail) {
		t.Fatalf("probe should reach downstream, got %v", err)
	}
	if err := b.Do(succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("failed probe must reopen circuit, got %v", err)
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(2, time.Minute)

	_ = b.Do(failing)
	if err := b.Do(succeeding); err != nil {
		t.Fatalf("success: %v", err)
	}
	_ = b.Do(failing)
	if err := b.Do(succeeding); err != nil {
		t.Fatalf("count should have reset, got %v", err)
	}
}
