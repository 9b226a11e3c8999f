// Package resilience provides reliability patterns for external service calls.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open and rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Breaker rejects calls after maxFailures consecutive failures and lets a
// single probe through once the cooldown elapses. A successful probe closes
// the circuit; a failed one restarts the cooldown.
type Breaker struct {
	mu          sync.Mutex
	failures    int
	maxFailures int
	cooldown    time.Duration
	openUntil   time.Time
	now         func() time.Time // for testing
}

// NewBreaker creates a circuit breaker.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// Do runs fn unless the circuit is open, recording the outcome.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	if b.failures >= b.maxFailures && b.now().Before(b.openUntil) {
		b.mu.Unlock()
		return ErrCircuitOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		if b.failures >= b.maxFailures {
			b.openUntil = b.now().Add(b.cooldown)
		}
		return err
	}
	b.failures = 0
	b.openUntil = time.Time{}
	return nil
}
