package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/FleetForge/internal/domain"
	"github.com/Strob0t/FleetForge/internal/domain/risk"
	"github.com/Strob0t/FleetForge/internal/domain/session"
	"github.com/Strob0t/FleetForge/internal/domain/worker"
)

// SessionStore owns all session state for the process. It is the single
// shared-mutable-state holder in the system; every read and write goes
// through the store lock so concurrent workflow steps cannot lose risk
// events or worker results to a race.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	now      func() time.Time // for testing
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session.Session),
		now:      time.Now,
	}
}

// Create registers a new session for the given vehicle and returns its ID.
func (s *SessionStore) Create(vin, customerID string) string {
	id := uuid.NewString()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &session.Session{
		ID:            id,
		VIN:           vin,
		CustomerID:    customerID,
		CreatedAt:     now,
		LastUpdated:   now,
		Context:       make(map[string]any),
		WorkerResults: make(map[string]worker.Response),
	}
	return id
}

// Get returns a copy of the session, or domain.ErrNotFound.
// Callers never receive a reference into the store.
func (s *SessionStore) Get(id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sess.Copy(), nil
}

// Update applies a mutation under the store lock and refreshes LastUpdated.
// Returns domain.ErrNotFound for unknown IDs; it never creates a session.
func (s *SessionStore) Update(id string, apply func(*session.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	apply(sess)
	sess.LastUpdated = s.now()
	return nil
}

// AppendRiskEvent records one risk-gate evaluation on the session.
func (s *SessionStore) AppendRiskEvent(id string, ev risk.Event) error {
	return s.Update(id, func(sess *session.Session) {
		sess.RiskEvents = append(sess.RiskEvents, ev)
	})
}

// SetWorkerResult records the latest response of a worker on the session.
func (s *SessionStore) SetWorkerResult(id, workerName string, resp worker.Response) error {
	return s.Update(id, func(sess *session.Session) {
		sess.WorkerResults[workerName] = resp
	})
}

// MergeContext merges key/value pairs into the session context.
func (s *SessionStore) MergeContext(id string, kv map[string]any) error {
	return s.Update(id, func(sess *session.Session) {
		for k, v := range kv {
			sess.Context[k] = v
		}
	})
}

// IDs returns the identifiers of all active sessions, sorted.
func (s *SessionStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of active sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SweepExpired removes every session created more than maxAge ago and
// returns the number removed. Runs as background maintenance after
// completed requests, never in the request's critical path.
func (s *SessionStore) SweepExpired(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("swept expired sessions", "removed", removed, "remaining", len(s.sessions))
	}
	return removed
}
