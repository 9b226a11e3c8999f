package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/FleetForge/internal/config"
	"github.com/Strob0t/FleetForge/internal/port/cache"
)

const healthCacheKey = "workers:health"

// WorkerHealth is the liveness snapshot of one worker.
type WorkerHealth struct {
	Worker    string    `json:"worker"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// WorkerHealthService probes worker /health endpoints for external
// dashboards. The orchestrator never consults it in the request path;
// snapshots are cached to keep probe traffic off the workers.
type WorkerHealthService struct {
	workers    map[string]string
	cache      cache.Cache
	ttl        time.Duration
	httpClient *http.Client
	now        func() time.Time
}

// NewWorkerHealthService creates a prober over the configured worker table.
func NewWorkerHealthService(cfg config.Cache, workers map[string]string, c cache.Cache) *WorkerHealthService {
	return &WorkerHealthService{
		workers:    workers,
		cache:      c,
		ttl:        cfg.HealthTTL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		now:        time.Now,
	}
}

// Snapshot returns the health of every configured worker, from cache when
// fresh, probing all workers concurrently otherwise.
func (s *WorkerHealthService) Snapshot(ctx context.Context) ([]WorkerHealth, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, healthCacheKey); err == nil && ok {
			var cached []WorkerHealth
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	statuses := make([]WorkerHealth, len(s.workers))
	names := make([]string, 0, len(s.workers))
	for name := range s.workers {
		names = append(names, name)
	}
	sort.Strings(names)

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			statuses[i] = s.probe(gctx, name, s.workers[name])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(statuses); err == nil {
			_ = s.cache.Set(ctx, healthCacheKey, data, s.ttl)
		}
	}
	return statuses, nil
}

// probe checks a single worker's /health endpoint.
func (s *WorkerHealthService) probe(ctx context.Context, name, baseURL string) WorkerHealth {
	status := WorkerHealth{Worker: name, CheckedAt: s.now()}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		status.Error = fmt.Sprintf("health returned %d", resp.StatusCode)
		return status
	}
	status.Healthy = true
	return status
}
