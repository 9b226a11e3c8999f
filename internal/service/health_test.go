package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/FleetForge/internal/config"
)

// memCache is a trivial in-memory cache for tests, ignoring TTLs.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func TestSnapshotProbesAllWorkers(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	svc := NewWorkerHealthService(config.Cache{HealthTTL: 15 * time.Second}, map[string]string{
		"data_analysis": healthy.URL,
		"diagnosis":     broken.URL,
		"scheduling":    "http://127.0.0.1:1",
	}, nil)

	statuses, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}

	// Sorted by worker name.
	byName := map[string]WorkerHealth{}
	for i, st := range statuses {
		byName[st.Worker] = st
		if i > 0 && statuses[i-1].Worker > st.Worker {
			t.Errorf("statuses not sorted: %s before %s", statuses[i-1].Worker, st.Worker)
		}
	}
	if !byName["data_analysis"].Healthy {
		t.Error("data_analysis should be healthy")
	}
	if byName["diagnosis"].Healthy || byName["diagnosis"].Error == "" {
		t.Errorf("diagnosis should be unhealthy with error, got %+v", byName["diagnosis"])
	}
	if byName["scheduling"].Healthy {
		t.Error("unreachable worker should be unhealthy")
	}
}

func TestSnapshotServesFromCache(t *testing.T) {
	var probes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		probes++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewWorkerHealthService(config.Cache{HealthTTL: time.Minute},
		map[string]string{"data_analysis": srv.URL}, newMemCache())

	for i := 0; i < 3; i++ {
		if _, err := svc.Snapshot(context.Background()); err != nil {
			t.Fatalf("snapshot %d: %v", i, err)
		}
	}
	if probes != 1 {
		t.Errorf("expected a single probe with warm cache, got %d", probes)
	}
}
