package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	ffhttp "github.com/Strob0t/FleetForge/internal/adapter/http"
	ffnats "github.com/Strob0t/FleetForge/internal/adapter/nats"
	ffotel "github.com/Strob0t/FleetForge/internal/adapter/otel"
	"github.com/Strob0t/FleetForge/internal/adapter/ristretto"
	"github.com/Strob0t/FleetForge/internal/config"
	"github.com/Strob0t/FleetForge/internal/logger"
	"github.com/Strob0t/FleetForge/internal/resilience"
	"github.com/Strob0t/FleetForge/internal/service"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"workers", len(cfg.Workers.URLs),
		"risk_threshold", cfg.Risk.BlockThreshold,
	)

	ctx := context.Background()

	shutdownTracer := ffotel.InitTracer(cfg.Logging.Service)
	defer func() { _ = shutdownTracer(ctx) }()

	metrics, err := ffotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	healthCache, err := ristretto.New(cfg.Cache.MaxSizeMB)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer healthCache.Close()

	// --- Services ---

	sessions := service.NewSessionStore()
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Cooldown)
	monitor := service.NewRiskMonitor(cfg.Risk, breaker)
	executor := service.NewCallExecutor(cfg.Executor, cfg.Workers.URLs, monitor, sessions)
	executor.SetMetrics(metrics)
	orchestrator := service.NewOrchestrator(sessions, executor, cfg.Session)
	orchestrator.SetMetrics(metrics)
	health := service.NewWorkerHealthService(cfg.Cache, cfg.Workers.URLs, healthCache)

	// NATS is optional: without it, orchestration events stay local.
	if cfg.NATS.URL != "" {
		publisher, err := ffnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = publisher.Close() }()
		executor.SetPublisher(publisher)
		orchestrator.SetPublisher(publisher)
	}

	// --- HTTP ---

	handlers := &ffhttp.Handlers{
		Orchestrator: orchestrator,
		Sessions:     sessions,
		Monitor:      monitor,
		Health:       health,
	}

	r := chi.NewRouter()

	r.Use(ffhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(ffhttp.Logger)
	r.Use(ffotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(2 * time.Minute))

	r.Get("/health", healthHandler(sessions))

	ffhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// healthHandler returns an http.HandlerFunc that reports service health.
func healthHandler(sessions *service.SessionStore) http.HandlerFunc {
	type healthStatus struct {
		Status         string `json:"status"`
		Service        string `json:"service"`
		Version        string `json:"version"`
		ActiveSessions int    `json:"active_sessions"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		status := healthStatus{
			Status:         "healthy",
			Service:        "fleetforge-orchestrator",
			Version:        version,
			ActiveSessions: sessions.Len(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
