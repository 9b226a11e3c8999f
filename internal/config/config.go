// Package config provides hierarchical configuration loading for FleetForge.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the FleetForge orchestrator.
type Config struct {
	Server   Server   `yaml:"server"`
	Workers  Workers  `yaml:"workers"`
	Risk     Risk     `yaml:"risk"`
	Executor Executor `yaml:"executor"`
	Session  Session  `yaml:"session"`
	NATS     NATS     `yaml:"nats"`
	Cache    Cache    `yaml:"cache"`
	Breaker  Breaker  `yaml:"breaker"`
	Logging  Logging  `yaml:"logging"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Workers maps worker names to their base URLs. The table is read-only at
// runtime and shared across all concurrent orchestrations.
type Workers struct {
	URLs map[string]string `yaml:"urls"`
}

// Risk holds risk monitor (UEBA gate) configuration.
type Risk struct {
	// ScorerURL is the base URL of a remote risk-scoring service.
	// Empty means scores are computed locally from the action weight table.
	ScorerURL string `yaml:"scorer_url"`
	// BlockThreshold is the strict lower bound above which actions are blocked.
	BlockThreshold float64 `yaml:"block_threshold"`
	// FailOpenScore is the score assumed when the remote scorer is unreachable.
	FailOpenScore float64 `yaml:"fail_open_score"`
	// ScorerTimeout bounds a single remote scoring call.
	ScorerTimeout time.Duration `yaml:"scorer_timeout"`
}

// Executor holds worker call retry and timeout configuration.
type Executor struct {
	RetryAttempts int           `yaml:"retry_attempts"` // total attempts per call (default: 3)
	CallTimeout   time.Duration `yaml:"call_timeout"`   // per-attempt timeout (default: 30s)
	BackoffBase   time.Duration `yaml:"backoff_base"`   // linear backoff unit (default: 1s)
}

// Session holds session store lifecycle configuration.
type Session struct {
	MaxAge time.Duration `yaml:"max_age"` // sessions older than this are swept (default: 24h)
}

// NATS holds NATS JetStream configuration. An empty URL disables event publishing.
type NATS struct {
	URL string `yaml:"url"`
}

// Cache holds worker health cache configuration.
type Cache struct {
	MaxSizeMB int64         `yaml:"max_size_mb"`
	HealthTTL time.Duration `yaml:"health_ttl"`
}

// Breaker holds circuit breaker configuration for the remote risk scorer.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Cooldown    time.Duration `yaml:"cooldown"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Defaults returns a Config with sensible default values for local development.
// Worker addresses mirror the compose service names of the worker fleet.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8001",
			CORSOrigin: "http://localhost:3000",
		},
		Workers: Workers{
			URLs: map[string]string{
				"data_analysis":          "http://data-analysis-worker:8002",
				"diagnosis":              "http://diagnosis-worker:8003",
				"customer_engagement":    "http://customer-engagement-worker:8004",
				"scheduling":             "http://scheduling-worker:8005",
				"feedback":               "http://feedback-worker:8006",
				"manufacturing_insights": "http://manufacturing-insights-worker:8007",
			},
		},
		Risk: Risk{
			ScorerURL:      "",
			BlockThreshold: 0.7,
			FailOpenScore:  0.1,
			ScorerTimeout:  5 * time.Second,
		},
		Executor: Executor{
			RetryAttempts: 3,
			CallTimeout:   30 * time.Second,
			BackoffBase:   time.Second,
		},
		Session: Session{
			MaxAge: 24 * time.Hour,
		},
		NATS: NATS{
			URL: "",
		},
		Cache: Cache{
			MaxSizeMB: 16,
			HealthTTL: 15 * time.Second,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Cooldown:    30 * time.Second,
		},
		Logging: Logging{
			Level:   "info",
			Service: "fleetforge-orchestrator",
		},
	}
}
