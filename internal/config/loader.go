package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "fleetforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "FLEETFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "FLEETFORGE_CORS_ORIGIN")

	setWorkerURL(cfg.Workers.URLs, "data_analysis", "FLEETFORGE_WORKER_DATA_ANALYSIS_URL")
	setWorkerURL(cfg.Workers.URLs, "diagnosis", "FLEETFORGE_WORKER_DIAGNOSIS_URL")
	setWorkerURL(cfg.Workers.URLs, "customer_engagement", "FLEETFORGE_WORKER_CUSTOMER_ENGAGEMENT_URL")
	setWorkerURL(cfg.Workers.URLs, "scheduling", "FLEETFORGE_WORKER_SCHEDULING_URL")
	setWorkerURL(cfg.Workers.URLs, "feedback", "FLEETFORGE_WORKER_FEEDBACK_URL")
	setWorkerURL(cfg.Workers.URLs, "manufacturing_insights", "FLEETFORGE_WORKER_MANUFACTURING_INSIGHTS_URL")

	setString(&cfg.Risk.ScorerURL, "FLEETFORGE_RISK_SCORER_URL")
	setFloat64(&cfg.Risk.BlockThreshold, "FLEETFORGE_RISK_THRESHOLD")
	setFloat64(&cfg.Risk.FailOpenScore, "FLEETFORGE_RISK_FAIL_OPEN_SCORE")
	setDuration(&cfg.Risk.ScorerTimeout, "FLEETFORGE_RISK_SCORER_TIMEOUT")

	setInt(&cfg.Executor.RetryAttempts, "FLEETFORGE_RETRY_ATTEMPTS")
	setDuration(&cfg.Executor.CallTimeout, "FLEETFORGE_CALL_TIMEOUT")
	setDuration(&cfg.Executor.BackoffBase, "FLEETFORGE_BACKOFF_BASE")

	setDuration(&cfg.Session.MaxAge, "FLEETFORGE_SESSION_MAX_AGE")

	setString(&cfg.NATS.URL, "NATS_URL")

	setInt64(&cfg.Cache.MaxSizeMB, "FLEETFORGE_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.HealthTTL, "FLEETFORGE_HEALTH_TTL")

	setInt(&cfg.Breaker.MaxFailures, "FLEETFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Cooldown, "FLEETFORGE_BREAKER_COOLDOWN")

	setString(&cfg.Logging.Level, "FLEETFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "FLEETFORGE_LOG_SERVICE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if len(cfg.Workers.URLs) == 0 {
		return errors.New("workers.urls must configure at least one worker")
	}
	for name, url := range cfg.Workers.URLs {
		if url == "" {
			return fmt.Errorf("workers.urls.%s must not be empty", name)
		}
	}
	if cfg.Risk.BlockThreshold <= 0 || cfg.Risk.BlockThreshold > 1 {
		return errors.New("risk.block_threshold must be in (0, 1]")
	}
	if cfg.Risk.FailOpenScore < 0 || cfg.Risk.FailOpenScore > 1 {
		return errors.New("risk.fail_open_score must be in [0, 1]")
	}
	if cfg.Executor.RetryAttempts < 1 {
		return errors.New("executor.retry_attempts must be >= 1")
	}
	if cfg.Executor.CallTimeout <= 0 {
		return errors.New("executor.call_timeout must be positive")
	}
	if cfg.Session.MaxAge <= 0 {
		return errors.New("session.max_age must be positive")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setWorkerURL(urls map[string]string, name, key string) {
	if v := os.Getenv(key); v != "" {
		urls[name] = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
