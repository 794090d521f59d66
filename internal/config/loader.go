package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "orderfellow.yaml"

// Load returns a Config using the hierarchy: defaults < .env < YAML < ENV.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path. Both the .env
// file and the YAML file are optional.
func LoadFrom(yamlPath string) (*Config, error) {
	// godotenv only populates variables that are not already set, so real
	// environment variables keep precedence over .env entries.
	_ = godotenv.Load()

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
	setString(&cfg.Server.Port, "ORDERFELLOW_PORT")
	setString(&cfg.Server.CORSOrigin, "ORDERFELLOW_CORS_ORIGIN")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "ORDERFELLOW_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "ORDERFELLOW_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "ORDERFELLOW_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "ORDERFELLOW_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "ORDERFELLOW_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")

	setString(&cfg.SMTP.Host, "SMTP_HOST")
	setInt(&cfg.SMTP.Port, "SMTP_PORT")
	setString(&cfg.SMTP.User, "SMTP_USER")
	setString(&cfg.SMTP.Password, "SMTP_PASSWORD")
	setString(&cfg.SMTP.From, "SMTP_FROM")

	setString(&cfg.Logging.Level, "ORDERFELLOW_LOG_LEVEL")
	setString(&cfg.Logging.Service, "ORDERFELLOW_LOG_SERVICE")

	setFloat64(&cfg.Rate.CreatePerMinute, "ORDERFELLOW_RATE_CREATE_PER_MINUTE")
	setFloat64(&cfg.Rate.UpdatePerMinute, "ORDERFELLOW_RATE_UPDATE_PER_MINUTE")
	setInt(&cfg.Rate.Burst, "ORDERFELLOW_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "ORDERFELLOW_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "ORDERFELLOW_RATE_MAX_IDLE_TIME")

	setInt(&cfg.Dispatch.Workers, "ORDERFELLOW_DISPATCH_WORKERS")
	setInt(&cfg.Dispatch.QueueSize, "ORDERFELLOW_DISPATCH_QUEUE_SIZE")
	setInt(&cfg.Dispatch.RetryParallel, "ORDERFELLOW_DISPATCH_RETRY_PARALLEL")

	setDuration(&cfg.Cache.CredentialTTL, "ORDERFELLOW_CACHE_CREDENTIAL_TTL")
	setInt64(&cfg.Cache.MaxSizeMB, "ORDERFELLOW_CACHE_MAX_SIZE_MB")

	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.SMTP.Host == "" || cfg.SMTP.From == "" {
		return errors.New("smtp.host and smtp.from are required")
	}
	if cfg.Rate.CreatePerMinute <= 0 || cfg.Rate.UpdatePerMinute <= 0 {
		return errors.New("rate limits must be positive")
	}
	if cfg.Dispatch.Workers <= 0 || cfg.Dispatch.QueueSize <= 0 {
		return errors.New("dispatch.workers and dispatch.queue_size must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
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
