// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

// Config holds all process configuration.
type Config struct {
	ServerPort    int    `env:"SERVER_PORT" envDefault:"8080"`
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0"`
	Environment   string `env:"ENVIRONMENT" envDefault:"local"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	Database  DatabaseConfig
	Processor ProcessorConfig
	Otel      OtelConfig

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host         string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port         int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User         string        `env:"POSTGRES_USER" envDefault:"fraudcore"`
	Password     string        `env:"POSTGRES_PASSWORD" envDefault:""`
	Database     string        `env:"POSTGRES_DB" envDefault:"fraudcore"`
	SSLMode      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxIdleTime  time.Duration `env:"DB_MAX_IDLE_TIME" envDefault:"5m"`
	QueryDebug   bool          `env:"DB_QUERY_DEBUG" envDefault:"false"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// ProcessorConfig holds the tunables the embedder API exposes for the
// processing and recalculation worker loops.
type ProcessorConfig struct {
	// PollInterval is the tick interval of each queue worker. Every tick
	// claims and runs at most one job, so a worker waits a full interval
	// between jobs even when its queue still holds unclaimed rows.
	PollInterval time.Duration `env:"POLL_INTERVAL_MS" envDefault:"1s"`

	// JobDeadline bounds how long a single job's transaction may run before
	// the worker aborts it, leaving the queue row unclaimed for another worker.
	JobDeadline time.Duration `env:"JOB_DEADLINE_MS" envDefault:"30s"`

	// MaxWorkers is loaded and logged at startup. The processor starts one
	// poll loop per queue whatever its value.
	MaxWorkers int `env:"MAX_WORKERS" envDefault:"4"`

	// BatchSize is passed to the poll harness, which only logs it; a claim
	// always locks a single queue row.
	BatchSize int `env:"PROCESSOR_BATCH_SIZE" envDefault:"1"`

	// StaleThresholdMinutes is loaded but not read by any worker. A claim is a
	// row lock held by the job's transaction, so an abandoned claim is
	// released when that transaction ends.
	StaleThresholdMinutes int `env:"STALE_THRESHOLD_MINUTES" envDefault:"10"`

	// DefaultMaxDepth, DefaultLimit, DefaultMinConfidence are the bounded-BFS
	// defaults applied when a caller does not override them.
	DefaultMaxDepth      int `env:"DEFAULT_MAX_DEPTH" envDefault:"10"`
	DefaultLimit         int `env:"DEFAULT_LIMIT" envDefault:"1000"`
	DefaultMinConfidence int `env:"DEFAULT_MIN_CONFIDENCE" envDefault:"0"`
}

// NewConfig loads configuration from environment variables.
func NewConfig(log *slog.Logger) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	log.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.ServerPort),
		slog.String("db_host", cfg.Database.Host),
		slog.Int("max_workers", cfg.Processor.MaxWorkers),
	)

	return cfg, nil
}
