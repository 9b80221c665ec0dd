package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"nftmarket/pkg/platform/strutil"
)

// Config is the full process configuration, loaded from the environment.
type Config struct {
	Server      Server
	Marketplace Marketplace
	Log         Log
	Database    Database
	Redis       RedisConfig
	Kafka       Kafka
	Outbox      Outbox
	RateLimit   RateLimit
	Idempotency Idempotency
	Directory   Endpoint `envPrefix:"DIRECTORY_"`
	Funds       Endpoint `envPrefix:"FUNDS_"`
	Tracing     Tracing
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"NFTMARKET_ADDR" envDefault:":8080"`
	JWTSigningKey   string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:"nftmarket"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// Marketplace configures the ledger itself.
type Marketplace struct {
	// Operator is the identity owners approve so the marketplace can move their items.
	Operator  string        `env:"MARKETPLACE_OPERATOR" envDefault:"0xmarketplace"`
	TxTimeout time.Duration `env:"MARKETPLACE_TX_TIMEOUT" envDefault:"5s"`
	SeedDemo  bool          `env:"MARKETPLACE_SEED_DEMO" envDefault:"false"`
	// GuardWait bounds how long a mutating call queues behind the one in flight.
	GuardWait time.Duration `env:"MARKETPLACE_GUARD_WAIT" envDefault:"10s"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Database selects Postgres storage. An empty URL keeps all state in memory.
type Database struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
	Migrate         bool          `env:"DATABASE_MIGRATE" envDefault:"true"`
}

// RedisConfig holds the Redis connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Kafka configures event publication. No brokers means events are logged only.
type Kafka struct {
	Brokers           []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic             string   `env:"KAFKA_TOPIC" envDefault:"nftmarket.events"`
	ClientID          string   `env:"KAFKA_CLIENT_ID" envDefault:"nftmarket"`
	Partitions        int32    `env:"KAFKA_TOPIC_PARTITIONS" envDefault:"3"`
	ReplicationFactor int16    `env:"KAFKA_TOPIC_REPLICATION" envDefault:"1"`
}

type Outbox struct {
	PollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"1s"`
	BatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

// RateLimit bounds mutating requests per caller.
type RateLimit struct {
	Enabled        bool    `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RequestsPerSec float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	Burst          int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

type Idempotency struct {
	TTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
}

// Endpoint addresses an external capability service. An empty BaseURL selects
// the in-process implementation.
type Endpoint struct {
	BaseURL string        `env:"BASE_URL"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

type Tracing struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"nftmarket"`
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Kafka.Brokers = strutil.DedupeAndTrim(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the process cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Marketplace.Operator) == "" {
		errs = append(errs, errors.New("MARKETPLACE_OPERATOR is required"))
	}
	if c.Server.JWTSigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format))
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSec <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_RPS must be positive when rate limiting is enabled"))
		}
		if c.RateLimit.Burst <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_BURST must be positive when rate limiting is enabled"))
		}
	}
	if c.Outbox.BatchSize <= 0 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE must be positive"))
	}
	if c.Outbox.PollInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_INTERVAL must be positive"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if c.Idempotency.TTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}
	return errors.Join(errs...)
}
