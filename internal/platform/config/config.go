package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	strutil "claimsgate/pkg/platform/strings"
)

// Config aggregates process configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Server     Server
	Redis      Redis
	Kafka      Kafka
	Events     Events
	Ledger     Ledger
	Provenance Provenance
	Worker     Worker
	Postgres   Postgres
	LogLevel   string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
}

// Redis configures the optional redis-backed idempotency store.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the event bus. Empty seeds select the in-process bus.
type Kafka struct {
	Seeds []string
	Topic string
}

// Events configures the lifecycle event recorder. ResultTTL bounds the
// replay-detection window; replays past it are reprocessed.
type Events struct {
	ResultTTL time.Duration
}

// Ledger configures the custody ledger client. Requests are throttled
// client-side; retries belong to this transport, never to business logic.
type Ledger struct {
	BaseURL        string
	RequestTimeout time.Duration
	RatePerSecond  float64
	Burst          int
	Producer       string
}

// Provenance configures the external pre-loss scoring collaborator.
type Provenance struct {
	ScorerURL      string
	RequestTimeout time.Duration
}

// Worker configures the ledger-listener process.
type Worker struct {
	PollInterval     time.Duration
	TriggerType      string
	ProtectionActive bool
	SeenCacheTTL     time.Duration
}

// Postgres configures the optional durable audit store. Empty DSN selects
// the in-memory store.
type Postgres struct {
	DSN string
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr: envOr("CLAIMSGATE_ADDR", ":8080"),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Seeds: splitNonEmpty(os.Getenv("KAFKA_SEEDS")),
			Topic: envOr("KAFKA_TOPIC", "claims.events"),
		},
		Events: Events{
			ResultTTL: envDuration("EVENTS_RESULT_TTL", 24*time.Hour),
		},
		Ledger: Ledger{
			BaseURL:        envOr("LEDGER_BASE_URL", "http://localhost:9090"),
			RequestTimeout: envDuration("LEDGER_REQUEST_TIMEOUT", 10*time.Second),
			RatePerSecond:  envFloat("LEDGER_RATE_PER_SECOND", 20),
			Burst:          envInt("LEDGER_BURST", 5),
			Producer:       envOr("LEDGER_PRODUCER", "claimsgate"),
		},
		Provenance: Provenance{
			ScorerURL:      os.Getenv("PROVENANCE_SCORER_URL"),
			RequestTimeout: envDuration("PROVENANCE_REQUEST_TIMEOUT", 5*time.Second),
		},
		Worker: Worker{
			PollInterval:     envDuration("WORKER_POLL_INTERVAL", 2*time.Second),
			TriggerType:      envOr("WORKER_TRIGGER_TYPE", "CUSTODY_SEAL_BROKEN"),
			ProtectionActive: os.Getenv("WORKER_PROTECTION_ACTIVE") != "false",
			SeenCacheTTL:     envDuration("WORKER_SEEN_CACHE_TTL", time.Hour),
		},
		Postgres: Postgres{
			DSN: os.Getenv("DATABASE_URL"),
		},
		LogLevel: envOr("LOG_LEVEL", "info"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// splitNonEmpty parses a comma-separated list, dropping blanks and
// duplicate entries.
func splitNonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	out := strutil.DedupeAndTrim(strings.Split(v, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
