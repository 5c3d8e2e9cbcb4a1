package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// KV backends.
const (
	KVMemory = "memory"
	KVFile   = "file"
	KVRedis  = "redis"
)

// Server captures process level configuration.
type Server struct {
	Addr           string   `env:"PAWTY_ADDR" envDefault:":8080"`
	Environment    string   `env:"PAWTY_ENVIRONMENT" envDefault:"development"`
	LogLevel       string   `env:"PAWTY_LOG_LEVEL" envDefault:"info"`
	TrustedProxies []string `env:"PAWTY_TRUSTED_PROXIES" envSeparator:","`
	CookieSecure   bool     `env:"PAWTY_COOKIE_SECURE"`

	Consent ConsentConfig
	Session SessionConfig
	KV      KVConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Relay   RelayConfig
}

type ConsentConfig struct {
	TTL         time.Duration `env:"PAWTY_CONSENT_TTL" envDefault:"8760h"`
	PromptDelay time.Duration `env:"PAWTY_PROMPT_DELAY" envDefault:"1s"`
}

type SessionConfig struct {
	TTL                time.Duration `env:"PAWTY_SESSION_TTL" envDefault:"30m"`
	SweepInterval      time.Duration `env:"PAWTY_SESSION_SWEEP_INTERVAL" envDefault:"1m"`
	MaxSessions        int           `env:"PAWTY_MAX_SESSIONS" envDefault:"10000"`
	IdleTimeout        time.Duration `env:"PAWTY_IDLE_TIMEOUT" envDefault:"20s"`
	EngagementInterval time.Duration `env:"PAWTY_ENGAGEMENT_INTERVAL" envDefault:"30s"`
}

// KVConfig selects where consent decisions are persisted.
type KVConfig struct {
	Backend string `env:"PAWTY_KV_BACKEND" envDefault:"memory"`
	Path    string `env:"PAWTY_KV_PATH" envDefault:"pawty-consent.json"`
}

// RedisConfig configures the Redis client used by the redis KV backend.
type RedisConfig struct {
	URL          string        `env:"PAWTY_REDIS_URL"`
	PoolSize     int           `env:"PAWTY_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"PAWTY_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"PAWTY_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"PAWTY_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"PAWTY_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig enables the data-layer relay when Brokers is set.
type KafkaConfig struct {
	Brokers  string `env:"PAWTY_KAFKA_BROKERS"`
	Topic    string `env:"PAWTY_KAFKA_TOPIC" envDefault:"pawty.datalayer.events"`
	ClientID string `env:"PAWTY_KAFKA_CLIENT_ID" envDefault:"pawty"`
}

type RelayConfig struct {
	Interval      time.Duration `env:"PAWTY_RELAY_INTERVAL" envDefault:"250ms"`
	BatchSize     int           `env:"PAWTY_RELAY_BATCH_SIZE" envDefault:"100"`
	QueueCapacity int           `env:"PAWTY_QUEUE_CAPACITY" envDefault:"10000"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Server) Validate() error {
	switch c.KV.Backend {
	case KVMemory:
	case KVFile:
		if c.KV.Path == "" {
			return fmt.Errorf("PAWTY_KV_PATH is required for the file backend")
		}
	case KVRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("PAWTY_REDIS_URL is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown PAWTY_KV_BACKEND %q", c.KV.Backend)
	}
	if c.Consent.TTL <= 0 {
		return fmt.Errorf("PAWTY_CONSENT_TTL must be positive")
	}
	if c.Consent.PromptDelay < 0 {
		return fmt.Errorf("PAWTY_PROMPT_DELAY must not be negative")
	}
	if c.Session.TTL <= 0 || c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session TTL and sweep interval must be positive")
	}
	if c.Relay.Interval <= 0 {
		return fmt.Errorf("PAWTY_RELAY_INTERVAL must be positive")
	}
	return nil
}

// RelayEnabled reports whether data-layer records are forwarded to Kafka.
func (c Server) RelayEnabled() bool {
	return c.Kafka.Brokers != ""
}
