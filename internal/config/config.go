package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Storage drivers.
const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Redis     RedisConfig     `koanf:"redis"`
	Storage   StorageConfig   `koanf:"storage"`
	Workers   WorkersConfig   `koanf:"workers"`
	Webhooks  WebhookConfig   `koanf:"webhooks"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Tracing   TracingConfig   `koanf:"tracing"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Port           int    `koanf:"port"`
	AuthToken      string `koanf:"auth_token"`
	MaxMessageSize int    `koanf:"max_message_size"`
}

type RedisConfig struct {
	URL    string `koanf:"url"`
	Prefix string `koanf:"prefix"`
}

type StorageConfig struct {
	Driver     string `koanf:"driver"`
	SQLitePath string `koanf:"sqlite_path"`
	RecordTTL  int    `koanf:"record_ttl"`
}

type WorkersConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Concurrency int    `koanf:"concurrency"`
	QueueName   string `koanf:"queue_name"`
}

type WebhookConfig struct {
	HMACSecret string        `koanf:"hmac_secret"`
	RetryCount int           `koanf:"retry_count"`
	RetryDelay time.Duration `koanf:"retry_delay"`
}

type RateLimitConfig struct {
	Enabled           bool `koanf:"enabled"`
	RequestsPerMinute int  `koanf:"requests_per_minute"`
}

type TracingConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"`
	SamplingRate float64 `koanf:"sampling_rate"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// NeedsRedis reports whether any enabled component talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.Storage.Driver == DriverRedis || c.Workers.Enabled || c.RateLimit.Enabled
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			MaxMessageSize: 65536,
		},
		Redis: RedisConfig{
			Prefix: "convcom:",
		},
		Storage: StorageConfig{
			Driver:     DriverRedis,
			SQLitePath: "/data/convcom",
			RecordTTL:  604800,
		},
		Workers: WorkersConfig{
			Enabled:     true,
			Concurrency: 3,
			QueueName:   "queue:messages",
		},
		Webhooks: WebhookConfig{
			RetryCount: 3,
			RetryDelay: 5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 120,
		},
		Tracing: TracingConfig{
			SamplingRate: 0.1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from YAML file + environment variables.
// Loading order: defaults → YAML file → env vars (later overrides earlier).
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	cfg := Defaults()

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	} else {
		// Try default path, ignore if not found
		_ = k.Load(file.Provider("convcom.yaml"), yaml.Parser())
	}

	// CONVCOM_SERVER__AUTH_TOKEN → server.auth_token
	// Double underscore (__) separates nesting levels.
	err := k.Load(env.Provider("CONVCOM_", ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, "CONVCOM_")
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

func validate(cfg *Config) error {
	if cfg.Server.AuthToken == "" {
		return fmt.Errorf("config: server.auth_token is required (set CONVCOM_SERVER__AUTH_TOKEN)")
	}
	switch cfg.Storage.Driver {
	case DriverRedis:
	case DriverSQLite:
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("config: storage.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q (want %q or %q)", cfg.Storage.Driver, DriverRedis, DriverSQLite)
	}
	if cfg.NeedsRedis() && cfg.Redis.URL == "" {
		return fmt.Errorf("config: redis.url is required (set CONVCOM_REDIS__URL)")
	}
	if cfg.Workers.Enabled && cfg.Workers.Concurrency < 1 {
		return fmt.Errorf("config: workers.concurrency must be at least 1")
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerMinute < 1 {
		return fmt.Errorf("config: rate_limit.requests_per_minute must be at least 1 when rate limiting is enabled")
	}
	if cfg.Server.MaxMessageSize < 1 {
		return fmt.Errorf("config: server.max_message_size must be positive")
	}
	return nil
}
