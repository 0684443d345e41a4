package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/wisersense-io/mate-session/pkg/config"
)

// Config holds all configuration for the session service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"SESSION_HTTP_PORT" envDefault:"8010"`

	// Redis (session store)
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Upstream Mate API
	MateAPIBaseURL string `env:"MATE_API_BASE_URL" envDefault:"http://localhost:9000"`
	MateAPITimeout string `env:"MATE_API_TIMEOUT" envDefault:"15s"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load session config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if _, err := time.ParseDuration(cfg.MateAPITimeout); err != nil {
		return nil, fmt.Errorf("parse mate api timeout %q: %w", cfg.MateAPITimeout, err)
	}

	cfg.MateAPIBaseURL = strings.TrimRight(cfg.MateAPIBaseURL, "/")

	// In non-development environments, require an explicitly configured
	// upstream endpoint.
	if cfg.Environment != "development" && cfg.MateAPIBaseURL == "http://localhost:9000" {
		return nil, fmt.Errorf("MATE_API_BASE_URL must be explicitly set in %q mode", cfg.Environment)
	}

	return cfg, nil
}

// MateTimeout returns the parsed upstream request timeout.
func (c *Config) MateTimeout() time.Duration {
	d, err := time.ParseDuration(c.MateAPITimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}
