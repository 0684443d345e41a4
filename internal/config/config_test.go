package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8010, cfg.HTTPPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "http://localhost:9000", cfg.MateAPIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.MateTimeout())
	assert.False(t, cfg.OTELEnabled)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SESSION_HTTP_PORT", "9010")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("MATE_API_BASE_URL", "https://api.mate.example.com/")
	t.Setenv("MATE_API_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 9010, cfg.HTTPPort)
	assert.Equal(t, "redis.internal:6379", cfg.RedisAddr)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	// Trailing slash is trimmed so path concatenation stays predictable.
	assert.Equal(t, "https://api.mate.example.com", cfg.MateAPIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.MateTimeout())
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("SESSION_HTTP_PORT", "99999")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("MATE_API_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ProductionRequiresExplicitUpstream(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MATE_API_BASE_URL")
}
