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

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 4, cfg.FetchConcurrency)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 6*time.Hour, cfg.RefreshInterval)
	assert.Empty(t, cfg.CatalogPath)
	assert.Equal(t, "reports", cfg.OutputDir)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "flight-assessments", cfg.KafkaSinkTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("FETCH_CONCURRENCY", "8")
	t.Setenv("FETCH_TIMEOUT", "45s")
	t.Setenv("REFRESH_INTERVAL", "1h")
	t.Setenv("OUTPUT_DIR", "/tmp/out")
	t.Setenv("TIMEZONE", "Europe/Vienna")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 8, cfg.FetchConcurrency)
	assert.Equal(t, 45*time.Second, cfg.FetchTimeout)
	assert.Equal(t, time.Hour, cfg.RefreshInterval)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, "Europe/Vienna", cfg.Timezone)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LogLevel")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_FetchConcurrencyOutOfRange(t *testing.T) {
	t.Setenv("FETCH_CONCURRENCY", "0")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RefreshIntervalTooShort(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "1m")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIMEZONE")
}

func TestLoad_KafkaEnabledWithoutTopic(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_SINK_TOPIC", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_SINK_TOPIC")
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Europe/Berlin"}
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}
