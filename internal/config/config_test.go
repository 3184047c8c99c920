package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5*time.Second, cfg.DBQueryTimeout)
	assert.Equal(t, AlertSinkLog, cfg.AlertSink)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 16, cfg.SubscriberBuffer)
	assert.Equal(t, time.Minute, cfg.OrderRateWindow)
	assert.False(t, cfg.StrictTransitions)
	assert.Empty(t, cfg.MongoURI)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("ORDER_STRICT_TRANSITIONS", "true")
	t.Setenv("SUBSCRIBER_BUFFER", "4")
	t.Setenv("ALERT_SINK", "stream")
	t.Setenv("DB_QUERY_TIMEOUT_MS", "250")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.StrictTransitions)
	assert.Equal(t, 4, cfg.SubscriberBuffer)
	assert.Equal(t, AlertSinkStream, cfg.AlertSink)
	assert.Equal(t, 250*time.Millisecond, cfg.DBQueryTimeout)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
http_addr: ":7070"
db_driver: mysql
db_dsn: "user:pass@tcp(localhost:3306)/restaurant?parseTime=True"
cors_origins:
  - http://localhost:3000
  - http://localhost:5173
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":       {"DB_DRIVER": "postgres"},
		"zero rate limit":      {"ORDER_RATE_LIMIT": "0"},
		"zero buffer":          {"SUBSCRIBER_BUFFER": "0"},
		"bad alert sink":       {"ALERT_SINK": "sms"},
		"bad log encoding":     {"LOG_ENCODING": "xml"},
		"zero query timeout":   {"DB_QUERY_TIMEOUT_MS": "0"},
		"negative window":      {"ORDER_RATE_WINDOW_SEC": "-1"},
		"stream without topic": {"ALERT_SINK": "stream", "KAFKA_TOPIC": " "},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
