package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {

	assert := assert.New(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(zap.WarnLevel, cfg.LogLevel)
	assert.Equal(uint(8080), cfg.Port)
	assert.Equal("127.0.0.1", cfg.EZLogger.Host)
	assert.Equal(uint(1234), cfg.EZLogger.Port)
	assert.Equal(10*time.Second, cfg.EZLogger.Timeout())
	assert.False(cfg.EZLogger.StrictChecksum)
	assert.Equal("bolt", cfg.Correction.Backend)
	assert.Equal(10, cfg.Correction.MaxItems)
	assert.Equal(1200*time.Second, cfg.Correction.MaxAge())
	assert.Equal(10, cfg.Retry.MaxAttempts)
	assert.Equal(5*time.Second, cfg.Retry.Delay())
	assert.Equal(10*time.Second, cfg.MonitorConfig.PollInterval())
	assert.True(cfg.MQTT.Enable)
	assert.Equal("ezlogger", cfg.MQTT.BaseTopic)
	assert.Equal("homeassistant", cfg.MQTT.HADiscoveryTopic)
	assert.False(cfg.Influx.Enable)
	assert.Equal(uint(8888), cfg.Simulator.Port)
}

func TestLoadEnvOverrides(t *testing.T) {

	assert := assert.New(t)

	t.Setenv("EZLOGGER_EZLOGGER_HOST", "192.168.1.50")
	t.Setenv("EZLOGGER_CORRECTION_MAX_ITEMS", "0")
	t.Setenv("EZLOGGER_MQTT_BASE_TOPIC", "Solar_Roof")
	t.Setenv("EZLOGGER_LOG_LEVEL", "debug")
	t.Setenv("EZLOGGER_PORT", "")
	t.Setenv("PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal("192.168.1.50", cfg.EZLogger.Host)
	assert.Equal(0, cfg.Correction.MaxItems)
	assert.Equal("solar_roof", cfg.MQTT.BaseTopic)
	assert.Equal(zap.DebugLevel, cfg.LogLevel)
	assert.Equal(uint(9090), cfg.Port)
}

func TestLoadFile(t *testing.T) {

	assert := assert.New(t)

	file := filepath.Join(t.TempDir(), "config.yaml")
	content := `
ezlogger:
  host: ezlogger.lan
  strict_checksum: true
correction:
  backend: sqlite
  path: /tmp/ezlogger.db
retry:
  max_attempts: 3
influx:
  enable: true
  url: http://localhost:8086
  bucket: solar
mqtt:
  password: secret
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal("ezlogger.lan", cfg.EZLogger.Host)
	assert.True(cfg.EZLogger.StrictChecksum)
	assert.Equal("sqlite", cfg.Correction.Backend)
	assert.Equal(3, cfg.Retry.MaxAttempts)
	assert.True(cfg.Influx.Enable)
	assert.Equal("solar", cfg.Influx.Bucket)

	redacted := cfg.Redacted()
	assert.Equal("*redacted*", redacted.MQTT.Password)
	assert.Empty(redacted.MQTT.Username)
	assert.Equal("secret", cfg.MQTT.Password)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {

	cases := map[string]string{
		"EZLOGGER_MONITOR_POLL_INTERVAL_MILLIS": "500",
		"EZLOGGER_RETRY_MAX_ATTEMPTS":           "0",
		"EZLOGGER_CORRECTION_BACKEND":           "redis",
		"EZLOGGER_MQTT_BASE_TOPIC":              "a/b",
		"EZLOGGER_INFLUX_ENABLE":                "true",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestCheckMQTTTopic(t *testing.T) {

	assert := assert.New(t)

	topic, err := CheckMQTTTopic("EZLogger_1")
	assert.NoError(err)
	assert.Equal("ezlogger_1", topic)

	_, err = CheckMQTTTopic("ez logger")
	assert.Error(err)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, ParseLogLevel("trace"))
	assert.Equal(t, zap.ErrorLevel, ParseLogLevel("ERROR"))
	assert.Equal(t, zap.InfoLevel, ParseLogLevel("verbose"))
}
