package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const ENV_PREFIX = "ezlogger"

// Load reads defaults, an optional YAML file and EZLOGGER_* environment
// variables, in increasing priority. An empty cfgFile falls back to
// CONFIG_FILE.
func Load(cfgFile string) (*Config, error) {

	// alias PORT => EZLOGGER_PORT
	if port := os.Getenv("PORT"); port != "" && os.Getenv("EZLOGGER_PORT") == "" {
		os.Setenv("EZLOGGER_PORT", port)
	}

	v := viper.New()
	setConfigDefaults(v)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = os.Getenv("CONFIG_FILE")
	}
	// if defined, load config from yaml file
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", cfgFile, err)
		}
		slog.Info("Using config", "file", cfgFile)
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.LogLevel = ParseLogLevel(v.GetString("log_level"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func ParseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

func (cfg *Config) validate() error {
	// check and fix base topic
	baseTopic, err := CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// check bounds
	if cfg.EZLogger.Host == "" {
		return errors.New("config param ezlogger.host is required")
	}
	if cfg.EZLogger.Port == 0 || cfg.EZLogger.Port > 65535 {
		return errors.New("config param ezlogger.port should be in 1..65535")
	}
	if cfg.EZLogger.TimeoutMillis < 100 {
		return errors.New("config param ezlogger.timeout_millis should be >= 100")
	}
	if cfg.Retry.MaxAttempts < 1 {
		return errors.New("config param retry.max_attempts should be >= 1")
	}
	if cfg.MonitorConfig.PollIntervalMillis < 1000 {
		return errors.New("config param monitor.poll_interval_millis should be >= 1000")
	}
	switch cfg.Correction.Backend {
	case "bolt", "sqlite":
	default:
		return fmt.Errorf("config param correction.backend should be bolt or sqlite, got %q", cfg.Correction.Backend)
	}
	if cfg.Correction.MaxItems > 0 && cfg.Correction.Path == "" {
		return errors.New("config param correction.path is required when correction.max_items > 0")
	}
	if cfg.Influx.Enable && (cfg.Influx.URL == "" || cfg.Influx.Bucket == "") {
		return errors.New("config params influx.url and influx.bucket are required when influx.enable is set")
	}
	return nil
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("port", 8080)
	v.SetDefault("http_log", false)
	v.SetDefault("ezlogger.host", "127.0.0.1")
	v.SetDefault("ezlogger.port", 1234)
	v.SetDefault("ezlogger.timeout_millis", 10000)
	v.SetDefault("ezlogger.strict_checksum", false)
	v.SetDefault("ezlogger.device_name", "ezlogger")
	v.SetDefault("correction.backend", "bolt")
	v.SetDefault("correction.path", "ezlogger_cache")
	v.SetDefault("correction.max_items", 10)
	v.SetDefault("correction.max_age_seconds", 1200)
	v.SetDefault("retry.max_attempts", 10)
	v.SetDefault("retry.delay_millis", 5000)
	v.SetDefault("monitor.poll_interval_millis", 10000)
	v.SetDefault("mqtt.enable", true)
	v.SetDefault("mqtt.host", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.base_topic", "ezlogger")
	v.SetDefault("mqtt.ha_discovery_enable", false)
	v.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	v.SetDefault("influx.enable", false)
	v.SetDefault("influx.url", "")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "")
	v.SetDefault("influx.bucket", "")
	v.SetDefault("simulator.port", 8888)
}
