package config

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel      zapcore.Level
	EZLogger      EZLoggerConfig   `mapstructure:"ezlogger"`
	Correction    CorrectionConfig `mapstructure:"correction"`
	Retry         RetryConfig      `mapstructure:"retry"`
	MQTT          MQTTConfig       `mapstructure:"mqtt"`
	Influx        InfluxConfig     `mapstructure:"influx"`
	MonitorConfig MonitorConfig    `mapstructure:"monitor"`
	Simulator     SimulatorConfig  `mapstructure:"simulator"`
	Port          uint             `mapstructure:"port"`
	HttpLog       bool             `mapstructure:"http_log"`
}

type EZLoggerConfig struct {
	Host           string
	Port           uint
	TimeoutMillis  uint32 `mapstructure:"timeout_millis"`
	StrictChecksum bool   `mapstructure:"strict_checksum"`
	DeviceName     string `mapstructure:"device_name"`
}

type CorrectionConfig struct {
	Backend       string
	Path          string
	MaxItems      int    `mapstructure:"max_items"`
	MaxAgeSeconds uint32 `mapstructure:"max_age_seconds"`
}

type RetryConfig struct {
	MaxAttempts int    `mapstructure:"max_attempts"`
	DelayMillis uint32 `mapstructure:"delay_millis"`
}

type MonitorConfig struct {
	PollIntervalMillis uint32 `mapstructure:"poll_interval_millis"`
}

type MQTTConfig struct {
	Enable            bool
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

type InfluxConfig struct {
	Enable bool
	URL    string `mapstructure:"url"`
	Token  string
	Org    string
	Bucket string
}

type SimulatorConfig struct {
	Port uint
}

func (c EZLoggerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

func (c CorrectionConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeSeconds) * time.Second
}

func (c RetryConfig) Delay() time.Duration {
	return time.Duration(c.DelayMillis) * time.Millisecond
}

func (c MonitorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.MQTT.Username != "" {
		c.MQTT.Username = "*redacted*"
	}
	if c.MQTT.Password != "" {
		c.MQTT.Password = "*redacted*"
	}
	if c.Influx.Token != "" {
		c.Influx.Token = "*redacted*"
	}
	return c
}
