package util

import (
	"github.com/berfenger/ezlogger2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		EZLogger: config.EZLoggerConfig{
			Host:          "127.0.0.1",
			Port:          8888,
			TimeoutMillis: 1000,
			DeviceName:    "ezlogger",
		},
		Correction: config.CorrectionConfig{
			Backend:       "bolt",
			MaxItems:      10,
			MaxAgeSeconds: 1200,
		},
		Retry: config.RetryConfig{
			MaxAttempts: 2,
			DelayMillis: 10,
		},
		MQTT: config.MQTTConfig{
			Enable:           true,
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "ezlogger",
			HADiscoveryTopic: "homeassistant",
		},
		MonitorConfig: config.MonitorConfig{
			PollIntervalMillis: 1000,
		},
		Simulator: config.SimulatorConfig{
			Port: 8888,
		},
		Port: 8080,
	}
}
