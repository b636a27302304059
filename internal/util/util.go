package util

import (
	"broute2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Serial: config.SerialConfig{
			Device:         "/dev/null",
			RouteBID:       "00112233445566778899AABBCCDDEEFF",
			RouteBPassword: "0123456789AB",
		},
		MQTT: config.MQTTConfig{
			Host: "localhost",
			Port: 1883,
		},
		MonitorConfig: config.MonitorConfig{
			PollIntervalMillis: 5000,
		},
		Port: 8080,
	}
}
