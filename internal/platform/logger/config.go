package logger

import "os"

type LoggerConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "console"
}

func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
