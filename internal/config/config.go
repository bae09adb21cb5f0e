package config

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/aqarhub/property-service/internal/platform/logger"
)

// Config holds all configuration for the service.
type Config struct {
	ServiceName           string `mapstructure:"SERVICE_NAME"`
	HTTPPort              string `mapstructure:"HTTP_PORT"`
	MongoURI              string `mapstructure:"MONGO_URI"`
	MongoDatabase         string `mapstructure:"MONGO_DATABASE"`
	NATSURL               string `mapstructure:"NATS_URL"`
	RedisAddress          string `mapstructure:"REDIS_ADDRESS"`
	MinIOEndpoint         string `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey        string `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey        string `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket           string `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL           bool   `mapstructure:"MINIO_USE_SSL"`
	ScratchDir            string `mapstructure:"SCRATCH_DIR"`
	UploadTimeoutSeconds  int    `mapstructure:"UPLOAD_TIMEOUT_SECONDS"`
	JWTSecret             string `mapstructure:"JWT_SECRET"`
	PrometheusMetricsPort string `mapstructure:"PROMETHEUS_METRICS_PORT"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	LogFormat             string `mapstructure:"LOG_FORMAT"`
	OTELEndpoint          string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SMTPHost              string `mapstructure:"SMTP_HOST"`
	SMTPPort              int    `mapstructure:"SMTP_PORT"`
	SMTPEmail             string `mapstructure:"SMTP_EMAIL"`
	SMTPPassword          string `mapstructure:"SMTP_PASSWORD"`
}

// LoadConfig reads configuration from environment variables and/or .env file.
func LoadConfig(appLogger *logger.Logger) (*Config, error) {
	viper.SetDefault("SERVICE_NAME", "property-service")
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "aqarhub")
	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("REDIS_ADDRESS", "localhost:6379")
	viper.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	viper.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	viper.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	viper.SetDefault("MINIO_BUCKET", "property-images")
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("SCRATCH_DIR", "images")
	viper.SetDefault("UPLOAD_TIMEOUT_SECONDS", 30)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("PROMETHEUS_METRICS_PORT", "9094")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	viper.SetDefault("SMTP_HOST", "smtp.gmail.com")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_EMAIL", "")
	viper.SetDefault("SMTP_PASSWORD", "")

	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		appLogger.Error("Failed to unmarshal configuration", zap.Error(err))
		return nil, err
	}

	if cfg.JWTSecret == "" {
		appLogger.Fatal("JWT_SECRET is not set. This is required for security.")
	}
	if cfg.MongoURI == "" {
		appLogger.Fatal("MONGO_URI is not set. This is required.")
	}
	if cfg.MinIOEndpoint == "" {
		appLogger.Fatal("MINIO_ENDPOINT is not set. This is required.")
	}

	appLogger.Debug("Configuration loaded",
		zap.String("service_name", cfg.ServiceName),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("mongo_database", cfg.MongoDatabase),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("minio_bucket", cfg.MinIOBucket),
		zap.String("scratch_dir", cfg.ScratchDir),
		zap.Int("upload_timeout_seconds", cfg.UploadTimeoutSeconds),
		zap.String("prometheus_port", cfg.PrometheusMetricsPort),
	)

	return &cfg, nil
}
