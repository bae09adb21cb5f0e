package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/aqarhub/property-service/internal/adapter/http"
	natsAdapter "github.com/aqarhub/property-service/internal/adapter/messaging/nats"
	"github.com/aqarhub/property-service/internal/adapter/repository/cache"
	mongoRepo "github.com/aqarhub/property-service/internal/adapter/repository/mongodb"
	"github.com/aqarhub/property-service/internal/adapter/storage/s3"
	"github.com/aqarhub/property-service/internal/adapter/storage/scratch"

	"github.com/aqarhub/property-service/internal/config"
	"github.com/aqarhub/property-service/internal/mailer"
	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/platform/metrics"
	"github.com/aqarhub/property-service/internal/platform/tracer"
	"github.com/aqarhub/property-service/internal/property/usecase"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const serviceName = "property-service"

func main() {
	// Load .env file (optional, for local development)
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	// 1. Initialize Logger
	appLogger := logger.NewLogger()
	appLogger.Info("Application starting...", zap.String("service_name", serviceName))

	// 2. Load Configuration
	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	appLogger.Info("Configuration loaded successfully",
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_set", cfg.MongoURI != ""),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("prometheus_port", cfg.PrometheusMetricsPort),
	)

	// 3. Initialize OpenTelemetry Tracer
	var tp *sdktrace.TracerProvider
	if cfg.OTELEndpoint != "" {
		tp = tracer.InitTracer(serviceName, cfg.OTELEndpoint, appLogger)
		defer func() {
			appLogger.Info("Shutting down tracer provider...")
			ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := tp.Shutdown(ctxShutdown); err != nil {
				appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
		appLogger.Info("OpenTelemetry Tracer initialized.")
	} else {
		appLogger.Info("OpenTelemetry Tracer not initialized (OTEL_EXPORTER_OTLP_ENDPOINT not set).")
	}

	// 4. Connect to MongoDB
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		appLogger.Info("Disconnecting from MongoDB...")
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	ctxPingMongo, cancelPingMongo := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPingMongo()
	if err = mongoClient.Ping(ctxPingMongo, nil); err != nil {
		appLogger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	appLogger.Info("Successfully connected and pinged MongoDB.")
	db := mongoClient.Database(cfg.MongoDatabase)

	// 5. Initialize Redis
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
	ctxPingRedis, cancelPingRedis := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPingRedis()
	if err := redisClient.Ping(ctxPingRedis).Err(); err != nil {
		appLogger.Fatal("Failed to ping Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Successfully connected and pinged Redis.")

	// 6. Initialize NATS Publisher
	natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger, serviceName)
	if err != nil {
		appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
	}
	defer natsPublisher.Close()
	appLogger.Info("NATS Publisher initialized.")

	// 7. Initialize Storage
	mediaStorage, err := s3.NewS3Storage(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize media storage", zap.Error(err))
	}
	scratchStore, err := scratch.NewStore(cfg.ScratchDir, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize scratch store", zap.Error(err))
	}
	appLogger.Info("Storage initialized.")

	// 8. Initialize Repositories
	propertyRepo, err := mongoRepo.NewPropertyRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize PropertyRepository", zap.Error(err))
	}
	commentRepo, err := mongoRepo.NewCommentRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize CommentRepository", zap.Error(err))
	}
	userRepo := mongoRepo.NewUserRepository(db, appLogger)
	propertyCache := cache.NewPropertyCache(redisClient, appLogger)
	appLogger.Info("Repositories initialized.")

	// 9. Initialize Metrics
	metricsManager := metrics.NewMetricsManager(serviceName)

	// 10. Initialize Usecases
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword)
	uploadTimeout := time.Duration(cfg.UploadTimeoutSeconds) * time.Second

	ingestUC := usecase.NewIngestUsecase(propertyRepo, mediaStorage, scratchStore, propertyCache, userRepo, natsPublisher, smtpMailer, metricsManager, appLogger, uploadTimeout)
	propertyUC := usecase.NewPropertyUsecase(propertyRepo, propertyCache, natsPublisher, metricsManager, appLogger)
	mediaUC := usecase.NewMediaUsecase(propertyRepo, mediaStorage, scratchStore, propertyCache, natsPublisher, metricsManager, appLogger, uploadTimeout)
	cascadeUC := usecase.NewCascadeUsecase(propertyRepo, commentRepo, userRepo, mediaStorage, propertyCache, natsPublisher, metricsManager, appLogger)
	commentUC := usecase.NewCommentUsecase(commentRepo, propertyRepo, appLogger)
	appLogger.Info("Usecases initialized.")

	// 11. Initialize HTTP Handler and Router
	handler := httpAdapter.NewPropertyHandler(ingestUC, propertyUC, mediaUC, cascadeUC, commentUC, scratchStore, scratchStore, appLogger)
	router := httpAdapter.SetupRoutes(handler, cfg.JWTSecret, appLogger)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// 12. Start Prometheus Metrics Server
	if cfg.PrometheusMetricsPort != "" {
		go func() {
			appLogger.Info("Starting Prometheus metrics server", zap.String("port", cfg.PrometheusMetricsPort))
			if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("Prometheus metrics server failed", zap.Error(err))
			}
		}()
	} else {
		appLogger.Info("Prometheus metrics server not started (PROMETHEUS_METRICS_PORT not set).")
	}

	// 13. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown error", zap.Error(err))
	}
	appLogger.Info("HTTP server stopped.")

	appLogger.Info("Application shutting down...")
}
