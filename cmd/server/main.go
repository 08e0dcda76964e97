package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/fuelcast/fuelcast-go/internal/api"
	"github.com/fuelcast/fuelcast-go/internal/artifacts"
	"github.com/fuelcast/fuelcast-go/internal/config"
	"github.com/fuelcast/fuelcast-go/internal/database"
	"github.com/fuelcast/fuelcast-go/internal/features"
	"github.com/fuelcast/fuelcast-go/internal/forecast"
	"github.com/fuelcast/fuelcast-go/internal/logging"
	"github.com/fuelcast/fuelcast-go/internal/middleware"
	"github.com/fuelcast/fuelcast-go/internal/mltrainer"
	"github.com/fuelcast/fuelcast-go/internal/registry"
	"github.com/fuelcast/fuelcast-go/internal/services"
	"github.com/fuelcast/fuelcast-go/internal/telemetry"
	"github.com/fuelcast/fuelcast-go/internal/training"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(cfg.LogLevel)

	tracing, err := telemetry.Init(telemetry.Config{
		Enabled:     cfg.Environment != "test",
		Environment: cfg.Environment,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("Failed to shut down telemetry")
		}
	}()

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redis.Close()

	trainer := mltrainer.NewClient(&cfg.Trainer)

	artifactStore, err := artifacts.NewFileStore(cfg.Artifacts.Dir)
	if err != nil {
		return fmt.Errorf("failed to open artifact store: %w", err)
	}

	observations := database.NewObservationRepository(db.Pool)
	featureStore := database.NewFeatureRepository(db.Pool)
	predictionLog := database.NewPredictionLogRepository(db.Pool)
	registryStore := database.NewRegistryStore(db.Pool)

	modelRegistry := registry.New(registryStore, logger)
	builder := features.NewBuilder(cfg.Training.MinTrainingRows, logger)
	pipeline := training.NewOrchestrator(observations, builder, featureStore,
		trainer, artifactStore, modelRegistry, cfg.Training, logger)
	engine := forecast.NewEngine(observations, modelRegistry, artifactStore, cfg.Forecast, logger)
	forecastService := forecast.NewService(engine, predictionLog, redis, cfg.Forecast, logger)
	trendService := services.NewTrendService(observations, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(telemetry.ServiceName))

	api.SetupRoutes(router, api.Dependencies{
		DB:       db,
		Redis:    redis,
		Trainer:  trainer,
		Pipeline: pipeline,
		Catalog:  modelRegistry,
		Forecast: forecastService,
		Data:     observations,
		Trend:    trendService,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      5 * time.Minute, // training requests wait on the trainer
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       15 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"environment": cfg.Environment,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
