package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/attempt-grading-service/internal/cache"
	"github.com/SAP-F-2025/attempt-grading-service/internal/config"
	"github.com/SAP-F-2025/attempt-grading-service/internal/events"
	"github.com/SAP-F-2025/attempt-grading-service/internal/fetcher"
	"github.com/SAP-F-2025/attempt-grading-service/internal/grading"
	"github.com/SAP-F-2025/attempt-grading-service/internal/handlers"
	"github.com/SAP-F-2025/attempt-grading-service/internal/localization"
	"github.com/SAP-F-2025/attempt-grading-service/internal/lti"
	"github.com/SAP-F-2025/attempt-grading-service/internal/metrics"
	"github.com/SAP-F-2025/attempt-grading-service/internal/oracle"
	"github.com/SAP-F-2025/attempt-grading-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/attempt-grading-service/internal/services"
	"github.com/SAP-F-2025/attempt-grading-service/internal/storage"
	"github.com/SAP-F-2025/attempt-grading-service/internal/utils"
	"github.com/SAP-F-2025/attempt-grading-service/internal/validator"
	"github.com/SAP-F-2025/attempt-grading-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := pkg.NewLogger(cfg)
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := pkg.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Failed to initialize Redis, caching disabled", "error", err)
			redisClient = nil
		}
	}
	cacheManager := cache.NewCacheManager(redisClient, cfg.Grading.CacheTTL)

	// Initialize repositories
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{
		DB:           db,
		RedisClient:  redisClient,
		CacheManager: cacheManager,
	})

	publisher, err := events.NewEventPublisher(cfg.Kafka, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	files, err := storage.NewMinioReader(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	var gradingOracle grading.Oracle
	if cfg.Oracle.APIKey != "" {
		gradingOracle = oracle.NewClient(cfg.Oracle, slogLogger)
	} else {
		logger.Warn("No grading oracle configured, free-form questions cannot be graded")
	}

	var recorder services.MetricsRecorder
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		recorder = m
	}

	// Initialize services
	serviceManager := services.NewServiceManager(services.ServiceManagerDeps{
		Repo:      repo,
		Cache:     cacheManager,
		Publisher: publisher,
		Oracle:    gradingOracle,
		Fetcher:   fetcher.New(cfg.Fetcher, slogLogger),
		Files:     files,
		Grades:    lti.NewGradeClient(cfg.LTI, slogLogger),
		Localizer: localization.MustLoadCatalog(),
		Tokens:    localization.NewBooleanTokens(),
		Metrics:   recorder,
		Validator: validator.New(),
		Logger:    slogLogger,
	}, services.ServiceManagerConfig{
		Grading: services.OrchestratorConfig{
			Concurrency: cfg.Grading.Concurrency,
			Timeout:     cfg.Grading.Timeout,
		},
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, m)

	auth := handlers.NewCasdoorAuthMiddleware(cfg.Casdoor, cfg.LTI)
	limiter := handlers.NewIPRateLimiter(cfg.RateLimit, cfg.RateLimitEvery)
	handlers.NewHandlerManager(serviceManager, logger, auth.AuthMiddleware(), limiter, m).SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Closes the publisher, the database and Redis
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	logger.Info("Server exited")
}
