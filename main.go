package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/attendance-service/internal/cache"
	"github.com/SAP-F-2025/attendance-service/internal/config"
	"github.com/SAP-F-2025/attendance-service/internal/events"
	"github.com/SAP-F-2025/attendance-service/internal/handlers"
	"github.com/SAP-F-2025/attendance-service/internal/realtime"
	"github.com/SAP-F-2025/attendance-service/internal/repositories"
	"github.com/SAP-F-2025/attendance-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/attendance-service/internal/repositories/local"
	"github.com/SAP-F-2025/attendance-service/internal/repositories/memory"
	"github.com/SAP-F-2025/attendance-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/attendance-service/internal/seed"
	"github.com/SAP-F-2025/attendance-service/internal/services"
	"github.com/SAP-F-2025/attendance-service/internal/utils"
	"github.com/SAP-F-2025/attendance-service/internal/validator"
	"github.com/SAP-F-2025/attendance-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})).With("service", cfg.ServiceName)
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	// Initialize storage
	var db *gorm.DB
	var repoManager repositories.RepositoryManager
	switch cfg.Database.Driver {
	case config.DBDriverMemory:
		repoManager = memory.NewRepositoryManager()
	default:
		db, err = pkg.InitDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		repoManager = postgres.NewRepositoryManager(postgres.RepositoryConfig{
			DB:          db,
			RedisClient: redisClient,
		})
	}
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	// Initialize identity provider
	denylist := cache.NewTokenDenylist(redisClient)
	var identity repositories.IdentityProvider
	switch cfg.Auth.Provider {
	case config.AuthProviderLocal:
		identity = local.NewIdentityLocal(cfg.Auth, repo.User(), denylist)
	default:
		identity = casdoor.NewIdentityCasdoor(cfg.Casdoor, repo.User(), denylist, slogLogger)
	}

	// Initialize event bus and live feed
	bus, err := events.NewBus(cfg.Kafka, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event bus: %v", err)
	}
	publisher := events.NewWatermillPublisher(bus, slogLogger)

	runCtx, stopRun := context.WithCancel(context.Background())
	hub := realtime.NewHub(slogLogger)
	go hub.Run(runCtx)
	if err := events.Consume(runCtx, bus, hub.HandleEvent, slogLogger); err != nil {
		log.Fatalf("Failed to subscribe live feed: %v", err)
	}

	// Initialize services
	serviceManager := services.NewServiceManager(repo, identity, publisher, slogLogger, validator.New(), services.ServiceManagerConfig{
		ServiceName:            cfg.ServiceName,
		LowAttendanceThreshold: cfg.Attendance.LowAttendanceThreshold,
		DemoMode:               cfg.SeedDemoData,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	if cfg.SeedDemoData {
		if err := seed.Load(context.Background(), repo, slogLogger); err != nil {
			log.Fatalf("Failed to load demo data: %v", err)
		}
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, hub, logger, cfg.ServiceName)
	if reporter, ok := repo.(handlers.CacheReporter); ok {
		handlerManager.SetCacheReporter(reporter)
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg.CORSAllowedOrigins...)
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"storage", cfg.Database.Driver,
			"identity", identity.Name(),
			"event_backend", bus.Backend,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Stop the live feed and event consumer
	stopRun()

	// Shutdown services
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	if err := bus.Close(); err != nil {
		logger.Error("Failed to close event bus", "error", err)
	}

	// Closes the database connection
	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown repositories", "error", err)
	}

	// The postgres repository owns Redis; the memory backend leaves it to us
	if redisClient != nil && cfg.Database.Driver == config.DBDriverMemory {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
