package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mystiq-app/waitlist-backend/internal/config"
	"github.com/mystiq-app/waitlist-backend/internal/database"
	"github.com/mystiq-app/waitlist-backend/internal/handlers"
	"github.com/mystiq-app/waitlist-backend/internal/middleware"
	"github.com/mystiq-app/waitlist-backend/internal/repositories"
	"github.com/mystiq-app/waitlist-backend/internal/scheduler"
	"github.com/mystiq-app/waitlist-backend/internal/services"
	"github.com/mystiq-app/waitlist-backend/pkg/logger"
	"github.com/mystiq-app/waitlist-backend/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	appMetrics := metrics.NewMetrics()

	// Open the identity store
	store, snapshotStore, closeStore, err := openStore(cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).WithField("backend", cfg.Waitlist.Backend).Fatal("Failed to open registrant store")
	}
	defer closeStore()

	repo := repositories.NewInstrumentedRepository(store, cfg.Waitlist.Backend, appMetrics)

	// Initialize services
	queueService := services.NewQueueService(repo, appMetrics, appLogger)
	registrationService := services.NewRegistrationService(
		repo,
		queueService,
		appMetrics,
		appLogger,
		cfg.Waitlist.ReferralCodeAttempts,
	)
	adminService := services.NewAdminService(repo, appLogger)
	snapshotService := services.NewSnapshotService(snapshotStore, appLogger)

	// Initialize scheduler
	cronScheduler := scheduler.NewCronScheduler(
		adminService,
		snapshotService,
		appMetrics,
		appLogger,
		cfg.Scheduler.SnapshotSchedule,
		cfg.Scheduler.JobTimeout,
	)
	if err := cronScheduler.Start(); err != nil {
		appLogger.WithError(err).Fatal("Failed to start scheduler")
	}
	defer cronScheduler.Stop()

	adminAuth, err := middleware.NewAdminAuth(cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.PasswordHash, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Invalid admin credentials configuration")
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, appMetrics, appLogger)
	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	go rateLimiter.Run(limiterCtx)

	// Initialize HTTP handlers
	waitlistHandler := handlers.NewWaitlistHandler(registrationService, queueService, appLogger)
	adminHandler := handlers.NewAdminHandler(adminService, appLogger)
	snapshotHandler := handlers.NewSnapshotHandler(snapshotService, appLogger)
	healthHandler := handlers.NewHealthHandler(repo, cfg.Waitlist.Backend, appLogger, version)

	// Setup Gin router
	if cfg.Logger.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(appLogger))
	router.Use(middleware.Recovery(appLogger))
	router.Use(middleware.Security())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.Metrics(appMetrics))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout, appLogger))

	// API routes
	api := router.Group("/api")
	{
		api.POST("/register", rateLimiter.Middleware(), waitlistHandler.Register)
		api.GET("/queue/:email", waitlistHandler.QueueStatus)
		api.GET("/health", healthHandler.Health)
	}

	admin := api.Group("/admin", adminAuth.Middleware())
	{
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/users", adminHandler.ListUsers)
		admin.GET("/user/:email", adminHandler.GetUser)
		admin.PUT("/user/:email/status", adminHandler.UpdateStatus)
		admin.PUT("/users/bulk", adminHandler.Bulk)
		admin.DELETE("/clear", adminHandler.Clear)
		admin.GET("/referrals", adminHandler.Referrals)
		admin.GET("/analytics", adminHandler.Analytics)
		admin.GET("/snapshots", snapshotHandler.History)
		admin.GET("/snapshots/latest", snapshotHandler.Latest)
		admin.GET("/scheduler", func(c *gin.Context) {
			c.JSON(http.StatusOK, cronScheduler.GetSchedulerStatus())
		})
		admin.GET("/rate-limit", func(c *gin.Context) {
			c.JSON(http.StatusOK, rateLimiter.Stats())
		})
	}

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	// Start server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		appLogger.WithFields(logrus.Fields{
			"addr":    serverAddr,
			"backend": cfg.Waitlist.Backend,
			"version": version,
		}).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}

// openStore connects the configured backend for registrants and snapshots.
// The returned func releases its connections.
func openStore(cfg *config.Config, appLogger *logrus.Logger) (
	repositories.RegistrantRepository,
	repositories.SnapshotRepository,
	func(),
	error,
) {
	retention := cfg.Scheduler.SnapshotRetention

	switch cfg.Waitlist.Backend {
	case config.BackendPostgres:
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		appLogger.WithField("host", cfg.Database.Host).Info("Connected to PostgreSQL")
		return repositories.NewPostgresRegistrantRepository(db),
			repositories.NewSnapshotRepository(db),
			func() { db.Close() }, nil

	case config.BackendRedis:
		client, err := database.NewRedisClient(&cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		appLogger.WithField("prefix", cfg.Redis.KeyPrefix).Info("Connected to Redis")
		return repositories.NewRedisRegistrantRepository(client, cfg.Redis.KeyPrefix),
			repositories.NewRedisSnapshotRepository(client, cfg.Redis.KeyPrefix, retention),
			func() { client.Close() }, nil

	case config.BackendMemory:
		appLogger.Warn("Using in-memory registrant store, data is lost on restart")
		return repositories.NewMemoryRegistrantRepository(),
			repositories.NewMemorySnapshotRepository(retention),
			func() {}, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Waitlist.Backend)
}
