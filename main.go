// Package main provides the main entry point for the Tarifario revenue management service
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/hotelops/tarifario/app/handlers"
	"github.com/hotelops/tarifario/app/middleware"
	"github.com/hotelops/tarifario/app/router"
	"github.com/hotelops/tarifario/app/scheduler"
	"github.com/hotelops/tarifario/app/services"
	businessflow "github.com/hotelops/tarifario/business_flow"
	"github.com/hotelops/tarifario/config"
	"github.com/hotelops/tarifario/repository"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting Tarifario application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Setup graceful shutdown
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging routes the standard logger to a size-rotated file when file
// output is configured. Stdout is always kept for container log collection.
func setupLogging(cfg config.LoggingConfig) {
	if cfg.Output != "file" || cfg.FilePath == "" {
		return
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotated))
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if client == nil {
		return cancel
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	cancel := startCacheHealthMonitor(context.Background(), rc, cfg.Cache.CleanupInterval)
	stopFuncs = append(stopFuncs, cancel)

	// Initialize repositories
	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewRawBookingRepository(db)
	stayRepo := repository.NewRawStayRepository(db)
	occupancyRepo := repository.NewDailyOccupancyRepository(db)
	revenueRepo := repository.NewDailyRevenueRepository(db)
	summaryRepo := repository.NewHistoricalSummaryRepository(db)
	forecastRepo := repository.NewForecastRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	recommendationRepo := repository.NewRecommendationRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	runRepo := repository.NewPipelineRunRepository(db)

	// Initialize token service
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		7*24*time.Hour, // refresh token TTL
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		false, // useRSAKeys
		"",
		"",
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Initialize flows
	runLocks := businessflow.NewRunLockManager(rc, &cfg.Cache)

	aggregationFlow := businessflow.NewAggregationFlow(
		bookingRepo,
		stayRepo,
		roomRepo,
		occupancyRepo,
		revenueRepo,
		summaryRepo,
		db,
	)

	forecastFlow := businessflow.NewForecastFlow(
		occupancyRepo,
		revenueRepo,
		forecastRepo,
		cfg.Forecasting,
	)

	ruleFlow := businessflow.NewRuleFlow(ruleRepo, cfg.Pricing)

	recommendationFlow := businessflow.NewRecommendationFlow(recommendationRepo, db)

	orchestratorFlow := businessflow.NewOrchestratorFlow(
		aggregationFlow,
		forecastFlow,
		roomRepo,
		channelRepo,
		ruleRepo,
		forecastRepo,
		recommendationRepo,
		runRepo,
		runLocks,
		cfg.Hotel,
		cfg.Pricing,
		db,
	)

	exportFlow := businessflow.NewExportFlow(recommendationRepo, cfg.Export, cfg.Hotel, db)

	kpiFlow := businessflow.NewKPIFlow(occupancyRepo, revenueRepo, rc, &cfg.Cache)

	// Seed the default rule set on first boot
	if cfg.Pricing.SeedDefaultRules {
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := ruleFlow.SeedDefaultRules(seedCtx); err != nil {
			seedCancel()
			return nil, fmt.Errorf("failed to seed default rules: %w", err)
		}
		seedCancel()
	}

	// Initialize handlers
	pipelineHandler := handlers.NewPipelineHandler(orchestratorFlow)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationFlow)
	ruleHandler := handlers.NewRuleHandler(ruleFlow)
	forecastHandler := handlers.NewForecastHandler(forecastFlow)
	kpiHandler := handlers.NewKPIHandler(kpiFlow)
	exportHandler := handlers.NewExportHandler(exportFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(
		cfg,
		pipelineHandler,
		recommendationHandler,
		ruleHandler,
		forecastHandler,
		kpiHandler,
		exportHandler,
		authMiddleware,
	)

	if cfg.Scheduler.Enabled {
		sched := scheduler.NewPipelineScheduler(orchestratorFlow, cfg.Scheduler)
		stopScheduler := sched.Start(context.Background())
		stopFuncs = append(stopFuncs, stopScheduler)
	}

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
