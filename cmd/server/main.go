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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/freewheels/service-rides/internal/application"
	"github.com/freewheels/service-rides/internal/auth"
	"github.com/freewheels/service-rides/internal/config"
	"github.com/freewheels/service-rides/internal/database"
	rideDomain "github.com/freewheels/service-rides/internal/domain/ride"
	rideEvents "github.com/freewheels/service-rides/internal/events"
	"github.com/freewheels/service-rides/internal/geo"
	"github.com/freewheels/service-rides/internal/handler"
	"github.com/freewheels/service-rides/internal/health"
	"github.com/freewheels/service-rides/internal/kafka"
	"github.com/freewheels/service-rides/internal/locker"
	"github.com/freewheels/service-rides/internal/logger"
	"github.com/freewheels/service-rides/internal/middleware"
	"github.com/freewheels/service-rides/internal/repository"
	"github.com/freewheels/service-rides/internal/scheduler"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-rides")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-rides",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.RideModel{}, &repository.BookingModel{}, &repository.VehicleModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.URL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.AccessTTL,
		cfg.JWTConfig.RefreshTTL,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize geo index: Redis when configured, in-process otherwise
	var geoIndex geo.Index
	if cfg.RedisConfig.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
		})
		defer func() { _ = redisClient.Close() }()
		geoIndex = geo.NewRedisIndex(redisClient, cfg.RedisConfig.GeoKey)
		log.Info("using redis geo index", zap.String("addr", cfg.RedisConfig.Addr))
	} else {
		geoIndex = geo.NewMemoryIndex()
		log.Info("using in-process geo index")
	}

	// Initialize repositories
	rideRepo := repository.NewGormRideRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	vehicleRepo := repository.NewGormVehicleRepository(db)

	// Initialize application services
	locks := locker.NewKeyedMutex()
	fareSuggester := rideDomain.NewStandardFareSuggester()

	rideService := application.NewRideService(
		rideRepo,
		bookingRepo,
		vehicleRepo,
		geoIndex,
		locks,
		fareSuggester,
		kafkaProducer,
		log,
	)
	bookingService := application.NewBookingService(
		bookingRepo,
		rideRepo,
		rideService,
		kafkaProducer,
		log,
	)
	searchService := application.NewSearchService(rideRepo, geoIndex, log)
	vehicleService := application.NewVehicleService(vehicleRepo, log)

	// Repopulate the geo index from the ride store
	if err := rideService.RebuildGeoIndex(context.Background()); err != nil {
		log.Error("failed to rebuild geo index", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the completion sweeper in a goroutine
	sweeper := scheduler.NewCompletionSweeper(rideService, bookingService, cfg.SweepInterval, log)
	go sweeper.Run(ctx)

	// Start the user event consumer in a goroutine
	groupID := cfg.KafkaConfig.GroupPrefix + "rides-service"
	userConsumer := rideEvents.NewUserEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		bookingService,
		log,
	)
	defer func() { _ = userConsumer.Close() }()

	go func() {
		log.Info("starting user event consumer")
		if err := userConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("user event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	rideHandler := handler.NewRideHandler(rideService, bookingService, searchService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService)
	adminHandler := handler.NewAdminHandler(rideService, bookingService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check and metrics routes
	healthHandler := health.NewHandler(db, "service-rides")
	healthHandler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register routes
	rideHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	vehicleHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-rides...")

	// Cancel the sweeper and consumer contexts
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-rides stopped")
}
