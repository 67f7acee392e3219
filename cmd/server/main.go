package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-booking-core/internal/cache"
	"github.com/smarttransit/rail-booking-core/internal/config"
	"github.com/smarttransit/rail-booking-core/internal/database"
	"github.com/smarttransit/rail-booking-core/internal/handlers"
	"github.com/smarttransit/rail-booking-core/internal/middleware"
	"github.com/smarttransit/rail-booking-core/internal/services"
	"github.com/smarttransit/rail-booking-core/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting SmartTransit rail booking core")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	location, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		logger.Fatalf("Failed to load timezone: %v", err)
	}

	ctx := context.Background()

	store, db, err := openStore(ctx, cfg, location, logger)
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	health := map[string]handlers.Pinger{"store": store}

	var searchCache services.SearchCache
	if cfg.Redis.URL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, search cache disabled")
		} else {
			defer client.Close()
			searchCache = cache.NewSearchCache(client)
			health["redis"] = redisPinger{client}
			logger.Info("Search cache enabled")
		}
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	seatAllocator := services.NewSeatAllocator(store, logger)
	bookingService := services.NewBookingService(store, seatAllocator, services.BookingConfig{
		RequirePaymentOwner: cfg.Booking.RequirePaymentOwner,
	}, logger)
	searchService := services.NewSearchService(store, searchCache, services.SearchConfig{
		MinTransfer:  cfg.Search.MinTransfer,
		MaxTransfer:  cfg.Search.MaxTransfer,
		MaxFirstLegs: cfg.Search.MaxFirstLegs,
		Parallelism:  cfg.Search.Parallelism,
		CacheTTL:     cfg.Search.CacheTTL,
	}, logger)

	if !cfg.Booking.RequirePaymentOwner {
		logger.Warn("PAYMENT_REQUIRE_OWNER is off: any authenticated user can pay any ticket")
	}

	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	searchHandler := handlers.NewSearchHandler(searchService, location, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", handlers.HealthCheck(version, health))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/search", searchHandler.SearchItineraries)
		v1.GET("/trips/:id/seats", bookingHandler.GetSeatMap)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(jwtService, logger))
		{
			protected.POST("/bookings", bookingHandler.CreateBooking)
			protected.POST("/bookings/transfer", bookingHandler.CreateTransferBooking)

			protected.GET("/tickets", bookingHandler.GetMyTickets)
			protected.GET("/tickets/:id", bookingHandler.GetTicket)
			protected.POST("/tickets/:id/pay", bookingHandler.PayTicket)
			protected.POST("/tickets/:id/cancel", bookingHandler.CancelTicket)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// openStore builds the configured record store. db is nil for the memory store.
func openStore(ctx context.Context, cfg *config.Config, location *time.Location, logger *logrus.Logger) (database.Store, *sqlx.DB, error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory store: data is lost on restart")
		store := database.NewMemoryStore()
		if cfg.Database.SeedFile != "" {
			f, err := os.Open(cfg.Database.SeedFile)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to open seed file: %w", err)
			}
			defer f.Close()

			n, err := store.LoadTrips(f, location)
			if err != nil {
				return nil, nil, err
			}
			logger.WithField("trips", n).Info("Seed trips loaded")
		}
		return store, nil, nil
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("Database schema applied")
	}

	return database.NewPostgresStore(db, location), db, nil
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
