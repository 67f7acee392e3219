package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Itinerary search configuration
	Search SearchConfig

	// Booking configuration
	Booking BookingConfig

	// Redis configuration (search cache)
	Redis RedisConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
	Timezone    string // IANA zone used to interpret search dates
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver             string // postgres or memory
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	AutoMigrate        bool
	SeedFile           string // JSON trip list loaded into the memory store at startup
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// SearchConfig holds itinerary search tuning
type SearchConfig struct {
	MinTransfer  time.Duration
	MaxTransfer  time.Duration
	MaxFirstLegs int
	Parallelism  int
	CacheTTL     time.Duration
}

// BookingConfig holds booking flow switches
type BookingConfig struct {
	// RequirePaymentOwner rejects payment of tickets that belong to another user
	RequirePaymentOwner bool
}

// RedisConfig holds Redis connection settings; an empty URL disables the search cache
type RedisConfig struct {
	URL string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Timezone:    getEnv("TIMEZONE", "UTC"),
		},
		Database: DatabaseConfig{
			Driver:             getEnv("STORE_DRIVER", "postgres"),
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
			AutoMigrate:        getEnvAsBool("DATABASE_AUTO_MIGRATE", false),
			SeedFile:           getEnv("STORE_SEED_FILE", ""),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
		},
		Search: SearchConfig{
			MinTransfer:  time.Duration(getEnvAsInt("ROUTE_MIN_TRANSFER_MINUTES", 20)) * time.Minute,
			MaxTransfer:  time.Duration(getEnvAsInt("ROUTE_MAX_TRANSFER_HOURS", 6)) * time.Hour,
			MaxFirstLegs: getEnvAsInt("ROUTE_MAX_FIRST_LEGS", 200),
			Parallelism:  getEnvAsInt("ROUTE_SEARCH_PARALLELISM", 8),
			CacheTTL:     time.Duration(getEnvAsInt("SEARCH_CACHE_TTL_SECONDS", 30)) * time.Second,
		},
		Booking: BookingConfig{
			RequirePaymentOwner: getEnvAsBool("PAYMENT_REQUIRE_OWNER", false),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid STORE_DRIVER: %s (must be 'postgres' or 'memory')", c.Database.Driver)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Server.Timezone, err)
	}

	if c.Search.MinTransfer < 0 {
		return fmt.Errorf("ROUTE_MIN_TRANSFER_MINUTES must not be negative")
	}
	if c.Search.MaxTransfer < c.Search.MinTransfer {
		return fmt.Errorf("ROUTE_MAX_TRANSFER_HOURS must not be shorter than the minimum transfer")
	}
	if c.Search.MaxFirstLegs <= 0 {
		return fmt.Errorf("ROUTE_MAX_FIRST_LEGS must be positive")
	}
	if c.Search.Parallelism <= 0 {
		return fmt.Errorf("ROUTE_SEARCH_PARALLELISM must be positive")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
