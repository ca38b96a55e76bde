package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session storage drivers
const (
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
	StorageRedis    = "redis"
	StorageMemory   = "memory"
)

const defaultStorageTimeout = 5 * time.Second

// Config holds application configuration.
// It is loaded once at process start and passed explicitly to constructors.
type Config struct {
	Port           string
	AppURL         string
	Environment    string // development, staging, production
	LogLevel       string
	AllowedOrigins string

	SessionStorage string
	StorageTimeout time.Duration
	TenantID       string

	DatabaseURL    string
	MigrateOnStart bool

	MongoURI      string
	MongoDatabase string

	Redis RedisConfig

	ShopifyAPIKey    string
	ShopifyAPISecret string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Address returns host:port
func (c RedisConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load reads configuration from a .env file, if present, and the environment.
// The returned warning is non-empty when no .env file was found.
func Load() (*Config, string, error) {
	warning := ""
	if err := godotenv.Load(); err != nil {
		warning = ".env file not found, using environment variables"
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, warning, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, warning, nil
}

// FromEnv builds a Config from the process environment without validating it
func FromEnv() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		AppURL:         getEnv("APP_URL", "http://localhost:8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),

		SessionStorage: strings.ToLower(getEnv("SESSION_STORAGE", StoragePostgres)),
		StorageTimeout: getDuration("STORAGE_TIMEOUT", defaultStorageTimeout),
		TenantID:       getEnv("TENANT_ID", ""),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getBool("MIGRATE_ON_START", true),

		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "shopify"),

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},

		ShopifyAPIKey:    getEnv("SHOPIFY_API_KEY", ""),
		ShopifyAPISecret: getEnv("SHOPIFY_API_SECRET", ""),
	}
}

// Validate checks configuration for correctness
func (c *Config) Validate() error {
	switch c.SessionStorage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s session storage", StoragePostgres)
		}
	case StorageMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("MONGODB_URI and MONGODB_DATABASE are required for %s session storage", StorageMongo)
		}
	case StorageRedis:
		if c.Redis.Host == "" {
			return fmt.Errorf("REDIS_HOST is required for %s session storage", StorageRedis)
		}
	case StorageMemory:
		if c.IsProduction() {
			return fmt.Errorf("%s session storage is not allowed in production", StorageMemory)
		}
	default:
		return fmt.Errorf("unknown SESSION_STORAGE %q", c.SessionStorage)
	}

	if c.StorageTimeout <= 0 {
		return fmt.Errorf("STORAGE_TIMEOUT must be positive")
	}

	if c.IsProduction() && c.ShopifyAPISecret == "" {
		return fmt.Errorf("SHOPIFY_API_SECRET must be set in production")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// Origins splits ALLOWED_ORIGINS on commas
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
