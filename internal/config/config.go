package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends for cart and review state
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Review persistence modes
const (
	ReviewsLocal  = "local"
	ReviewsRemote = "remote"
)

// Event transports
const (
	EventsNATS  = "nats"
	EventsKafka = "kafka"
)

// Config holds all configuration for the application
type Config struct {
	Env      string
	Server   ServerConfig
	Catalog  CatalogConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Kafka    KafkaConfig
	Events   EventsConfig
	Cache    CacheConfig
	Reviews  ReviewsConfig
	Auth     AuthConfig
	Session  SessionConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// CatalogConfig holds the remote product catalog API settings
type CatalogConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StorageConfig selects where session state is persisted
type StorageConfig struct {
	Backend string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers []string
}

// EventsConfig selects the event transport
type EventsConfig struct {
	Driver string
}

// CacheConfig holds caching TTL configuration
type CacheConfig struct {
	ProductListTTL   time.Duration
	ProductTTL       time.Duration
	RatingSummaryTTL time.Duration
}

// ReviewsConfig selects how reviews are persisted
type ReviewsConfig struct {
	Mode string
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string
}

// SessionConfig holds shopper session lifetime settings
type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// Load reads configuration from environment variables and returns a Config struct.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080")

	viper.SetDefault("CATALOG_API_URL", "https://perfume-backend-api.onrender.com/api")
	viper.SetDefault("CATALOG_TIMEOUT", "10s")

	viper.SetDefault("STORAGE_BACKEND", StorageMemory)

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "storefront")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("EVENTS_DRIVER", EventsNATS)

	viper.SetDefault("CACHE_TTL_PRODUCT_LIST", "60s")
	viper.SetDefault("CACHE_TTL_PRODUCT", "300s")
	viper.SetDefault("CACHE_TTL_RATING_SUMMARY", "300s")

	viper.SetDefault("REVIEWS_MODE", ReviewsLocal)
	viper.SetDefault("AUTH_JWT_SECRET", "change-me")

	viper.SetDefault("SESSION_IDLE_TTL", "30m")
	viper.SetDefault("SESSION_SWEEP_INTERVAL", "1m")

	readTimeout, err := time.ParseDuration(viper.GetString("SERVER_READ_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(viper.GetString("SERVER_WRITE_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := time.ParseDuration(viper.GetString("SERVER_SHUTDOWN_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}

	catalogTimeout, err := time.ParseDuration(viper.GetString("CATALOG_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid CATALOG_TIMEOUT: %w", err)
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	productListTTL, err := time.ParseDuration(viper.GetString("CACHE_TTL_PRODUCT_LIST"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_PRODUCT_LIST: %w", err)
	}

	productTTL, err := time.ParseDuration(viper.GetString("CACHE_TTL_PRODUCT"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_PRODUCT: %w", err)
	}

	ratingSummaryTTL, err := time.ParseDuration(viper.GetString("CACHE_TTL_RATING_SUMMARY"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_RATING_SUMMARY: %w", err)
	}

	sessionIdleTTL, err := time.ParseDuration(viper.GetString("SESSION_IDLE_TTL"))
	if err != nil || sessionIdleTTL <= 0 {
		return nil, fmt.Errorf("invalid SESSION_IDLE_TTL: %q", viper.GetString("SESSION_IDLE_TTL"))
	}

	sessionSweepInterval, err := time.ParseDuration(viper.GetString("SESSION_SWEEP_INTERVAL"))
	if err != nil || sessionSweepInterval <= 0 {
		return nil, fmt.Errorf("invalid SESSION_SWEEP_INTERVAL: %q", viper.GetString("SESSION_SWEEP_INTERVAL"))
	}

	storageBackend := strings.ToLower(viper.GetString("STORAGE_BACKEND"))
	switch storageBackend {
	case StorageMemory, StorageRedis, StoragePostgres:
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND: %q", storageBackend)
	}

	reviewsMode := strings.ToLower(viper.GetString("REVIEWS_MODE"))
	if reviewsMode != ReviewsLocal && reviewsMode != ReviewsRemote {
		return nil, fmt.Errorf("invalid REVIEWS_MODE: %q", reviewsMode)
	}

	eventsDriver := strings.ToLower(viper.GetString("EVENTS_DRIVER"))
	if eventsDriver != EventsNATS && eventsDriver != EventsKafka {
		return nil, fmt.Errorf("invalid EVENTS_DRIVER: %q", eventsDriver)
	}

	config := &Config{
		Env: viper.GetString("ENV"),
		Server: ServerConfig{
			Port:            viper.GetString("SERVER_PORT"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			AllowedOrigins:  splitCSV(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Catalog: CatalogConfig{
			BaseURL: strings.TrimRight(viper.GetString("CATALOG_API_URL"), "/"),
			Timeout: catalogTimeout,
		},
		Storage: StorageConfig{
			Backend: storageBackend,
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		NATS: NATSConfig{
			URL: viper.GetString("NATS_URL"),
		},
		Kafka: KafkaConfig{
			Brokers: splitCSV(viper.GetString("KAFKA_BROKERS")),
		},
		Events: EventsConfig{
			Driver: eventsDriver,
		},
		Cache: CacheConfig{
			ProductListTTL:   productListTTL,
			ProductTTL:       productTTL,
			RatingSummaryTTL: ratingSummaryTTL,
		},
		Reviews: ReviewsConfig{
			Mode: reviewsMode,
		},
		Auth: AuthConfig{
			JWTSecret: viper.GetString("AUTH_JWT_SECRET"),
		},
		Session: SessionConfig{
			IdleTTL:       sessionIdleTTL,
			SweepInterval: sessionSweepInterval,
		},
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
