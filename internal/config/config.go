package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	defaultEnv               = "development"
	defaultHTTPHost          = "0.0.0.0"
	defaultHTTPPort          = 8080
	defaultRedisAddr         = "localhost:6379"
	defaultRedisDB           = 0
	defaultCacheTTLSeconds   = 30
	defaultBondsExchange     = "bonds.changed"
	defaultCashflowsExchange = "cashflows.computed"
	defaultPrefetch          = 10
	defaultBatchSize         = 50
	defaultBatchTimeout      = 2 * time.Second
	defaultEngineWorkers     = 4
)

// DefaultLogLevel is used until the configured level is known.
const DefaultLogLevel = logrus.InfoLevel

// Config keeps the runtime configuration for the service.
type Config struct {
	Env      string
	LogLevel logrus.Level
	HTTP     HTTPConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Cache    CacheConfig
	RabbitMQ RabbitMQConfig
	Engine   EngineConfig
}

// HTTPConfig holds HTTP server related settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr renders the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// PostgresConfig stores database connection parameters.
type PostgresConfig struct {
	DSN string
}

// RedisConfig stores Redis connection parameters.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig stores cache behavior. Zero TTL disables response caching.
type CacheConfig struct {
	TTLSeconds int
}

// RabbitMQConfig describes the event exchanges and the worker's batching.
// An empty URL disables event publishing.
type RabbitMQConfig struct {
	URL               string
	BondsExchange     string
	CashflowsExchange string
	Queue             string
	Prefetch          int
	BatchSize         int
	BatchTimeout      time.Duration
}

// Enabled reports whether a broker is configured.
func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

type EngineConfig struct {
	Workers int
}

// Load builds Config from environment variables. A .env file in the working
// directory is read first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	host := getString("HTTP_HOST", defaultHTTPHost)
	port, err := getInt("HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return nil, fmt.Errorf("parse HTTP_PORT: %w", err)
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}

	redisDB, err := getInt("REDIS_DB", defaultRedisDB)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_DB: %w", err)
	}

	cacheTTL, err := getInt("CACHE_TTL_SECONDS", defaultCacheTTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse CACHE_TTL_SECONDS: %w", err)
	}

	rabbit, err := loadRabbitMQ()
	if err != nil {
		return nil, err
	}

	workers, err := getInt("ENGINE_WORKERS", defaultEngineWorkers)
	if err != nil {
		return nil, fmt.Errorf("parse ENGINE_WORKERS: %w", err)
	}
	if workers <= 0 {
		return nil, fmt.Errorf("ENGINE_WORKERS must be positive, got %d", workers)
	}

	level, err := logrus.ParseLevel(getString("LOG_LEVEL", DefaultLogLevel.String()))
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}

	return &Config{
		Env:      getString("APP_ENV", defaultEnv),
		LogLevel: level,
		HTTP:     HTTPConfig{Host: host, Port: port},
		Postgres: PostgresConfig{
			DSN: dsn,
		},
		Redis: RedisConfig{
			Addr:     getString("REDIS_ADDR", defaultRedisAddr),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			TTLSeconds: cacheTTL,
		},
		RabbitMQ: rabbit,
		Engine:   EngineConfig{Workers: workers},
	}, nil
}

func loadRabbitMQ() (RabbitMQConfig, error) {
	prefetch, err := getInt("RABBITMQ_PREFETCH", defaultPrefetch)
	if err != nil {
		return RabbitMQConfig{}, fmt.Errorf("parse RABBITMQ_PREFETCH: %w", err)
	}
	batchSize, err := getInt("RECALC_BATCH_SIZE", defaultBatchSize)
	if err != nil {
		return RabbitMQConfig{}, fmt.Errorf("parse RECALC_BATCH_SIZE: %w", err)
	}
	batchTimeout, err := getDuration("RECALC_BATCH_TIMEOUT", defaultBatchTimeout)
	if err != nil {
		return RabbitMQConfig{}, fmt.Errorf("parse RECALC_BATCH_TIMEOUT: %w", err)
	}
	return RabbitMQConfig{
		URL:               os.Getenv("RABBITMQ_URL"),
		BondsExchange:     getString("RABBITMQ_BONDS_EXCHANGE", defaultBondsExchange),
		CashflowsExchange: getString("RABBITMQ_CASHFLOWS_EXCHANGE", defaultCashflowsExchange),
		Queue:             os.Getenv("RABBITMQ_QUEUE"),
		Prefetch:          prefetch,
		BatchSize:         batchSize,
		BatchTimeout:      batchTimeout,
	}, nil
}

// NewLogger builds the JSON logger every binary uses.
func NewLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(level)
	return logger
}

func getString(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to int: %w", key, value, err)
	}
	return parsed, nil
}

// getDuration accepts Go duration strings; a bare number is read as seconds.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to duration: %w", key, value, err)
	}
	return parsed, nil
}
