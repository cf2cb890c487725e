// Package config provides configuration management for the portfolio tracker.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Stellar  StellarConfig
	Pass     PassConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host        string
	Port        string
	WorkerToken string // shared secret required on the pass trigger endpoint
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// StellarConfig holds configuration for outbound Stellar data sources
type StellarConfig struct {
	HorizonURL     string
	TickerURL      string
	RequestTimeout time.Duration // per-call timeout for Horizon and ticker requests
	RequestsPerSec float64       // token-bucket rate for outbound calls
}

// PassConfig holds configuration for the valuation/performance/ranking pass
type PassConfig struct {
	SamplingInterval    time.Duration // minimum elapsed time between two samples for one portfolio
	CollectorWorkers    int           // bounded pool size for per-portfolio balance collection
	PriceWorkers        int           // bounded pool size for per-asset order book lookups
	MinAccountBalance   float64       // minimum funded-account balance on the network, in XLM
	RankThresholdFactor float64       // rank eligibility = XLM value > factor * MinAccountBalance
	RankSize            int           // number of leaderboard slots
	RunLockTTL          time.Duration // expiry on the exclusive run lock
	PriceCacheTTL       time.Duration // TTL on the cached price map
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			WorkerToken: getEnv("WORKER_TOKEN", ""),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "portfolio_tracker"),
				User:           getEnv("POSTGRES_USER", "tracker"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			ClickHouse: ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", "localhost"),
				Port:     getEnv("CLICKHOUSE_PORT", "9000"),
				Database: getEnv("CLICKHOUSE_DB", "portfolio_tracker"),
				User:     getEnv("CLICKHOUSE_USER", "default"),
				Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Stellar: StellarConfig{
			HorizonURL:     getEnv("HORIZON_URL", "https://horizon.stellar.org"),
			TickerURL:      getEnv("TICKER_URL", "https://api.stellarterm.com/v1/ticker.json"),
			RequestTimeout: getEnvAsDuration("STELLAR_REQUEST_TIMEOUT", 10*time.Second),
			RequestsPerSec: getEnvAsFloat("STELLAR_REQUESTS_PER_SEC", 20),
		},
		Pass: PassConfig{
			SamplingInterval:    getEnvAsDuration("SAMPLING_INTERVAL", 12*time.Hour),
			CollectorWorkers:    getEnvAsInt("COLLECTOR_WORKERS", 8),
			PriceWorkers:        getEnvAsInt("PRICE_WORKERS", 8),
			MinAccountBalance:   getEnvAsFloat("MIN_ACCOUNT_BALANCE", 2),
			RankThresholdFactor: getEnvAsFloat("RANK_THRESHOLD_FACTOR", 5),
			RankSize:            getEnvAsInt("RANK_SIZE", 100),
			RunLockTTL:          getEnvAsDuration("RUN_LOCK_TTL", 30*time.Minute),
			PriceCacheTTL:       getEnvAsDuration("PRICE_CACHE_TTL", 15*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks configuration values that have no sane fallback
func (c *Config) validate() error {
	if c.Pass.SamplingInterval <= 0 {
		return fmt.Errorf("sampling interval must be positive, got %v", c.Pass.SamplingInterval)
	}
	if c.Pass.CollectorWorkers <= 0 || c.Pass.PriceWorkers <= 0 {
		return fmt.Errorf("worker pool sizes must be positive")
	}
	if c.Pass.RankSize <= 0 {
		return fmt.Errorf("rank size must be positive, got %d", c.Pass.RankSize)
	}
	if c.Stellar.HorizonURL == "" {
		return fmt.Errorf("horizon URL must be set")
	}
	return nil
}

// RankMinimumBalance returns the XLM value a portfolio must exceed to be
// eligible for ranking.
func (c *PassConfig) RankMinimumBalance() float64 {
	return c.RankThresholdFactor * c.MinAccountBalance
}

// PostgresURL returns the connection URL used by the migration runner
func (c *PostgresConfig) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
