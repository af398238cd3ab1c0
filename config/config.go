package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModeServer = "server"
	ModeWatch  = "watch"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	App struct {
		Environment string
		Mode        string
		LogLevel    string
		LogDir      string
	}

	HTTP struct {
		Addr              string
		ReadHeaderTimeout time.Duration
		ShutdownTimeout   time.Duration
		HeartbeatInterval time.Duration
	}

	Simulation struct {
		TickInterval time.Duration
		SeedFile     string
		// zero means time-based
		RandomSeed int64
	}

	Watch struct {
		URL         string
		Filter      string
		SearchQuery string
		SortBy      string
		MaxRetry    time.Duration
	}

	Metrics struct {
		Enabled         bool
		CollectInterval time.Duration
	}
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{}

	// App settings
	cfg.App.Environment = getEnvOrDefault("APP_ENV", "production")
	cfg.App.Mode = getEnvOrDefault("APP_MODE", ModeServer)
	cfg.App.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.App.LogDir = getEnvOrDefault("LOG_DIR", "logs")

	// HTTP settings
	cfg.HTTP.Addr = getEnvOrDefault("HTTP_ADDR", ":8080")
	cfg.HTTP.ReadHeaderTimeout = time.Duration(getEnvAsIntOrDefault("HTTP_READ_HEADER_TIMEOUT_SECS", 5)) * time.Second
	cfg.HTTP.ShutdownTimeout = time.Duration(getEnvAsIntOrDefault("HTTP_SHUTDOWN_TIMEOUT_SECS", 10)) * time.Second
	cfg.HTTP.HeartbeatInterval = time.Duration(getEnvAsIntOrDefault("WS_HEARTBEAT_SECS", 10)) * time.Second

	// Simulation settings
	cfg.Simulation.TickInterval = time.Duration(getEnvAsIntOrDefault("TICK_INTERVAL_MS", 5000)) * time.Millisecond
	cfg.Simulation.SeedFile = os.Getenv("SEED_FILE")
	cfg.Simulation.RandomSeed = int64(getEnvAsIntOrDefault("RANDOM_SEED", 0))

	// Watch settings
	cfg.Watch.URL = getEnvOrDefault("WATCH_URL", "ws://localhost:8080/ws")
	cfg.Watch.Filter = os.Getenv("WATCH_FILTER")
	cfg.Watch.SearchQuery = os.Getenv("WATCH_SEARCH")
	cfg.Watch.SortBy = os.Getenv("WATCH_SORT")
	cfg.Watch.MaxRetry = time.Duration(getEnvAsIntOrDefault("WATCH_MAX_RETRY_MINS", 5)) * time.Minute

	// Metrics settings
	cfg.Metrics.Enabled = getEnvAsBoolOrDefault("METRICS_ENABLED", true)
	cfg.Metrics.CollectInterval = time.Duration(getEnvAsIntOrDefault("METRICS_COLLECT_SECS", 5)) * time.Second

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.App.Mode {
	case ModeServer, ModeWatch:
	default:
		return fmt.Errorf("%w: APP_MODE must be %q or %q, got %q", ErrInvalidConfig, ModeServer, ModeWatch, c.App.Mode)
	}
	if c.Simulation.TickInterval <= 0 {
		return fmt.Errorf("%w: TICK_INTERVAL_MS must be positive", ErrInvalidConfig)
	}
	if c.HTTP.HeartbeatInterval <= 0 {
		return fmt.Errorf("%w: WS_HEARTBEAT_SECS must be positive", ErrInvalidConfig)
	}
	if c.Metrics.CollectInterval <= 0 {
		return fmt.Errorf("%w: METRICS_COLLECT_SECS must be positive", ErrInvalidConfig)
	}
	if c.Watch.MaxRetry < 0 {
		return fmt.Errorf("%w: WATCH_MAX_RETRY_MINS must not be negative", ErrInvalidConfig)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
