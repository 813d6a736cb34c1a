package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	MinFetchWorkers = 1
	MaxFetchWorkers = 32

	DefaultAPIPrefix = "https://bahn.expert/api"
	DefaultTimezone  = "Europe/Berlin"
)

type Config struct {
	APIPrefix     string        `validate:"required,url"`
	Timezone      string        `validate:"required"`
	HTTPTimeout   time.Duration `validate:"gt=0"`
	FetchWorkers  int           `validate:"gte=1"`
	LookbehindMin int           `validate:"gt=0"`
	SafetyWindow  time.Duration `validate:"gt=0"`

	DatabaseDriver string `validate:"oneof=sqlite postgres"`
	DatabaseURL    string
	DatabaseFile   string `validate:"required"`
	Table          string `validate:"required"`

	StationCacheSize int           `validate:"gte=1"`
	StationCacheTTL  time.Duration `validate:"gt=0"`

	LogLevel  string `validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	LogFormat string `validate:"oneof=TEXT JSON text json"`
	LogFile   string

	PushgatewayURL   string `validate:"omitempty,url"`
	RabbitMQURL      string
	RabbitMQExchange string `validate:"required"`
}

func Load() *Config {
	_ = godotenv.Load()

	workers := getEnvInt("FETCH_WORKERS", 8)

	if workers > MaxFetchWorkers {
		slog.Warn("FETCH_WORKERS exceeds safety limit. Clamping to maximum", "requested", workers, "limit", MaxFetchWorkers)
		workers = MaxFetchWorkers
	} else if workers < MinFetchWorkers {
		workers = MinFetchWorkers
	}

	return &Config{
		APIPrefix:        getEnv("TRANSIT_API_PREFIX", DefaultAPIPrefix),
		Timezone:         getEnv("TIMEZONE", DefaultTimezone),
		HTTPTimeout:      time.Duration(getEnvInt("HTTP_TIMEOUT_SEC", 30)) * time.Second,
		FetchWorkers:     workers,
		LookbehindMin:    getEnvInt("LOOKBEHIND_MIN", 7*60),
		SafetyWindow:     getEnvDuration("SAFETY_WINDOW_MIN", 6*time.Hour+30*time.Minute),
		DatabaseDriver:   getEnv("DB_DRIVER", "sqlite"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DatabaseFile:     getEnv("DB_FILE", "trains.db"),
		Table:            getEnv("DB_TABLE", "trains"),
		StationCacheSize: getEnvInt("STATION_CACHE_SIZE", 256),
		StationCacheTTL:  getEnvDuration("STATION_CACHE_TTL_MIN", 24*time.Hour),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		LogFormat:        getEnv("LOG_FORMAT", "TEXT"),
		LogFile:          getEnv("LOG_FILE", ""),
		PushgatewayURL:   getEnv("PUSHGATEWAY_URL", ""),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "traintracker.topic"),
	}
}

// Validate checks the configuration after flags have been applied on top of Load.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.DatabaseDriver == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("invalid configuration: DATABASE_URL is required for the postgres driver")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid configuration: timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DatabaseDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.DatabaseFile
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvDuration reads a number of minutes.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return time.Duration(i) * time.Minute
		}
	}
	return fallback
}
