package app

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired secret cleanup interval (default: 1h)

	DatabaseDriver string // sqlite or mysql (default: sqlite)
	DatabaseDSN    string // Driver DSN (sqlite default: DefaultSQLiteDSN)
	PepperFile     string // Password pepper, generated on first start (default: ./pepper)
	AdminAPIKey    string // Required by every /v1 route; empty locks the admin API

	SeedFile      string // Optional: YAML/JSON/TOML seed file
	SeedOnStartup bool   // Seed every section of SeedFile when the server starts
	SeedForce     bool   // Seed kinds that already hold entities
	SeedActor     string // Actor recorded for seeding (default: seed)
}

// DefaultSQLiteDSN is used when the sqlite driver is selected without a DSN.
const DefaultSQLiteDSN = "file:greenadmin.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// LoadDotEnv loads KEY=VALUE files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func LoadConfig() Config {
	cfg := Config{
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		DatabaseDriver: getEnvOrDefault("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:    os.Getenv("DATABASE_DSN"),
		PepperFile:     getEnvOrDefault("PEPPER_FILE", "pepper"),
		AdminAPIKey:    os.Getenv("ADMIN_API_KEY"),

		SeedFile:      os.Getenv("SEED_FILE"),
		SeedOnStartup: getEnvBoolOrDefault("SEED_ON_STARTUP", false),
		SeedForce:     getEnvBoolOrDefault("SEED_FORCE", false),
		SeedActor:     getEnvOrDefault("SEED_ACTOR", "seed"),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
