package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath  string
	OutputDir     string
	DefaultUserID int64  // Attributed to history records when a pendência has no responsible user
	RunSchedule   string // Cron expression for the daily batch run
	RunOnStartup  bool
	LogLevel      string
	Port          int
	DevMode       bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath:  getEnv("DATABASE_PATH", "./data/pendencias.db"),
		OutputDir:     getEnv("OUTPUT_DIR", "output"),
		DefaultUserID: int64(getEnvAsInt("DEFAULT_USER_ID", 1)),
		RunSchedule:   getEnv("RUN_SCHEDULE", "0 0 20 * * *"), // 20:00 daily
		RunOnStartup:  getEnvAsBool("RUN_ON_STARTUP", true),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Port:          getEnvAsInt("GO_PORT", 8001),
		DevMode:       getEnvAsBool("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.DefaultUserID <= 0 {
		return fmt.Errorf("DEFAULT_USER_ID must be positive")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
