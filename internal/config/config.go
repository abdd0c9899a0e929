// Package config loads service settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port            string
	Environment     string
	ReadTimeout     int
	WriteTimeout    int
	DBPath          string
	AnalyzerURL     string
	AnalyzerTimeout int
	CatalogPath     string
	SessionsDir     string
}

// Load reads the service configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "3000"),
		Environment:     getEnv("ENV", "development"),
		ReadTimeout:     getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout:    getEnvAsInt("WRITE_TIMEOUT", 10),
		DBPath:          getEnv("TAKEOFF_DB_PATH", "data/db/takeoff.db"),
		AnalyzerURL:     getEnv("ANALYZER_URL", ""),
		AnalyzerTimeout: getEnvAsInt("ANALYZER_TIMEOUT", 60),
		CatalogPath:     getEnv("CATALOG_PATH", ""),
		SessionsDir:     getEnv("SESSIONS_DIR", ""),
	}
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) AnalyzerTimeoutDuration() time.Duration {
	return time.Duration(c.AnalyzerTimeout) * time.Second
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
