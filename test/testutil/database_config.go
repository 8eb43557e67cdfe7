package testutil

import (
	"os"
	"strconv"

	go_ora "github.com/sijms/go-ora/v2"
)

// DatabaseConfig holds configuration for connecting to a database.
type DatabaseConfig struct {
	URL    string
	Schema string
}

// GetDatabaseConfig reads database configuration from environment variables.
// If DCDASH_TEST_ORACLE_URL is set, it returns configuration for an existing
// database. Otherwise, returns an empty config which signals to use
// testcontainers.
func GetDatabaseConfig() DatabaseConfig {
	// Check for direct URL (highest priority)
	if url := os.Getenv("DCDASH_TEST_ORACLE_URL"); url != "" {
		return DatabaseConfig{
			URL:    url,
			Schema: getEnv("DCDASH_TEST_ORACLE_SCHEMA", appUser),
		}
	}

	// Check for individual components
	if host := os.Getenv("DCDASH_TEST_ORACLE_HOST"); host != "" {
		return DatabaseConfig{
			URL: go_ora.BuildUrl(
				host,
				getEnvInt("DCDASH_TEST_ORACLE_PORT", 1521),
				getEnv("DCDASH_TEST_ORACLE_SERVICE", "FREEPDB1"),
				getEnv("DCDASH_TEST_ORACLE_USER", appUser),
				getEnv("DCDASH_TEST_ORACLE_PASSWORD", appPassword),
				nil,
			),
			Schema: getEnv("DCDASH_TEST_ORACLE_SCHEMA", appUser),
		}
	}

	// Default: use testcontainers (empty config)
	return DatabaseConfig{}
}

// getEnv gets an environment variable with a fallback default value.
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt gets an integer environment variable with a fallback default value.
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}
