package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage backend selection
	DataBackend  string
	DatabaseURL  string
	SQLiteDBPath string

	// Behavior toggles
	MigrateOnStart bool
	DevSeed        bool

	// Auth (optional; X-User-ID header is accepted when unset)
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/financehero.db"),

		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),
		DevSeed:        getEnvBool("DEV_SEED", false),

		JWTSecret:   getEnv("JWT_HS256_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", ""),
		JWTAudience: getEnv("JWT_AUDIENCE", ""),
	}
}

// Validate checks the configuration and returns an error listing everything
// that is wrong with it.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite", "postgres"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "postgres" && c.DatabaseURL == "" {
		errors = append(errors, "DATABASE_URL is required when using postgres backend")
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
