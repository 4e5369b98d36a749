package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Storage drivers selectable with STORAGE_DRIVER
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Port            string
	Environment     string
	DatabaseURL     string
	StorageDriver   string
	SQLitePath      string
	SupabaseURL     string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	TablePrefix     string
	LogDir          string // Empty disables the log file tee
	DiffMaxLines    int
	AutoMigrate     bool
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	supabaseURL := getEnv("SUPABASE_URL", "")

	var jwksURL string
	if supabaseURL != "" {
		jwksURL = strings.TrimSuffix(supabaseURL, "/") + "/auth/v1/.well-known/jwks.json"
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		StorageDriver:   getEnv("STORAGE_DRIVER", DriverPostgres),
		SQLitePath:      getEnv("SQLITE_PATH", "promptvault.db"),
		SupabaseURL:     supabaseURL,
		SupabaseJWKSURL: jwksURL,
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:     tablePrefix,
		LogDir:          getEnv("LOG_DIR", ""),
		DiffMaxLines:    getEnvInt("DIFF_MAX_LINES", 20000),
		AutoMigrate:     getEnv("AUTO_MIGRATE", getDefaultDebug(env)) == "true",
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// Validate reports configuration that cannot start a server
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for storage driver %q", c.StorageDriver)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for storage driver %q", c.StorageDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want postgres, sqlite or memory)", c.StorageDriver)
	}
	if c.DiffMaxLines <= 0 {
		return fmt.Errorf("DIFF_MAX_LINES must be positive, got %d", c.DiffMaxLines)
	}
	return nil
}

// AuthEnabled reports whether JWT auth guards the API
func (c *Config) AuthEnabled() bool {
	return c.SupabaseJWKSURL != ""
}

// CORSOriginList splits CORS_ORIGINS on commas
func (c *Config) CORSOriginList() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0 // rejected by Validate
	}
	return n
}
