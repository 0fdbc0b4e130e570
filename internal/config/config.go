package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	// Database configuration
	DatabaseDriver string // "libsql" (SQLite) or "pgx" (PostgreSQL)
	DatabaseDSN    string
	SchemaFile     string // SQL script used to bootstrap the clinical tables
	AllowWrites    bool   // disables the read-only guard on generated queries
	// LLM Configuration
	AnthropicAPIKey string
	Model           string
	// Turn behavior
	MaxHistoryTurns int // logical user/assistant pairs kept for prompting
	TurnTimeout     time.Duration
	// Debug flags
	Debug bool
	// Optional log file directory; empty means stdout/stderr only
	LogDir      string
	LogMaxFiles int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		// Database configuration
		DatabaseDriver: getEnv("DATABASE_DRIVER", "libsql"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "file:clinical_data.db"),
		SchemaFile:     getEnv("SCHEMA_FILE", "schema.sql"),
		AllowWrites:    getEnv("ALLOW_WRITES", "false") == "true",
		// LLM Configuration
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		Model:           getEnv("MODEL", "claude-haiku-4-5-20251001"),
		// Turn behavior
		MaxHistoryTurns: getEnvInt("MAX_HISTORY_TURNS", DefaultMaxHistoryTurns),
		TurnTimeout:     getEnvDuration("TURN_TIMEOUT", DefaultTurnTimeout),
		// Debug flags - default to true in dev/test, false in production
		Debug:       getEnv("DEBUG", getDefaultDebug(env)) == "true",
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getEnvInt("LOG_MAX_FILES", DefaultLogMaxFiles),
	}
}

// Validate checks the configuration at startup. A failure here is fatal:
// the process exits before the turn loop ever starts.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AnthropicAPIKey, validation.Required.Error("ANTHROPIC_API_KEY must be set")),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.DatabaseDriver, validation.In("libsql", "pgx").Error("DATABASE_DRIVER must be libsql or pgx")),
		validation.Field(&c.DatabaseDSN, validation.Required),
		validation.Field(&c.MaxHistoryTurns, validation.Min(1)),
	)
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
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
		fmt.Fprintf(os.Stderr, "warning: invalid %s=%q, using %d\n", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: invalid %s=%q, using %s\n", key, value, defaultValue)
		return defaultValue
	}
	return d
}
