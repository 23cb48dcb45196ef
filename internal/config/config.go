// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	LogLevel  string
	LogPretty bool

	HTTPAddr    string
	MetricsAddr string

	StorageBackend string
	SQLitePath     string
	PostgresDSN    string
	ClickhouseDSN  string // optional analytics sink

	OpenAIAPIKey string
	OpenAIModel  string

	GuardrailsEnabled          bool
	GuardrailMinLinkedOutcomes int
	GuardrailMinF1Margin       float64

	TrainLearningRate float64
	TrainEpochs       int
	TrainL2           float64
	TrainValFraction  float64
	TrainMinRows      int

	RetrainSchedule string   // cron spec; empty disables scheduled retrains
	RetrainTenants  []string // tenants visited by the scheduled retrain
	RetrainTimeout  time.Duration

	LabelIRRThreshold   float64
	LabelMaxVacancyDays float64

	APIKeys []APIKey // empty leaves the HTTP API open
}

// APIKey authenticates one HTTP caller as an actor with a role.
type APIKey struct {
	Key     string
	ActorID string
	Role    string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),

		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
		SQLitePath:     getEnv("SQLITE_PATH", "./data/underwriting.db"),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		ClickhouseDSN:  getEnv("CLICKHOUSE_DSN", ""),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		GuardrailsEnabled:          getEnvAsBool("GUARDRAILS_ENABLED", true),
		GuardrailMinLinkedOutcomes: getEnvAsInt("GUARDRAIL_MIN_LINKED_OUTCOMES", 50),
		GuardrailMinF1Margin:       getEnvAsFloat("GUARDRAIL_MIN_F1_MARGIN", 0.01),

		TrainLearningRate: getEnvAsFloat("TRAIN_LEARNING_RATE", 0.05),
		TrainEpochs:       getEnvAsInt("TRAIN_EPOCHS", 12),
		TrainL2:           getEnvAsFloat("TRAIN_L2", 0.001),
		TrainValFraction:  getEnvAsFloat("TRAIN_VAL_FRACTION", 0.2),
		TrainMinRows:      getEnvAsInt("TRAIN_MIN_ROWS", 20),

		RetrainSchedule: getEnv("RETRAIN_SCHEDULE", ""),
		RetrainTenants:  getEnvAsList("RETRAIN_TENANTS"),
		RetrainTimeout:  getEnvAsDuration("RETRAIN_TIMEOUT", 5*time.Minute),

		LabelIRRThreshold:   getEnvAsFloat("LABEL_IRR_THRESHOLD", 0.12),
		LabelMaxVacancyDays: getEnvAsFloat("LABEL_MAX_VACANCY_DAYS", 60),
	}

	keys, err := parseAPIKeys(getEnvAsList("API_KEYS"))
	if err != nil {
		return nil, err
	}
	cfg.APIKeys = keys

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseAPIKeys reads "key:actor:role" entries.
func parseAPIKeys(entries []string) ([]APIKey, error) {
	keys := make([]APIKey, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("API_KEYS entry %d must be key:actor:role", i+1)
		}
		k := APIKey{
			Key:     strings.TrimSpace(parts[0]),
			ActorID: strings.TrimSpace(parts[1]),
			Role:    strings.ToLower(strings.TrimSpace(parts[2])),
		}
		if k.Key == "" || k.ActorID == "" || k.Role == "" {
			return nil, fmt.Errorf("API_KEYS entry %d has an empty field", i+1)
		}
		if seen[k.Key] {
			return nil, fmt.Errorf("API_KEYS entry %d repeats a key", i+1)
		}
		seen[k.Key] = true
		keys = append(keys, k)
	}
	return keys, nil
}

// Validate checks if required configuration is present and consistent
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of memory, sqlite, postgres (got %q)", c.StorageBackend)
	}

	if c.GuardrailMinLinkedOutcomes < 0 {
		return fmt.Errorf("GUARDRAIL_MIN_LINKED_OUTCOMES must be >= 0")
	}
	if c.TrainValFraction <= 0 || c.TrainValFraction >= 1 {
		return fmt.Errorf("TRAIN_VAL_FRACTION must be in (0, 1)")
	}
	if c.TrainLearningRate <= 0 {
		return fmt.Errorf("TRAIN_LEARNING_RATE must be > 0")
	}
	if c.RetrainSchedule != "" && len(c.RetrainTenants) == 0 {
		return fmt.Errorf("RETRAIN_TENANTS is required when RETRAIN_SCHEDULE is set")
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
