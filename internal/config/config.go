package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	DatabaseURL        string
	ClinicianJWTSecret string

	RedisAddr     string
	RedisPassword string
	TestCacheTTL  time.Duration

	// Summary drafting (optional; completion must work without it).
	SummaryProvider  string // "bedrock", "gemini" or "" to disable
	SummaryTimeout   time.Duration
	SummaryMaxTokens int

	AWSRegion      string
	BedrockModelID string

	GeminiAPIKey  string
	GeminiModelID string

	// Scoring strategy for assessment submissions.
	ScoringStrategy string // "linear" (default) or "weighted-average"

	// Buffer applied around appointment windows during conflict checks.
	ScheduleBuffer time.Duration
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		ClinicianJWTSecret: getEnv("CLINICIAN_JWT_SECRET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		TestCacheTTL:  getEnvAsDuration("TEST_CACHE_TTL", 12*time.Hour),

		SummaryProvider:  strings.ToLower(strings.TrimSpace(getEnv("SUMMARY_PROVIDER", ""))),
		SummaryTimeout:   getEnvAsDuration("SUMMARY_TIMEOUT", 20*time.Second),
		SummaryMaxTokens: getEnvAsInt("SUMMARY_MAX_TOKENS", 2000),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", ""),

		ScoringStrategy: strings.ToLower(strings.TrimSpace(getEnv("SCORING_STRATEGY", "linear"))),

		ScheduleBuffer: getEnvAsDuration("SCHEDULE_BUFFER", 0),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a
// default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
