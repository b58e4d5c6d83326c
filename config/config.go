package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Remote messaging platform.
	PlatformBaseURL       string
	PlatformToken         string
	PlatformWebhookSecret string
	PlatformTimeout       time.Duration

	// Localization collaborator. Optional: payloads fall back to the
	// untranslated values when unset or unreachable.
	LocalizationBaseURL string

	// Audience-attribute collaborator serving the tracked-team list.
	AudienceBaseURL string

	// Ops token guarding the manual job-trigger endpoints.
	OpsToken string

	// Job tuning.
	LookaheadDays      int
	SendLeadMinutes    int
	PresendHorizonMin  int
	CorrelationWindow  time.Duration
	LockTTL            time.Duration
	DisplayTimezone    string
	TrackedIdentityTTL time.Duration
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),
		AppMode:    getEnv("APP_MODE", "debug"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "matchpush"),
		DBPort:     getEnv("DB_PORT", "5432"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		PlatformBaseURL:       getEnv("PLATFORM_BASE_URL", ""),
		PlatformToken:         getEnv("PLATFORM_TOKEN", ""),
		PlatformWebhookSecret: getEnv("PLATFORM_WEBHOOK_SECRET", ""),
		PlatformTimeout:       getEnvAsDuration("PLATFORM_TIMEOUT", 10*time.Second),

		LocalizationBaseURL: getEnv("LOCALIZATION_BASE_URL", ""),

		AudienceBaseURL: getEnv("AUDIENCE_BASE_URL", ""),

		OpsToken: getEnv("OPS_TOKEN", ""),

		LookaheadDays:      getEnvAsInt("LOOKAHEAD_DAYS", 7),
		SendLeadMinutes:    getEnvAsInt("SEND_LEAD_MINUTES", 60),
		PresendHorizonMin:  getEnvAsInt("PRESEND_HORIZON_MINUTES", 30),
		CorrelationWindow:  getEnvAsDuration("CORRELATION_WINDOW", 10*time.Minute),
		LockTTL:            getEnvAsDuration("LOCK_TTL", 10*time.Minute),
		DisplayTimezone:    getEnv("DISPLAY_TIMEZONE", "Asia/Bangkok"),
		TrackedIdentityTTL: getEnvAsDuration("TRACKED_IDENTITY_TTL", 5*time.Minute),
	}
}

// Validate reports missing required settings. Jobs call this before
// touching the database so a misconfigured run aborts without mutating
// anything.
func (c *Config) Validate() error {
	if c.PlatformBaseURL == "" {
		return fmt.Errorf("PLATFORM_BASE_URL is required")
	}
	if c.PlatformToken == "" {
		return fmt.Errorf("PLATFORM_TOKEN is required")
	}
	if c.AudienceBaseURL == "" {
		return fmt.Errorf("AUDIENCE_BASE_URL is required")
	}
	if c.DBHost == "" || c.DBName == "" || c.DBUser == "" {
		return fmt.Errorf("database configuration is incomplete")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
