package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cleverdining/datahub/internal/util"
)

// Config centralises all environment and runtime configuration.
type Config struct {
	Logger *log.Logger

	// Upstream Cleverdining platform.
	APIBaseURL   string
	WSBaseURL    string
	RestaurantID string

	// Either a username/password pair for a fresh login, or an existing
	// session file carrying a token pair.
	Username    string
	Password    string
	SessionFile string

	// Optional services; an empty value disables the feature.
	DatabaseURL string
	RedisAddr   string
	AMQPURL     string

	ExportDir  string
	StatusAddr string

	// Stream reconnect tuning.
	ReconnectBase time.Duration
	ReconnectMax  time.Duration

	MirrorBatch int

	AutoMigrate bool
}

// Load builds the Config struct, validating critical env vars. The API and
// WS hosts default to localhost so a dev build works against a local stack;
// a production deployment must set them explicitly.
func Load() *Config {
	logger := util.NewLogger()
	logger.Println("Loading environment configuration...")

	cfg := &Config{
		Logger:       logger,
		APIBaseURL:   getEnvOrDefault("API_BASE_URL", "http://127.0.0.1:8000"),
		WSBaseURL:    getEnvOrDefault("WS_BASE_URL", "ws://127.0.0.1:8000"),
		RestaurantID: getEnvOrFail(logger, "RESTAURANT_ID"),

		Username:    os.Getenv("CLEVERDINING_USERNAME"),
		Password:    os.Getenv("CLEVERDINING_PASSWORD"),
		SessionFile: getEnvOrDefault("SESSION_FILE", "data/session.json"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		AMQPURL:     os.Getenv("AMQP_URL"),

		ExportDir:  getEnvOrDefault("EXPORT_DIR", "data/exports"),
		StatusAddr: getEnvOrDefault("STATUS_ADDR", ":8090"),

		ReconnectBase: getDurationEnv(logger, "RECONNECT_BASE", time.Second),
		ReconnectMax:  getDurationEnv(logger, "RECONNECT_MAX", time.Minute),

		MirrorBatch: GetIntEnv("MIRROR_BATCH_SIZE", 500),

		AutoMigrate: ParseBoolEnv(os.Getenv("AUTO_MIGRATE")),
	}

	logger.Printf("✅ Loaded config (api=%s restaurant=%s)", cfg.APIBaseURL, cfg.RestaurantID)
	logger.Printf("📁 ExportDir: %s", cfg.ExportDir)
	return cfg
}

// MirrorEnabled reports whether a local Postgres mirror should be kept.
func (c *Config) MirrorEnabled() bool {
	return strings.TrimSpace(c.DatabaseURL) != ""
}

func getEnvOrFail(logger *log.Logger, key string) string {
	val := os.Getenv(key)
	if val == "" {
		logger.Fatalf("❌ Environment variable %s is required but not set", key)
	}
	return val
}

func getEnvOrDefault(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func getDurationEnv(logger *log.Logger, key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Printf("⚠️  Invalid %s=%q, using default %s", key, raw, def)
		return def
	}
	return d
}

// GetIntEnv reads a positive integer env var, falling back to def.
func GetIntEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// ParseBoolEnv interprets the usual truthy spellings.
func ParseBoolEnv(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}
