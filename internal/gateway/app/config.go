package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
	"github.com/persona-ai/partner-gateway/internal/gateway/service"
)

// Partner sources.
const (
	PartnerSourceFile     = "file"
	PartnerSourceDatabase = "database"
)

// Nonce registry backends.
const (
	NonceBackendMemory = "memory"
	NonceBackendRedis  = "redis"
)

type Config struct {
	PartnerSource string // Partner directory source (file, database) (default: file)
	PartnersFile  string // YAML partners file for the file source (default: partners.yaml)
	DatabaseFile  string // SQLite database for the database source (default: gateway.db)
	MasterKeyPath string // Optional: file holding the key that seals stored partner secrets
	AdminToken    string // Optional: enables /v1/admin routes in database mode

	NonceBackend   string // Nonce registry (memory, redis) (default: memory)
	RedisURL       string // Redis URL for the redis backend (default: redis://localhost:6379/0)
	NonceKeyPrefix string // Redis key prefix (default: gateway:nonce:)

	ClockSkew     time.Duration // Tolerance on exp and iat (default: 0)
	MaxTokenAge   time.Duration // Largest accepted now - iat (default: 24h)
	EmbedAudience string        // Audience of embed tokens (default: pixels.persona-ai.ai)
	APIAudience   string        // Audience of API tokens (default: api.persona-ai.ai)

	MetricsEnabled       bool          // Expose /metrics (default: true)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Nonce pruning and directory refresh interval (default: 1m)
}

func LoadConfig() Config {
	return Config{
		PartnerSource: getEnvOrDefault("PARTNER_SOURCE", PartnerSourceFile),
		PartnersFile:  getEnvOrDefault("PARTNERS_FILE", "partners.yaml"),
		DatabaseFile:  getEnvOrDefault("DATABASE_FILE", "gateway.db"),
		MasterKeyPath: os.Getenv("MASTER_KEY_PATH"),
		AdminToken:    os.Getenv("ADMIN_TOKEN"),

		NonceBackend:   getEnvOrDefault("NONCE_BACKEND", NonceBackendMemory),
		RedisURL:       getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		NonceKeyPrefix: getEnvOrDefault("NONCE_KEY_PREFIX", "gateway:nonce:"),

		ClockSkew:     getEnvDurationOrDefault("CLOCK_SKEW", 0),
		MaxTokenAge:   getEnvDurationOrDefault("MAX_TOKEN_AGE", service.DefaultMaxTokenAge),
		EmbedAudience: getEnvOrDefault("EMBED_AUDIENCE", domain.AudienceEmbed),
		APIAudience:   getEnvOrDefault("API_AUDIENCE", domain.AudienceAPI),

		MetricsEnabled:       getEnvBoolOrDefault("METRICS_ENABLED", true),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Minute),
	}
}

// Validate rejects settings the gateway cannot start with.
func (c Config) Validate() error {
	switch c.PartnerSource {
	case PartnerSourceFile:
		if c.PartnersFile == "" {
			return fmt.Errorf("PARTNERS_FILE is required for the %s partner source", PartnerSourceFile)
		}
	case PartnerSourceDatabase:
		if c.DatabaseFile == "" {
			return fmt.Errorf("DATABASE_FILE is required for the %s partner source", PartnerSourceDatabase)
		}
	default:
		return fmt.Errorf("unknown PARTNER_SOURCE %q", c.PartnerSource)
	}

	switch c.NonceBackend {
	case NonceBackendMemory:
	case NonceBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the %s nonce backend", NonceBackendRedis)
		}
	default:
		return fmt.Errorf("unknown NONCE_BACKEND %q", c.NonceBackend)
	}

	if c.ClockSkew < 0 {
		return fmt.Errorf("CLOCK_SKEW must not be negative")
	}
	if c.MaxTokenAge <= 0 {
		return fmt.Errorf("MAX_TOKEN_AGE must be positive")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
