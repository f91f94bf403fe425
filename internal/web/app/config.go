package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/quill/internal/web/domain"
	"github.com/aussiebroadwan/quill/internal/web/flow"
	"github.com/joho/godotenv"
)

type Config struct {
	APIURL               string        // Blog REST API base URL (default: http://localhost:8000/api/)
	APITimeout           time.Duration // Per-request timeout for API calls (default: 10s)
	DatabaseFile         string        // Path to the SQLite session database (default: ./web.db)
	SessionSecret        string        // Optional: secret sealing tokens at rest; ephemeral key if empty
	SessionSecretFile    string        // Optional: file holding SessionSecret
	SessionTTL           time.Duration // Session lifetime, sliding on refresh (default: 7 days)
	ChallengeTTL         time.Duration // Lifetime of a pending OTP step (default: 10m)
	SecureCookies        bool          // Set the Secure flag on cookies (default: false in dev, true otherwise)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 3000)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired session sweep interval (default: 10m)
}

// LoadConfig reads the environment, after loading envFile if it exists.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	env := getEnvOrDefault("ENV", "dev")
	cfg := Config{
		APIURL:               getEnvOrDefault("WEB_API_URL", "http://localhost:8000/api/"),
		APITimeout:           getEnvDurationOrDefault("WEB_API_TIMEOUT", 10*time.Second),
		DatabaseFile:         getEnvOrDefault("WEB_DATABASE_FILE", "web.db"),
		SessionSecret:        os.Getenv("WEB_SESSION_SECRET"),
		SessionSecretFile:    os.Getenv("WEB_SESSION_SECRET_FILE"),
		SessionTTL:           getEnvDurationOrDefault("WEB_SESSION_TTL", domain.DefaultSessionTTL),
		ChallengeTTL:         getEnvDurationOrDefault("WEB_OTP_CHALLENGE_TTL", flow.DefaultChallengeTTL),
		SecureCookies:        getEnvBoolOrDefault("WEB_SECURE_COOKIES", env != "dev"),
		Env:                  env,
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 3000),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 10*time.Minute),
	}

	if cfg.SessionSecret == "" && cfg.SessionSecretFile != "" {
		b, err := os.ReadFile(cfg.SessionSecretFile)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read session secret file: %w", err)
		}
		cfg.SessionSecret = strings.TrimSpace(string(b))
	}

	if !strings.HasPrefix(cfg.APIURL, "http://") && !strings.HasPrefix(cfg.APIURL, "https://") {
		return Config{}, fmt.Errorf("WEB_API_URL must be an http(s) URL, got %q", cfg.APIURL)
	}

	return cfg, nil
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
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
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

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
