package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/quill/internal/devapi/service"
	"github.com/aussiebroadwan/quill/pkg/jwtx"
	"github.com/joho/godotenv"
)

type Config struct {
	JWTSecret            string        // Optional: HS256 secret; random per start if empty
	StaticOTP            string        // Optional: every one-time code is this value (tests)
	CodeTTL              time.Duration // Lifetime of one-time codes (default: 10m)
	AccessTokenTTL       time.Duration // Access token lifetime (default: 5m)
	RefreshTokenTTL      time.Duration // Refresh token lifetime (default: 24h)
	Seed                 bool          // Create demo users, categories and posts (default: true)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: debug)
	LogFormat            string        // Log format (json, text) (default: text)
	Port                 int           // HTTP server port (default: 8000)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 5s)
	HousekeepingInterval time.Duration // Expired code sweep interval (default: 1m)
}

// LoadConfig reads the environment, after loading envFile if it exists.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		JWTSecret:            os.Getenv("DEVAPI_JWT_SECRET"),
		StaticOTP:            os.Getenv("DEVAPI_STATIC_OTP"),
		CodeTTL:              getEnvDurationOrDefault("DEVAPI_OTP_TTL", service.DefaultCodeTTL),
		AccessTokenTTL:       getEnvDurationOrDefault("DEVAPI_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL:      getEnvDurationOrDefault("DEVAPI_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		Seed:                 getEnvBoolOrDefault("DEVAPI_SEED", true),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "debug"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "text"),
		Port:                 getEnvIntOrDefault("PORT", 8000),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 5*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Minute),
	}

	if cfg.StaticOTP != "" {
		if _, err := strconv.Atoi(cfg.StaticOTP); err != nil || len(cfg.StaticOTP) != 6 {
			return Config{}, fmt.Errorf("DEVAPI_STATIC_OTP must be six digits, got %q", cfg.StaticOTP)
		}
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
	if intValue, err := strconv.Atoi(os.Getenv(key)); err == nil {
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
	if duration, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return duration
	}
	return defaultValue
}
