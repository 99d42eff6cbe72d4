package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName       = "TenderDesk"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultOTPTTL        = 10 * time.Minute
	defaultSessionTTL    = 24 * time.Hour
	defaultIdemTTL       = 24 * time.Hour
	defaultTOTPIssuer    = "TenderDesk"
	defaultLoginPerMin   = 5
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	OTPTTL         time.Duration
	SessionTTL     time.Duration
	IdempotencyTTL time.Duration
	TOTPIssuer     string
	LoginRateLimit int
}

// Load reads configuration values from the environment and populates a Config instance.
// DATABASE_URL and REDIS_URL may stay empty in dev mode, where in-memory
// stores are substituted.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		OTPTTL:         defaultOTPTTL,
		SessionTTL:     defaultSessionTTL,
		IdempotencyTTL: defaultIdemTTL,
		TOTPIssuer:     getEnv("TOTP_ISSUER", defaultTOTPIssuer),
		LoginRateLimit: defaultLoginPerMin,
	}

	for _, d := range []struct {
		envVar string
		dst    *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
		{"OTP_TTL", &cfg.OTPTTL},
		{"SESSION_TTL", &cfg.SessionTTL},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL},
	} {
		if v := os.Getenv(d.envVar); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.envVar, err)
			}
			*d.dst = parsed
		}
	}

	if v := os.Getenv("LOGIN_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOGIN_RATE_LIMIT: %w", err)
		}
		cfg.LoginRateLimit = n
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether the app runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
