// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"RANDOMWEB_DB_PATH" envDefault:"./data/randomweb.db"`
	SessionSecret string `env:"RANDOMWEB_SESSION_SECRET,required"`
	// TokenSecret signs access tokens; empty means SessionSecret.
	TokenSecret string `env:"RANDOMWEB_TOKEN_SECRET"`
	ServerHost  string `env:"RANDOMWEB_SERVER_HOST" envDefault:"localhost"`
	ServerPort  int    `env:"RANDOMWEB_SERVER_PORT" envDefault:"8080"`
	Env         string `env:"RANDOMWEB_ENV" envDefault:"development"`
	LogLevel    string `env:"RANDOMWEB_LOG_LEVEL" envDefault:"info"`

	// Session configuration
	SessionLifetime time.Duration `env:"RANDOMWEB_SESSION_LIFETIME" envDefault:"168h"`   // Access token and auth session lifetime
	CookieLifetime  time.Duration `env:"RANDOMWEB_COOKIE_LIFETIME" envDefault:"24h"`     // Browser session cookie lifetime
	PurgeSchedule   string        `env:"RANDOMWEB_PURGE_SCHEDULE" envDefault:"@every 15m"` // Cron expression for the expired-session purge

	// Optional Redis URL for relaying session changes between instances
	RedisURL     string `env:"RANDOMWEB_REDIS_URL"`
	RedisChannel string `env:"RANDOMWEB_REDIS_CHANNEL" envDefault:"randomweb:auth-events"`

	// Per-IP rate limiting and account lockout on the credential forms
	LoginProtection bool `env:"RANDOMWEB_LOGIN_PROTECTION" envDefault:"false"`

	// Seeding configuration
	DoSeed        bool   `env:"RANDOMWEB_DO_SEED" envDefault:"false"`   // Create the admin account on startup
	DemoMode      bool   `env:"RANDOMWEB_DEMO_MODE" envDefault:"false"` // Fill an empty catalog with sample websites
	AdminEmail    string `env:"RANDOMWEB_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword string `env:"RANDOMWEB_ADMIN_PASSWORD"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisRelay returns true if a Redis URL is configured.
func (c Config) UseRedisRelay() bool {
	return c.RedisURL != ""
}

// AccessTokenSecret returns the secret used to sign access tokens.
func (c Config) AccessTokenSecret() []byte {
	if c.TokenSecret != "" {
		return []byte(c.TokenSecret)
	}
	return []byte(c.SessionSecret)
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
// HS256 keys should be at least as long as the hash output.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := validateSecret("RANDOMWEB_SESSION_SECRET", cfg.SessionSecret); err != nil {
		return nil, err
	}
	if cfg.TokenSecret != "" {
		if err := validateSecret("RANDOMWEB_TOKEN_SECRET", cfg.TokenSecret); err != nil {
			return nil, err
		}
	}

	if cfg.SessionLifetime <= 0 {
		return nil, fmt.Errorf("RANDOMWEB_SESSION_LIFETIME must be positive, got %s", cfg.SessionLifetime)
	}
	if cfg.DoSeed && cfg.AdminPassword == "" {
		return nil, fmt.Errorf("RANDOMWEB_ADMIN_PASSWORD is required when RANDOMWEB_DO_SEED is enabled")
	}

	return cfg, nil
}

func validateSecret(name, secret string) error {
	if len(secret) < MinSessionSecretLength {
		return fmt.Errorf("%s must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			name, MinSessionSecretLength, len(secret))
	}

	for _, weak := range knownWeakSecrets {
		if secret == weak {
			return fmt.Errorf("%s is a known default value and must not be used; "+
				"generate a secure secret with: openssl rand -base64 32", name)
		}
	}

	if !hasMinimumEntropy(secret) {
		slog.Warn(name + " has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
