// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the application configuration from MUNAPP_*
// environment variables.
package config

import (
	"errors"
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
	DBPath        string `env:"MUNAPP_DB_PATH" envDefault:"./data/munapp.db"`
	SessionSecret string `env:"MUNAPP_SESSION_SECRET,required"`
	ServerHost    string `env:"MUNAPP_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"MUNAPP_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"MUNAPP_ENV" envDefault:"development"`
	LogLevel      string `env:"MUNAPP_LOG_LEVEL" envDefault:"info"`

	// TrustProxy takes the client address from X-Real-IP / X-Forwarded-For.
	// Only enable it behind a reverse proxy that overwrites those headers.
	TrustProxy bool `env:"MUNAPP_TRUST_PROXY" envDefault:"false"`

	// Cache configuration
	RedisURL     string `env:"MUNAPP_REDIS_URL"`                        // Optional Redis URL for shared count caching
	CachePrefix  string `env:"MUNAPP_CACHE_PREFIX" envDefault:"munapp:"` // Redis key prefix
	CacheTTL     int    `env:"MUNAPP_CACHE_TTL" envDefault:"300"`        // Count cache TTL in seconds
	CacheMaxSize int    `env:"MUNAPP_CACHE_MAX_SIZE" envDefault:"1000"`  // Max memory cache entries

	// GeoIP configuration
	GeoIPDBPath string `env:"MUNAPP_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Administrator created on first start
	AdminAlias    string `env:"MUNAPP_ADMIN_ALIAS" envDefault:"ADMIN"`
	AdminEmail    string `env:"MUNAPP_ADMIN_EMAIL"`
	AdminPassword string `env:"MUNAPP_ADMIN_PASSWORD"`

	// Audit log retention in days; 0 keeps events forever
	EventRetentionDays int `env:"MUNAPP_EVENT_RETENTION_DAYS" envDefault:"90"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// SeedAdmin reports whether an administrator should be seeded.
func (c Config) SeedAdmin() bool {
	return c.AdminEmail != "" && c.AdminPassword != ""
}

// CacheTTLDuration returns CacheTTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// EventRetention returns the audit retention period, 0 meaning forever.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
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
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("MUNAPP_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, errors.New("MUNAPP_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("MUNAPP_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return nil, errors.New("MUNAPP_ADMIN_EMAIL and MUNAPP_ADMIN_PASSWORD must be set together")
	}
	if cfg.EventRetentionDays < 0 {
		return nil, fmt.Errorf("MUNAPP_EVENT_RETENTION_DAYS must not be negative, got %d", cfg.EventRetentionDays)
	}

	return cfg, nil
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
