// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"time"
)

// Config selects and configures the cache backend.
type Config struct {
	RedisURL   string // empty selects the memory backend
	Prefix     string
	DefaultTTL time.Duration
	MaxSize    int
}

// New returns a Redis cache when RedisURL is set and reachable, otherwise a
// memory cache. The second result names the backend in use.
func New(cfg Config, logger *slog.Logger) (Cache, string) {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = time.Hour
	}

	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(RedisOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.Prefix,
			DefaultTTL: cfg.DefaultTTL,
		})
		if err == nil {
			return rc, "redis"
		}
		logger.Warn("redis unavailable, falling back to memory cache", "error", err)
	}

	return NewMemoryCache(MemoryOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: time.Minute,
	}), "memory"
}
