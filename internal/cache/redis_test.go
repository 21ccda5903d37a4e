// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// skipIfNoRedis skips the test if Redis is not configured.
func skipIfNoRedis(t *testing.T) string {
	url := os.Getenv("MUNAPP_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: MUNAPP_TEST_REDIS_URL not set")
	}
	return url
}

func TestRedisCache_Basic(t *testing.T) {
	url := skipIfNoRedis(t)

	c, err := NewRedisCache(RedisOptions{URL: url, Prefix: "munapp-test:", DefaultTTL: time.Minute})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer func() { _ = c.Close() }()
	ctx := context.Background()
	_ = c.Clear(ctx)

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete error = %v, want ErrCacheMiss", err)
	}

	if err := c.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestNewRedisCache_RequiresURL(t *testing.T) {
	if _, err := NewRedisCache(RedisOptions{}); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := NewRedisCache(RedisOptions{URL: "://bad"}); err == nil {
		t.Error("expected error for malformed URL")
	}
}
