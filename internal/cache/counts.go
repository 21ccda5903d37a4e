// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"strconv"
	"time"
)

// Keys of the cached directory counts.
const (
	KeyUserCount       = "count:users"
	KeyConferenceCount = "count:conferences"
)

// Counts caches integer totals used by pagination.
type Counts struct {
	cache Cache
	ttl   time.Duration
}

// NewCounts wraps c. A nil c disables caching.
func NewCounts(c Cache, ttl time.Duration) *Counts {
	return &Counts{cache: c, ttl: ttl}
}

// GetOrLoad returns the cached total for key or calls load and stores its
// result. Cache failures fall through to load.
func (c *Counts) GetOrLoad(ctx context.Context, key string, load func(context.Context) (int64, error)) (int64, error) {
	if c != nil && c.cache != nil {
		if raw, err := c.cache.Get(ctx, key); err == nil {
			if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
				return n, nil
			}
		}
	}

	n, err := load(ctx)
	if err != nil {
		return 0, err
	}

	if c != nil && c.cache != nil {
		_ = c.cache.Set(ctx, key, []byte(strconv.FormatInt(n, 10)), c.ttl)
	}
	return n, nil
}

// Invalidate drops the cached totals for keys.
func (c *Counts) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.cache == nil {
		return
	}
	for _, k := range keys {
		_ = c.cache.Delete(ctx, k)
	}
}
