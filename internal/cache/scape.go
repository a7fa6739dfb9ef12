// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"scapes/internal/publisher"
)

const (
	scapeKeyPrefix = "scape:"

	// DefaultScapeTTL is how long a rendered public view stays cached.
	DefaultScapeTTL = 5 * time.Minute
)

// ScapeCache holds the JSON of published scapes as served by the public
// endpoint. It implements publisher.Notifier so every save, publish or
// delete drops the stale entry.
type ScapeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScapeCache creates a cache backed by client. A zero ttl selects
// DefaultScapeTTL.
func NewScapeCache(client *redis.Client, ttl time.Duration) *ScapeCache {
	if ttl == 0 {
		ttl = DefaultScapeTTL
	}
	return &ScapeCache{client: client, ttl: ttl}
}

// Key returns the cache key for a scape id.
func Key(scapeID string) string {
	return scapeKeyPrefix + scapeID
}

// Get returns the cached view for a scape. Errors count as a miss.
func (c *ScapeCache) Get(ctx context.Context, scapeID string) ([]byte, bool) {
	val, err := c.client.Get(ctx, Key(scapeID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("scape cache get error", "scape_id", scapeID, "error", err)
		return nil, false
	}
	slog.Debug("scape cache hit", "scape_id", scapeID)
	return val, true
}

// Set stores the rendered view for a scape.
func (c *ScapeCache) Set(ctx context.Context, scapeID string, view []byte) {
	if err := c.client.Set(ctx, Key(scapeID), view, c.ttl).Err(); err != nil {
		slog.Warn("scape cache set error", "scape_id", scapeID, "error", err)
	}
}

// Invalidate removes one scape from the cache.
func (c *ScapeCache) Invalidate(ctx context.Context, scapeID string) {
	if err := c.client.Del(ctx, Key(scapeID)).Err(); err != nil {
		slog.Warn("scape cache invalidate error", "scape_id", scapeID, "error", err)
		return
	}
	slog.Debug("scape cache invalidated", "scape_id", scapeID)
}

// InvalidateAll removes every cached scape. Used after a media base URL
// change, since every view embeds resolved URLs.
func (c *ScapeCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, next, err := c.client.Scan(ctx, cursor, scapeKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("scape cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("scape cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("scape cache cleared", "deleted", deleted)
	}
}

// ScapeChanged drops the entry for the changed scape.
func (c *ScapeCache) ScapeChanged(ctx context.Context, ch publisher.Change) {
	if c == nil || c.client == nil {
		return
	}
	c.Invalidate(context.WithoutCancel(ctx), ch.ScapeID)
}
