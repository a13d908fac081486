// Package cache holds the Redis read-through cache for catalog reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/storefront-api/internal/dto"
)

const DefaultProductTTL = 60 * time.Second

// ProductCache stores rendered product responses keyed by product id. A nil
// client turns every method into a no-op, and read errors count as misses.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewProductCache(client *redis.Client, ttl time.Duration, log *slog.Logger) *ProductCache {
	if log == nil {
		log = slog.Default()
	}
	return &ProductCache{client: client, ttl: ttl, log: log}
}

func productKey(id uuid.UUID) string { return "product:" + id.String() }

func (c *ProductCache) enabled() bool { return c != nil && c.client != nil }

func (c *ProductCache) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, bool) {
	if !c.enabled() {
		return nil, false
	}
	cached, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("product cache read", "product_id", id, "error", err)
		}
		return nil, false
	}
	var resp dto.ProductResponse
	if err := json.Unmarshal(cached, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (c *ProductCache) Set(ctx context.Context, resp *dto.ProductResponse) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productKey(resp.ID), data, c.ttl).Err(); err != nil {
		c.log.Warn("product cache write", "product_id", resp.ID, "error", err)
	}
}

func (c *ProductCache) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	if !c.enabled() || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("product cache invalidate", "error", err)
	}
}
