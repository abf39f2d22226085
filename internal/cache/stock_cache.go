// Package cache keeps display-only stock totals in Redis.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"order-management/internal/core"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "stock:total:"

// NewRedis creates and validates a go-redis client connection.
func NewRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	// Validate connectivity at startup
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return rdb, nil
}

// RedisStockCache implements core.StockCache. Redis errors are logged and treated
// as misses; allocation decisions never read from here.
type RedisStockCache struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

var _ core.StockCache = (*RedisStockCache)(nil)

func NewRedisStockCache(rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisStockCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisStockCache{rdb: rdb, ttl: ttl, log: logger}
}

func key(productID uuid.UUID) string {
	return keyPrefix + productID.String()
}

func (c *RedisStockCache) GetTotal(ctx context.Context, productID uuid.UUID) (int, bool) {
	v, err := c.rdb.Get(ctx, key(productID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("product_id", productID.String()).Msg("stock cache read failed")
		}
		return 0, false
	}
	total, err := strconv.Atoi(v)
	if err != nil {
		c.log.Warn().Err(err).Str("product_id", productID.String()).Msg("stock cache holds non-integer value")
		return 0, false
	}
	return total, true
}

func (c *RedisStockCache) SetTotal(ctx context.Context, productID uuid.UUID, total int) {
	if err := c.rdb.Set(ctx, key(productID), total, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("product_id", productID.String()).Msg("stock cache write failed")
	}
}

func (c *RedisStockCache) Invalidate(ctx context.Context, productIDs ...uuid.UUID) {
	if len(productIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, key(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Int("keys", len(keys)).Msg("stock cache invalidation failed")
	}
}
