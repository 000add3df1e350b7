// internal/irradiation/cache.go
package irradiation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores live daily irradiation values per site.
type Cache interface {
	Get(ctx context.Context, lat, lon float64) (float64, bool, error)
	Set(ctx context.Context, lat, lon, value float64) error
}

// RedisCache keeps values under irradiation:daily:<lat>:<lon>, coordinates
// rounded to 4 decimals (about 11 m).
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func CacheKey(lat, lon float64) string {
	return fmt.Sprintf("irradiation:daily:%.4f:%.4f", lat, lon)
}

func (c *RedisCache) Get(ctx context.Context, lat, lon float64) (float64, bool, error) {
	raw, err := c.client.Get(ctx, CacheKey(lat, lon)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value <= 0 {
		return 0, false, fmt.Errorf("corrupt cache entry %q", raw)
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, lat, lon, value float64) error {
	return c.client.Set(ctx, CacheKey(lat, lon), strconv.FormatFloat(value, 'f', -1, 64), c.ttl).Err()
}
