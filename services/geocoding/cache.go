package geocoding

import (
	"context"
	"errors"
	"time"

	"snapbook/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "geocode:"

// Cache is a string key/value store with expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache stores addresses in Redis.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// CachedGeocoder serves addresses from Cache, keyed by the raw coordinate
// string, and falls through to Next on a miss. A failing cache is bypassed.
type CachedGeocoder struct {
	Next   Geocoder
	Cache  Cache
	TTL    time.Duration
	Logger *zap.Logger
}

func NewCachedGeocoder(next Geocoder, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedGeocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedGeocoder{Next: next, Cache: cache, TTL: ttl, Logger: logger}
}

func cacheKey(point models.GeoPoint) string {
	return cacheKeyPrefix + point.Key()
}

func (g *CachedGeocoder) ReadableAddress(ctx context.Context, point models.GeoPoint) (string, error) {
	if err := point.Validate(); err != nil {
		return g.Next.ReadableAddress(ctx, point)
	}
	key := cacheKey(point)

	if addr, ok, err := g.Cache.Get(ctx, key); err != nil {
		g.Logger.Warn("geocode cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return addr, nil
	}

	addr, err := g.Next.ReadableAddress(ctx, point)
	if err != nil {
		return "", err
	}
	if err := g.Cache.Set(ctx, key, addr, g.TTL); err != nil {
		g.Logger.Warn("geocode cache write failed", zap.String("key", key), zap.Error(err))
	}
	return addr, nil
}
