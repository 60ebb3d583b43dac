package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"carscan/models"
	"carscan/utils"
)

// Cache sits in front of the engine; identical criteria within the TTL reuse
// the previous ranked result instead of re-scraping the sources.
type Cache interface {
	Get(ctx context.Context, key string) (*models.SearchResult, bool)
	Set(ctx context.Context, key string, result *models.SearchResult)
}

// RedisCache stores serialized search results in Redis with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *utils.Logger
}

// NewRedisCache connects to Redis at addr. Cache trouble is logged and
// otherwise invisible to callers.
func NewRedisCache(addr string, ttl time.Duration, logger *utils.Logger) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached result for key, if present and still fresh.
func (c *RedisCache) Get(ctx context.Context, key string) (*models.SearchResult, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("[cache] get %s: %v", key, err)
		}
		return nil, false
	}

	var result models.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("[cache] corrupt entry %s: %v", key, err)
		return nil, false
	}
	return &result, true
}

// Set stores the result under key for the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, result *models.SearchResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("[cache] marshal %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("[cache] set %s: %v", key, err)
	}
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// cacheKey derives a stable key from every criteria field that changes the
// result set.
func cacheKey(c models.SearchCriteria) string {
	origin := ""
	if c.Origin != nil {
		origin = fmt.Sprintf("%.4f:%.4f", c.Origin.Latitude, c.Origin.Longitude)
	}
	return fmt.Sprintf("carscan:search:%s|%s|%s|%s|%s|%s|%s|%s|%s|%v",
		c.Query, c.CityHint, origin,
		floatKey(c.RadiusKm), floatKey(c.MinPrice), floatKey(c.MaxPrice),
		intKey(c.MinYear), intKey(c.MaxYear), intKey(c.MaxMileage), c.DistanceSort)
}

func floatKey(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func intKey(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
