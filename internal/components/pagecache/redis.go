package pagecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mightstone-backend/internal/components/assert"
	"mightstone-backend/internal/components/telemetry"

	"github.com/redis/go-redis/v9"
)

const (
	report_redis_get = "redis.get"
	report_redis_set = "redis.set"
)

const keyPrefix = "mightstone:page:"

// RedisCache shares bodies between instances. Redis failures degrade to
// cache misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	tel    telemetry.API
}

func NewRedisCache(url string, ttl time.Duration, tel telemetry.API) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("pagecache: parse redis url: %w", err)
	}
	return NewRedisCacheFromClient(redis.NewClient(opts), ttl, tel), nil
}

func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration, tel telemetry.API) *RedisCache {
	assert.NotNil(client)
	assert.NotNil(tel)
	return &RedisCache{
		client: client,
		ttl:    ttl,
		tel:    telemetry.NewScopedAPI("pagecache", tel),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	body, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.tel.ReportWarning(report_redis_get, key, err)
		return nil, false
	}
	return body, true
}

func (c *RedisCache) Set(ctx context.Context, key string, body []byte) {
	err := c.client.Set(ctx, keyPrefix+key, body, c.ttl).Err()
	if err != nil {
		c.tel.ReportWarning(report_redis_set, key, err)
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
