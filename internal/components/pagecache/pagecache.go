// Package pagecache stores raw upstream response bodies keyed by URL.
package pagecache

import (
	"context"
	"time"

	"mightstone-backend/internal/components/telemetry"
)

const (
	DefaultTTL  = 15 * time.Minute
	DefaultSize = 512
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
	Close() error
}

type Options struct {
	TTL  time.Duration
	Size int
	// RedisURL selects the shared Redis cache, empty keeps bodies in memory.
	RedisURL string
}

func New(opts Options, tel telemetry.API) (Cache, error) {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.RedisURL != "" {
		return NewRedisCache(opts.RedisURL, opts.TTL, tel)
	}
	return NewMemoryCache(opts.Size, opts.TTL), nil
}
