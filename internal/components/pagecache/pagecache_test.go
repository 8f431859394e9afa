package pagecache

import (
	"context"
	"testing"
	"time"

	"mightstone-backend/internal/components/telemetry"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(2, time.Minute)

	_, ok := cache.Get(ctx, "https://edhrec.com/a")
	require.False(t, ok)

	cache.Set(ctx, "https://edhrec.com/a", []byte("a"))
	cache.Set(ctx, "https://edhrec.com/b", []byte("b"))
	body, ok := cache.Get(ctx, "https://edhrec.com/a")
	require.True(t, ok)
	require.Equal(t, "a", string(body))

	// b is the least recently used entry
	cache.Set(ctx, "https://edhrec.com/c", []byte("c"))
	_, ok = cache.Get(ctx, "https://edhrec.com/b")
	require.False(t, ok)
	require.Equal(t, 2, cache.Len())
}

func TestMemoryCacheExpires(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(8, 20*time.Millisecond)

	cache.Set(ctx, "key", []byte("body"))
	time.Sleep(50 * time.Millisecond)
	_, ok := cache.Get(ctx, "key")
	require.False(t, ok)
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis, *telemetry.MemoryAPI) {
	t.Helper()
	mr := miniredis.RunT(t)
	tel := telemetry.NewMemoryAPI()
	cache, err := NewRedisCache("redis://"+mr.Addr()+"/0", time.Minute, tel)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache, mr, tel
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	cache, mr, _ := newRedisCache(t)

	_, ok := cache.Get(ctx, "https://edhrec.com/a")
	require.False(t, ok)

	cache.Set(ctx, "https://edhrec.com/a", []byte("<html></html>"))
	body, ok := cache.Get(ctx, "https://edhrec.com/a")
	require.True(t, ok)
	require.Equal(t, "<html></html>", string(body))
	require.True(t, mr.Exists(keyPrefix+"https://edhrec.com/a"))

	mr.FastForward(2 * time.Minute)
	_, ok = cache.Get(ctx, "https://edhrec.com/a")
	require.False(t, ok)
}

func TestRedisCacheDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	cache, mr, tel := newRedisCache(t)

	mr.Close()
	cache.Set(ctx, "key", []byte("body"))
	_, ok := cache.Get(ctx, "key")
	require.False(t, ok)
	require.True(t, tel.HasReport(telemetry.REPORT_WARNING, "redis.get"))
	require.True(t, tel.HasReport(telemetry.REPORT_WARNING, "redis.set"))
}

func TestNewSelectsBackend(t *testing.T) {
	tel := telemetry.NewMemoryAPI()

	cache, err := New(Options{}, tel)
	require.NoError(t, err)
	require.IsType(t, &MemoryCache{}, cache)

	mr := miniredis.RunT(t)
	cache, err = New(Options{RedisURL: "redis://" + mr.Addr()}, tel)
	require.NoError(t, err)
	require.IsType(t, &RedisCache{}, cache)
	require.NoError(t, cache.Close())

	_, err = New(Options{RedisURL: "not a url"}, tel)
	require.Error(t, err)
}

func TestRedisCacheFromClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCacheFromClient(client, time.Second, telemetry.NewMemoryAPI())
	defer cache.Close()

	cache.Set(context.Background(), "k", []byte("v"))
	ttl := mr.TTL(keyPrefix + "k")
	require.Equal(t, time.Second, ttl)
}
