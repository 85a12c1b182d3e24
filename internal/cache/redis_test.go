package cache_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/MrWong99/lexora/internal/cache"
	"github.com/MrWong99/lexora/pkg/types"
)

// Integration tests require a reachable Redis server:
//
//	LEXORA_TEST_REDIS_ADDR=localhost:6379 go test ./internal/cache/...
func redisOptions(t *testing.T) *redis.Options {
	t.Helper()
	addr := os.Getenv("LEXORA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LEXORA_TEST_REDIS_ADDR not set; skipping Redis integration test")
	}
	return &redis.Options{Addr: addr, DB: 15}
}

func TestRedis_RoundTrip(t *testing.T) {
	ctx := context.Background()
	r, err := cache.DialRedis(ctx, redisOptions(t))
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	key := cache.Key(t.Name(), time.Now().String())
	if _, err := r.Get(ctx, key); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("Get fresh key err = %v, want ErrMiss", err)
	}
	if err := r.Set(ctx, key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := r.Get(ctx, key)
	if err != nil || string(got) != "payload" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	c := cache.New(r)
	res, hit, err := c.Do(ctx, key+":result", func(context.Context) (*types.Result, error) {
		return result("redis"), nil
	})
	if err != nil || hit || res.Items[0].SourceText != "redis" {
		t.Fatalf("Do = %+v, %v, %v", res, hit, err)
	}
	if _, hit, _ = c.Do(ctx, key+":result", nil); !hit {
		t.Error("second Do missed")
	}
}
