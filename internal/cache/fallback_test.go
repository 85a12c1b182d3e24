package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/lexora/internal/cache"
	"github.com/MrWong99/lexora/internal/cache/mock"
	"github.com/MrWong99/lexora/internal/resilience"
)

func TestFallback_ServesFromSecondaryWhilePrimaryDown(t *testing.T) {
	t.Parallel()

	down := errors.New("dial tcp: connection refused")
	primary := &mock.Backend{BackendName: "redis", GetErr: down, SetErr: down}
	f := cache.NewFallback(primary, cache.NewMemory(), resilience.BreakerConfig{
		Threshold: 1,
		Cooldown:  20 * time.Millisecond,
		Probes:    1,
	})
	ctx := context.Background()

	if err := f.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !f.Degraded() || f.Name() != "memory" {
		t.Fatalf("degraded=%v name=%q after primary failure", f.Degraded(), f.Name())
	}
	got, err := f.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if n := len(primary.GetCalls); n != 0 {
		t.Errorf("open breaker let %d calls through to primary", n)
	}

	primary.SetErrors(nil, nil)
	time.Sleep(30 * time.Millisecond)
	if _, err := f.Get(ctx, "k"); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("Get after recovery err = %v, want miss from primary", err)
	}
	if f.Degraded() || f.Name() != "redis" {
		t.Errorf("degraded=%v name=%q after recovery", f.Degraded(), f.Name())
	}
}

func TestFallback_MissesDoNotTripBreaker(t *testing.T) {
	t.Parallel()

	primary := &mock.Backend{BackendName: "redis"}
	f := cache.NewFallback(primary, cache.NewMemory(), resilience.BreakerConfig{Threshold: 2})
	ctx := context.Background()

	for range 5 {
		if _, err := f.Get(ctx, "absent"); !errors.Is(err, cache.ErrMiss) {
			t.Fatalf("Get err = %v", err)
		}
	}
	if f.Degraded() {
		t.Error("misses degraded the backend")
	}
	if len(primary.GetCalls) != 5 {
		t.Errorf("primary calls = %d, want 5", len(primary.GetCalls))
	}
}
