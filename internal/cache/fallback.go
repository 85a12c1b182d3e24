package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/MrWong99/lexora/internal/resilience"
)

var _ Backend = (*Fallback)(nil)

// Fallback serves from a durable primary backend and switches to an
// in-process secondary while the primary is failing. A circuit breaker guards
// the primary so that an unreachable server costs one timeout per reset
// window rather than one per request.
//
// Misses never count as failures.
type Fallback struct {
	primary   Backend
	secondary Backend
	cb        *resilience.Breaker
	degraded  atomic.Bool
}

// NewFallback wraps primary with secondary. cfg.Name defaults to
// "cache-<primary>".
func NewFallback(primary, secondary Backend, cfg resilience.BreakerConfig) *Fallback {
	if cfg.Name == "" {
		cfg.Name = "cache-" + primary.Name()
	}
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		cb:        resilience.NewBreaker(cfg),
	}
}

// Name reports the backend currently serving requests.
func (f *Fallback) Name() string {
	if f.degraded.Load() {
		return f.secondary.Name()
	}
	return f.primary.Name()
}

// Degraded reports whether the secondary is serving requests.
func (f *Fallback) Degraded() bool { return f.degraded.Load() }

// Get implements [Backend].
func (f *Fallback) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		out  []byte
		miss bool
	)
	err := f.cb.Do(func() error {
		b, err := f.primary.Get(ctx, key)
		if errors.Is(err, ErrMiss) {
			miss = true
			return nil
		}
		out = b
		return err
	})
	if err == nil {
		f.recovered()
		if miss {
			return nil, ErrMiss
		}
		return out, nil
	}
	f.degrade(err)
	return f.secondary.Get(ctx, key)
}

// Set implements [Backend].
func (f *Fallback) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := f.cb.Do(func() error {
		return f.primary.Set(ctx, key, value, ttl)
	})
	if err == nil {
		f.recovered()
		return nil
	}
	f.degrade(err)
	return f.secondary.Set(ctx, key, value, ttl)
}

func (f *Fallback) degrade(err error) {
	if f.degraded.CompareAndSwap(false, true) {
		slog.Warn("cache: primary backend unavailable, serving from fallback",
			"primary", f.primary.Name(), "fallback", f.secondary.Name(), "err", err)
	}
}

func (f *Fallback) recovered() {
	if f.degraded.CompareAndSwap(true, false) {
		slog.Info("cache: primary backend recovered", "primary", f.primary.Name())
	}
}
