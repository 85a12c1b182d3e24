// Package cache stores extraction results keyed by a digest of the input text
// and every option that shapes the output.
//
// A [Cache] sits in front of a [Backend]. Concurrent requests for the same key
// are collapsed into one computation. Entries that fail to decode are treated
// as misses and overwritten by the next computation, so a backend can never
// fail an extraction.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/unicode/norm"

	"github.com/MrWong99/lexora/internal/observe"
	"github.com/MrWong99/lexora/pkg/types"
)

// DefaultTTL is how long results stay valid.
const DefaultTTL = 24 * time.Hour

// keyPrefix namespaces keys in shared backends. Bump the version when the
// stored representation changes.
const keyPrefix = "lexora:v1:"

var (
	// ErrMiss is returned when no usable entry exists for a key.
	ErrMiss = errors.New("cache: miss")

	// ErrCorrupt is wrapped together with [ErrMiss] when an entry exists but
	// cannot be decoded.
	ErrCorrupt = errors.New("cache: corrupt entry")
)

// Backend is a byte-oriented key/value store with expiry.
//
// Implementations must be safe for concurrent use.
type Backend interface {
	// Get returns the stored value or [ErrMiss] when the key is absent or
	// expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Name identifies the backend in logs and metrics.
	Name() string
}

// Cache is safe for concurrent use.
type Cache struct {
	backend Backend
	ttl     time.Duration
	metrics *observe.Metrics
	group   singleflight.Group
}

// Option configures a [Cache].
type Option func(*Cache)

// WithTTL overrides [DefaultTTL]. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMetrics records lookups on m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New returns a Cache over backend.
func New(backend Backend, opts ...Option) *Cache {
	c := &Cache{backend: backend, ttl: DefaultTTL}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c
}

// Backend returns the underlying backend.
func (c *Cache) Backend() Backend { return c.backend }

// TTL returns the entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Key derives the cache key for text and the parameters that influence the
// result. Text is NFKC-normalised first so that full-width and half-width
// renderings of the same transcript share an entry.
func Key(text string, params ...string) string {
	h := sha256.New()
	h.Write([]byte(norm.NFKC.String(text)))
	for _, p := range params {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached result for key. The error wraps [ErrMiss] for absent
// and undecodable entries; any other error comes from the backend.
func (c *Cache) Get(ctx context.Context, key string) (*types.Result, error) {
	raw, err := c.backend.Get(ctx, key)
	switch {
	case errors.Is(err, ErrMiss):
		c.metrics.RecordCacheLookup(ctx, c.backend.Name(), "miss")
		return nil, ErrMiss
	case err != nil:
		c.metrics.RecordCacheLookup(ctx, c.backend.Name(), "error")
		return nil, fmt.Errorf("cache: get: %w", err)
	}

	var res types.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		c.metrics.RecordCacheLookup(ctx, c.backend.Name(), "corrupt")
		slog.Warn("cache: discarding corrupt entry", "key", key, "backend", c.backend.Name(), "err", err)
		return nil, fmt.Errorf("%w: %w", ErrMiss, ErrCorrupt)
	}
	c.metrics.RecordCacheLookup(ctx, c.backend.Name(), "hit")
	return &res, nil
}

// Set stores res under key.
func (c *Cache) Set(ctx context.Context, key string, res *types.Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}
	if err := c.backend.Set(ctx, key, raw, c.ttl); err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}

// Do returns the cached result for key, or runs compute and caches what it
// returns. Concurrent calls for the same key share a single compute call.
//
// compute runs detached from ctx's cancellation so that one impatient caller
// does not fail the others waiting on the same key; ctx still bounds how long
// this caller waits. Backend failures degrade to a plain computation.
//
// The returned result is shared between callers and must not be modified.
// hit reports whether it came from the backend.
func (c *Cache) Do(ctx context.Context, key string, compute func(context.Context) (*types.Result, error)) (res *types.Result, hit bool, err error) {
	if cached, err := c.Get(ctx, key); err == nil {
		return cached, true, nil
	} else if !errors.Is(err, ErrMiss) {
		slog.Warn("cache: lookup failed, computing", "key", key, "err", err)
	}

	ch := c.group.DoChan(key, func() (any, error) {
		cctx := context.WithoutCancel(ctx)
		// A flight for key may have stored its result between our miss and
		// this one starting.
		if cached, ok := c.peek(cctx, key); ok {
			return flight{res: cached, hit: true}, nil
		}
		res, err := compute(cctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(cctx, key, res); err != nil {
			slog.Warn("cache: store failed", "key", key, "backend", c.backend.Name(), "err", err)
		}
		return flight{res: res}, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, false, r.Err
		}
		f := r.Val.(flight)
		return f.res, f.hit, nil
	}
}

type flight struct {
	res *types.Result
	hit bool
}

// peek reads key without recording a lookup. Errors and undecodable entries
// report false.
func (c *Cache) peek(ctx context.Context, key string) (*types.Result, bool) {
	raw, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var res types.Result
	if json.Unmarshal(raw, &res) != nil {
		return nil, false
	}
	return &res, true
}
