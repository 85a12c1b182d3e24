package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrExhausted is returned when every link of a [Chain] failed or was
// skipped by its breaker.
var ErrExhausted = errors.New("resilience: all backends failed")

// Link is one named backend of a [Chain].
type Link[T any] struct {
	Name    string
	Backend T
	breaker *Breaker
}

// LinkStatus reports one link's breaker state.
type LinkStatus struct {
	Name  string
	State State
}

// Chain holds interchangeable backends in preference order, each behind its
// own [Breaker]. Build it completely before sharing it between goroutines.
type Chain[T any] struct {
	cfg   BreakerConfig
	links []Link[T]
}

// NewChain returns a chain whose breakers are built from cfg. cfg.Name is
// replaced by each link's name.
func NewChain[T any](cfg BreakerConfig) *Chain[T] {
	return &Chain[T]{cfg: cfg}
}

// Add appends a backend after the ones already present.
func (c *Chain[T]) Add(name string, backend T) *Chain[T] {
	cfg := c.cfg
	cfg.Name = name
	c.links = append(c.links, Link[T]{Name: name, Backend: backend, breaker: NewBreaker(cfg)})
	return c
}

// Len returns the number of links.
func (c *Chain[T]) Len() int { return len(c.links) }

// First returns the preferred backend. It panics on an empty chain.
func (c *Chain[T]) First() T { return c.links[0].Backend }

// Status reports every link's breaker state in preference order.
func (c *Chain[T]) Status() []LinkStatus {
	out := make([]LinkStatus, 0, len(c.links))
	for _, l := range c.links {
		out = append(out, LinkStatus{Name: l.Name, State: l.breaker.State()})
	}
	return out
}

// Call runs fn against each link in order and returns the first success.
// Links with an open breaker are skipped. A neutral error (see [IsNeutral])
// ends the walk at once and is returned as is, since the remaining links
// would share the caller's expired context. Otherwise the last failure is
// returned wrapped in [ErrExhausted].
func Call[T, R any](c *Chain[T], fn func(Link[T]) (R, error)) (R, error) {
	var (
		zero    R
		lastErr error = ErrOpen
	)
	for _, l := range c.links {
		var out R
		err := l.breaker.Do(func() error {
			var err error
			out, err = fn(l)
			return err
		})
		switch {
		case err == nil:
			return out, nil
		case IsNeutral(err):
			return zero, err
		case errors.Is(err, ErrOpen):
			slog.Debug("resilience: skipping backend with open breaker", "backend", l.Name)
		default:
			slog.Warn("resilience: backend failed, trying next", "backend", l.Name, "err", err)
			lastErr = err
		}
	}
	return zero, fmt.Errorf("%w: %w", ErrExhausted, lastErr)
}
