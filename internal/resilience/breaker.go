// Package resilience guards Lexora's optional dependencies, the durable cache
// and the LLM enrichment backends, so that an outage degrades extraction
// instead of stalling it.
//
// [Breaker] is a three-state circuit breaker. [Chain] tries an ordered list of
// interchangeable backends, each behind its own breaker, and [LLMChain] is the
// llm.Provider built on it.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned when a breaker rejects a call without running it.
var ErrOpen = errors.New("resilience: circuit open")

// State is a breaker's operating mode.
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota
	// StateOpen rejects calls until the cooldown elapses.
	StateOpen
	// StateHalfOpen admits a few probe calls to test recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// BreakerConfig tunes a [Breaker]. Zero fields take the defaults noted.
type BreakerConfig struct {
	// Name labels log lines and state-change callbacks.
	Name string

	// Threshold is the number of consecutive failures that opens the
	// breaker. Default: 5.
	Threshold int

	// Cooldown is how long an open breaker waits before probing. Default: 30s.
	Cooldown time.Duration

	// Probes is the number of successful half-open calls needed to close
	// again, and the most that may be in flight at once. Default: 3.
	Probes int

	// OnStateChange runs after each transition, outside the breaker's lock.
	OnStateChange func(name string, from, to State)
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.Threshold <= 0 {
		c.Threshold = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	if c.Probes <= 0 {
		c.Probes = 3
	}
	return c
}

// Breaker is a circuit breaker. The zero value is not usable; call
// [NewBreaker].
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	admitted int // half-open probes let through
	passed   int // half-open probes that succeeded
}

type change struct{ from, to State }

// NewBreaker returns a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg.withDefaults(), now: time.Now}
}

// Name returns the configured label.
func (b *Breaker) Name() string { return b.cfg.Name }

// Do runs fn when the breaker admits the call and records its outcome.
// It returns [ErrOpen] without running fn otherwise.
func (b *Breaker) Do(fn func() error) error {
	done, err := b.Allow()
	if err != nil {
		return err
	}
	err = fn()
	done(err)
	return err
}

// Allow asks for permission to make one call. On success the caller must
// report the call's outcome through done exactly once. Errors for which
// [IsNeutral] holds count neither way.
func (b *Breaker) Allow() (done func(error), err error) {
	b.mu.Lock()
	var changes []change
	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			b.mu.Unlock()
			return nil, ErrOpen
		}
		changes = append(changes, b.moveTo(StateHalfOpen))
	}
	probe := b.state == StateHalfOpen
	if probe {
		if b.admitted >= b.cfg.Probes {
			b.mu.Unlock()
			b.notify(changes)
			return nil, ErrOpen
		}
		b.admitted++
	}
	b.mu.Unlock()
	b.notify(changes)

	var once sync.Once
	return func(err error) {
		once.Do(func() { b.record(probe, err) })
	}, nil
}

func (b *Breaker) record(probe bool, err error) {
	b.mu.Lock()
	var changes []change
	switch {
	case IsNeutral(err):
		if probe && b.state == StateHalfOpen {
			b.admitted--
		}
	case err != nil:
		if probe {
			if b.state == StateHalfOpen {
				changes = append(changes, b.trip())
			}
			break
		}
		b.failures++
		if b.state == StateClosed && b.failures >= b.cfg.Threshold {
			changes = append(changes, b.trip())
		}
	case probe:
		if b.state != StateHalfOpen {
			break
		}
		b.passed++
		if b.passed >= b.cfg.Probes {
			changes = append(changes, b.moveTo(StateClosed))
		}
	default:
		b.failures = 0
	}
	b.mu.Unlock()
	b.notify(changes)
}

// trip opens the breaker. b.mu must be held.
func (b *Breaker) trip() change {
	b.openedAt = b.now()
	return b.moveTo(StateOpen)
}

// moveTo switches state and clears the counters of the state being
// entered. b.mu must be held.
func (b *Breaker) moveTo(to State) change {
	c := change{from: b.state, to: to}
	b.state = to
	switch to {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.admitted, b.passed = 0, 0
	}
	return c
}

func (b *Breaker) notify(changes []change) {
	for _, c := range changes {
		if c.from == c.to {
			continue
		}
		if c.to == StateOpen {
			slog.Warn("resilience: breaker opened", "name", b.cfg.Name, "from", c.from)
		} else {
			slog.Info("resilience: breaker state changed", "name", b.cfg.Name, "from", c.from, "to", c.to)
		}
		if b.cfg.OnStateChange != nil {
			b.cfg.OnStateChange(b.cfg.Name, c.from, c.to)
		}
	}
}

// State returns the current state. An open breaker whose cooldown has
// elapsed reports [StateHalfOpen]; the transition itself happens on the
// next call.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return StateHalfOpen
	}
	return b.state
}

// Reset closes the breaker and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	c := b.moveTo(StateClosed)
	b.mu.Unlock()
	b.notify([]change{c})
}

// IsNeutral reports whether err says nothing about the dependency's health:
// the caller gave up or ran out of time.
func IsNeutral(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
