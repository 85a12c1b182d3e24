package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

var errDown = errors.New("connection refused")

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(cfg BreakerConfig) (*Breaker, *clock) {
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	b := NewBreaker(cfg)
	b.now = clk.Now
	return b, clk
}

func fail() error    { return errDown }
func succeed() error { return nil }

func TestNewBreaker_Defaults(t *testing.T) {
	t.Parallel()
	b := NewBreaker(BreakerConfig{Name: "redis"})
	if b.cfg.Threshold != 5 || b.cfg.Cooldown != 30*time.Second || b.cfg.Probes != 3 {
		t.Errorf("cfg = %+v", b.cfg)
	}
	if b.State() != StateClosed || b.Name() != "redis" {
		t.Errorf("state = %v name = %q", b.State(), b.Name())
	}
}

func TestBreaker_Transitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		steps func(b *Breaker, clk *clock)
		want  State
	}{
		{
			name:  "stays closed below threshold",
			steps: func(b *Breaker, _ *clock) { _ = b.Do(fail); _ = b.Do(fail) },
			want:  StateClosed,
		},
		{
			name:  "opens at threshold",
			steps: func(b *Breaker, _ *clock) { _ = b.Do(fail); _ = b.Do(fail); _ = b.Do(fail) },
			want:  StateOpen,
		},
		{
			name: "success resets the failure run",
			steps: func(b *Breaker, _ *clock) {
				_ = b.Do(fail)
				_ = b.Do(fail)
				_ = b.Do(succeed)
				_ = b.Do(fail)
				_ = b.Do(fail)
			},
			want: StateClosed,
		},
		{
			name: "reports half-open after cooldown",
			steps: func(b *Breaker, clk *clock) {
				for range 3 {
					_ = b.Do(fail)
				}
				clk.Advance(time.Minute)
			},
			want: StateHalfOpen,
		},
		{
			name: "closes after enough probes",
			steps: func(b *Breaker, clk *clock) {
				for range 3 {
					_ = b.Do(fail)
				}
				clk.Advance(time.Minute)
				_ = b.Do(succeed)
				_ = b.Do(succeed)
			},
			want: StateClosed,
		},
		{
			name: "failed probe reopens",
			steps: func(b *Breaker, clk *clock) {
				for range 3 {
					_ = b.Do(fail)
				}
				clk.Advance(time.Minute)
				_ = b.Do(succeed)
				_ = b.Do(fail)
			},
			want: StateOpen,
		},
		{
			name: "neutral errors never count",
			steps: func(b *Breaker, _ *clock) {
				for range 5 {
					_ = b.Do(func() error { return context.Canceled })
					_ = b.Do(func() error { return fmt.Errorf("redis get: %w", context.DeadlineExceeded) })
				}
			},
			want: StateClosed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, clk := newTestBreaker(BreakerConfig{Threshold: 3, Cooldown: 30 * time.Second, Probes: 2})
			tt.steps(b, clk)
			if got := b.State(); got != tt.want {
				t.Errorf("state = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBreaker_OpenRejectsWithoutCalling(t *testing.T) {
	t.Parallel()
	b, _ := newTestBreaker(BreakerConfig{Threshold: 1, Cooldown: time.Hour})
	_ = b.Do(fail)

	called := false
	err := b.Do(func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("err = %v, want ErrOpen", err)
	}
	if called {
		t.Error("open breaker ran the call")
	}
}

func TestBreaker_HalfOpenLimitsProbes(t *testing.T) {
	t.Parallel()
	b, clk := newTestBreaker(BreakerConfig{Threshold: 1, Cooldown: time.Second, Probes: 2})
	_ = b.Do(fail)
	clk.Advance(2 * time.Second)

	first, err := b.Allow()
	if err != nil {
		t.Fatalf("probe 1: %v", err)
	}
	second, err := b.Allow()
	if err != nil {
		t.Fatalf("probe 2: %v", err)
	}
	if _, err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Fatalf("probe 3 err = %v, want ErrOpen while two probes are in flight", err)
	}

	// A cancelled probe frees its slot.
	first(context.Canceled)
	third, err := b.Allow()
	if err != nil {
		t.Fatalf("probe after neutral result: %v", err)
	}
	second(nil)
	third(nil)
	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed", b.State())
	}
}

func TestBreaker_DoneIsIdempotent(t *testing.T) {
	t.Parallel()
	b, _ := newTestBreaker(BreakerConfig{Threshold: 2})
	done, err := b.Allow()
	if err != nil {
		t.Fatal(err)
	}
	done(errDown)
	done(errDown)
	if b.State() != StateClosed {
		t.Errorf("state = %v, a repeated done must count once", b.State())
	}
}

func TestBreaker_Reset(t *testing.T) {
	t.Parallel()
	b, _ := newTestBreaker(BreakerConfig{Threshold: 1, Cooldown: time.Hour})
	_ = b.Do(fail)
	b.Reset()
	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed", b.State())
	}
	if err := b.Do(succeed); err != nil {
		t.Errorf("call after reset: %v", err)
	}
}

func TestBreaker_OnStateChange(t *testing.T) {
	t.Parallel()
	var (
		mu   sync.Mutex
		seen []string
	)
	b, clk := newTestBreaker(BreakerConfig{
		Name:      "redis",
		Threshold: 1,
		Cooldown:  time.Minute,
		Probes:    1,
		OnStateChange: func(name string, from, to State) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, fmt.Sprintf("%s:%v->%v", name, from, to))
		},
	})

	_ = b.Do(fail)
	clk.Advance(2 * time.Minute)
	if err := b.Do(succeed); err != nil {
		t.Fatalf("probe: %v", err)
	}

	want := "[redis:closed->open redis:open->half-open redis:half-open->closed]"
	mu.Lock()
	defer mu.Unlock()
	if got := fmt.Sprint(seen); got != want {
		t.Errorf("transitions = %s, want %s", got, want)
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()
	for s, want := range map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
		State(7):      "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("State(%d) = %q, want %q", s, got, want)
		}
	}
}
