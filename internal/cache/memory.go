package cache

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the in-process backend.
const DefaultMaxEntries = 1000

var _ Backend = (*Memory)(nil)

// Memory is an in-process [Backend]. Expired entries are dropped lazily on
// read and whenever the entry count exceeds the limit; if that is not enough,
// the oldest entries are evicted until the store is at 80% of the limit.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memEntry
	seq     uint64
	max     int
	now     func() time.Time
}

type memEntry struct {
	value   []byte
	expires time.Time
	seq     uint64
}

// MemoryOption configures a [Memory] backend.
type MemoryOption func(*Memory)

// WithMaxEntries sets the entry limit. Default: [DefaultMaxEntries].
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.max = n
		}
	}
}

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory returns an empty in-process backend.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]memEntry),
		max:     DefaultMaxEntries,
		now:     time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Name implements [Backend].
func (m *Memory) Name() string { return "memory" }

// Get implements [Backend].
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, ErrMiss
	}
	return slices.Clone(e.value), nil
}

// Set implements [Backend].
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.entries[key] = memEntry{value: slices.Clone(value), expires: m.now().Add(ttl), seq: m.seq}
	if len(m.entries) > m.max {
		m.evictLocked()
	}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) evictLocked() {
	now := m.now()
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
	target := m.max * 8 / 10
	if len(m.entries) <= target {
		return
	}

	type aged struct {
		key string
		seq uint64
	}
	all := make([]aged, 0, len(m.entries))
	for k, e := range m.entries {
		all = append(all, aged{k, e.seq})
	}
	slices.SortFunc(all, func(a, b aged) int { return cmp.Compare(a.seq, b.seq) })
	for _, a := range all[:len(all)-target] {
		delete(m.entries, a.key)
	}
}
