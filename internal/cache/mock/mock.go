// Package mock provides a test double for the cache.Backend interface.
//
// Backend stores values in a plain map without expiry and records every call.
// Set GetErr or SetErr to simulate an unavailable store, or Put raw bytes to
// simulate a corrupt entry.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/MrWong99/lexora/internal/cache"
)

var _ cache.Backend = (*Backend)(nil)

// SetCall records a single invocation of Set.
type SetCall struct {
	Key   string
	Value []byte
	TTL   time.Duration
}

// Backend is a mock implementation of cache.Backend.
type Backend struct {
	mu sync.Mutex

	// BackendName is returned by Name. Default: "mock".
	BackendName string

	// GetErr, if non-nil, is returned by Get instead of looking up the key.
	GetErr error

	// SetErr, if non-nil, is returned by Set and nothing is stored.
	SetErr error

	data map[string][]byte

	// GetCalls records every key passed to Get in order.
	GetCalls []string

	// SetCalls records every invocation of Set in order.
	SetCalls []SetCall
}

// Name implements cache.Backend.
func (b *Backend) Name() string {
	if b.BackendName == "" {
		return "mock"
	}
	return b.BackendName
}

// Get implements cache.Backend.
func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.GetCalls = append(b.GetCalls, key)
	if b.GetErr != nil {
		return nil, b.GetErr
	}
	v, ok := b.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

// Set implements cache.Backend.
func (b *Backend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.SetCalls = append(b.SetCalls, SetCall{Key: key, Value: value, TTL: ttl})
	if b.SetErr != nil {
		return b.SetErr
	}
	b.putLocked(key, value)
	return nil
}

// Put stores raw bytes without recording a call.
func (b *Backend) Put(key string, value []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.putLocked(key, value)
}

func (b *Backend) putLocked(key string, value []byte) {
	if b.data == nil {
		b.data = make(map[string][]byte)
	}
	b.data[key] = value
}

// SetErrors replaces GetErr and SetErr under the lock.
func (b *Backend) SetErrors(get, set error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.GetErr, b.SetErr = get, set
}

// SetCount returns the number of Set calls so far.
func (b *Backend) SetCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.SetCalls)
}

// Reset clears stored data and call records.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = nil
	b.GetCalls = nil
	b.SetCalls = nil
}
