// Package mock provides an in-memory test double for [store.Store].
//
// The mock records every call and keeps saved items so that tests can read
// them back through ListBySource. It is safe for concurrent use.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/lexora/pkg/store"
	"github.com/MrWong99/lexora/pkg/types"
)

var _ store.Store = (*Store)(nil)

// SaveCall records a single invocation of SaveBatch.
type SaveCall struct {
	SourceID string
	Items    []types.VocabularyItem
}

// Store is a configurable test double for [store.Store].
type Store struct {
	mu sync.Mutex

	// SaveErr is returned by SaveBatch when non-nil.
	SaveErr error

	// ListErr is returned by ListBySource when non-nil.
	ListErr error

	// PingErr is returned by Ping when non-nil.
	PingErr error

	// SaveCalls records every SaveBatch invocation in order.
	SaveCalls []SaveCall

	// Closed reports whether Close was called.
	Closed bool

	data map[string][]types.VocabularyItem
}

// SaveBatch records the call and, unless SaveErr is set, stores a copy of
// items, replacing earlier items with the same ID.
func (s *Store) SaveBatch(_ context.Context, sourceID string, items []types.VocabularyItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]types.VocabularyItem, len(items))
	copy(cp, items)
	s.SaveCalls = append(s.SaveCalls, SaveCall{SourceID: sourceID, Items: cp})
	if s.SaveErr != nil {
		return s.SaveErr
	}
	if err := store.Validate(sourceID, items); err != nil {
		return err
	}
	if s.data == nil {
		s.data = make(map[string][]types.VocabularyItem)
	}
	existing := s.data[sourceID]
	for _, it := range cp {
		replaced := false
		for i := range existing {
			if existing[i].ID == it.ID {
				existing[i] = it
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, it)
		}
	}
	s.data[sourceID] = existing
	return nil
}

// ListBySource returns the stored items for sourceID.
func (s *Store) ListBySource(_ context.Context, sourceID string) ([]types.VocabularyItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	if sourceID == "" {
		return nil, store.ErrEmptySourceID
	}
	out := make([]types.VocabularyItem, len(s.data[sourceID]))
	copy(out, s.data[sourceID])
	return out, nil
}

// Ping returns PingErr.
func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.PingErr
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// SaveCount returns the number of SaveBatch calls.
func (s *Store) SaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.SaveCalls)
}

// Reset clears recorded calls and stored data.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveCalls = nil
	s.data = nil
	s.Closed = false
}
