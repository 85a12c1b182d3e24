// Package store defines persistence for extracted vocabulary.
//
// A [Store] keeps the vocabulary of each transcript source (a video, a stream
// session, a document) so that learners can come back to it after the
// extraction cache has expired. Items are keyed by (source ID, item ID); saving
// the same item twice updates it in place.
//
// Implementations live in sub-packages: postgres for shared deployments and
// sqlite for the local CLI. Every implementation must be safe for concurrent
// use.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/lexora/pkg/types"
)

// ErrEmptySourceID is returned when an operation is called without a source.
var ErrEmptySourceID = errors.New("store: empty source id")

// Store persists vocabulary batches.
type Store interface {
	// SaveBatch upserts items under sourceID. The order of items is kept and
	// reproduced by ListBySource. Items without an ID are rejected.
	SaveBatch(ctx context.Context, sourceID string, items []types.VocabularyItem) error

	// ListBySource returns every item saved under sourceID in saved order. An
	// unknown source yields an empty, non-nil slice.
	ListBySource(ctx context.Context, sourceID string) ([]types.VocabularyItem, error)

	// Ping verifies that the backing database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error
}

// Validate checks the arguments of a SaveBatch call.
func Validate(sourceID string, items []types.VocabularyItem) error {
	if sourceID == "" {
		return ErrEmptySourceID
	}
	var errs []error
	for i, it := range items {
		if it.ID == "" {
			errs = append(errs, fmt.Errorf("item %d (%q): missing id", i, it.SourceText))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("store: invalid batch: %w", err)
	}
	return nil
}
