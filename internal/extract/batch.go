package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrWong99/lexora/internal/observe"
	"github.com/MrWong99/lexora/internal/workpool"
	"github.com/MrWong99/lexora/pkg/types"
)

var (
	// ErrEmptyBatch is returned by [Orchestrator.ExtractBatch] for a batch
	// without entries.
	ErrEmptyBatch = errors.New("extract: empty batch")

	// ErrMissingID and ErrDuplicateID mark malformed batch entries.
	ErrMissingID   = errors.New("extract: batch entry without id")
	ErrDuplicateID = errors.New("extract: duplicate batch entry id")
)

// BatchEntry is one transcript of a batch.
type BatchEntry struct {
	ID   string `json:"id"`
	Text string `json:"text"`

	// TargetLanguage overrides the batch-wide option for this entry.
	TargetLanguage types.Language `json:"target_language,omitempty"`
}

// BatchItem is the outcome of one entry. Exactly one of Result and Error is
// set.
type BatchItem struct {
	ID     string        `json:"id"`
	Result *types.Result `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// BatchError lists a failed entry.
type BatchError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BatchSummary is the outcome of a batch. Results follow input order.
type BatchSummary struct {
	RunID           string       `json:"run_id"`
	Total           int          `json:"total"`
	Successful      int          `json:"successful"`
	Failed          int          `json:"failed"`
	TotalVocabulary int          `json:"total_vocabulary"`
	Results         []BatchItem  `json:"results"`
	Errors          []BatchError `json:"errors"`
}

// ExtractBatch extracts every entry on a bounded worker pool. A failing entry
// never fails the batch: its error is reported in the summary and the other
// entries continue. When opts.Persist is set, each entry's items are saved
// under the entry ID.
//
// Cancelling ctx stops scheduling further entries; entries not started are
// reported as failed with the context error.
func (o *Orchestrator) ExtractBatch(ctx context.Context, entries []BatchEntry, opts Options) (*BatchSummary, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyBatch
	}
	if opts.Persist && o.store == nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, ErrNoStore)
	}

	ctx, span := observe.StartSpan(ctx, "extract.ExtractBatch")
	defer span.End()

	runID := uuid.NewString()
	log := observe.Logger(ctx).With("run_id", runID)

	items := make([]BatchItem, len(entries))
	valid := validateEntries(entries, items)

	queue := o.batchQueue
	if queue <= 0 {
		queue = len(entries)
	}
	pool := workpool.New(o.batchWorkers, queue)
	pool.Start(context.WithoutCancel(ctx))

	for i, e := range entries {
		if !valid[i] {
			continue
		}
		err := pool.Submit(ctx, func(context.Context) error {
			items[i] = o.extractEntry(ctx, e, opts)
			if items[i].Error != "" {
				return errors.New(items[i].Error)
			}
			return nil
		})
		if err != nil {
			items[i] = BatchItem{ID: e.ID, Error: err.Error()}
		}
	}
	pool.Close()

	sum := &BatchSummary{
		RunID:   runID,
		Total:   len(entries),
		Results: items,
		Errors:  []BatchError{},
	}
	for _, it := range items {
		if it.Error != "" {
			sum.Failed++
			sum.Errors = append(sum.Errors, BatchError{ID: it.ID, Error: it.Error})
			o.metrics.RecordBatchItem(ctx, "error")
			continue
		}
		sum.Successful++
		sum.TotalVocabulary += it.Result.Stats.TotalExtracted
		o.metrics.RecordBatchItem(ctx, "ok")
	}
	log.Info("extract: batch complete",
		"total", sum.Total,
		"successful", sum.Successful,
		"failed", sum.Failed,
		"vocabulary", sum.TotalVocabulary,
	)
	return sum, nil
}

// validateEntries fills items with errors for malformed entries and reports
// which entries may run.
func validateEntries(entries []BatchEntry, items []BatchItem) []bool {
	valid := make([]bool, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		switch {
		case e.ID == "":
			items[i] = BatchItem{Error: fmt.Sprintf("entry %d: %v", i, ErrMissingID)}
		case seen[e.ID]:
			items[i] = BatchItem{ID: e.ID, Error: ErrDuplicateID.Error()}
		default:
			valid[i] = true
		}
		seen[e.ID] = true
	}
	return valid
}

func (o *Orchestrator) extractEntry(ctx context.Context, e BatchEntry, opts Options) BatchItem {
	if err := ctx.Err(); err != nil {
		return BatchItem{ID: e.ID, Error: err.Error()}
	}
	if e.TargetLanguage != "" {
		opts.TargetLanguage = e.TargetLanguage
	}
	opts.SourceID = e.ID

	res, err := o.Extract(ctx, e.Text, opts)
	if err != nil {
		observe.Logger(ctx).Warn("extract: batch entry failed", "id", e.ID, "err", err)
		return BatchItem{ID: e.ID, Error: err.Error()}
	}
	return BatchItem{ID: e.ID, Result: res}
}
