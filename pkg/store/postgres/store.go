package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/lexora/pkg/store"
	"github.com/MrWong99/lexora/pkg/types"
)

var _ store.Store = (*Store)(nil)

// Store is a PostgreSQL-backed vocabulary store. All methods are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database at dsn, verifies the connection and runs
// [Migrate].
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: %w", err)
	}

	return &Store{pool: pool}, nil
}

// SaveBatch implements [store.Store]. All items are written in one
// transaction.
func (s *Store) SaveBatch(ctx context.Context, sourceID string, items []types.VocabularyItem) error {
	if err := store.Validate(sourceID, items); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	const q = `
		INSERT INTO vocabulary_items
		    (source_id, item_id, position, source_text, translation_text, reading,
		     difficulty, difficulty_label, difficulty_source, difficulty_confidence,
		     category, tags, context, source_language, priority_score,
		     extraction_method, learning_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (source_id, item_id) DO UPDATE SET
		    position              = EXCLUDED.position,
		    translation_text      = EXCLUDED.translation_text,
		    reading               = EXCLUDED.reading,
		    difficulty            = EXCLUDED.difficulty,
		    difficulty_label      = EXCLUDED.difficulty_label,
		    difficulty_source     = EXCLUDED.difficulty_source,
		    difficulty_confidence = EXCLUDED.difficulty_confidence,
		    category              = EXCLUDED.category,
		    tags                  = EXCLUDED.tags,
		    context               = EXCLUDED.context,
		    priority_score        = EXCLUDED.priority_score,
		    extraction_method     = EXCLUDED.extraction_method,
		    learning_notes        = EXCLUDED.learning_notes,
		    updated_at            = now()`

	batch := &pgx.Batch{}
	for i, it := range items {
		batch.Queue(q,
			sourceID,
			it.ID,
			i,
			it.SourceText,
			it.TranslationText,
			it.Reading,
			int(it.Difficulty),
			it.DifficultyLabel,
			it.DifficultySource,
			it.DifficultyConfidence,
			string(it.Category),
			nonNil(it.Tags),
			it.Context,
			string(it.SourceLanguage),
			it.PriorityScore,
			string(it.ExtractionMethod),
			nonNil(it.LearningNotes),
		)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres store: save batch: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres store: save batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres store: save batch: commit: %w", err)
	}
	return nil
}

// ListBySource implements [store.Store].
func (s *Store) ListBySource(ctx context.Context, sourceID string) ([]types.VocabularyItem, error) {
	if sourceID == "" {
		return nil, store.ErrEmptySourceID
	}

	const q = `
		SELECT item_id, source_text, translation_text, reading, difficulty,
		       difficulty_label, difficulty_source, difficulty_confidence,
		       category, tags, context, source_language, priority_score,
		       extraction_method, learning_notes
		FROM   vocabulary_items
		WHERE  source_id = $1
		ORDER  BY position, item_id`

	rows, err := s.pool.Query(ctx, q, sourceID)
	if err != nil {
		return nil, fmt.Errorf("postgres store: list by source: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.VocabularyItem, error) {
		var (
			it                     types.VocabularyItem
			difficulty             int
			category, lang, method string
		)
		err := row.Scan(
			&it.ID,
			&it.SourceText,
			&it.TranslationText,
			&it.Reading,
			&difficulty,
			&it.DifficultyLabel,
			&it.DifficultySource,
			&it.DifficultyConfidence,
			&category,
			&it.Tags,
			&it.Context,
			&lang,
			&it.PriorityScore,
			&method,
			&it.LearningNotes,
		)
		it.Difficulty = types.Level(difficulty)
		it.Category = types.Category(category)
		it.SourceLanguage = types.Language(lang)
		it.ExtractionMethod = types.Method(method)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres store: list by source: scan: %w", err)
	}
	if items == nil {
		items = []types.VocabularyItem{}
	}
	return items, nil
}

// Ping implements [store.Store].
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres store: ping: %w", err)
	}
	return nil
}

// Close implements [store.Store]. It releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
