// Package sqlite provides a single-file [store.Store] for local use by the
// CLI. It uses the cgo driver github.com/mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MrWong99/lexora/pkg/store"
	"github.com/MrWong99/lexora/pkg/types"
)

var _ store.Store = (*Store)(nil)

const migrationsSQL = `
CREATE TABLE IF NOT EXISTS vocabulary_items (
    source_id             TEXT     NOT NULL,
    item_id               TEXT     NOT NULL,
    position              INTEGER  NOT NULL,
    source_text           TEXT     NOT NULL,
    translation_text      TEXT     NOT NULL DEFAULT '',
    reading               TEXT     NOT NULL DEFAULT '',
    difficulty            INTEGER  NOT NULL,
    difficulty_label      TEXT     NOT NULL DEFAULT '',
    difficulty_source     TEXT     NOT NULL DEFAULT '',
    difficulty_confidence REAL     NOT NULL DEFAULT 0,
    category              TEXT     NOT NULL,
    tags                  TEXT     NOT NULL DEFAULT '[]',
    context               TEXT     NOT NULL DEFAULT '',
    source_language       TEXT     NOT NULL,
    priority_score        REAL     NOT NULL DEFAULT 0,
    extraction_method     TEXT     NOT NULL,
    learning_notes        TEXT     NOT NULL DEFAULT '[]',
    created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (source_id, item_id)
);
CREATE INDEX IF NOT EXISTS idx_vocabulary_items_source_position
    ON vocabulary_items (source_id, position);
`

// Store is a SQLite-backed vocabulary store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file at path and migrates it.
// Use ":memory:" for a throw-away database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	// SQLite serialises writers and ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(migrationsSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite store: migrate: %w", err)
		}
	}
	return nil
}

// SaveBatch implements [store.Store].
func (s *Store) SaveBatch(ctx context.Context, sourceID string, items []types.VocabularyItem) error {
	if err := store.Validate(sourceID, items); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite store: save batch: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vocabulary_items
		    (source_id, item_id, position, source_text, translation_text, reading,
		     difficulty, difficulty_label, difficulty_source, difficulty_confidence,
		     category, tags, context, source_language, priority_score,
		     extraction_method, learning_notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_id, item_id) DO UPDATE SET
		    position              = excluded.position,
		    translation_text      = excluded.translation_text,
		    reading               = excluded.reading,
		    difficulty            = excluded.difficulty,
		    difficulty_label      = excluded.difficulty_label,
		    difficulty_source     = excluded.difficulty_source,
		    difficulty_confidence = excluded.difficulty_confidence,
		    category              = excluded.category,
		    tags                  = excluded.tags,
		    context               = excluded.context,
		    priority_score        = excluded.priority_score,
		    extraction_method     = excluded.extraction_method,
		    learning_notes        = excluded.learning_notes`)
	if err != nil {
		return fmt.Errorf("sqlite store: save batch: prepare: %w", err)
	}
	defer stmt.Close()

	for i, it := range items {
		tags, err := encodeList(it.Tags)
		if err != nil {
			return err
		}
		notes, err := encodeList(it.LearningNotes)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			sourceID, it.ID, i, it.SourceText, it.TranslationText, it.Reading,
			int(it.Difficulty), it.DifficultyLabel, it.DifficultySource, it.DifficultyConfidence,
			string(it.Category), tags, it.Context, string(it.SourceLanguage), it.PriorityScore,
			string(it.ExtractionMethod), notes,
		); err != nil {
			return fmt.Errorf("sqlite store: save batch: item %q: %w", it.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite store: save batch: commit: %w", err)
	}
	return nil
}

// ListBySource implements [store.Store].
func (s *Store) ListBySource(ctx context.Context, sourceID string) ([]types.VocabularyItem, error) {
	if sourceID == "" {
		return nil, store.ErrEmptySourceID
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, source_text, translation_text, reading, difficulty,
		       difficulty_label, difficulty_source, difficulty_confidence,
		       category, tags, context, source_language, priority_score,
		       extraction_method, learning_notes
		FROM   vocabulary_items
		WHERE  source_id = ?
		ORDER  BY position, item_id`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: list by source: %w", err)
	}
	defer rows.Close()

	items := []types.VocabularyItem{}
	for rows.Next() {
		var (
			it                     types.VocabularyItem
			difficulty             int
			category, lang, method string
			tags, notes            string
		)
		if err := rows.Scan(
			&it.ID, &it.SourceText, &it.TranslationText, &it.Reading, &difficulty,
			&it.DifficultyLabel, &it.DifficultySource, &it.DifficultyConfidence,
			&category, &tags, &it.Context, &lang, &it.PriorityScore,
			&method, &notes,
		); err != nil {
			return nil, fmt.Errorf("sqlite store: list by source: scan: %w", err)
		}
		it.Difficulty = types.Level(difficulty)
		it.Category = types.Category(category)
		it.SourceLanguage = types.Language(lang)
		it.ExtractionMethod = types.Method(method)
		if err := json.Unmarshal([]byte(tags), &it.Tags); err != nil {
			return nil, fmt.Errorf("sqlite store: decode tags of %q: %w", it.ID, err)
		}
		if err := json.Unmarshal([]byte(notes), &it.LearningNotes); err != nil {
			return nil, fmt.Errorf("sqlite store: decode notes of %q: %w", it.ID, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite store: list by source: %w", err)
	}
	return items, nil
}

// Ping implements [store.Store].
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite store: ping: %w", err)
	}
	return nil
}

// Close implements [store.Store].
func (s *Store) Close() error {
	return s.db.Close()
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("sqlite store: encode list: %w", err)
	}
	return string(b), nil
}
