// Package postgres provides a PostgreSQL-backed [store.Store].
//
// All operations share a single [pgxpool.Pool]. [Migrate] creates the schema
// idempotently and runs on every [New].
//
// Usage:
//
//	st, err := postgres.New(ctx, dsn)
//	if err != nil { … }
//	defer st.Close()
//
//	_ = st.SaveBatch(ctx, "stream-2025-06-01", result.Items)
//	items, _ := st.ListBySource(ctx, "stream-2025-06-01")
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ─────────────────────────────────────────────────────────────────────────────
// DDL
// ─────────────────────────────────────────────────────────────────────────────

const ddlVocabularyItems = `
CREATE TABLE IF NOT EXISTS vocabulary_items (
    source_id             TEXT              NOT NULL,
    item_id               TEXT              NOT NULL,
    position              INTEGER           NOT NULL,
    source_text           TEXT              NOT NULL,
    translation_text      TEXT              NOT NULL DEFAULT '',
    reading               TEXT              NOT NULL DEFAULT '',
    difficulty            SMALLINT          NOT NULL,
    difficulty_label      TEXT              NOT NULL DEFAULT '',
    difficulty_source     TEXT              NOT NULL DEFAULT '',
    difficulty_confidence DOUBLE PRECISION  NOT NULL DEFAULT 0,
    category              TEXT              NOT NULL,
    tags                  TEXT[]            NOT NULL DEFAULT '{}',
    context               TEXT              NOT NULL DEFAULT '',
    source_language       TEXT              NOT NULL,
    priority_score        DOUBLE PRECISION  NOT NULL DEFAULT 0,
    extraction_method     TEXT              NOT NULL,
    learning_notes        TEXT[]            NOT NULL DEFAULT '{}',
    created_at            TIMESTAMPTZ       NOT NULL DEFAULT now(),
    updated_at            TIMESTAMPTZ       NOT NULL DEFAULT now(),
    PRIMARY KEY (source_id, item_id)
);

CREATE INDEX IF NOT EXISTS idx_vocabulary_items_source_position
    ON vocabulary_items (source_id, position);

CREATE INDEX IF NOT EXISTS idx_vocabulary_items_category
    ON vocabulary_items (category);
`

// Migrate creates the vocabulary schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlVocabularyItems); err != nil {
		return fmt.Errorf("migrate vocabulary items: %w", err)
	}
	return nil
}
