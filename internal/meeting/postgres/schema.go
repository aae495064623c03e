// Package postgres provides the PostgreSQL-backed implementation of the
// meeting store interfaces (meetings, transcript segments, summaries) plus
// an optional pgvector-backed semantic index over segment embeddings.
//
// All stores share a single [pgxpool.Pool]. The pgvector extension is only
// required when the semantic index is enabled; [Migrate] installs it via
// CREATE EXTENSION IF NOT EXISTS in that case.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn, 1536)
//	if err != nil { … }
//	defer store.Close()
//
//	meetings := store.Meetings()
//	segments := store.Segments()
//	summaries := store.Summaries()
//	semantic := store.Semantic() // nil when embeddings are disabled
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlMeetings = `
CREATE TABLE IF NOT EXISTS meetings (
    id              TEXT              PRIMARY KEY,
    title           TEXT              NOT NULL,
    status          TEXT              NOT NULL,
    audio_duration  DOUBLE PRECISION  NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ       NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_meetings_created_at
    ON meetings (created_at DESC);
`

const ddlSegments = `
CREATE TABLE IF NOT EXISTS transcript_segments (
    id          TEXT              PRIMARY KEY,
    meeting_id  TEXT              NOT NULL REFERENCES meetings (id) ON DELETE CASCADE,
    text        TEXT              NOT NULL,
    label       TEXT              NOT NULL,
    start_sec   DOUBLE PRECISION  NOT NULL,
    end_sec     DOUBLE PRECISION  NOT NULL,
    confidence  DOUBLE PRECISION  NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ       NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_segments_meeting_start
    ON transcript_segments (meeting_id, start_sec);
`

const ddlSummaries = `
CREATE TABLE IF NOT EXISTS summaries (
    meeting_id      TEXT         PRIMARY KEY REFERENCES meetings (id) ON DELETE CASCADE,
    status          TEXT         NOT NULL,
    template_id     TEXT         NOT NULL DEFAULT '',
    context_prompt  TEXT         NOT NULL DEFAULT '',
    error_message   TEXT         NOT NULL DEFAULT '',
    result          TEXT         NOT NULL DEFAULT '',
    version         BIGINT       NOT NULL DEFAULT 1,
    created_at      TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

// ddlEmbeddings returns the semantic index DDL with the embedding dimension
// substituted. The vector dimension is baked into the column type at schema
// creation time.
func ddlEmbeddings(embeddingDimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS segment_embeddings (
    segment_id  TEXT        PRIMARY KEY REFERENCES transcript_segments (id) ON DELETE CASCADE,
    meeting_id  TEXT        NOT NULL,
    embedding   vector(%d)  NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_segment_embeddings_meeting
    ON segment_embeddings (meeting_id);

CREATE INDEX IF NOT EXISTS idx_segment_embeddings_hnsw
    ON segment_embeddings USING hnsw (embedding vector_cosine_ops);
`, embeddingDimensions)
}

// Migrate creates or ensures all required tables, indexes, and extensions
// exist. It is idempotent (CREATE TABLE IF NOT EXISTS everywhere) and safe to
// call on every application start.
//
// embeddingDimensions must match the output dimension of the configured
// embedding model (e.g., 1536 for OpenAI text-embedding-3-small). Pass 0 to
// skip the semantic index schema entirely; changing a non-zero value after
// the first migration requires a manual schema update.
func Migrate(ctx context.Context, pool *pgxpool.Pool, embeddingDimensions int) error {
	statements := []string{
		ddlMeetings,
		ddlSegments,
		ddlSummaries,
	}
	if embeddingDimensions > 0 {
		statements = append(statements, ddlEmbeddings(embeddingDimensions))
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}
