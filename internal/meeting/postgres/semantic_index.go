package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// SemanticIndex stores per-segment embeddings in a pgvector column with an
// HNSW index for approximate nearest-neighbour search over a meeting's
// transcript.
//
// Obtain one via [Store.Semantic]; it is nil when the store was created with
// embeddingDimensions 0. All methods are safe for concurrent use.
type SemanticIndex struct {
	pool *pgxpool.Pool
}

// SearchHit is one semantic search result: the matched segment id plus its
// cosine distance to the query (smaller is more similar).
type SearchHit struct {
	SegmentID string
	Distance  float64
}

// IndexSegment upserts the embedding for a transcript segment. Re-indexing a
// segment replaces its previous embedding.
func (si *SemanticIndex) IndexSegment(ctx context.Context, segmentID, meetingID string, embedding []float32) error {
	const q = `
		INSERT INTO segment_embeddings (segment_id, meeting_id, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (segment_id) DO UPDATE SET
		    meeting_id = EXCLUDED.meeting_id,
		    embedding  = EXCLUDED.embedding`
	_, err := si.pool.Exec(ctx, q, segmentID, meetingID, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("semantic index: index segment: %w", err)
	}
	return nil
}

// Search returns the limit segments of a meeting whose embeddings are closest
// (cosine distance) to the query embedding, most similar first.
func (si *SemanticIndex) Search(ctx context.Context, meetingID string, embedding []float32, limit int) ([]SearchHit, error) {
	const q = `
		SELECT segment_id, embedding <=> $1 AS distance
		FROM   segment_embeddings
		WHERE  meeting_id = $2
		ORDER  BY distance
		LIMIT  $3`
	rows, err := si.pool.Query(ctx, q, pgvector.NewVector(embedding), meetingID, limit)
	if err != nil {
		return nil, fmt.Errorf("semantic index: search: %w", err)
	}

	hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SearchHit, error) {
		var h SearchHit
		err := row.Scan(&h.SegmentID, &h.Distance)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("semantic index: scan rows: %w", err)
	}
	if hits == nil {
		hits = []SearchHit{}
	}
	return hits, nil
}
