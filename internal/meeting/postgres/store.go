package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/MrWong99/protokoll/internal/meeting"
)

// Compile-time interface checks.
//
// MeetingStore and SummaryStore both define a method named Get with different
// signatures, so the interfaces are exposed as sub-types obtained via
// [Store.Meetings], [Store.Segments], and [Store.Summaries] rather than being
// implemented on Store directly.
var (
	_ meeting.MeetingStore = (*MeetingStoreImpl)(nil)
	_ meeting.SegmentStore = (*SegmentStoreImpl)(nil)
	_ meeting.SummaryStore = (*SummaryStoreImpl)(nil)
)

// Store is the central PostgreSQL-backed record store for Protokoll. It holds
// a single [pgxpool.Pool] shared by all store views.
//
// All operations are safe for concurrent use.
type Store struct {
	pool      *pgxpool.Pool
	meetings  *MeetingStoreImpl
	segments  *SegmentStoreImpl
	summaries *SummaryStoreImpl
	semantic  *SemanticIndex
}

// NewStore creates a Store, establishes a connection pool to the PostgreSQL
// database at dsn, and runs [Migrate] to ensure all required tables exist.
//
// embeddingDimensions enables the pgvector-backed semantic index when
// non-zero; it must match the output dimension of the configured embedding
// model. Pass 0 when no embeddings provider is configured — the semantic
// index schema is skipped and [Store.Semantic] returns nil.
func NewStore(ctx context.Context, dsn string, embeddingDimensions int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	if embeddingDimensions > 0 {
		// Register pgvector types on every new connection so vector columns
		// can be scanned into and inserted from pgvector.Vector values.
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			return pgxvec.RegisterTypes(ctx, conn)
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool, embeddingDimensions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	s := &Store{
		pool:      pool,
		meetings:  &MeetingStoreImpl{pool: pool},
		segments:  &SegmentStoreImpl{pool: pool},
		summaries: &SummaryStoreImpl{pool: pool},
	}
	if embeddingDimensions > 0 {
		s.semantic = &SemanticIndex{pool: pool}
	}
	return s, nil
}

// Meetings returns the [meeting.MeetingStore] implementation.
func (s *Store) Meetings() *MeetingStoreImpl { return s.meetings }

// Segments returns the [meeting.SegmentStore] implementation.
func (s *Store) Segments() *SegmentStoreImpl { return s.segments }

// Summaries returns the [meeting.SummaryStore] implementation.
func (s *Store) Summaries() *SummaryStoreImpl { return s.summaries }

// Semantic returns the pgvector semantic index, or nil when the store was
// created without embedding support.
func (s *Store) Semantic() *SemanticIndex { return s.semantic }

// Ping verifies database connectivity. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// isNoRows reports whether err is the pgx "no rows" sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
