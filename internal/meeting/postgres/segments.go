package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/protokoll/internal/meeting"
)

// SegmentStoreImpl is the PostgreSQL [meeting.SegmentStore]. Obtain one via
// [Store.Segments] rather than constructing directly.
type SegmentStoreImpl struct {
	pool *pgxpool.Pool
}

// Insert implements [meeting.SegmentStore]. Segments are persisted in arrival
// order; [SegmentStoreImpl.ListByMeeting] re-sorts by start time.
func (ss *SegmentStoreImpl) Insert(ctx context.Context, seg meeting.Segment) (*meeting.Segment, error) {
	if seg.ID == "" {
		seg.ID = uuid.NewString()
	}
	if seg.CreatedAt.IsZero() {
		seg.CreatedAt = time.Now()
	}

	const q = `
		INSERT INTO transcript_segments
		    (id, meeting_id, text, label, start_sec, end_sec, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := ss.pool.Exec(ctx, q,
		seg.ID, seg.MeetingID, seg.Text, seg.Label,
		seg.StartSec, seg.EndSec, seg.Confidence, seg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("segment store: insert: %w", err)
	}
	cp := seg
	return &cp, nil
}

// ListByMeeting implements [meeting.SegmentStore], ordered by StartSec
// ascending.
func (ss *SegmentStoreImpl) ListByMeeting(ctx context.Context, meetingID string) ([]meeting.Segment, error) {
	const q = `
		SELECT id, meeting_id, text, label, start_sec, end_sec, confidence, created_at
		FROM   transcript_segments
		WHERE  meeting_id = $1
		ORDER  BY start_sec`
	rows, err := ss.pool.Query(ctx, q, meetingID)
	if err != nil {
		return nil, fmt.Errorf("segment store: list: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (meeting.Segment, error) {
		var seg meeting.Segment
		err := row.Scan(&seg.ID, &seg.MeetingID, &seg.Text, &seg.Label,
			&seg.StartSec, &seg.EndSec, &seg.Confidence, &seg.CreatedAt)
		return seg, err
	})
	if err != nil {
		return nil, fmt.Errorf("segment store: scan rows: %w", err)
	}
	if out == nil {
		out = []meeting.Segment{}
	}
	return out, nil
}
