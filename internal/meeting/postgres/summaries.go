package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/protokoll/internal/meeting"
)

// SummaryStoreImpl is the PostgreSQL [meeting.SummaryStore]. Obtain one via
// [Store.Summaries] rather than constructing directly.
//
// SetResult implements optimistic concurrency: the UPDATE carries the version
// the caller read in its WHERE clause, so a concurrent writer that bumped the
// version causes a zero-row update and [meeting.ErrVersionConflict].
type SummaryStoreImpl struct {
	pool *pgxpool.Pool
}

const summaryColumns = `meeting_id, status, template_id, context_prompt,
	error_message, result, version, created_at, updated_at`

// Get implements [meeting.SummaryStore].
func (ss *SummaryStoreImpl) Get(ctx context.Context, meetingID string) (*meeting.SummaryRecord, error) {
	q := `SELECT ` + summaryColumns + ` FROM summaries WHERE meeting_id = $1`
	rec, err := scanSummary(ss.pool.QueryRow(ctx, q, meetingID))
	if err != nil {
		if isNoRows(err) {
			return nil, meeting.ErrNotFound
		}
		return nil, fmt.Errorf("summary store: get: %w", err)
	}
	return rec, nil
}

// Upsert implements [meeting.SummaryStore]. On conflict the existing Result
// is preserved and the version bumped.
func (ss *SummaryStoreImpl) Upsert(ctx context.Context, rec meeting.SummaryRecord) (*meeting.SummaryRecord, error) {
	now := time.Now()
	q := `
		INSERT INTO summaries
		    (meeting_id, status, template_id, context_prompt, error_message, result, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '', 1, $6, $6)
		ON CONFLICT (meeting_id) DO UPDATE SET
		    status         = EXCLUDED.status,
		    template_id    = EXCLUDED.template_id,
		    context_prompt = EXCLUDED.context_prompt,
		    error_message  = EXCLUDED.error_message,
		    version        = summaries.version + 1,
		    updated_at     = EXCLUDED.updated_at
		RETURNING ` + summaryColumns
	stored, err := scanSummary(ss.pool.QueryRow(ctx, q,
		rec.MeetingID, string(rec.Status), rec.TemplateID,
		rec.ContextPrompt, rec.ErrorMessage, now,
	))
	if err != nil {
		return nil, fmt.Errorf("summary store: upsert: %w", err)
	}
	return stored, nil
}

// SetResult implements [meeting.SummaryStore]. The write succeeds only when
// the stored version still equals expectedVersion.
func (ss *SummaryStoreImpl) SetResult(ctx context.Context, meetingID string, expectedVersion int64, result string, status meeting.SummaryStatus, templateID string) (*meeting.SummaryRecord, error) {
	q := `
		UPDATE summaries
		SET    result        = $1,
		       status        = $2,
		       template_id   = $3,
		       error_message = '',
		       version       = version + 1,
		       updated_at    = now()
		WHERE  meeting_id = $4
		  AND  version    = $5
		RETURNING ` + summaryColumns
	rec, err := scanSummary(ss.pool.QueryRow(ctx, q,
		result, string(status), templateID, meetingID, expectedVersion,
	))
	if err == nil {
		return rec, nil
	}
	if !isNoRows(err) {
		return nil, fmt.Errorf("summary store: set result: %w", err)
	}

	// Zero rows: either the record is gone or the version moved on.
	var exists bool
	if probeErr := ss.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM summaries WHERE meeting_id = $1)`, meetingID,
	).Scan(&exists); probeErr != nil {
		return nil, fmt.Errorf("summary store: set result: %w", probeErr)
	}
	if !exists {
		return nil, meeting.ErrNotFound
	}
	return nil, meeting.ErrVersionConflict
}

// SetFailed implements [meeting.SummaryStore].
func (ss *SummaryStoreImpl) SetFailed(ctx context.Context, meetingID, errorMessage string) error {
	tag, err := ss.pool.Exec(ctx, `
		UPDATE summaries
		SET    status        = $1,
		       error_message = $2,
		       version       = version + 1,
		       updated_at    = now()
		WHERE  meeting_id = $3`,
		string(meeting.SummaryFailed), errorMessage, meetingID,
	)
	if err != nil {
		return fmt.Errorf("summary store: set failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return meeting.ErrNotFound
	}
	return nil
}

// scanSummary scans one summaries row in summaryColumns order.
func scanSummary(row pgx.Row) (*meeting.SummaryRecord, error) {
	var (
		rec    meeting.SummaryRecord
		status string
	)
	if err := row.Scan(
		&rec.MeetingID, &status, &rec.TemplateID, &rec.ContextPrompt,
		&rec.ErrorMessage, &rec.Result, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.Status = meeting.SummaryStatus(status)
	return &rec, nil
}
