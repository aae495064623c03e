package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/protokoll/internal/meeting"
)

// MeetingStoreImpl is the PostgreSQL [meeting.MeetingStore]. Obtain one via
// [Store.Meetings] rather than constructing directly.
type MeetingStoreImpl struct {
	pool *pgxpool.Pool
}

// Create implements [meeting.MeetingStore]. A missing ID is filled with a
// fresh UUID and a zero CreatedAt with the current time.
func (ms *MeetingStoreImpl) Create(ctx context.Context, m meeting.Meeting) (*meeting.Meeting, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	const q = `
		INSERT INTO meetings (id, title, status, audio_duration, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := ms.pool.Exec(ctx, q, m.ID, m.Title, string(m.Status), m.AudioDuration, m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("meeting store: create: %w", err)
	}
	cp := m
	return &cp, nil
}

// Get implements [meeting.MeetingStore].
func (ms *MeetingStoreImpl) Get(ctx context.Context, id string) (*meeting.Meeting, error) {
	const q = `
		SELECT id, title, status, audio_duration, created_at
		FROM   meetings
		WHERE  id = $1`
	row := ms.pool.QueryRow(ctx, q, id)

	m, err := scanMeeting(row)
	if err != nil {
		if isNoRows(err) {
			return nil, meeting.ErrNotFound
		}
		return nil, fmt.Errorf("meeting store: get: %w", err)
	}
	return m, nil
}

// List implements [meeting.MeetingStore], newest first.
func (ms *MeetingStoreImpl) List(ctx context.Context) ([]meeting.Meeting, error) {
	const q = `
		SELECT id, title, status, audio_duration, created_at
		FROM   meetings
		ORDER  BY created_at DESC`
	rows, err := ms.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("meeting store: list: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (meeting.Meeting, error) {
		m, err := scanMeeting(row)
		if err != nil {
			return meeting.Meeting{}, err
		}
		return *m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("meeting store: scan rows: %w", err)
	}
	if out == nil {
		out = []meeting.Meeting{}
	}
	return out, nil
}

// Update implements [meeting.MeetingStore]. Only the non-nil patch fields are
// written.
func (ms *MeetingStoreImpl) Update(ctx context.Context, id string, patch meeting.MeetingPatch) (*meeting.Meeting, error) {
	var (
		sets []string
		args []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if patch.Title != nil {
		sets = append(sets, "title = "+next(*patch.Title))
	}
	if patch.Status != nil {
		sets = append(sets, "status = "+next(string(*patch.Status)))
	}
	if patch.AudioDuration != nil {
		sets = append(sets, "audio_duration = "+next(*patch.AudioDuration))
	}
	if len(sets) == 0 {
		return ms.Get(ctx, id)
	}

	args = append(args, id)
	q := fmt.Sprintf(`
		UPDATE meetings
		SET    %s
		WHERE  id = $%d
		RETURNING id, title, status, audio_duration, created_at`,
		strings.Join(sets, ", "), len(args))

	m, err := scanMeeting(ms.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, meeting.ErrNotFound
		}
		return nil, fmt.Errorf("meeting store: update: %w", err)
	}
	return m, nil
}

// Delete implements [meeting.MeetingStore]. Segments, summary, and segment
// embeddings cascade via foreign keys.
func (ms *MeetingStoreImpl) Delete(ctx context.Context, id string) error {
	tag, err := ms.pool.Exec(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("meeting store: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return meeting.ErrNotFound
	}
	return nil
}

// scanMeeting scans one meetings row.
func scanMeeting(row pgx.Row) (*meeting.Meeting, error) {
	var (
		m      meeting.Meeting
		status string
	)
	if err := row.Scan(&m.ID, &m.Title, &status, &m.AudioDuration, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Status = meeting.Status(status)
	return &m, nil
}
