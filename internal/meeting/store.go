package meeting

import (
	"context"
	"errors"
)

// MeetingStore persists Meeting records.
//
// Implementations must be safe for concurrent use.
type MeetingStore interface {
	// Create inserts m and returns the stored copy (with generated fields).
	Create(ctx context.Context, m Meeting) (*Meeting, error)

	// Get returns the meeting with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Meeting, error)

	// List returns all meetings ordered by creation time, newest first.
	List(ctx context.Context) ([]Meeting, error)

	// Update applies the non-zero fields of patch to the stored meeting and
	// returns the updated copy, or ErrNotFound.
	Update(ctx context.Context, id string, patch MeetingPatch) (*Meeting, error)

	// Delete removes the meeting and cascades its segments and summary.
	Delete(ctx context.Context, id string) error
}

// MeetingPatch carries the updatable fields of a meeting. Nil pointers mean
// "leave unchanged".
type MeetingPatch struct {
	Title         *string
	Status        *Status
	AudioDuration *float64
}

// SegmentStore persists transcript segments.
//
// Implementations must be safe for concurrent use.
type SegmentStore interface {
	// Insert stores seg and returns the stored copy. Segments are persisted
	// in arrival order; ListByMeeting re-sorts by start time.
	Insert(ctx context.Context, seg Segment) (*Segment, error)

	// ListByMeeting returns all segments for a meeting ordered by StartSec
	// ascending. Returns an empty (non-nil) slice when there are none.
	ListByMeeting(ctx context.Context, meetingID string) ([]Segment, error)
}

// SummaryStore persists the per-meeting SummaryRecord.
//
// Implementations must be safe for concurrent use.
type SummaryStore interface {
	// Get returns the summary record for meetingID, or ErrNotFound.
	Get(ctx context.Context, meetingID string) (*SummaryRecord, error)

	// Upsert creates the record if absent, otherwise updates status,
	// template id, and context prompt while preserving Result. Returns the
	// stored record.
	Upsert(ctx context.Context, rec SummaryRecord) (*SummaryRecord, error)

	// SetResult conditionally writes result/status/template for meetingID.
	// expectedVersion must match the stored Version; on mismatch the write
	// is rejected with ErrVersionConflict and the caller re-reads and
	// retries.
	SetResult(ctx context.Context, meetingID string, expectedVersion int64, result string, status SummaryStatus, templateID string) (*SummaryRecord, error)

	// SetFailed marks the record failed with the given message.
	SetFailed(ctx context.Context, meetingID, errorMessage string) error
}

// ErrVersionConflict is returned by SummaryStore.SetResult when the stored
// record's version no longer matches the version the caller read.
var ErrVersionConflict = errors.New("meeting: summary version conflict")
