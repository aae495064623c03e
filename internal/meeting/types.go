// Package meeting defines the core domain types for Protokoll: meetings,
// timestamped transcript segments, and per-meeting summary records with
// their (template × language) variant mapping.
package meeting

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by store implementations when the requested
// record does not exist.
var ErrNotFound = errors.New("meeting: not found")

// Status is the lifecycle state of a meeting.
type Status string

const (
	// StatusRecording marks a meeting whose audio is still being captured.
	StatusRecording Status = "recording"

	// StatusCompleted marks a meeting whose audio has been fully transcribed.
	StatusCompleted Status = "completed"
)

// IsValid reports whether s is a recognised meeting status.
func (s Status) IsValid() bool {
	return s == StatusRecording || s == StatusCompleted
}

// SummaryStatus is the state of a summary generation request.
type SummaryStatus string

const (
	SummaryProcessing SummaryStatus = "processing"
	SummaryCompleted  SummaryStatus = "completed"
	SummaryFailed     SummaryStatus = "failed"
)

// IsValid reports whether s is a recognised summary status.
func (s SummaryStatus) IsValid() bool {
	switch s {
	case SummaryProcessing, SummaryCompleted, SummaryFailed:
		return true
	}
	return false
}

// Meeting is a single recorded meeting. It owns zero or more transcript
// segments and at most one summary record; deleting a meeting cascades both.
type Meeting struct {
	ID            string
	Title         string
	Status        Status
	AudioDuration float64 // seconds; 0 when unknown
	CreatedAt     time.Time
}

// Segment is one timestamped piece of transcribed speech. Segments are
// immutable once persisted; deduplication happens before insert.
// StartSec values are not guaranteed monotonic on arrival — readers sort.
type Segment struct {
	ID        string
	MeetingID string

	// Text is the transcribed speech, already script-normalized.
	Text string

	// Label is the display timestamp in "[MM:SS]" form, derived from StartSec.
	Label string

	// StartSec and EndSec are absolute offsets in seconds from the start of
	// the meeting's audio.
	StartSec float64
	EndSec   float64

	Confidence float64
	CreatedAt  time.Time
}

// TimestampLabel formats an absolute offset in seconds as "[MM:SS]".
func TimestampLabel(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("[%02d:%02d]", total/60, total%60)
}

// SummaryRecord is the single per-meeting summary row. Result holds the
// encoded variant mapping: historically a plain-text summary, now a JSON
// object keyed by template id (canonical language) and "templateID_lang"
// (translations). Version supports optimistic-concurrency updates.
type SummaryRecord struct {
	MeetingID string
	Status    SummaryStatus

	// TemplateID is the active template marker: the template targeted by the
	// most recent generation request. Pollers use it to ignore updates that
	// belong to a different template.
	TemplateID string

	ContextPrompt string
	ErrorMessage  string

	// Result is the raw encoded variant payload. Decode it with
	// summary.DecodePayload rather than parsing ad hoc.
	Result string

	// Version increments on every write. Conditional updates that present a
	// stale version are rejected by the store.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}
