// Package mock provides an in-memory implementation of the meeting store
// interfaces for tests. The three store views share one Store value so
// cascade behaviour (meeting delete removing segments and summary) can be
// tested.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/protokoll/internal/meeting"
)

// Store holds the shared in-memory state. Obtain the typed store views via
// Meetings, Segments, and Summaries. Safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	meetings  map[string]meeting.Meeting
	segments  map[string][]meeting.Segment // keyed by meeting id, arrival order
	summaries map[string]meeting.SummaryRecord
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		meetings:  make(map[string]meeting.Meeting),
		segments:  make(map[string][]meeting.Segment),
		summaries: make(map[string]meeting.SummaryRecord),
	}
}

// Meetings returns the meeting.MeetingStore view.
func (s *Store) Meetings() *MeetingStore { return &MeetingStore{s: s} }

// Segments returns the meeting.SegmentStore view.
func (s *Store) Segments() *SegmentStore { return &SegmentStore{s: s} }

// Summaries returns the meeting.SummaryStore view.
func (s *Store) Summaries() *SummaryStore { return &SummaryStore{s: s} }

// MeetingStore is the in-memory meeting.MeetingStore.
type MeetingStore struct {
	s *Store
}

var _ meeting.MeetingStore = (*MeetingStore)(nil)

// Create implements meeting.MeetingStore.
func (ms *MeetingStore) Create(_ context.Context, m meeting.Meeting) (*meeting.Meeting, error) {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	ms.s.meetings[m.ID] = m
	cp := m
	return &cp, nil
}

// Get implements meeting.MeetingStore.
func (ms *MeetingStore) Get(_ context.Context, id string) (*meeting.Meeting, error) {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()
	m, ok := ms.s.meetings[id]
	if !ok {
		return nil, meeting.ErrNotFound
	}
	cp := m
	return &cp, nil
}

// List implements meeting.MeetingStore.
func (ms *MeetingStore) List(_ context.Context) ([]meeting.Meeting, error) {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()
	out := make([]meeting.Meeting, 0, len(ms.s.meetings))
	for _, m := range ms.s.meetings {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update implements meeting.MeetingStore.
func (ms *MeetingStore) Update(_ context.Context, id string, patch meeting.MeetingPatch) (*meeting.Meeting, error) {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()
	m, ok := ms.s.meetings[id]
	if !ok {
		return nil, meeting.ErrNotFound
	}
	if patch.Title != nil {
		m.Title = *patch.Title
	}
	if patch.Status != nil {
		m.Status = *patch.Status
	}
	if patch.AudioDuration != nil {
		m.AudioDuration = *patch.AudioDuration
	}
	ms.s.meetings[id] = m
	cp := m
	return &cp, nil
}

// Delete implements meeting.MeetingStore and cascades segments and summary.
func (ms *MeetingStore) Delete(_ context.Context, id string) error {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()
	if _, ok := ms.s.meetings[id]; !ok {
		return meeting.ErrNotFound
	}
	delete(ms.s.meetings, id)
	delete(ms.s.segments, id)
	delete(ms.s.summaries, id)
	return nil
}

// SegmentStore is the in-memory meeting.SegmentStore.
type SegmentStore struct {
	s *Store
}

var _ meeting.SegmentStore = (*SegmentStore)(nil)

// Insert implements meeting.SegmentStore.
func (ss *SegmentStore) Insert(_ context.Context, seg meeting.Segment) (*meeting.Segment, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	if seg.ID == "" {
		seg.ID = uuid.NewString()
	}
	if seg.CreatedAt.IsZero() {
		seg.CreatedAt = time.Now()
	}
	ss.s.segments[seg.MeetingID] = append(ss.s.segments[seg.MeetingID], seg)
	cp := seg
	return &cp, nil
}

// ListByMeeting implements meeting.SegmentStore, ordered by StartSec.
func (ss *SegmentStore) ListByMeeting(_ context.Context, meetingID string) ([]meeting.Segment, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	src := ss.s.segments[meetingID]
	out := make([]meeting.Segment, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartSec < out[j].StartSec
	})
	return out, nil
}

// SummaryStore is the in-memory meeting.SummaryStore.
type SummaryStore struct {
	s *Store
}

var _ meeting.SummaryStore = (*SummaryStore)(nil)

// Get implements meeting.SummaryStore.
func (ss *SummaryStore) Get(_ context.Context, meetingID string) (*meeting.SummaryRecord, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	rec, ok := ss.s.summaries[meetingID]
	if !ok {
		return nil, meeting.ErrNotFound
	}
	cp := rec
	return &cp, nil
}

// Seed stores rec verbatim, bypassing version bookkeeping. Tests use it to
// install legacy records.
func (ss *SummaryStore) Seed(rec meeting.SummaryRecord) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	if rec.Version == 0 {
		rec.Version = 1
	}
	ss.s.summaries[rec.MeetingID] = rec
}

// Upsert implements meeting.SummaryStore.
func (ss *SummaryStore) Upsert(_ context.Context, rec meeting.SummaryRecord) (*meeting.SummaryRecord, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	now := time.Now()
	existing, ok := ss.s.summaries[rec.MeetingID]
	if !ok {
		rec.Version = 1
		rec.CreatedAt = now
		rec.UpdatedAt = now
		ss.s.summaries[rec.MeetingID] = rec
		cp := rec
		return &cp, nil
	}
	existing.Status = rec.Status
	existing.TemplateID = rec.TemplateID
	existing.ContextPrompt = rec.ContextPrompt
	existing.ErrorMessage = rec.ErrorMessage
	existing.Version++
	existing.UpdatedAt = now
	ss.s.summaries[rec.MeetingID] = existing
	cp := existing
	return &cp, nil
}

// SetResult implements meeting.SummaryStore.
func (ss *SummaryStore) SetResult(_ context.Context, meetingID string, expectedVersion int64, result string, status meeting.SummaryStatus, templateID string) (*meeting.SummaryRecord, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	rec, ok := ss.s.summaries[meetingID]
	if !ok {
		return nil, meeting.ErrNotFound
	}
	if rec.Version != expectedVersion {
		return nil, meeting.ErrVersionConflict
	}
	rec.Result = result
	rec.Status = status
	rec.TemplateID = templateID
	rec.ErrorMessage = ""
	rec.Version++
	rec.UpdatedAt = time.Now()
	ss.s.summaries[meetingID] = rec
	cp := rec
	return &cp, nil
}

// SetFailed implements meeting.SummaryStore.
func (ss *SummaryStore) SetFailed(_ context.Context, meetingID, errorMessage string) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	rec, ok := ss.s.summaries[meetingID]
	if !ok {
		return meeting.ErrNotFound
	}
	rec.Status = meeting.SummaryFailed
	rec.ErrorMessage = errorMessage
	rec.Version++
	rec.UpdatedAt = time.Now()
	ss.s.summaries[meetingID] = rec
	return nil
}
