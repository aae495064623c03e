package transcribe_test

import (
	"testing"

	"github.com/MrWong99/protokoll/internal/meeting"
	"github.com/MrWong99/protokoll/internal/transcribe"
)

func seg(start, end float64, text string) meeting.Segment {
	return meeting.Segment{
		MeetingID: "m1",
		Text:      text,
		StartSec:  start,
		EndSec:    end,
	}
}

func TestReconcileBatchAcceptsAll(t *testing.T) {
	t.Parallel()

	incoming := []meeting.Segment{
		seg(0, 5, "Hello team."),
		seg(5, 11, "Let's begin."),
	}
	got := transcribe.Reconcile(nil, incoming, transcribe.ReconcileOptions{})
	if len(got) != 2 {
		t.Fatalf("expected 2 accepted segments, got %d", len(got))
	}
}

func TestReconcileDropsEmptyText(t *testing.T) {
	t.Parallel()

	incoming := []meeting.Segment{
		seg(0, 5, "   "),
		seg(6, 10, "real content"),
	}
	got := transcribe.Reconcile(nil, incoming, transcribe.ReconcileOptions{})
	if len(got) != 1 || got[0].Text != "real content" {
		t.Fatalf("expected only the non-empty segment, got %+v", got)
	}
}

func TestReconcileToleranceWindow(t *testing.T) {
	t.Parallel()

	existing := []meeting.Segment{seg(10, 15, "original")}

	tests := []struct {
		name  string
		start float64
		want  int
	}{
		{"exact match", 10, 0},
		{"within tolerance above", 10.5, 0},
		{"within tolerance below", 9.5, 0},
		{"just outside above", 10.5001, 1},
		{"just outside below", 9.4999, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := transcribe.Reconcile(existing, []meeting.Segment{seg(tc.start, tc.start+3, "candidate")}, transcribe.ReconcileOptions{})
			if len(got) != tc.want {
				t.Fatalf("start %v: expected %d accepted, got %d", tc.start, tc.want, len(got))
			}
		})
	}
}

func TestReconcileIdempotent(t *testing.T) {
	t.Parallel()

	incoming := []meeting.Segment{
		seg(0, 5, "first"),
		seg(6, 9, "second"),
		seg(12, 15, "third"),
	}

	first := transcribe.Reconcile(nil, incoming, transcribe.ReconcileOptions{})
	if len(first) != 3 {
		t.Fatalf("first pass accepted %d, want 3", len(first))
	}

	// Same incoming set against the now-persisted state inserts nothing.
	second := transcribe.Reconcile(first, incoming, transcribe.ReconcileOptions{})
	if len(second) != 0 {
		t.Fatalf("second pass accepted %d, want 0: %+v", len(second), second)
	}
}

func TestReconcileIntraBatchDedup(t *testing.T) {
	t.Parallel()

	incoming := []meeting.Segment{
		seg(20, 23, "winner"),
		seg(20.3, 24, "near duplicate"),
	}
	got := transcribe.Reconcile(nil, incoming, transcribe.ReconcileOptions{})
	if len(got) != 1 {
		t.Fatalf("expected 1 accepted, got %d", len(got))
	}
	if got[0].Text != "winner" {
		t.Fatalf("first writer should win, got %q", got[0].Text)
	}
}

func TestReconcileLiveHighWaterMark(t *testing.T) {
	t.Parallel()

	// Window at 30s, high-water mark 33: a segment at absolute start 32 is
	// already covered and must be discarded.
	incoming := []meeting.Segment{seg(32, 35, "continuing")}
	got := transcribe.Reconcile(nil, incoming, transcribe.ReconcileOptions{
		Live:              true,
		LastProcessedTime: 33,
	})
	if len(got) != 0 {
		t.Fatalf("expected segment at 32 <= 33 to be discarded, got %+v", got)
	}

	// A segment strictly past the mark survives.
	incoming = []meeting.Segment{seg(33.5, 36, "new speech")}
	got = transcribe.Reconcile(nil, incoming, transcribe.ReconcileOptions{
		Live:              true,
		LastProcessedTime: 33,
	})
	if len(got) != 1 {
		t.Fatalf("expected segment at 33.5 > 33 to be accepted, got %d", len(got))
	}
}

func TestReconcileLiveBoundaryEqualsMarkIsDropped(t *testing.T) {
	t.Parallel()

	got := transcribe.Reconcile(nil, []meeting.Segment{seg(33, 36, "boundary")}, transcribe.ReconcileOptions{
		Live:              true,
		LastProcessedTime: 33,
	})
	if len(got) != 0 {
		t.Fatalf("startSec == lastProcessedTime must be discarded, got %+v", got)
	}
}

func TestReconcileMonotonicity(t *testing.T) {
	t.Parallel()

	incoming := []meeting.Segment{
		seg(10, 12, "a"),
		seg(20, 22, "b"),
		seg(25, 27, "c"),
		seg(31, 33, "d"),
	}
	const mark = 24.0
	got := transcribe.Reconcile(nil, incoming, transcribe.ReconcileOptions{
		Live:              true,
		LastProcessedTime: mark,
	})
	for _, s := range got {
		if s.StartSec <= mark {
			t.Fatalf("segment at %v leaked past high-water mark %v", s.StartSec, mark)
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 segments past the mark, got %d", len(got))
	}
}

func TestHighWaterMark(t *testing.T) {
	t.Parallel()

	segs := []meeting.Segment{seg(5, 8, "a"), seg(12, 14, "b"), seg(9, 11, "c")}
	if got := transcribe.HighWaterMark(0, segs); got != 12 {
		t.Fatalf("expected mark 12, got %v", got)
	}
	// The mark never regresses.
	if got := transcribe.HighWaterMark(20, segs); got != 20 {
		t.Fatalf("expected mark to stay 20, got %v", got)
	}
	if got := transcribe.HighWaterMark(7, nil); got != 7 {
		t.Fatalf("expected mark to stay 7 on empty input, got %v", got)
	}
}
