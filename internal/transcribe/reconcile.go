// Package transcribe implements Protokoll's transcription core: the
// orchestrator that drives the speech-to-text engine and normalizes its
// output, the reconciler that merges new segments into the persisted
// transcript, and the rolling-window capture session used during live
// recording.
package transcribe

import (
	"math"
	"strings"

	"github.com/MrWong99/protokoll/internal/meeting"
)

// DedupToleranceSec is the start-time tolerance for duplicate detection.
// Overlapping live windows regenerate near-identical segments for the same
// speech at slightly different detected offsets; anything within this
// distance of an already-accepted start is the same utterance. The bound is
// inclusive: a candidate exactly 0.5s away is still a duplicate.
const DedupToleranceSec = 0.5

// ReconcileOptions selects between batch and live reconciliation.
type ReconcileOptions struct {
	// Live enables incremental filtering: candidates whose StartSec is at or
	// before LastProcessedTime are discarded as already covered by a previous
	// overlapping window.
	Live bool

	// LastProcessedTime is the high-water mark of accepted segment start
	// times. Only consulted when Live is true.
	LastProcessedTime float64
}

// Reconcile determines which incoming segments should be inserted given the
// already-persisted segments of the same meeting.
//
// Candidates with empty text are dropped. In live mode, candidates at or
// below the high-water mark are dropped. Every survivor is then checked
// against existing segments and against earlier survivors of the same call:
// a start time within DedupToleranceSec of an accepted start is a duplicate
// and is dropped, first writer wins, text is never merged.
//
// The returned slice preserves incoming order; it is the caller's job to
// re-sort the full persisted set by StartSec for display. Calling Reconcile
// again with the same existing set plus a previous call's output yields no
// new insertions.
func Reconcile(existing, incoming []meeting.Segment, opts ReconcileOptions) []meeting.Segment {
	accepted := make([]meeting.Segment, 0, len(incoming))

	for _, cand := range incoming {
		if strings.TrimSpace(cand.Text) == "" {
			continue
		}
		if opts.Live && cand.StartSec <= opts.LastProcessedTime {
			continue
		}
		if hasNearbyStart(existing, cand.StartSec) || hasNearbyStart(accepted, cand.StartSec) {
			continue
		}
		accepted = append(accepted, cand)
	}
	return accepted
}

// hasNearbyStart reports whether any segment's start lies within
// DedupToleranceSec (inclusive) of start.
func hasNearbyStart(segs []meeting.Segment, start float64) bool {
	for _, s := range segs {
		if math.Abs(s.StartSec-start) <= DedupToleranceSec {
			return true
		}
	}
	return false
}

// HighWaterMark returns the largest StartSec among segs, or current when
// segs is empty or contains nothing newer. Live capture uses it to advance
// lastProcessedTime after each accepted window.
func HighWaterMark(current float64, segs []meeting.Segment) float64 {
	mark := current
	for _, s := range segs {
		if s.StartSec > mark {
			mark = s.StartSec
		}
	}
	return mark
}
