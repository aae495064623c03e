package transcribe

import (
	"bytes"

	"github.com/MrWong99/protokoll/internal/meeting"
)

// Rolling-window defaults: 3-second chunks, 3 chunks per window, giving a
// ~9s overlap window per transcription cycle.
const (
	DefaultChunkSeconds    = 3.0
	DefaultMaxWindowChunks = 3
)

// CaptureSession is the per-recording state of a live capture: the rolling
// buffer of recent audio chunks, the recording clock, and the
// lastProcessedTime high-water mark.
//
// A session is owned by a single goroutine (the websocket handler of its
// recording); it is deliberately not safe for concurrent use. One session
// exists per active recording and is discarded after the final flush.
type CaptureSession struct {
	meetingID    string
	chunkSeconds float64
	maxChunks    int

	chunks  [][]byte
	elapsed float64 // total seconds of audio received so far

	lastProcessedTime float64
}

// SessionOption customizes a CaptureSession.
type SessionOption func(*CaptureSession)

// WithChunkSeconds overrides the per-chunk length in seconds.
func WithChunkSeconds(seconds float64) SessionOption {
	return func(s *CaptureSession) {
		if seconds > 0 {
			s.chunkSeconds = seconds
		}
	}
}

// WithWindowChunks overrides the number of chunks kept in the rolling window.
func WithWindowChunks(n int) SessionOption {
	return func(s *CaptureSession) {
		if n > 0 {
			s.maxChunks = n
		}
	}
}

// NewCaptureSession creates a session with the default chunk and window
// sizes unless overridden by options.
func NewCaptureSession(meetingID string, opts ...SessionOption) *CaptureSession {
	s := &CaptureSession{
		meetingID:    meetingID,
		chunkSeconds: DefaultChunkSeconds,
		maxChunks:    DefaultMaxWindowChunks,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MeetingID returns the meeting this session records.
func (s *CaptureSession) MeetingID() string {
	return s.meetingID
}

// Push appends one fixed-length audio chunk to the rolling buffer, evicting
// the oldest chunk once the window is full, and advances the recording
// clock.
func (s *CaptureSession) Push(chunk []byte) {
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	s.chunks = append(s.chunks, cp)
	if len(s.chunks) > s.maxChunks {
		s.chunks = s.chunks[1:]
	}
	s.elapsed += s.chunkSeconds
}

// Window returns the concatenated bytes of the current rolling buffer and
// the absolute start time of its first sample. Empty when nothing has been
// pushed since the last Reset.
func (s *CaptureSession) Window() ([]byte, float64) {
	if len(s.chunks) == 0 {
		return nil, s.elapsed
	}
	start := s.elapsed - float64(len(s.chunks))*s.chunkSeconds
	if start < 0 {
		start = 0
	}
	return bytes.Join(s.chunks, nil), start
}

// WindowDuration returns the length in seconds of the current window.
func (s *CaptureSession) WindowDuration() float64 {
	return float64(len(s.chunks)) * s.chunkSeconds
}

// Elapsed returns the total seconds of audio received so far.
func (s *CaptureSession) Elapsed() float64 {
	return s.elapsed
}

// LastProcessedTime returns the high-water mark of accepted segment start
// times, passed to Reconcile on every cycle including the final flush.
func (s *CaptureSession) LastProcessedTime() float64 {
	return s.lastProcessedTime
}

// Advance raises the high-water mark to the latest StartSec among the
// segments accepted in the cycle just completed. Segments never lower it.
func (s *CaptureSession) Advance(accepted []meeting.Segment) {
	s.lastProcessedTime = HighWaterMark(s.lastProcessedTime, accepted)
}

// Flush returns the trailing window for the terminal reconciliation pass at
// session stop and empties the buffer. The caller runs this window through
// the same transcribe-reconcile cycle as a live window, with the same
// high-water mark, so the boundary between incremental passes and the flush
// produces neither a gap nor a duplicate.
func (s *CaptureSession) Flush() ([]byte, float64) {
	data, start := s.Window()
	s.chunks = nil
	return data, start
}
