package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/coder/websocket"

	"github.com/MrWong99/protokoll/internal/meeting"
	"github.com/MrWong99/protokoll/internal/transcribe"
)

// liveFrame is the JSON text frame echoed to the client after each
// transcription cycle.
type liveFrame struct {
	Segments         []segmentJSON `json:"segments"`
	DetectedLanguage string        `json:"detectedLanguage,omitempty"`
}

// handleLiveCapture upgrades to a websocket and runs a live capture session:
// every binary frame is one fixed-length audio chunk pushed into the rolling
// window, every push triggers a transcription cycle over the current window,
// and accepted segments are echoed back as JSON text frames. Closing the
// socket triggers the final flush over the trailing window.
//
// The capture session is owned entirely by this handler goroutine.
func (s *Server) handleLiveCapture(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if _, err := s.meetings.Get(r.Context(), meetingID); err != nil {
		writeStoreError(w, err)
		return
	}
	language := r.URL.Query().Get("language")

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", "meeting_id", meetingID, "error", err)
		return
	}
	defer conn.CloseNow()

	s.metrics.ActiveCaptureSessions.Add(r.Context(), 1)
	defer s.metrics.ActiveCaptureSessions.Add(r.Context(), -1)

	session := transcribe.NewCaptureSession(meetingID,
		transcribe.WithChunkSeconds(s.capture.ChunkSeconds),
		transcribe.WithWindowChunks(s.capture.WindowChunks),
	)
	s.logger.Info("live capture started", "meeting_id", meetingID, "language", language)

	// The flush context must survive the request context, which dies the
	// moment the client disconnects.
	flushCtx := context.WithoutCancel(r.Context())

	for {
		typ, data, err := conn.Read(r.Context())
		if err != nil {
			s.finishCapture(flushCtx, session, language, closeIsExpected(err), err)
			return
		}
		if typ != websocket.MessageBinary || len(data) == 0 {
			continue
		}

		session.Push(data)
		accepted, detected := s.liveCycle(r.Context(), session, language)

		frame, err := json.Marshal(liveFrame{
			Segments:         toSegmentListJSON(accepted),
			DetectedLanguage: detected,
		})
		if err != nil {
			s.logger.Warn("live frame marshal failed", "meeting_id", meetingID, "error", err)
			continue
		}
		if err := conn.Write(r.Context(), websocket.MessageText, frame); err != nil {
			s.finishCapture(flushCtx, session, language, closeIsExpected(err), err)
			return
		}
	}
}

// liveCycle transcribes the session's current window, reconciles against the
// persisted transcript, stores the survivors, and advances the high-water
// mark. Live cycles never fail: every error path degrades to zero accepted
// segments.
func (s *Server) liveCycle(ctx context.Context, session *transcribe.CaptureSession, language string) ([]meeting.Segment, string) {
	window, start := session.Window()
	if len(window) == 0 {
		return nil, ""
	}

	callCtx, cancel := context.WithTimeout(ctx, liveTranscribeTimeout)
	defer cancel()

	res, err := s.orchestrator.TranscribeWindow(callCtx, transcribe.WindowRequest{
		MeetingID:       session.MeetingID(),
		Audio:           window,
		Filename:        "chunk.webm",
		Language:        language,
		WindowStartTime: start,
		WindowDuration:  session.WindowDuration(),
	})
	if err != nil {
		return nil, ""
	}

	stored, err := s.reconcileAndStore(callCtx, session.MeetingID(), res.Segments,
		transcribe.ReconcileOptions{Live: true, LastProcessedTime: session.LastProcessedTime()}, "live")
	if err != nil {
		s.logger.Warn("live segment store failed", "meeting_id", session.MeetingID(), "error", err)
		return nil, res.DetectedLanguage
	}
	session.Advance(stored)
	return stored, res.DetectedLanguage
}

// finishCapture runs the terminal flush: the trailing window goes through one
// last transcribe-reconcile cycle with the same high-water mark, so the
// boundary between incremental passes and the flush produces neither a gap
// nor a duplicate.
func (s *Server) finishCapture(ctx context.Context, session *transcribe.CaptureSession, language string, expected bool, cause error) {
	// Flush empties the buffer, so the window length is read first; the
	// plain-text fallback estimates segment times from it.
	duration := session.WindowDuration()
	window, start := session.Flush()
	if len(window) > 0 {
		callCtx, cancel := context.WithTimeout(ctx, liveTranscribeTimeout)
		defer cancel()

		res, err := s.orchestrator.TranscribeWindow(callCtx, transcribe.WindowRequest{
			MeetingID:       session.MeetingID(),
			Audio:           window,
			Filename:        "chunk.webm",
			Language:        language,
			WindowStartTime: start,
			WindowDuration:  duration,
		})
		if err == nil {
			if _, err := s.reconcileAndStore(callCtx, session.MeetingID(), res.Segments,
				transcribe.ReconcileOptions{Live: true, LastProcessedTime: session.LastProcessedTime()}, "live"); err != nil {
				s.logger.Warn("final flush store failed", "meeting_id", session.MeetingID(), "error", err)
			}
		}
	}

	if expected {
		s.logger.Info("live capture finished",
			"meeting_id", session.MeetingID(), "elapsed", session.Elapsed())
	} else {
		s.logger.Warn("live capture aborted",
			"meeting_id", session.MeetingID(), "elapsed", session.Elapsed(), "error", cause)
	}
}

// closeIsExpected reports whether a websocket read/write error represents a
// client hanging up normally rather than a transport failure.
func closeIsExpected(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, io.EOF)
}
