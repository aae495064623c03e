package server

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MrWong99/protokoll/internal/meeting"
	"github.com/MrWong99/protokoll/internal/transcribe"
	"github.com/MrWong99/protokoll/pkg/provider/stt"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing; larger
// uploads spill to temp files.
const maxUploadMemory = 32 << 20

func (s *Server) handleListTranscripts(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if _, err := s.meetings.Get(r.Context(), meetingID); err != nil {
		writeStoreError(w, err)
		return
	}

	segs, err := s.segments.ListByMeeting(r.Context(), meetingID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"segments": toSegmentListJSON(segs)})
}

func (s *Server) handleInsertTranscript(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if _, err := s.meetings.Get(r.Context(), meetingID); err != nil {
		writeStoreError(w, err)
		return
	}

	var body struct {
		Text       string  `json:"text"`
		StartSec   float64 `json:"startSec"`
		EndSec     float64 `json:"endSec"`
		Confidence float64 `json:"confidence"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeError(w, http.StatusBadRequest, "text must not be empty")
		return
	}
	if body.Confidence == 0 {
		body.Confidence = transcribe.DefaultConfidence
	}

	stored, err := s.segments.Insert(r.Context(), meeting.Segment{
		MeetingID:  meetingID,
		Text:       body.Text,
		Label:      meeting.TimestampLabel(body.StartSec),
		StartSec:   body.StartSec,
		EndSec:     body.EndSec,
		Confidence: body.Confidence,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.indexSegments(r.Context(), []meeting.Segment{*stored})

	writeJSON(w, http.StatusCreated, toSegmentJSON(*stored))
}

// transcribeUpload is the parsed multipart payload shared by the batch and
// live transcription handlers.
type transcribeUpload struct {
	data     []byte
	filename string
	language string
}

func readUpload(r *http.Request) (*transcribeUpload, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, err
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		return nil, errors.New(`missing "audio" file field`)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &transcribeUpload{
		data:     data,
		filename: headerFilename(header),
		language: r.FormValue("language"),
	}, nil
}

func headerFilename(h *multipart.FileHeader) string {
	if h != nil && h.Filename != "" {
		return h.Filename
	}
	return "audio.wav"
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if _, err := s.meetings.Get(r.Context(), meetingID); err != nil {
		writeStoreError(w, err)
		return
	}

	upload, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	audioDuration, _ := strconv.ParseFloat(r.FormValue("audioDuration"), 64)

	if s.gate != nil && s.gate.IsSilent(r.Context(), upload.data, upload.filename) {
		s.metrics.SilenceSkips.Add(r.Context(), 1)
		s.logger.Info("silent upload skipped", "meeting_id", meetingID, "filename", upload.filename)
		writeJSON(w, http.StatusOK, map[string]any{
			"segments": []segmentJSON{},
			"message":  "no recording detected",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), batchTranscribeTimeout)
	defer cancel()

	res, err := s.orchestrator.TranscribeBatch(ctx, transcribe.BatchRequest{
		MeetingID: meetingID,
		Audio:     upload.data,
		Filename:  upload.filename,
		Language:  upload.language,
		Duration:  audioDuration,
	})
	if err != nil {
		if errors.Is(err, stt.ErrNoText) {
			writeError(w, http.StatusUnprocessableEntity, "no transcription text received")
			return
		}
		writeError(w, http.StatusBadGateway, "transcription engine error: "+err.Error())
		return
	}

	stored, err := s.reconcileAndStore(ctx, meetingID, res.Segments, transcribe.ReconcileOptions{}, "batch")
	if err != nil {
		writeStoreError(w, err)
		return
	}

	// Successful batch transcription completes the meeting.
	completed := meeting.StatusCompleted
	patch := meeting.MeetingPatch{Status: &completed}
	if audioDuration > 0 {
		patch.AudioDuration = &audioDuration
	}
	if _, err := s.meetings.Update(ctx, meetingID, patch); err != nil {
		s.logger.Warn("failed to mark meeting completed", "meeting_id", meetingID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"segments":         toSegmentListJSON(stored),
		"detectedLanguage": res.DetectedLanguage,
	})
}

func (s *Server) handleTranscribeLive(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if _, err := s.meetings.Get(r.Context(), meetingID); err != nil {
		writeStoreError(w, err)
		return
	}

	upload, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	windowStart, _ := strconv.ParseFloat(r.FormValue("windowStartTime"), 64)
	lastProcessed, _ := strconv.ParseFloat(r.FormValue("lastProcessedTime"), 64)

	ctx, cancel := context.WithTimeout(r.Context(), liveTranscribeTimeout)
	defer cancel()

	// Live transcription is never fatal: engine errors yield an empty result.
	res, err := s.orchestrator.TranscribeWindow(ctx, transcribe.WindowRequest{
		MeetingID:       meetingID,
		Audio:           upload.data,
		Filename:        upload.filename,
		Language:        upload.language,
		WindowStartTime: windowStart,
		WindowDuration:  s.capture.ChunkSeconds * float64(s.capture.WindowChunks),
	})
	if err != nil {
		res = &transcribe.Result{Segments: []meeting.Segment{}}
	}

	stored, err := s.reconcileAndStore(ctx, meetingID, res.Segments,
		transcribe.ReconcileOptions{Live: true, LastProcessedTime: lastProcessed}, "live")
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"segments":         toSegmentListJSON(stored),
		"detectedLanguage": res.DetectedLanguage,
	})
}

// reconcileAndStore runs candidates through Reconcile against the persisted
// transcript and inserts the survivors. Returns the stored copies.
func (s *Server) reconcileAndStore(ctx context.Context, meetingID string, candidates []meeting.Segment, opts transcribe.ReconcileOptions, mode string) ([]meeting.Segment, error) {
	existing, err := s.segments.ListByMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	accepted := transcribe.Reconcile(existing, candidates, opts)
	s.metrics.RecordReconciliation(ctx, mode, len(accepted), len(candidates)-len(accepted))

	stored := make([]meeting.Segment, 0, len(accepted))
	for _, seg := range accepted {
		inserted, err := s.segments.Insert(ctx, seg)
		if err != nil {
			return nil, err
		}
		stored = append(stored, *inserted)
	}
	s.indexSegments(ctx, stored)
	return stored, nil
}

// indexSegments embeds and indexes freshly stored segments. Best effort: a
// missing embeddings provider disables it entirely and failures only log.
func (s *Server) indexSegments(ctx context.Context, segs []meeting.Segment) {
	if s.embeddings == nil || s.semantic == nil || len(segs) == 0 {
		return
	}
	for _, seg := range segs {
		start := time.Now()
		vec, err := s.embeddings.Embed(ctx, seg.Text)
		s.metrics.ObserveEmbedding(ctx, s.embeddings.ModelID(), time.Since(start), err)
		if err != nil {
			s.logger.Warn("segment embedding failed", "segment_id", seg.ID, "error", err)
			continue
		}
		if err := s.semantic.IndexSegment(ctx, seg.ID, seg.MeetingID, vec); err != nil {
			s.logger.Warn("segment indexing failed", "segment_id", seg.ID, "error", err)
		}
	}
}
