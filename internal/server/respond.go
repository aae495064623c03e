package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/MrWong99/protokoll/internal/meeting"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status code. On encoding failure it
// falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failure"}`, http.StatusInternalServerError)
	}
}

// writeError writes the uniform {"error": "..."} body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeStoreError maps store errors onto HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, meeting.ErrNotFound) {
		writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// decodeBody decodes the JSON request body into dst, rejecting unknown
// fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// meetingJSON is the wire form of a meeting.
type meetingJSON struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Status        string    `json:"status"`
	AudioDuration float64   `json:"audioDuration"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toMeetingJSON(m meeting.Meeting) meetingJSON {
	return meetingJSON{
		ID:            m.ID,
		Title:         m.Title,
		Status:        string(m.Status),
		AudioDuration: m.AudioDuration,
		CreatedAt:     m.CreatedAt,
	}
}

// segmentJSON is the wire form of a transcript segment.
type segmentJSON struct {
	ID         string    `json:"id"`
	MeetingID  string    `json:"meetingId"`
	Text       string    `json:"text"`
	Label      string    `json:"label"`
	StartSec   float64   `json:"startSec"`
	EndSec     float64   `json:"endSec"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toSegmentJSON(seg meeting.Segment) segmentJSON {
	return segmentJSON{
		ID:         seg.ID,
		MeetingID:  seg.MeetingID,
		Text:       seg.Text,
		Label:      seg.Label,
		StartSec:   seg.StartSec,
		EndSec:     seg.EndSec,
		Confidence: seg.Confidence,
		CreatedAt:  seg.CreatedAt,
	}
}

func toSegmentListJSON(segs []meeting.Segment) []segmentJSON {
	out := make([]segmentJSON, 0, len(segs))
	for _, seg := range segs {
		out = append(out, toSegmentJSON(seg))
	}
	return out
}
