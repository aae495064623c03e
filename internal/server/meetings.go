package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrWong99/protokoll/internal/meeting"
)

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	list, err := s.meetings.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	out := make([]meetingJSON, 0, len(list))
	for _, m := range list {
		out = append(out, toMeetingJSON(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"meetings": out})
}

func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := decodeBody(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if body.Title == "" {
		body.Title = "Meeting " + time.Now().Format("2006-01-02 15:04")
	}

	created, err := s.meetings.Create(r.Context(), meeting.Meeting{
		Title:  body.Title,
		Status: meeting.StatusRecording,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMeetingJSON(*created))
}

func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	m, err := s.meetings.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMeetingJSON(*m))
}

func (s *Server) handlePatchMeeting(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title         *string  `json:"title"`
		Status        *string  `json:"status"`
		AudioDuration *float64 `json:"audioDuration"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	patch := meeting.MeetingPatch{
		Title:         body.Title,
		AudioDuration: body.AudioDuration,
	}
	if body.Status != nil {
		status := meeting.Status(*body.Status)
		if !status.IsValid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", *body.Status))
			return
		}
		patch.Status = &status
	}

	updated, err := s.meetings.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMeetingJSON(*updated))
}

func (s *Server) handleDeleteMeeting(w http.ResponseWriter, r *http.Request) {
	if err := s.meetings.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
