package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MrWong99/protokoll/internal/meeting"
	"github.com/MrWong99/protokoll/internal/summary"
)

// summaryResponse is the wire form of a summary lookup: the resolved variant
// (null when never generated for that template) plus the record's polling
// state.
type summaryResponse struct {
	Summary      *summary.Variant `json:"summary"`
	Status       string           `json:"status,omitempty"`
	TemplateID   string           `json:"templateId,omitempty"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if _, err := s.meetings.Get(r.Context(), meetingID); err != nil {
		writeStoreError(w, err)
		return
	}

	templateID := r.URL.Query().Get("template_id")
	language := r.URL.Query().Get("language")

	variant, err := s.pipeline.Get(r.Context(), meetingID, templateID, language)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := summaryResponse{Summary: variant}
	rec, err := s.pipeline.Record(r.Context(), meetingID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec != nil {
		resp.Status = string(rec.Status)
		resp.TemplateID = rec.TemplateID
		resp.ErrorMessage = rec.ErrorMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if _, err := s.meetings.Get(r.Context(), meetingID); err != nil {
		writeStoreError(w, err)
		return
	}

	var body struct {
		TemplateID    string `json:"templateId"`
		ContextPrompt string `json:"contextPrompt"`
		Language      string `json:"language"`
		UseTemplate   bool   `json:"useTemplate"`
		TranslateOnly bool   `json:"translateOnly"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if body.TranslateOnly {
		if body.Language == "" || body.Language == summary.CanonicalLanguage {
			writeError(w, http.StatusBadRequest, "translate_only requires a non-canonical language")
			return
		}
		variant, err := s.pipeline.Translate(r.Context(), meetingID, body.TemplateID, body.Language)
		if err != nil {
			if errors.Is(err, summary.ErrNoCanonicalSummary) {
				writeError(w, http.StatusNotFound, "no canonical summary to translate")
				return
			}
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, summaryResponse{
			Summary: variant,
			Status:  string(meeting.SummaryCompleted),
		})
		return
	}

	rec, err := s.pipeline.Generate(r.Context(), summary.GenerateRequest{
		MeetingID:      meetingID,
		TemplateID:     body.TemplateID,
		ContextPrompt:  body.ContextPrompt,
		OutputLanguage: body.Language,
		UseTemplate:    body.UseTemplate,
	})
	if err != nil {
		if errors.Is(err, summary.ErrNoTranscripts) {
			writeError(w, http.StatusBadRequest, "no transcripts available")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, summaryResponse{
		Status:     string(rec.Status),
		TemplateID: rec.TemplateID,
	})
}

func (s *Server) handleSetSummary(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if _, err := s.meetings.Get(r.Context(), meetingID); err != nil {
		writeStoreError(w, err)
		return
	}

	var body struct {
		TemplateID string `json:"templateId"`
		Text       string `json:"text"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeError(w, http.StatusBadRequest, "text must not be empty")
		return
	}

	variant, err := s.pipeline.Set(r.Context(), meetingID, body.TemplateID, body.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary: variant,
		Status:  string(meeting.SummaryCompleted),
	})
}

// handleListTemplates reports the summary template ids clients may request.
func (s *Server) handleListTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"templates": summary.KnownTemplateIDs()})
}
