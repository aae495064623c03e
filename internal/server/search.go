package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// searchResult is one semantic search hit joined with its segment.
type searchResult struct {
	Segment  segmentJSON `json:"segment"`
	Distance float64     `json:"distance"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.embeddings == nil || s.semantic == nil {
		writeError(w, http.StatusNotImplemented, "semantic search requires an embeddings provider")
		return
	}

	meetingID := r.PathValue("id")
	if _, err := s.meetings.Get(r.Context(), meetingID); err != nil {
		writeStoreError(w, err)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, `missing "q" query parameter`)
		return
	}
	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, `"limit" must be a positive integer`)
			return
		}
		limit = min(n, maxSearchLimit)
	}

	start := time.Now()
	vec, err := s.embeddings.Embed(r.Context(), query)
	s.metrics.ObserveEmbedding(r.Context(), s.embeddings.ModelID(), time.Since(start), err)
	if err != nil {
		writeError(w, http.StatusBadGateway, "embedding query failed: "+err.Error())
		return
	}

	hits, err := s.semantic.Search(r.Context(), meetingID, vec, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Join hits with their segments for display.
	segs, err := s.segments.ListByMeeting(r.Context(), meetingID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	byID := make(map[string]segmentJSON, len(segs))
	for _, seg := range segs {
		byID[seg.ID] = toSegmentJSON(seg)
	}

	results := make([]searchResult, 0, len(hits))
	for _, hit := range hits {
		seg, ok := byID[hit.SegmentID]
		if !ok {
			continue
		}
		results = append(results, searchResult{Segment: seg, Distance: hit.Distance})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
