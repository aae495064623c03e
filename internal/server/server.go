// Package server exposes the Protokoll HTTP API: meetings CRUD, batch and
// live transcription, summary generation and lookup, transcript semantic
// search, and the operational /metrics and /healthz endpoints.
//
// All JSON error responses have the shape {"error": "..."}. Handlers are
// registered on a [http.ServeMux] using Go 1.22 method patterns and wrapped
// in the observe middleware for tracing, metrics, and request logging.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/protokoll/internal/audio"
	"github.com/MrWong99/protokoll/internal/health"
	"github.com/MrWong99/protokoll/internal/meeting"
	"github.com/MrWong99/protokoll/internal/meeting/postgres"
	"github.com/MrWong99/protokoll/internal/observe"
	"github.com/MrWong99/protokoll/internal/summary"
	"github.com/MrWong99/protokoll/internal/transcribe"
	"github.com/MrWong99/protokoll/pkg/provider/embeddings"
)

// Transcription call budgets: batch uploads may be whole recordings and take
// minutes; a live window is ~9s of audio and must not stall the capture loop.
const (
	batchTranscribeTimeout = 10 * time.Minute
	liveTranscribeTimeout  = 30 * time.Second
)

// SemanticIndex is the transcript embedding index consumed by the search and
// transcription handlers. Satisfied by [postgres.SemanticIndex].
type SemanticIndex interface {
	IndexSegment(ctx context.Context, segmentID, meetingID string, embedding []float32) error
	Search(ctx context.Context, meetingID string, embedding []float32, limit int) ([]postgres.SearchHit, error)
}

var _ SemanticIndex = (*postgres.SemanticIndex)(nil)

// CaptureConfig tunes the live capture rolling window.
type CaptureConfig struct {
	ChunkSeconds float64
	WindowChunks int
}

// Deps carries everything the server needs. Embeddings and Semantic are
// optional; when either is nil, semantic search responds 501 and segment
// indexing is skipped.
type Deps struct {
	Logger *slog.Logger

	Meetings meeting.MeetingStore
	Segments meeting.SegmentStore

	Orchestrator *transcribe.Orchestrator
	Gate         *audio.Gate
	Pipeline     *summary.Pipeline

	Embeddings embeddings.Provider
	Semantic   SemanticIndex

	Metrics *observe.Metrics
	Health  *health.Handler

	Capture CaptureConfig
}

// Server is the Protokoll HTTP API.
type Server struct {
	logger *slog.Logger

	meetings meeting.MeetingStore
	segments meeting.SegmentStore

	orchestrator *transcribe.Orchestrator
	gate         *audio.Gate
	pipeline     *summary.Pipeline

	embeddings embeddings.Provider
	semantic   SemanticIndex

	metrics *observe.Metrics
	health  *health.Handler

	capture CaptureConfig
}

// New creates a Server from deps. A nil Logger falls back to slog.Default
// and a nil Metrics to the package default instruments.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	h := deps.Health
	if h == nil {
		h = health.New()
	}
	capture := deps.Capture
	if capture.ChunkSeconds <= 0 {
		capture.ChunkSeconds = transcribe.DefaultChunkSeconds
	}
	if capture.WindowChunks <= 0 {
		capture.WindowChunks = transcribe.DefaultMaxWindowChunks
	}
	return &Server{
		logger:       logger,
		meetings:     deps.Meetings,
		segments:     deps.Segments,
		orchestrator: deps.Orchestrator,
		gate:         deps.Gate,
		pipeline:     deps.Pipeline,
		embeddings:   deps.Embeddings,
		semantic:     deps.Semantic,
		metrics:      metrics,
		health:       h,
		capture:      capture,
	}
}

// Routes returns the complete HTTP handler: all API routes wrapped in the
// observe middleware, plus /metrics and the health endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/meetings", s.handleListMeetings)
	mux.HandleFunc("POST /api/meetings", s.handleCreateMeeting)
	mux.HandleFunc("GET /api/meetings/{id}", s.handleGetMeeting)
	mux.HandleFunc("PATCH /api/meetings/{id}", s.handlePatchMeeting)
	mux.HandleFunc("DELETE /api/meetings/{id}", s.handleDeleteMeeting)

	mux.HandleFunc("GET /api/meetings/{id}/transcripts", s.handleListTranscripts)
	mux.HandleFunc("POST /api/meetings/{id}/transcripts", s.handleInsertTranscript)
	mux.HandleFunc("POST /api/meetings/{id}/transcribe", s.handleTranscribe)
	mux.HandleFunc("POST /api/meetings/{id}/transcribe-live", s.handleTranscribeLive)
	mux.HandleFunc("GET /api/meetings/{id}/live", s.handleLiveCapture)

	mux.HandleFunc("GET /api/meetings/{id}/summary", s.handleGetSummary)
	mux.HandleFunc("POST /api/meetings/{id}/summary", s.handleGenerateSummary)
	mux.HandleFunc("PATCH /api/meetings/{id}/summary", s.handleSetSummary)
	mux.HandleFunc("GET /api/templates", s.handleListTemplates)

	mux.HandleFunc("GET /api/meetings/{id}/search", s.handleSearch)

	mux.Handle("GET /metrics", promhttp.Handler())
	s.health.Register(mux)

	return observe.Middleware(s.metrics)(mux)
}
