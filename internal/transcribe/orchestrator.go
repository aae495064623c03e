package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrWong99/protokoll/internal/meeting"
	"github.com/MrWong99/protokoll/internal/observe"
	"github.com/MrWong99/protokoll/pkg/provider/stt"
)

// DefaultConfidence is assigned to every segment; the engines Protokoll
// targets do not report per-segment confidence.
const DefaultConfidence = 0.95

// fallbackSecondsPerSentence is the per-sentence time estimate used when a
// batch engine degrades to plain text and reports no duration.
const fallbackSecondsPerSentence = 4.0

// Orchestrator drives the speech-to-text engine and normalizes its output
// into candidate transcript segments. It never persists anything and never
// consults existing segments; callers run the result through Reconcile
// before inserting.
type Orchestrator struct {
	provider stt.Provider
	logger   *slog.Logger
	metrics  *observe.Metrics
}

// NewOrchestrator creates an Orchestrator. logger may be nil, in which case
// slog.Default is used.
func NewOrchestrator(provider stt.Provider, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{provider: provider, logger: logger, metrics: observe.DefaultMetrics()}
}

// BatchRequest describes a full-file transcription.
type BatchRequest struct {
	MeetingID string
	Audio     []byte

	// Filename hints the container format to the engine.
	Filename string

	// Language is the caller's hint: "auto", "auto-translate", or an
	// explicit code.
	Language string

	// Duration is the caller-known audio length in seconds, 0 when unknown.
	// Only consulted when the engine degrades to plain text and reports no
	// duration itself.
	Duration float64
}

// WindowRequest describes one live rolling-window transcription.
type WindowRequest struct {
	MeetingID string
	Audio     []byte
	Filename  string
	Language  string

	// WindowStartTime is the absolute offset in seconds of the window's
	// first sample within the recording. Segment offsets reported by the
	// engine are relative to the window and are shifted by this value.
	WindowStartTime float64

	// WindowDuration is the window length in seconds, used for plain-text
	// time estimation when the engine reports no duration.
	WindowDuration float64
}

// Result is the orchestrator's output: candidate segments with absolute
// times, labels, and normalized text, plus the engine-detected language.
type Result struct {
	Segments         []meeting.Segment
	DetectedLanguage string
}

// TranscribeBatch transcribes a complete audio file. Engine failures are
// fatal; an empty transcription is reported as stt.ErrNoText (wrapped).
func (o *Orchestrator) TranscribeBatch(ctx context.Context, req BatchRequest) (*Result, error) {
	start := time.Now()
	res, err := o.provider.Transcribe(ctx, stt.Request{
		Audio:    req.Audio,
		Filename: req.Filename,
		Language: ResolveEngineLanguage(req.Language),
	})
	o.metrics.ObserveSTT(ctx, "batch", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("transcribe meeting %s: %w", req.MeetingID, err)
	}
	return o.buildResult(res, req.MeetingID, req.Language, 0, req.Duration), nil
}

// TranscribeWindow transcribes one live capture window. Live failures are
// tolerated, not fatal: engine errors and empty transcriptions both yield
// an empty Result with a nil error, so a stalled or silent window never
// breaks the capture loop.
func (o *Orchestrator) TranscribeWindow(ctx context.Context, req WindowRequest) (*Result, error) {
	start := time.Now()
	res, err := o.provider.Transcribe(ctx, stt.Request{
		Audio:    req.Audio,
		Filename: req.Filename,
		Language: ResolveEngineLanguage(req.Language),
	})
	o.metrics.ObserveSTT(ctx, "live", time.Since(start), err)
	if err != nil {
		o.logger.Warn("live transcription window failed",
			"meeting_id", req.MeetingID,
			"window_start", req.WindowStartTime,
			"error", err,
		)
		return &Result{Segments: []meeting.Segment{}}, nil
	}
	return o.buildResult(res, req.MeetingID, req.Language, req.WindowStartTime, req.WindowDuration), nil
}

// buildResult converts an engine result into candidate segments. Verbose
// segments are preferred; plain text falls back to sentence splitting with
// evenly distributed time.
func (o *Orchestrator) buildResult(res *stt.Result, meetingID, languageHint string, windowStart, fallbackDuration float64) *Result {
	out := &Result{
		Segments:         []meeting.Segment{},
		DetectedLanguage: res.Language,
	}

	if len(res.Segments) > 0 {
		for _, seg := range res.Segments {
			text := NormalizeScript(strings.TrimSpace(seg.Text), languageHint, res.Language)
			if text == "" {
				continue
			}
			start := windowStart + seg.Start
			out.Segments = append(out.Segments, meeting.Segment{
				MeetingID:  meetingID,
				Text:       text,
				Label:      meeting.TimestampLabel(start),
				StartSec:   start,
				EndSec:     windowStart + seg.End,
				Confidence: DefaultConfidence,
			})
		}
		return out
	}

	sentences := SplitSentences(res.Text)
	if len(sentences) == 0 {
		return out
	}

	duration := res.Duration
	if duration <= 0 {
		duration = fallbackDuration
	}
	if duration <= 0 {
		duration = fallbackSecondsPerSentence * float64(len(sentences))
	}
	per := duration / float64(len(sentences))

	for i, sentence := range sentences {
		text := NormalizeScript(sentence, languageHint, res.Language)
		if text == "" {
			continue
		}
		start := windowStart + float64(i)*per
		out.Segments = append(out.Segments, meeting.Segment{
			MeetingID:  meetingID,
			Text:       text,
			Label:      meeting.TimestampLabel(start),
			StartSec:   start,
			EndSec:     start + per,
			Confidence: DefaultConfidence,
		})
	}
	return out
}

// sentenceTerminators covers ASCII and CJK sentence-ending punctuation.
const sentenceTerminators = ".!?。！？"

// SplitSentences splits plain transcription text into sentences, keeping
// the terminating punctuation with each sentence. A trailing fragment
// without a terminator is returned as its own sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	for _, r := range text {
		b.WriteRune(r)
		if strings.ContainsRune(sentenceTerminators, r) {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
