// Package stt defines the Provider interface for batch speech-to-text
// backends.
//
// A provider wraps a transcription service exposing an OpenAI-compatible
// audio transcription API (whisper-server, LemonFox, OpenAI itself). Unlike
// a streaming STT session, Protokoll submits whole audio files or capture
// windows as single requests, asking for verbose output with segment-level
// timestamps. Providers must tolerate engines that degrade to plain text
// without segments — callers fall back to sentence splitting in that case.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"errors"
)

// ErrNoText is returned when the engine responded successfully but produced
// no transcription text. Batch callers treat this as fatal; live callers
// treat an empty window as a valid outcome.
var ErrNoText = errors.New("stt: no transcription text received")

// Segment is a timestamped portion of a transcription result. Start and End
// are offsets in seconds relative to the submitted audio, not to any larger
// recording the audio was cut from.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Result is the outcome of a single transcription request.
type Result struct {
	// Text is the full transcription. Never empty on a nil-error return
	// from Transcribe.
	Text string

	// Language is the engine-detected language code ("zh", "en", …).
	// Empty when the engine does not report one.
	Language string

	// Duration is the audio length in seconds as reported by the engine,
	// 0 when not reported.
	Duration float64

	// Segments carries per-segment timestamps when the engine returned
	// verbose output. Nil or empty when the engine degraded to plain text.
	Segments []Segment
}

// Request describes a single transcription call.
type Request struct {
	// Audio is the encoded audio file content.
	Audio []byte

	// Filename hints the container format to the engine ("audio.wav",
	// "chunk.webm"). Engines route decoding on the extension.
	Filename string

	// Language forces recognition to a specific language code. Empty lets
	// the engine auto-detect. Callers resolve "auto"/"auto-translate" to
	// empty before reaching the provider.
	Language string
}

// Provider is the abstraction over any batch transcription backend.
//
// Implementations must be safe for concurrent use; multiple transcription
// calls may be in flight at once (one per live capture session plus batch
// uploads).
type Provider interface {
	// Transcribe submits one audio file and blocks until the engine
	// responds or ctx is cancelled. Returns ErrNoText (possibly wrapped)
	// when the engine produced an empty transcription.
	Transcribe(ctx context.Context, req Request) (*Result, error)
}
