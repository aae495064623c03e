package resilience

import (
	"context"

	"github.com/MrWong99/protokoll/pkg/provider/stt"
)

// STTFallback implements [stt.Provider] with automatic failover across multiple
// transcription backends. Each backend has its own circuit breaker.
type STTFallback struct {
	group *FallbackGroup[stt.Provider]
}

// Compile-time interface assertion.
var _ stt.Provider = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred backend.
func NewSTTFallback(primary stt.Provider, primaryName string, cfg FallbackConfig) *STTFallback {
	return &STTFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional STT provider as a fallback.
func (f *STTFallback) AddFallback(name string, provider stt.Provider) {
	f.group.AddFallback(name, provider)
}

// Transcribe submits the request to the first healthy backend. If the primary
// fails, subsequent fallbacks are tried with the same request.
//
// [stt.ErrNoText] counts as a failure for failover purposes: an engine that
// returns empty text for audio another engine can transcribe is doing its job
// badly, not reporting silence.
func (f *STTFallback) Transcribe(ctx context.Context, req stt.Request) (*stt.Result, error) {
	return ExecuteWithResult(f.group, func(p stt.Provider) (*stt.Result, error) {
		return p.Transcribe(ctx, req)
	})
}
