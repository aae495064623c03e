// Package mock provides a test double for the stt.Provider interface.
//
// Use Provider in unit tests to feed controlled transcription results
// without a live engine. Set the response fields before the first call;
// mutating them during a concurrent call is the caller's responsibility.
//
// Example:
//
//	p := &mock.Provider{
//	    Result: &stt.Result{Text: "Hello team.", Segments: []stt.Segment{{Start: 0, End: 5, Text: "Hello team."}}},
//	}
//	res, err := p.Transcribe(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/protokoll/pkg/provider/stt"
)

// Call records a single invocation of Transcribe.
type Call struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Req is the request passed to Transcribe.
	Req stt.Request
}

// Provider is a mock implementation of stt.Provider.
// Zero values cause Transcribe to return (nil, nil); set Result or Err.
type Provider struct {
	mu sync.Mutex

	// Result is returned by Transcribe when Err is nil.
	Result *stt.Result

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// ResultFunc, when set, takes precedence over Result/Err and computes
	// the response per call. Useful for sequencing live-window responses.
	ResultFunc func(req stt.Request) (*stt.Result, error)

	// Calls records every invocation of Transcribe in order.
	Calls []Call
}

var _ stt.Provider = (*Provider)(nil)

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (*stt.Result, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, Call{Ctx: ctx, Req: req})
	fn := p.ResultFunc
	res, err := p.Result, p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return res, err
}

// CallCount returns the number of Transcribe invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
