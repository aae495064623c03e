// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider to script completion responses without a live model. Set
// the response fields before the first call, or set CompleteFunc to
// compute responses per call (useful for asserting on prompt contents or
// simulating a translation failure after a successful draft).
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/protokoll/pkg/provider/llm"
)

// Call records a single invocation of Complete.
type Call struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the request passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider.
type Provider struct {
	mu sync.Mutex

	// Response is returned by Complete when Err is nil.
	Response *llm.CompletionResponse

	// Err, if non-nil, is returned as the error from Complete.
	Err error

	// CompleteFunc, when set, takes precedence over Response/Err and
	// computes the response per call.
	CompleteFunc func(req llm.CompletionRequest) (*llm.CompletionResponse, error)

	// Calls records every invocation of Complete in order.
	Calls []Call
}

var _ llm.Provider = (*Provider)(nil)

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, Call{Ctx: ctx, Req: req})
	fn := p.CompleteFunc
	resp, err := p.Response, p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return resp, err
}

// CallCount returns the number of Complete invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}

// LastCall returns the most recent call, or nil if none were made.
func (p *Provider) LastCall() *Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Calls) == 0 {
		return nil
	}
	c := p.Calls[len(p.Calls)-1]
	return &c
}
