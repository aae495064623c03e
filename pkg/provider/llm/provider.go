// Package llm defines the Provider interface for chat-completion backends.
//
// Protokoll uses a completion model for two jobs: drafting meeting
// summaries in the canonical language and translating finished Markdown
// summaries into other languages. Both are plain request/response
// completions — no tool calling, no streaming — so the interface is a
// single Complete method.
//
// Implementations must be safe for concurrent use from multiple goroutines
// and must propagate context cancellation promptly.
package llm

import "context"

// Message represents a single message in a completion conversation.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting information returned by the backend.
// Counts are in the model's native token unit and differ between providers
// for the same textual content.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the model needs to produce a
// response. Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation. The last message is typically
	// from the "user" role and drives the response.
	Messages []Message

	// SystemPrompt is an optional high-priority instruction injected before
	// the conversation. Providers that lack a dedicated system field
	// prepend it as a "system"-role message.
	SystemPrompt string

	// Temperature controls output randomness in [0.0, 2.0]. Zero means use
	// the provider default.
	Temperature float64

	// MaxTokens caps completion length. Zero means provider default.
	MaxTokens int
}

// CompletionResponse is the full (non-streaming) model reply.
type CompletionResponse struct {
	// Content is the text of the assistant's reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any chat-completion backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	// Returns an error if the request fails or ctx is cancelled first.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
