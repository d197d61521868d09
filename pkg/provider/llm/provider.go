// Package llm defines the Provider interface for Large Language Model backends.
//
// Solace uses an LLM for one job: reading a user's message and returning a
// structured crisis-risk analysis. The interface is therefore limited to
// single-shot completions; streaming and tool calling are not exposed.
//
// Implementations must be safe for concurrent use.
package llm

import "context"

// Message is a single turn of the prompt sent to the model.
type Message struct {
	// Role is one of "system", "user" or "assistant".
	Role string

	Content string
}

// Usage holds token accounting returned by the backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the model needs to produce a reply.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	Messages []Message

	// SystemPrompt is sent ahead of Messages using the provider's native
	// system-instruction mechanism.
	SystemPrompt string

	// Temperature in [0, 2]. Zero leaves the provider default in place.
	Temperature float64

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int
}

// CompletionResponse is the full reply to a [CompletionRequest].
type CompletionResponse struct {
	Content string
	Usage   Usage
}

// Provider is the abstraction over any LLM backend.
type Provider interface {
	// Complete sends req to the model and waits for the full reply. It
	// returns promptly with ctx.Err() wrapped when ctx is cancelled.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
