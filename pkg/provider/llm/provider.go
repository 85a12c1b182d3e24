// Package llm defines the Provider interface for Large Language Model backends.
//
// Lexora only uses a model to enrich already-extracted vocabulary with
// translations and learning notes. Extraction never waits on a model, so
// every caller treats a Provider error as "keep the unenriched items".
//
// Implementors must be safe for concurrent use.
package llm

import (
	"context"
	"errors"
)

// ErrTruncated is returned when the backend stopped generating because it
// hit the token limit. Structured output is unusable in that case.
var ErrTruncated = errors.New("llm: response truncated at token limit")

// Usage holds token accounting reported by the backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest is a single-turn or multi-turn completion call.
type CompletionRequest struct {
	// SystemPrompt is sent ahead of Messages when non-empty.
	SystemPrompt string

	// Messages must not be empty; the last one drives the reply.
	Messages []Message

	// Temperature in [0, 2]. Zero keeps the backend default.
	Temperature float64

	// MaxTokens caps the completion. Zero keeps the backend default.
	MaxTokens int

	// JSON asks for a reply that is a single JSON value. Backends with a
	// native JSON mode enable it; the others rely on the prompt.
	JSON bool
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	Content string
	Usage   Usage
}

// Provider is the abstraction over any LLM backend.
//
// Complete must return promptly once ctx is cancelled.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Capabilities returns static metadata about the configured model.
	Capabilities() ModelCapabilities
}
