// Package mock provides a scripted llm.Provider for tests.
//
//	p := mock.Reply(`{"items":[{"i":0,"t":"ありがとう"}]}`)
//	p := &mock.Provider{Err: errors.New("rate limited")}
package mock

import (
	"context"
	"slices"
	"sync"

	"github.com/MrWong99/lexora/pkg/provider/llm"
)

var _ llm.Provider = (*Provider)(nil)

// Provider answers Complete from its fields and records every request.
// Configure it before the first call.
type Provider struct {
	// Func, when set, produces every reply and overrides Response and Err.
	Func func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)

	// Response and Err are returned as is. A zero Provider returns nil, nil.
	Response *llm.CompletionResponse
	Err      error

	// Caps is returned by Capabilities.
	Caps llm.ModelCapabilities

	mu       sync.Mutex
	requests []llm.CompletionRequest
	capsRead int
}

// Reply returns a Provider that answers every request with content.
func Reply(content string) *Provider {
	return &Provider{Response: &llm.CompletionResponse{Content: content}}
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	if p.Func != nil {
		return p.Func(ctx, req)
	}
	return p.Response, p.Err
}

// Capabilities implements llm.Provider.
func (p *Provider) Capabilities() llm.ModelCapabilities {
	p.mu.Lock()
	p.capsRead++
	p.mu.Unlock()
	return p.Caps
}

// Requests returns a copy of the requests received so far.
func (p *Provider) Requests() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.requests)
}

// CallCount returns the number of Complete calls.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// CapsCount returns the number of Capabilities calls.
func (p *Provider) CapsCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capsRead
}
