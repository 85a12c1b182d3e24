package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/MrWong99/lexora/internal/observe"
	"github.com/MrWong99/lexora/pkg/provider/llm"
)

var _ llm.Provider = (*LLMChain)(nil)

// LLMChain is an llm.Provider that fails over between enrichment backends.
// Every attempt is recorded on the provider metrics under the link's name.
type LLMChain struct {
	chain   *Chain[llm.Provider]
	metrics *observe.Metrics
}

// NewLLMChain returns a chain preferring primary. A nil m records on
// [observe.DefaultMetrics].
func NewLLMChain(name string, primary llm.Provider, cfg BreakerConfig, m *observe.Metrics) *LLMChain {
	if m == nil {
		m = observe.DefaultMetrics()
	}
	return &LLMChain{
		chain:   NewChain[llm.Provider](cfg).Add(name, primary),
		metrics: m,
	}
}

// Add appends a fallback backend.
func (c *LLMChain) Add(name string, p llm.Provider) *LLMChain {
	c.chain.Add(name, p)
	return c
}

// Status reports the breaker state of every backend.
func (c *LLMChain) Status() []LinkStatus { return c.chain.Status() }

// Check fails when no backend would currently accept a request. It is meant
// for readiness probes.
func (c *LLMChain) Check(context.Context) error {
	for _, s := range c.chain.Status() {
		if s.State != StateOpen {
			return nil
		}
	}
	return fmt.Errorf("llm: %w on all %d backends", ErrOpen, c.chain.Len())
}

// Complete implements llm.Provider.
func (c *LLMChain) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return Call(c.chain, func(l Link[llm.Provider]) (*llm.CompletionResponse, error) {
		start := time.Now()
		resp, err := l.Backend.Complete(ctx, req)
		c.metrics.RecordEnrich(ctx, time.Since(start))
		if err != nil {
			c.metrics.RecordProviderRequest(ctx, l.Name, "llm", "error")
			c.metrics.RecordProviderError(ctx, l.Name, "llm")
			return nil, err
		}
		c.metrics.RecordProviderRequest(ctx, l.Name, "llm", "ok")
		return resp, nil
	})
}

// Capabilities returns the preferred backend's capabilities. Requests are
// sized for it; a fallback with a smaller window may truncate.
func (c *LLMChain) Capabilities() llm.ModelCapabilities {
	return c.chain.First().Capabilities()
}
