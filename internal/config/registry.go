package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/MrWong99/lexora/pkg/provider/llm"
)

// ErrProviderNotRegistered means no factory exists for a provider entry's
// name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// LLMFactory turns a providers entry into a live LLM client.
type LLMFactory func(ProviderEntry) (llm.Provider, error)

// Registry resolves provider names from the config file to factories. The
// binary registers the built-in backends; tests register mocks.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]LLMFactory
}

// NewRegistry returns a Registry with nothing registered.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]LLMFactory{}}
}

// RegisterLLM binds name to f, replacing any earlier binding.
func (r *Registry) RegisterLLM(name string, f LLMFactory) {
	r.mu.Lock()
	r.factories[name] = f
	r.mu.Unlock()
}

// LLMNames lists the registered names, sorted.
func (r *Registry) LLMNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// CreateLLM builds the provider named by entry.Name. An unknown name yields
// an error wrapping [ErrProviderNotRegistered].
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	f := r.factories[entry.Name]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("%w: llm %q", ErrProviderNotRegistered, entry.Name)
	}
	p, err := f(entry)
	if err != nil {
		return nil, fmt.Errorf("config: build llm %q: %w", entry.Name, err)
	}
	return p, nil
}
