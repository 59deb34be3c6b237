package ai

import (
	"fmt"
	"strings"
	"sync"
)

type ProviderFactory func() Provider

// Registry routes by request shape ("responses", "chat").
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

func (r *Registry) Register(shape string, f ProviderFactory) {
	shape = strings.ToLower(strings.TrimSpace(shape))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[shape] = f
}

func (r *Registry) Get(shape string) (Provider, error) {
	shape = strings.ToLower(strings.TrimSpace(shape))
	r.mu.RLock()
	f, ok := r.factories[shape]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown api shape: %s", shape)
	}
	return f(), nil
}
