package registry

import (
	"errors"
	"sync"
)

// Matcher is a platform that can recognise its own URLs.
type Matcher interface {
	// Name returns the platform's unique identifier.
	Name() string

	// MatchURL returns the canonical URL and true if the platform handles it.
	MatchURL(url string) (string, bool)
}

// Registry keeps URL matchers in registration order.
type Registry struct {
	mu       sync.RWMutex
	matchers map[string]Matcher
	ordered  []Matcher
}

// New creates a new Registry instance.
func New() *Registry {
	return &Registry{
		matchers: make(map[string]Matcher),
	}
}

// Register adds a matcher to the registry.
func (r *Registry) Register(m Matcher) error {
	if m == nil {
		return errors.New("matcher cannot be nil")
	}

	name := m.Name()
	if name == "" {
		return errors.New("matcher name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.matchers[name]; exists {
		return errors.New("matcher already registered: " + name)
	}

	r.matchers[name] = m
	r.ordered = append(r.ordered, m)
	return nil
}

// MatchURL finds the first matcher, in registration order, that handles url.
func (r *Registry) MatchURL(url string) (string, Matcher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.ordered {
		if canonical, ok := m.MatchURL(url); ok {
			return canonical, m, true
		}
	}
	return "", nil, false
}

// Len returns the number of registered matchers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}
