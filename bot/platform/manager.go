package platform

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/sepehrmoghiseh/musifyyy/bot/platform/registry"
)

// DefaultManager implements Manager.
type DefaultManager struct {
	registry *registry.Registry
	mu       sync.RWMutex
	byName   map[string]Platform
	order    []string
	meta     map[string]Meta
}

// NewManager creates an empty manager.
func NewManager() *DefaultManager {
	return &DefaultManager{
		registry: registry.New(),
		byName:   make(map[string]Platform),
		meta:     make(map[string]Meta),
	}
}

// Register adds a platform. Names must be unique.
func (m *DefaultManager) Register(p Platform) error {
	if p == nil {
		return fmt.Errorf("platform required")
	}
	name := p.Name()
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("platform name required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[name]; exists {
		return fmt.Errorf("platform %s already registered", name)
	}
	m.byName[name] = p
	m.order = append(m.order, name)
	m.meta[name] = buildMeta(p)

	if matcher, ok := p.(URLMatcher); ok {
		if err := m.registry.Register(&matcherAdapter{name: name, matcher: matcher}); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the named platform or nil.
func (m *DefaultManager) Get(name string) Platform {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byName[name]
}

// List returns platform names in registration order.
func (m *DefaultManager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Select returns the named platforms in the given order, skipping unknown
// and duplicate names. An empty list selects every platform.
func (m *DefaultManager) Select(names []string) []Platform {
	if len(names) == 0 {
		names = m.List()
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{}, len(names))
	out := make([]Platform, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if p, ok := m.byName[name]; ok {
			out = append(out, p)
		}
	}
	return out
}

// MatchURL finds the first http(s) URL in text and the platform owning it.
func (m *DefaultManager) MatchURL(text string) (platformName, canonical string, kind Kind, matched bool) {
	rawURL := ExtractFirstURL(text)
	if rawURL == "" {
		return "", "", KindTrack, false
	}
	canonical, matcher, ok := m.registry.MatchURL(rawURL)
	if !ok {
		return "", "", KindTrack, false
	}
	adapter := matcher.(*matcherAdapter)
	_, kind, _ = adapter.matcher.MatchURL(rawURL)
	return adapter.name, canonical, kind, true
}

// Meta returns display metadata for a platform. Unknown names get defaults.
func (m *DefaultManager) Meta(name string) Meta {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if meta, ok := m.meta[name]; ok {
		return meta
	}
	return Meta{Name: name, DisplayName: name, Emoji: defaultEmoji}
}

// ExtractFirstURL returns the first http(s) URL token in text.
func ExtractFirstURL(text string) string {
	for _, field := range strings.Fields(text) {
		if !strings.HasPrefix(field, "http://") && !strings.HasPrefix(field, "https://") {
			continue
		}
		if parsed, err := url.Parse(field); err == nil && parsed.Host != "" {
			return field
		}
	}
	return ""
}

type matcherAdapter struct {
	name    string
	matcher URLMatcher
}

func (a *matcherAdapter) Name() string { return a.name }

func (a *matcherAdapter) MatchURL(rawURL string) (string, bool) {
	canonical, _, ok := a.matcher.MatchURL(rawURL)
	return canonical, ok
}
