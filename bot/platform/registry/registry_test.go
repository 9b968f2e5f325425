package registry

import (
	"strings"
	"sync"
	"testing"
)

type prefixMatcher struct {
	name   string
	prefix string
}

func (m *prefixMatcher) Name() string {
	return m.name
}

func (m *prefixMatcher) MatchURL(url string) (string, bool) {
	if m.prefix == "" || !strings.HasPrefix(url, m.prefix) {
		return "", false
	}
	return strings.TrimSuffix(url, "/"), true
}

func TestRegisterRejectsInvalid(t *testing.T) {
	r := New()
	if err := r.Register(nil); err == nil {
		t.Error("Register(nil) error = nil, want error")
	}
	if err := r.Register(&prefixMatcher{prefix: "https://x"}); err == nil {
		t.Error("Register() with empty name error = nil, want error")
	}
	if err := r.Register(&prefixMatcher{name: "soundcloud", prefix: "https://soundcloud.com"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(&prefixMatcher{name: "soundcloud", prefix: "https://on.soundcloud.com"}); err == nil {
		t.Error("duplicate Register() error = nil, want error")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestMatchURL(t *testing.T) {
	r := New()
	_ = r.Register(&prefixMatcher{name: "soundcloud", prefix: "https://soundcloud.com/"})
	_ = r.Register(&prefixMatcher{name: "youtube", prefix: "https://www.youtube.com/"})

	tests := []struct {
		name      string
		url       string
		canonical string
		platform  string
		ok        bool
	}{
		{"soundcloud", "https://soundcloud.com/artist/track/", "https://soundcloud.com/artist/track", "soundcloud", true},
		{"youtube", "https://www.youtube.com/watch?v=abc", "https://www.youtube.com/watch?v=abc", "youtube", true},
		{"unknown", "https://example.com/a", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canonical, m, ok := r.MatchURL(tt.url)
			if ok != tt.ok {
				t.Fatalf("MatchURL() ok = %v, want %v", ok, tt.ok)
			}
			if canonical != tt.canonical {
				t.Errorf("MatchURL() canonical = %q, want %q", canonical, tt.canonical)
			}
			if ok && m.Name() != tt.platform {
				t.Errorf("MatchURL() platform = %q, want %q", m.Name(), tt.platform)
			}
			if !ok && m != nil {
				t.Errorf("MatchURL() matcher = %v, want nil", m)
			}
		})
	}
}

func TestMatchURLRegistrationOrder(t *testing.T) {
	r := New()
	_ = r.Register(&prefixMatcher{name: "generic", prefix: "https://"})
	_ = r.Register(&prefixMatcher{name: "specific", prefix: "https://soundcloud.com"})

	_, m, ok := r.MatchURL("https://soundcloud.com/a/b")
	if !ok || m.Name() != "generic" {
		t.Fatalf("MatchURL() = %v, %v; want first registered matcher", m, ok)
	}
}

func TestConcurrentRegisterAndMatch(t *testing.T) {
	r := New()
	const workers = 32

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(id int) {
			defer wg.Done()
			name := string(rune('a' + id))
			_ = r.Register(&prefixMatcher{name: name, prefix: "https://" + name + ".test"})
			r.MatchURL("https://" + name + ".test/x")
		}(i)
	}
	wg.Wait()

	if r.Len() != workers {
		t.Errorf("Len() = %d, want %d", r.Len(), workers)
	}
}
