package platform

import "context"

// Platform is a music source the search aggregator can query.
type Platform interface {
	// Name returns the platform tag, e.g. "soundcloud".
	Name() string

	// Search returns up to limit raw tracks for query in the platform's own
	// ranking order. An empty result is not an error.
	Search(ctx context.Context, query string, limit int) ([]Track, error)
}

// URLMatcher is implemented by platforms that recognise their own links.
type URLMatcher interface {
	// MatchURL returns the canonical URL and its kind when rawURL belongs to
	// the platform.
	MatchURL(rawURL string) (canonical string, kind Kind, matched bool)
}

// DownloadOptionsProvider is implemented by platforms that need extra
// extractor options when downloading.
type DownloadOptionsProvider interface {
	DownloadOptions() DownloadOptions
}

// MetadataProvider can be implemented by platforms to expose metadata.
type MetadataProvider interface {
	Metadata() Meta
}

// Manager keeps the registered platforms in registration order.
type Manager interface {
	Register(p Platform) error
	Get(name string) Platform
	List() []string
	Select(names []string) []Platform
	MatchURL(text string) (platformName, canonical string, kind Kind, matched bool)
	Meta(name string) Meta
}
