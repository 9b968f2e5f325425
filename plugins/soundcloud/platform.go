package soundcloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/sepehrmoghiseh/musifyyy/bot/extractor"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
)

// SoundCloudPlatform searches SoundCloud through the extractor's scsearch
// prefix. It needs no extra download options.
type SoundCloudPlatform struct {
	engine extractor.Engine
}

// NewPlatform creates a new SoundCloudPlatform instance.
func NewPlatform(engine extractor.Engine) *SoundCloudPlatform {
	return &SoundCloudPlatform{engine: engine}
}

// Name returns the platform identifier.
func (s *SoundCloudPlatform) Name() string {
	return "soundcloud"
}

// Metadata implements platform.MetadataProvider.
func (s *SoundCloudPlatform) Metadata() platform.Meta {
	return platform.Meta{Name: "soundcloud", DisplayName: "SoundCloud", Emoji: "🎵"}
}

// Search implements platform.Platform.
func (s *SoundCloudPlatform) Search(ctx context.Context, query string, limit int) ([]platform.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}
	entries, err := s.engine.Search(ctx, fmt.Sprintf("scsearch%d:%s", limit, query), limit, extractor.Options{})
	if err != nil {
		return nil, &platform.PlatformError{Platform: s.Name(), Op: "search", Err: err}
	}

	tracks := make([]platform.Track, 0, len(entries))
	for _, entry := range entries {
		trackURL := entry.URL
		if !isHTTP(trackURL) {
			trackURL = entry.WebpageURL
		}
		if !isHTTP(trackURL) {
			trackURL = ""
		}
		kind := platform.KindTrack
		if isSetURL(trackURL) {
			kind = platform.KindAlbum
		}
		tracks = append(tracks, platform.Track{
			ID:       entry.ID,
			Title:    entry.Title,
			URL:      trackURL,
			Uploader: entry.Uploader,
			Duration: entry.Duration,
			Kind:     kind,
		})
	}
	return tracks, nil
}

func isHTTP(u string) bool {
	return strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://")
}
