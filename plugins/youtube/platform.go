package youtube

import (
	"context"
	"fmt"
	"strings"

	"github.com/sepehrmoghiseh/musifyyy/bot/extractor"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
)

const defaultPlayerClient = "ios,web"

// YouTubePlatform is the fallback source. Its downloads use an alternate
// player client and, when available, a cookie jar.
type YouTubePlatform struct {
	engine       extractor.Engine
	cookieFile   string
	playerClient string
}

// NewPlatform creates a new YouTubePlatform instance.
func NewPlatform(engine extractor.Engine, cookieFile, playerClient string) *YouTubePlatform {
	if strings.TrimSpace(playerClient) == "" {
		playerClient = defaultPlayerClient
	}
	return &YouTubePlatform{engine: engine, cookieFile: cookieFile, playerClient: playerClient}
}

// Name returns the platform identifier.
func (y *YouTubePlatform) Name() string {
	return "youtube"
}

// Metadata implements platform.MetadataProvider.
func (y *YouTubePlatform) Metadata() platform.Meta {
	return platform.Meta{Name: "youtube", DisplayName: "YouTube", Emoji: "📺"}
}

// DownloadOptions implements platform.DownloadOptionsProvider.
func (y *YouTubePlatform) DownloadOptions() platform.DownloadOptions {
	return platform.DownloadOptions{
		ExtractorArgs: fmt.Sprintf("youtube:player_client=%s;skip=hls", y.playerClient),
		CookieFile:    y.cookieFile,
	}
}

// Search implements platform.Platform.
func (y *YouTubePlatform) Search(ctx context.Context, query string, limit int) ([]platform.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}
	opts := extractor.Options{
		ExtractorArgs: "youtube:player_client=" + y.playerClient,
		CookieFile:    y.cookieFile,
	}
	entries, err := y.engine.Search(ctx, fmt.Sprintf("ytsearch%d:%s", limit, query), limit, opts)
	if err != nil {
		return nil, &platform.PlatformError{Platform: y.Name(), Op: "search", Err: err}
	}

	tracks := make([]platform.Track, 0, len(entries))
	for _, entry := range entries {
		trackURL := resolveURL(entry)
		kind := platform.KindTrack
		if isPlaylistURL(trackURL) {
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

// resolveURL prefers the entry URL, then the webpage URL, then a watch URL
// built from a bare video id.
func resolveURL(entry extractor.Entry) string {
	for _, candidate := range []string{entry.URL, entry.WebpageURL} {
		if strings.HasPrefix(candidate, "https://") || strings.HasPrefix(candidate, "http://") {
			return candidate
		}
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		if bare := strings.TrimSpace(entry.URL); bare != "" && !strings.ContainsAny(bare, "/:?") {
			id = bare
		}
	}
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + id
}
