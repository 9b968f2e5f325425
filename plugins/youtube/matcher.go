package youtube

import (
	"net/url"
	"strings"

	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
)

// MatchURL implements platform.URLMatcher for YouTube links:
//   - https://www.youtube.com/watch?v=ID
//   - https://youtu.be/ID
//   - https://music.youtube.com/watch?v=ID
//   - https://www.youtube.com/shorts/ID
//   - https://www.youtube.com/playlist?list=LIST
//
// A watch URL that also carries a list parameter is treated as a single
// video.
func (y *YouTubePlatform) MatchURL(rawURL string) (string, platform.Kind, bool) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return "", platform.KindTrack, false
	}
	host := strings.ToLower(parsed.Hostname())
	query := parsed.Query()

	switch host {
	case "youtu.be":
		id := strings.Trim(parsed.Path, "/")
		if id == "" {
			return "", platform.KindTrack, false
		}
		return watchURL(id), platform.KindTrack, true
	case "youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com":
	default:
		return "", platform.KindTrack, false
	}

	path := strings.TrimRight(parsed.Path, "/")
	switch {
	case path == "/watch" && query.Get("v") != "":
		return watchURL(query.Get("v")), platform.KindTrack, true
	case strings.HasPrefix(path, "/shorts/"):
		return watchURL(strings.TrimPrefix(path, "/shorts/")), platform.KindTrack, true
	case path == "/playlist" && query.Get("list") != "":
		return "https://www.youtube.com/playlist?list=" + url.QueryEscape(query.Get("list")), platform.KindAlbum, true
	}
	return "", platform.KindTrack, false
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}

func isPlaylistURL(u string) bool {
	return strings.Contains(u, "youtube.com/playlist?") && strings.Contains(u, "list=")
}
