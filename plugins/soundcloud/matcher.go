package soundcloud

import (
	"net/url"
	"strings"

	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
)

// MatchURL implements platform.URLMatcher for SoundCloud links:
//   - https://soundcloud.com/artist/track
//   - https://soundcloud.com/artist/sets/album
//   - https://m.soundcloud.com/artist/track
//   - https://on.soundcloud.com/AbCdE (short link)
func (s *SoundCloudPlatform) MatchURL(rawURL string) (string, platform.Kind, bool) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return "", platform.KindTrack, false
	}
	host := strings.ToLower(parsed.Hostname())
	switch host {
	case "soundcloud.com", "www.soundcloud.com", "m.soundcloud.com", "on.soundcloud.com":
	default:
		return "", platform.KindTrack, false
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return "", platform.KindTrack, false
	}
	if host != "on.soundcloud.com" && !strings.Contains(path, "/") {
		// Profile pages are not playable.
		return "", platform.KindTrack, false
	}
	if host == "m.soundcloud.com" || host == "www.soundcloud.com" {
		host = "soundcloud.com"
	}

	canonical := "https://" + host + "/" + path
	if isSetURL(canonical) {
		return canonical, platform.KindAlbum, true
	}
	return canonical, platform.KindTrack, true
}

func isSetURL(u string) bool {
	return strings.Contains(u, "soundcloud.com/") && strings.Contains(u, "/sets/")
}
