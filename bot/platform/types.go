package platform

import (
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes single tracks from multi-track collections.
type Kind int

const (
	KindTrack Kind = iota
	KindAlbum
)

func (k Kind) String() string {
	if k == KindAlbum {
		return "album"
	}
	return "track"
}

// Track is a raw search hit as returned by a platform.
type Track struct {
	ID       string
	Title    string
	URL      string
	Uploader string
	Duration time.Duration
	Kind     Kind
}

// SearchResult is a display-ready, platform-tagged search hit.
type SearchResult struct {
	Title    string
	URL      string
	Platform string
	Kind     Kind
}

// IsAlbum reports whether selecting the result downloads a collection.
func (r SearchResult) IsAlbum() bool {
	return r.Kind == KindAlbum
}

// DownloadOptions carries per-platform extractor settings.
type DownloadOptions struct {
	// ExtractorArgs is passed as --extractor-args, e.g.
	// "youtube:player_client=ios,web;skip=hls".
	ExtractorArgs string
	// CookieFile is a Netscape cookie jar passed as --cookies.
	CookieFile string
}

// AlbumEmoji prefixes collection results.
const AlbumEmoji = "💿"

// FormatDuration renders d as m:ss.
func FormatDuration(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatTitle builds the display title: the emoji marker, the title and,
// when known, the duration in parentheses.
func FormatTitle(emoji, title string, duration time.Duration) string {
	title = strings.TrimSpace(title)
	var b strings.Builder
	if emoji != "" {
		b.WriteString(emoji)
		b.WriteByte(' ')
	}
	b.WriteString(title)
	if duration > 0 {
		b.WriteString(" (")
		b.WriteString(FormatDuration(duration))
		b.WriteByte(')')
	}
	return b.String()
}

// CleanTitle strips a leading marker emoji and a trailing duration from a
// display title.
func CleanTitle(display string, markers ...string) string {
	out := strings.TrimSpace(display)
	for _, marker := range append(markers, AlbumEmoji) {
		if marker == "" {
			continue
		}
		out = strings.TrimSpace(strings.TrimPrefix(out, marker))
	}
	if idx := strings.LastIndex(out, " ("); idx > 0 && strings.HasSuffix(out, ")") {
		if isDuration(out[idx+2 : len(out)-1]) {
			out = out[:idx]
		}
	}
	return strings.TrimSpace(out)
}

func isDuration(s string) bool {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || parts[0] == "" || len(parts[1]) != 2 {
		return false
	}
	for _, r := range parts[0] + parts[1] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
