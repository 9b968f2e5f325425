package youtube

import (
	"context"
	"errors"
	"testing"

	"github.com/sepehrmoghiseh/musifyyy/bot/extractor"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	entries []extractor.Entry
	expr    string
	opts    extractor.Options
}

func (f *fakeEngine) Search(ctx context.Context, expr string, limit int, opts extractor.Options) ([]extractor.Entry, error) {
	f.expr, f.opts = expr, opts
	return f.entries, nil
}

func (f *fakeEngine) List(ctx context.Context, url string, limit int, opts extractor.Options) ([]extractor.Entry, error) {
	return nil, nil
}

func (f *fakeEngine) Download(ctx context.Context, url, dir string, opts extractor.Options) (*extractor.Entry, error) {
	return nil, errors.New("not used")
}

func TestSearchResolvesURLs(t *testing.T) {
	engine := &fakeEngine{entries: []extractor.Entry{
		{ID: "abc", Title: "Around the World", URL: "abc"},
		{ID: "def", Title: "Harder Better", URL: "https://www.youtube.com/watch?v=def"},
		{Title: "Mix", URL: "https://www.youtube.com/playlist?list=PL1"},
		{Title: "Orphan"},
	}}
	p := NewPlatform(engine, "/tmp/cookies.txt", "")

	tracks, err := p.Search(context.Background(), "daft punk", 2)
	require.NoError(t, err)
	assert.Equal(t, "ytsearch2:daft punk", engine.expr)
	assert.Equal(t, "/tmp/cookies.txt", engine.opts.CookieFile)
	assert.Equal(t, "youtube:player_client=ios,web", engine.opts.ExtractorArgs)

	require.Len(t, tracks, 4)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", tracks[0].URL)
	assert.Equal(t, "https://www.youtube.com/watch?v=def", tracks[1].URL)
	assert.Equal(t, platform.KindAlbum, tracks[2].Kind)
	assert.Empty(t, tracks[3].URL)
}

func TestSearchUsesConfiguredPlayerClient(t *testing.T) {
	engine := &fakeEngine{}
	p := NewPlatform(engine, "", "web_music")

	_, err := p.Search(context.Background(), "one more time", 3)
	require.NoError(t, err)
	assert.Equal(t, "youtube:player_client=web_music", engine.opts.ExtractorArgs)
	assert.Empty(t, engine.opts.CookieFile)
}

func TestDownloadOptions(t *testing.T) {
	opts := NewPlatform(&fakeEngine{}, "", "").DownloadOptions()
	assert.Equal(t, "youtube:player_client=ios,web;skip=hls", opts.ExtractorArgs)
	assert.Empty(t, opts.CookieFile)

	opts = NewPlatform(&fakeEngine{}, "/c.txt", "web_music").DownloadOptions()
	assert.Equal(t, "youtube:player_client=web_music;skip=hls", opts.ExtractorArgs)
	assert.Equal(t, "/c.txt", opts.CookieFile)
}

func TestMatchURL(t *testing.T) {
	p := NewPlatform(&fakeEngine{}, "", "")
	tests := []struct {
		name      string
		url       string
		canonical string
		kind      platform.Kind
		match     bool
	}{
		{name: "watch", url: "https://www.youtube.com/watch?v=abc&t=10", canonical: "https://www.youtube.com/watch?v=abc", kind: platform.KindTrack, match: true},
		{name: "watch in list", url: "https://youtube.com/watch?v=abc&list=PL1", canonical: "https://www.youtube.com/watch?v=abc", kind: platform.KindTrack, match: true},
		{name: "short link", url: "https://youtu.be/abc", canonical: "https://www.youtube.com/watch?v=abc", kind: platform.KindTrack, match: true},
		{name: "music", url: "https://music.youtube.com/watch?v=xyz", canonical: "https://www.youtube.com/watch?v=xyz", kind: platform.KindTrack, match: true},
		{name: "shorts", url: "https://www.youtube.com/shorts/s1", canonical: "https://www.youtube.com/watch?v=s1", kind: platform.KindTrack, match: true},
		{name: "playlist", url: "https://www.youtube.com/playlist?list=PL1", canonical: "https://www.youtube.com/playlist?list=PL1", kind: platform.KindAlbum, match: true},
		{name: "channel", url: "https://www.youtube.com/@daftpunk", match: false},
		{name: "other host", url: "https://soundcloud.com/a/b", match: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canonical, kind, ok := p.MatchURL(tt.url)
			assert.Equal(t, tt.match, ok)
			if tt.match {
				assert.Equal(t, tt.canonical, canonical)
				assert.Equal(t, tt.kind, kind)
			}
		})
	}
}
