package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/mymmrac/telego"
	ta "github.com/mymmrac/telego/telegoapi"
	"github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
	"github.com/stretchr/testify/require"
)

type stubPlatform struct {
	name  string
	host  string
	emoji string
}

func (p *stubPlatform) Name() string { return p.name }

func (p *stubPlatform) Search(context.Context, string, int) ([]platform.Track, error) {
	return nil, nil
}

func (p *stubPlatform) Metadata() platform.Meta {
	return platform.Meta{Name: p.name, DisplayName: strings.ToUpper(p.name[:1]) + p.name[1:], Emoji: p.emoji}
}

func (p *stubPlatform) MatchURL(rawURL string) (string, platform.Kind, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil || !strings.HasSuffix(parsed.Host, p.host) {
		return "", platform.KindTrack, false
	}
	kind := platform.KindTrack
	if strings.Contains(parsed.Path, "/sets/") {
		kind = platform.KindAlbum
	}
	return rawURL, kind, true
}

func newStubManager() platform.Manager {
	m := platform.NewManager()
	_ = m.Register(&stubPlatform{name: "soundcloud", host: "soundcloud.com", emoji: "🟠"})
	_ = m.Register(&stubPlatform{name: "youtube", host: "youtube.com", emoji: "📺"})
	return m
}

type stubUserRepo struct {
	mu      sync.Mutex
	touched []int64
	count   int64
	err     error
}

func (r *stubUserRepo) TouchUser(_ context.Context, id int64, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched = append(r.touched, id)
	return r.err
}

func (r *stubUserRepo) GetUser(context.Context, int64) (*bot.UserRecord, error) {
	return nil, errors.New("not implemented")
}

func (r *stubUserRepo) CountUsers(context.Context) (int64, error) {
	return r.count, r.err
}

func (r *stubUserRepo) ListUserIDs(context.Context) ([]int64, error) { return nil, nil }

func (r *stubUserRepo) RemoveUser(context.Context, int64) error { return nil }

type stubSearcher struct {
	results []platform.SearchResult
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, query string, desired int) []platform.SearchResult {
	s.queries = append(s.queries, query)
	if desired > 0 && len(s.results) > desired {
		return s.results[:desired]
	}
	return s.results
}

type recordingPool struct {
	tasks []func()
	err   error
}

func (p *recordingPool) TrySubmit(task func()) error {
	if p.err != nil {
		return p.err
	}
	p.tasks = append(p.tasks, task)
	return nil
}

type apiCall struct {
	Method string
	Params map[string]any
}

// recordingCaller answers every Bot API request with success and keeps the
// decoded JSON parameters.
type recordingCaller struct {
	mu    sync.Mutex
	calls []apiCall
}

func (c *recordingCaller) Call(_ context.Context, rawURL string, data *ta.RequestData) (*ta.Response, error) {
	method := rawURL[strings.LastIndex(rawURL, "/")+1:]
	params := map[string]any{}
	if data != nil && len(data.BodyRaw) > 0 {
		_ = json.Unmarshal(data.BodyRaw, &params)
	}
	c.mu.Lock()
	c.calls = append(c.calls, apiCall{Method: method, Params: params})
	c.mu.Unlock()

	result := json.RawMessage(`true`)
	if strings.HasPrefix(method, "send") || strings.HasPrefix(method, "editMessage") {
		result = json.RawMessage(`{"message_id":77,"date":0,"chat":{"id":10,"type":"private"}}`)
	}
	return &ta.Response{Ok: true, Result: result}, nil
}

func (c *recordingCaller) byMethod(method string) []apiCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []apiCall
	for _, call := range c.calls {
		if call.Method == method {
			out = append(out, call)
		}
	}
	return out
}

func newRecordingBot(t *testing.T) (*telego.Bot, *recordingCaller) {
	t.Helper()
	caller := &recordingCaller{}
	b, err := telego.NewBot("123456789:"+strings.Repeat("a", 35), telego.WithAPICaller(caller), telego.WithDiscardLogger())
	require.NoError(t, err)
	return b, caller
}
