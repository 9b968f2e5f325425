package handler

import (
	"context"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
)

type recordingHandler struct {
	calls int
}

func (h *recordingHandler) Handle(context.Context, *telego.Bot, *telego.Update) {
	h.calls++
}

var panicHandler = HandlerFunc(func(context.Context, *telego.Bot, *telego.Update) {
	panic("boom")
})

func privateMessage(text string) telego.Update {
	return telego.Update{Message: &telego.Message{
		Text: text,
		From: &telego.User{ID: 10, FirstName: "Ana"},
		Chat: telego.Chat{ID: 10, Type: telego.ChatTypePrivate},
	}}
}

func newTestRouter() *Router {
	return &Router{
		PlatformManager: newStubManager(),
		BotName:         "musifyyy_bot",
		AdminCommands:   []string{"users", "broadcast"},
	}
}

func TestRouterClassify(t *testing.T) {
	r := newTestRouter()
	group := privateMessage("daft punk")
	group.Message.Chat.Type = telego.ChatTypeGroup

	tests := []struct {
		name   string
		update telego.Update
		want   route
	}{
		{"start", privateMessage("/start"), routeStart},
		{"help", privateMessage("/help"), routeStart},
		{"stats", privateMessage("/stats"), routeStats},
		{"users", privateMessage("/users"), routeAdmin},
		{"broadcast", privateMessage("/broadcast hi"), routeAdmin},
		{"other bot command", privateMessage("/users@someone_else"), routeNone},
		{"unknown command", privateMessage("/lyrics"), routeNone},
		{"search", privateMessage("daft punk"), routeSearch},
		{"link", privateMessage("listen https://soundcloud.com/a/b"), routeLink},
		{"unsupported link searches", privateMessage("https://example.com/x"), routeSearch},
		{"group text ignored", group, routeNone},
		{"callback", telego.Update{CallbackQuery: &telego.CallbackQuery{Data: "noop"}}, routeCallback},
		{"inline", telego.Update{InlineQuery: &telego.InlineQuery{Query: "abc"}}, routeInline},
		{"chosen", telego.Update{ChosenInlineResult: &telego.ChosenInlineResult{ResultID: "x"}}, routeChosenInline},
		{"empty", telego.Update{}, routeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update := tt.update
			assert.Equal(t, tt.want, r.classify(&update))
		})
	}
}

func TestRouterDispatchTouchesUsers(t *testing.T) {
	repo := &stubUserRepo{}
	search := &recordingHandler{}
	inline := &recordingHandler{}
	r := newTestRouter()
	r.Users = repo
	r.Search = search
	r.Inline = inline

	r.Dispatch(context.Background(), nil, privateMessage("daft punk"))
	r.Dispatch(context.Background(), nil, telego.Update{InlineQuery: &telego.InlineQuery{From: telego.User{ID: 22}, Query: "abc"}})

	assert.Equal(t, 1, search.calls)
	assert.Equal(t, 1, inline.calls)
	assert.Equal(t, []int64{10, 22}, repo.touched)
}

func TestRouterDispatchWithoutStore(t *testing.T) {
	start := &recordingHandler{}
	r := newTestRouter()
	r.Start = start

	r.Dispatch(context.Background(), nil, privateMessage("/start"))
	assert.Equal(t, 1, start.calls)
}

func TestRouterDispatchRecoversPanics(t *testing.T) {
	r := newTestRouter()
	r.Search = panicHandler
	assert.NotPanics(t, func() {
		r.Dispatch(context.Background(), nil, privateMessage("boom"))
	})
}

func TestRouterSkipsMissingHandler(t *testing.T) {
	r := newTestRouter()
	assert.NotPanics(t, func() {
		r.Dispatch(context.Background(), nil, privateMessage("/stats"))
	})
}

func TestRouterHandlerFuncReceivesUpdate(t *testing.T) {
	var got string
	r := newTestRouter()
	r.Link = HandlerFunc(func(_ context.Context, _ *telego.Bot, update *telego.Update) {
		got = update.Message.Text
	})

	r.Dispatch(context.Background(), nil, privateMessage("https://soundcloud.com/a/b"))
	assert.Equal(t, "https://soundcloud.com/a/b", got)
}
