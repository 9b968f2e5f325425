package handler

import (
	"context"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sepehrmoghiseh/musifyyy/bot/analytics"
	"github.com/sepehrmoghiseh/musifyyy/bot/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChosenInlineConsumesEntryOnce(t *testing.T) {
	inline := cache.NewInline()
	id := inline.Put(cache.InlineEntry{Title: "Get Lucky", URL: "https://soundcloud.com/a/b", Platform: "soundcloud", Query: "get lucky"})

	music, _ := newTestMusic(t)
	pool := &recordingPool{}
	music.Pool = pool
	counters := analytics.New(prometheus.NewRegistry())
	h := &ChosenInlineMusicHandler{Inline: inline, Music: music, Analytics: counters, BotName: "musifyyy_bot"}

	update := &telego.Update{ChosenInlineResult: &telego.ChosenInlineResult{ResultID: id, From: telego.User{ID: 5}}}
	h.Handle(context.Background(), nil, update)
	h.Handle(context.Background(), nil, update)

	require.Len(t, pool.tasks, 1)
	assert.Zero(t, inline.Len())
	top := counters.TopInline(5)
	require.Len(t, top, 1)
	assert.EqualValues(t, 1, top[0].Count)
}

func TestChosenInlineUnknownResult(t *testing.T) {
	music, _ := newTestMusic(t)
	pool := &recordingPool{}
	music.Pool = pool
	h := &ChosenInlineMusicHandler{Inline: cache.NewInline(), Music: music}

	assert.NotPanics(t, func() {
		h.Handle(context.Background(), nil, &telego.Update{ChosenInlineResult: &telego.ChosenInlineResult{ResultID: "missing"}})
	})
	assert.Empty(t, pool.tasks)
}
