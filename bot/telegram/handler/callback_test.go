package handler

import (
	"context"
	"fmt"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/sepehrmoghiseh/musifyyy/bot/cache"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const menuUserID = 10

func menuResults(n int) []platform.SearchResult {
	out := make([]platform.SearchResult, n)
	for i := range out {
		out[i] = platform.SearchResult{
			Title:    fmt.Sprintf("🟠 Track %d", i),
			URL:      fmt.Sprintf("https://soundcloud.com/a/t%d", i),
			Platform: "soundcloud",
		}
	}
	return out
}

func menuPress(data string) *telego.Update {
	return &telego.Update{CallbackQuery: &telego.CallbackQuery{
		ID:   "q1",
		From: telego.User{ID: menuUserID},
		Data: data,
		Message: &telego.Message{
			MessageID: 5,
			Chat:      telego.Chat{ID: menuUserID, Type: telego.ChatTypePrivate},
		},
	}}
}

func newSelectionHandler(results *cache.Results, pool *recordingPool) *SelectionHandler {
	return &SelectionHandler{
		Results:  results,
		Music:    &MusicHandler{PlatformManager: newStubManager(), Pool: pool},
		PageSize: 6,
	}
}

func keyboardTexts(t *testing.T, params map[string]any) []string {
	t.Helper()
	markup, ok := params["reply_markup"].(map[string]any)
	require.True(t, ok)
	rows, ok := markup["inline_keyboard"].([]any)
	require.True(t, ok)
	var texts []string
	for _, row := range rows {
		for _, button := range row.([]any) {
			texts = append(texts, button.(map[string]any)["text"].(string))
		}
	}
	return texts
}

func TestSelectionRejectedPayloadsAskForNewSearch(t *testing.T) {
	results := cache.NewResults()
	results.Put(menuUserID, menuResults(2))

	tests := []struct {
		name  string
		data  string
		fresh bool
	}{
		{name: "malformed index", data: "download_x"},
		{name: "unknown payload", data: "garbage"},
		{name: "no prior search", data: "download_0", fresh: true},
		{name: "index past results", data: "download_5"},
		{name: "album past results", data: "album_2"},
		{name: "page without search", data: "page_1", fresh: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, caller := newRecordingBot(t)
			pool := &recordingPool{}
			store := results
			if tt.fresh {
				store = cache.NewResults()
			}
			h := newSelectionHandler(store, pool)

			h.Handle(context.Background(), b, menuPress(tt.data))

			answers := caller.byMethod("answerCallbackQuery")
			require.Len(t, answers, 1)
			assert.Equal(t, "q1", answers[0].Params["callback_query_id"])
			assert.Equal(t, trackNotFoundText, answers[0].Params["text"])
			assert.Equal(t, true, answers[0].Params["show_alert"])
			assert.Empty(t, caller.byMethod("sendMessage"))
			assert.Empty(t, caller.byMethod("editMessageReplyMarkup"))
			assert.Empty(t, pool.tasks)
		})
	}
}

func TestSelectionNoopOnlyAnswers(t *testing.T) {
	b, caller := newRecordingBot(t)
	h := newSelectionHandler(cache.NewResults(), &recordingPool{})

	h.Handle(context.Background(), b, menuPress("noop"))

	answers := caller.byMethod("answerCallbackQuery")
	require.Len(t, answers, 1)
	assert.Nil(t, answers[0].Params["text"])
	assert.Nil(t, answers[0].Params["show_alert"])
	assert.Len(t, caller.calls, 1)
}

func TestSelectionPageTurnEditsKeyboard(t *testing.T) {
	b, caller := newRecordingBot(t)
	results := cache.NewResults()
	results.Put(menuUserID, menuResults(8))
	h := newSelectionHandler(results, &recordingPool{})

	h.Handle(context.Background(), b, menuPress("page_1"))

	edits := caller.byMethod("editMessageReplyMarkup")
	require.Len(t, edits, 1)
	assert.EqualValues(t, menuUserID, edits[0].Params["chat_id"])
	assert.EqualValues(t, 5, edits[0].Params["message_id"])
	texts := keyboardTexts(t, edits[0].Params)
	assert.Contains(t, texts, "🟠 Track 6")
	assert.Contains(t, texts, "🟠 Track 7")
	assert.NotContains(t, texts, "🟠 Track 0")
	assert.Contains(t, texts, "📄 2/2")

	answers := caller.byMethod("answerCallbackQuery")
	require.Len(t, answers, 1)
	assert.Nil(t, answers[0].Params["text"])
}

func TestSelectionDownloadQueuesTask(t *testing.T) {
	b, caller := newRecordingBot(t)
	results := cache.NewResults()
	results.Put(menuUserID, menuResults(3))
	pool := &recordingPool{}
	h := newSelectionHandler(results, pool)

	h.Handle(context.Background(), b, menuPress("download_2"))

	answers := caller.byMethod("answerCallbackQuery")
	require.Len(t, answers, 1)
	assert.Equal(t, inlinePendingButton, answers[0].Params["text"])

	sends := caller.byMethod("sendMessage")
	require.Len(t, sends, 1)
	assert.EqualValues(t, menuUserID, sends[0].Params["chat_id"])
	assert.Equal(t, fmt.Sprintf(downloadingTemplate, "Soundcloud"), sends[0].Params["text"])
	reply, ok := sends[0].Params["reply_parameters"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 5, reply["message_id"])

	assert.Len(t, pool.tasks, 1)
	assert.Empty(t, caller.byMethod("editMessageReplyMarkup"))
}
