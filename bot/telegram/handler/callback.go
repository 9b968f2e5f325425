package handler

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	"github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/cache"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
	"github.com/sepehrmoghiseh/musifyyy/bot/telegram"
)

// SelectionHandler handles presses on the results menu.
type SelectionHandler struct {
	Results     *cache.Results
	Music       *MusicHandler
	RateLimiter *telegram.RateLimiter
	PageSize    int
	Logger      bot.Logger
}

func (h *SelectionHandler) Handle(ctx context.Context, b *telego.Bot, update *telego.Update) {
	if update == nil || update.CallbackQuery == nil {
		return
	}
	query := update.CallbackQuery
	selection, err := ParseSelection(query.Data)
	if err != nil {
		logDebug(h.Logger, "invalid callback data", "data", query.Data, "user_id", query.From.ID)
		answerCallback(ctx, b, query.ID, trackNotFoundText, true)
		return
	}

	chatID := query.From.ID
	var message *telego.Message
	if query.Message != nil {
		message = query.Message.Message()
	}
	if message != nil {
		chatID = message.Chat.ID
	}

	switch selection.Kind {
	case SelectNoop:
		answerCallback(ctx, b, query.ID, "", false)
	case SelectPage:
		h.turnPage(ctx, b, query, message, selection.Index)
	default:
		result, ok := h.Results.Get(query.From.ID, selection.Index)
		if !ok {
			answerCallback(ctx, b, query.ID, trackNotFoundText, true)
			return
		}
		answerCallback(ctx, b, query.ID, inlinePendingButton, false)
		h.startDownload(ctx, b, chatID, message, selection.Kind == SelectAlbum, result)
	}
}

func (h *SelectionHandler) turnPage(ctx context.Context, b *telego.Bot, query *telego.CallbackQuery, message *telego.Message, page int) {
	results, ok := h.Results.List(query.From.ID)
	if !ok || message == nil {
		answerCallback(ctx, b, query.ID, trackNotFoundText, true)
		return
	}
	params := &telego.EditMessageReplyMarkupParams{
		ChatID:      telego.ChatID{ID: message.Chat.ID},
		MessageID:   message.MessageID,
		ReplyMarkup: BuildResultsKeyboard(results, page, h.PageSize),
	}
	err := telegram.WithRetry(ctx, h.RateLimiter, message.Chat.ID, func() error {
		_, err := b.EditMessageReplyMarkup(ctx, params)
		return err
	})
	if err != nil && !telegram.IsMessageNotModified(err) {
		logWarn(h.Logger, "page turn failed", "chat_id", message.Chat.ID, "page", page, "error", err)
	}
	answerCallback(ctx, b, query.ID, "", false)
}

func (h *SelectionHandler) startDownload(ctx context.Context, b *telego.Bot, chatID int64, menu *telego.Message, album bool, result platform.SearchResult) {
	params := &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   fmt.Sprintf(downloadingTemplate, displayName(h.Music.PlatformManager, result.Platform)),
	}
	if menu != nil {
		params.ReplyParameters = &telego.ReplyParameters{MessageID: menu.MessageID, AllowSendingWithoutReply: true}
	}
	statusID := 0
	if status, err := sendText(ctx, b, h.RateLimiter, params); err == nil && status != nil {
		statusID = status.MessageID
	}

	h.Music.Enqueue(ctx, b, chatID, statusID, func(ctx context.Context) {
		if album {
			h.Music.DeliverAlbum(ctx, b, chatID, statusID, result.URL, result.Platform)
			return
		}
		h.Music.DeliverTrack(ctx, b, chatID, statusID, result.URL, result.Platform)
	})
}
