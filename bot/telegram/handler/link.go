package handler

import (
	"context"

	"github.com/mymmrac/telego"
	"github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
	"github.com/sepehrmoghiseh/musifyyy/bot/telegram"
)

// LinkHandler downloads platform links pasted into a private chat.
type LinkHandler struct {
	PlatformManager platform.Manager
	Music           *MusicHandler
	RateLimiter     *telegram.RateLimiter
	Logger          bot.Logger
}

func (h *LinkHandler) Handle(ctx context.Context, b *telego.Bot, update *telego.Update) {
	if update == nil || update.Message == nil || h.PlatformManager == nil {
		return
	}
	message := update.Message
	platformName, canonical, kind, ok := h.PlatformManager.MatchURL(message.Text)
	if !ok {
		return
	}
	chatID := message.Chat.ID

	statusID := 0
	status, err := sendText(ctx, b, h.RateLimiter, &telego.SendMessageParams{
		ChatID:          telego.ChatID{ID: chatID},
		Text:            linkDetectedText,
		ReplyParameters: &telego.ReplyParameters{MessageID: message.MessageID},
	})
	if err == nil && status != nil {
		statusID = status.MessageID
	}

	h.Music.Enqueue(ctx, b, chatID, statusID, func(ctx context.Context) {
		if kind == platform.KindAlbum {
			h.Music.DeliverAlbum(ctx, b, chatID, statusID, canonical, platformName)
			return
		}
		h.Music.DeliverTrack(ctx, b, chatID, statusID, canonical, platformName)
	})
}
