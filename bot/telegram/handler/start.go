package handler

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	"github.com/sepehrmoghiseh/musifyyy/bot/telegram"
)

// StartHandler answers /start and /help.
type StartHandler struct {
	BotName     string
	RateLimiter *telegram.RateLimiter
}

func (h *StartHandler) Handle(ctx context.Context, b *telego.Bot, update *telego.Update) {
	if update == nil || update.Message == nil {
		return
	}
	_, _ = sendText(ctx, b, h.RateLimiter, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: update.Message.Chat.ID},
		Text:      fmt.Sprintf(startTextTemplate, h.BotName),
		ParseMode: telego.ModeMarkdown,
	})
}
