package handler

import (
	"context"

	"github.com/mymmrac/telego"
	"github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/analytics"
	"github.com/sepehrmoghiseh/musifyyy/bot/telegram"
)

// StatsHandler answers /stats with the usage summary.
type StatsHandler struct {
	Analytics   *analytics.Counters
	Users       UserCounter
	RateLimiter *telegram.RateLimiter
	Logger      bot.Logger
}

func (h *StatsHandler) Handle(ctx context.Context, b *telego.Bot, update *telego.Update) {
	if update == nil || update.Message == nil || h.Analytics == nil {
		return
	}
	users := int64(-1)
	if h.Users != nil {
		count, err := h.Users.CountUsers(ctx)
		if err != nil {
			logWarn(h.Logger, "count users failed", "error", err)
		} else {
			users = count
		}
	}
	_, _ = sendText(ctx, b, h.RateLimiter, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: update.Message.Chat.ID},
		Text:      h.Analytics.Summary(users),
		ParseMode: telego.ModeMarkdown,
	})
}
