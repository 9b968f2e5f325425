package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	"github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/analytics"
	"github.com/sepehrmoghiseh/musifyyy/bot/cache"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
	"github.com/sepehrmoghiseh/musifyyy/bot/telegram"
)

// Searcher runs a merged search across platforms.
type Searcher interface {
	Search(ctx context.Context, query string, desired int) []platform.SearchResult
}

// SearchHandler answers free text in private chats with a paginated result
// menu.
type SearchHandler struct {
	Searcher        Searcher
	Results         *cache.Results
	PlatformManager platform.Manager
	RateLimiter     *telegram.RateLimiter
	Analytics       *analytics.Counters
	BotName         string
	Limit           int
	PageSize        int
	Logger          bot.Logger
}

func (h *SearchHandler) Handle(ctx context.Context, b *telego.Bot, update *telego.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return
	}
	message := update.Message
	query := strings.TrimSpace(message.Text)
	if query == "" {
		return
	}
	if h.Analytics != nil {
		h.Analytics.RecordSearch(query)
	}

	status, err := sendText(ctx, b, h.RateLimiter, &telego.SendMessageParams{
		ChatID:          telego.ChatID{ID: message.Chat.ID},
		Text:            fmt.Sprintf(searchingTemplate, markdownSafe(query)),
		ParseMode:       telego.ModeMarkdown,
		ReplyParameters: &telego.ReplyParameters{MessageID: message.MessageID},
	})
	if err != nil || status == nil {
		logWarn(h.Logger, "failed to send search status", "chat_id", message.Chat.ID, "error", err)
		return
	}

	results := h.Searcher.Search(ctx, query, h.Limit)
	if len(results) == 0 {
		_, _ = editText(ctx, b, h.RateLimiter, &telego.EditMessageTextParams{
			ChatID:    telego.ChatID{ID: message.Chat.ID},
			MessageID: status.MessageID,
			Text:      fmt.Sprintf(noResultsText, h.BotName),
		})
		return
	}

	h.Results.Put(message.From.ID, results)
	_, _ = editText(ctx, b, h.RateLimiter, &telego.EditMessageTextParams{
		ChatID:      telego.ChatID{ID: message.Chat.ID},
		MessageID:   status.MessageID,
		Text:        resultsHeader(results, h.PlatformManager),
		ParseMode:   telego.ModeMarkdown,
		ReplyMarkup: BuildResultsKeyboard(results, 0, h.PageSize),
	})
}

func resultsHeader(results []platform.SearchResult, manager platform.Manager) string {
	return fmt.Sprintf(foundHeaderTemplate, len(results), platformSummary(results, manager))
}
