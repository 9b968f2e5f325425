package handler

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mymmrac/telego"
	"github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/analytics"
	"github.com/sepehrmoghiseh/musifyyy/bot/cache"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
)

const (
	minInlineQueryRunes     = 3
	inlineCacheSeconds      = 300
	inlineEmptyCacheSeconds = 10
)

// InlineSearchHandler answers inline queries with one article per result.
type InlineSearchHandler struct {
	Searcher        Searcher
	Inline          *cache.Inline
	PlatformManager platform.Manager
	Analytics       *analytics.Counters
	Limit           int
	Logger          bot.Logger
}

func (h *InlineSearchHandler) Handle(ctx context.Context, b *telego.Bot, update *telego.Update) {
	if update == nil || update.InlineQuery == nil {
		return
	}
	inline := update.InlineQuery
	query := strings.TrimSpace(inline.Query)
	if utf8.RuneCountInString(query) < minInlineQueryRunes {
		return
	}
	if h.Analytics != nil {
		h.Analytics.RecordSearch(query)
	}

	results := h.Searcher.Search(ctx, query, h.Limit)
	params := &telego.AnswerInlineQueryParams{
		InlineQueryID: inline.ID,
		Results:       h.buildArticles(query, results),
		CacheTime:     inlineCacheSeconds,
		IsPersonal:    true,
	}
	if len(params.Results) == 0 {
		params.CacheTime = inlineEmptyCacheSeconds
		params.Button = &telego.InlineQueryResultsButton{
			Text:           inlineNoResultsButton,
			StartParameter: "search",
		}
	}
	err := b.AnswerInlineQuery(ctx, params)
	if err != nil {
		logWarn(h.Logger, "answer inline query failed", "query", query, "error", err)
	}
}

// buildArticles stores each result in the inline cache. Collections are
// left out since an inline message holds a single file.
func (h *InlineSearchHandler) buildArticles(query string, results []platform.SearchResult) []telego.InlineQueryResult {
	articles := make([]telego.InlineQueryResult, 0, len(results))
	for _, result := range results {
		if result.IsAlbum() {
			continue
		}
		emoji := platformEmoji(h.PlatformManager, result.Platform)
		display := displayName(h.PlatformManager, result.Platform)
		title := platform.CleanTitle(result.Title, emoji)

		id := h.Inline.Put(cache.InlineEntry{
			Title:    title,
			URL:      result.URL,
			Platform: result.Platform,
			Query:    query,
		})
		articles = append(articles, &telego.InlineQueryResultArticle{
			Type:        telego.ResultTypeArticle,
			ID:          id,
			Title:       result.Title,
			Description: fmt.Sprintf(inlineDescriptionTemplate, display),
			InputMessageContent: &telego.InputTextMessageContent{
				MessageText: fmt.Sprintf(inlineMessageTemplate, emoji, markdownSafe(title), display),
				ParseMode:   telego.ModeMarkdown,
			},
			// Telegram only reports an inline_message_id for messages that
			// carry a keyboard.
			ReplyMarkup: pendingKeyboard(),
		})
	}
	return articles
}

func pendingKeyboard() *telego.InlineKeyboardMarkup {
	return &telego.InlineKeyboardMarkup{InlineKeyboard: [][]telego.InlineKeyboardButton{{
		{Text: inlinePendingButton, CallbackData: Selection{Kind: SelectNoop}.Encode()},
	}}}
}
