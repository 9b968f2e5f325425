package handler

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	"github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/analytics"
	"github.com/sepehrmoghiseh/musifyyy/bot/cache"
	"github.com/sepehrmoghiseh/musifyyy/bot/telegram"
)

const expiredInlineReason = "this result has expired"

// ChosenInlineMusicHandler downloads a picked inline result, uploads it to
// the user's private chat and swaps the placeholder message for the audio.
type ChosenInlineMusicHandler struct {
	Inline      *cache.Inline
	Music       *MusicHandler
	Analytics   *analytics.Counters
	RateLimiter *telegram.RateLimiter
	BotName     string
	Logger      bot.Logger
}

func (h *ChosenInlineMusicHandler) Handle(ctx context.Context, b *telego.Bot, update *telego.Update) {
	if update == nil || update.ChosenInlineResult == nil {
		return
	}
	chosen := update.ChosenInlineResult
	entry, ok := h.Inline.Take(chosen.ResultID)
	if !ok {
		logWarn(h.Logger, "unknown inline result", "result_id", chosen.ResultID, "user_id", chosen.From.ID)
		h.editInline(ctx, b, chosen.InlineMessageID, fmt.Sprintf(inlineFailedTemplate, expiredInlineReason, h.BotName))
		return
	}
	if h.Analytics != nil {
		h.Analytics.RecordInlineSelection(entry.Query)
	}

	userID := chosen.From.ID
	inlineID := chosen.InlineMessageID
	h.Music.Enqueue(ctx, b, userID, 0, func(ctx context.Context) {
		h.deliver(ctx, b, userID, inlineID, entry)
	})
}

func (h *ChosenInlineMusicHandler) deliver(ctx context.Context, b *telego.Bot, userID int64, inlineID string, entry cache.InlineEntry) {
	prepared, err := h.Music.fetch(ctx, entry.URL, entry.Platform)
	if err != nil {
		logWarn(h.Logger, "inline download failed", "platform", entry.Platform, "url", entry.URL, "error", err)
		h.editInline(ctx, b, inlineID, fmt.Sprintf(inlineFailedTemplate, truncateTitle(err.Error(), maxErrorTextRunes), h.BotName))
		return
	}
	defer prepared.cleanup()

	sent, err := h.Music.sendAudio(ctx, b, userID, prepared)
	if err != nil {
		logWarn(h.Logger, "inline upload failed", "user_id", userID, "error", err)
		h.editInline(ctx, b, inlineID, fmt.Sprintf(inlineFailedTemplate, truncateTitle(err.Error(), maxErrorTextRunes), h.BotName))
		return
	}
	h.Music.recordDownload(entry.Platform)

	if inlineID == "" {
		return
	}
	if sent != nil && sent.Audio != nil {
		_, err := telegram.EditMessageMediaWithRetry(ctx, h.RateLimiter, b, &telego.EditMessageMediaParams{
			InlineMessageID: inlineID,
			Media: &telego.InputMediaAudio{
				Type:      telego.MediaTypeAudio,
				Media:     telego.InputFile{FileID: sent.Audio.FileID},
				Caption:   prepared.caption,
				Title:     prepared.track.Title,
				Performer: prepared.track.Artist,
				Duration:  sent.Audio.Duration,
			},
		})
		if err == nil {
			return
		}
		logWarn(h.Logger, "inline media edit failed, falling back to text", "error", err)
	}
	display := displayName(h.Music.PlatformManager, entry.Platform)
	h.editInline(ctx, b, inlineID, fmt.Sprintf(inlineFallbackTemplate, h.BotName, display))
}

func (h *ChosenInlineMusicHandler) editInline(ctx context.Context, b *telego.Bot, inlineID, text string) {
	if inlineID == "" || b == nil {
		return
	}
	_, err := editText(ctx, b, h.RateLimiter, &telego.EditMessageTextParams{
		InlineMessageID: inlineID,
		Text:            text,
	})
	if err != nil {
		logWarn(h.Logger, "inline message edit failed", "error", err)
	}
}
