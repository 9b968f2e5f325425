package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	"github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
	"github.com/sepehrmoghiseh/musifyyy/bot/telegram"
)

func commandArguments(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	parts := strings.SplitN(text, " ", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// commandName returns the command without the slash. Commands addressed to
// another bot return "".
func commandName(text, botName string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	parts := strings.SplitN(text, " ", 2)
	command := strings.TrimPrefix(parts[0], "/")
	if command == "" {
		return ""
	}
	if strings.Contains(command, "@") {
		seg := strings.SplitN(command, "@", 2)
		command = seg[0]
		if botName != "" && len(seg) > 1 && seg[1] != "" && !strings.EqualFold(seg[1], botName) {
			return ""
		}
	}
	return strings.ToLower(command)
}

func isBotAdmin(adminIDs map[int64]struct{}, userID int64) bool {
	if len(adminIDs) == 0 {
		return false
	}
	_, ok := adminIDs[userID]
	return ok
}

// AdminSet builds the lookup used for admin checks.
func AdminSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func isPrivateChat(message *telego.Message) bool {
	return message != nil && message.Chat.Type == telego.ChatTypePrivate
}

// platformSummary renders "4 from SoundCloud • 2 from YouTube" in order of
// first appearance.
func platformSummary(results []platform.SearchResult, manager platform.Manager) string {
	counts := make(map[string]int)
	var order []string
	for _, r := range results {
		if _, seen := counts[r.Platform]; !seen {
			order = append(order, r.Platform)
		}
		counts[r.Platform]++
	}
	parts := make([]string, 0, len(order))
	for _, name := range order {
		parts = append(parts, strconv.Itoa(counts[name])+" from "+displayName(manager, name))
	}
	return strings.Join(parts, " • ")
}

func displayName(manager platform.Manager, name string) string {
	if manager == nil {
		return name
	}
	if meta := manager.Meta(name); meta.DisplayName != "" {
		return meta.DisplayName
	}
	return name
}

func platformEmoji(manager platform.Manager, name string) string {
	if manager == nil {
		return "🎵"
	}
	if meta := manager.Meta(name); meta.Emoji != "" {
		return meta.Emoji
	}
	return "🎵"
}

func sendText(ctx context.Context, b *telego.Bot, rl *telegram.RateLimiter, params *telego.SendMessageParams) (*telego.Message, error) {
	if rl != nil {
		return telegram.SendMessageWithRetry(ctx, rl, b, params)
	}
	return b.SendMessage(ctx, params)
}

func editText(ctx context.Context, b *telego.Bot, rl *telegram.RateLimiter, params *telego.EditMessageTextParams) (*telego.Message, error) {
	var (
		msg *telego.Message
		err error
	)
	if rl != nil {
		msg, err = telegram.EditMessageTextWithRetry(ctx, rl, b, params)
	} else {
		msg, err = b.EditMessageText(ctx, params)
	}
	if telegram.IsMessageNotModified(err) {
		return msg, nil
	}
	return msg, err
}

func answerCallback(ctx context.Context, b *telego.Bot, queryID, text string, alert bool) {
	_ = b.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       alert,
	})
}

func logDebug(logger bot.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

func logWarn(logger bot.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}

func logError(logger bot.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Error(msg, args...)
	}
}
