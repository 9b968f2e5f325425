package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	"github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/admincmd"
	"github.com/sepehrmoghiseh/musifyyy/bot/broadcast"
	"github.com/sepehrmoghiseh/musifyyy/bot/telegram"
)

// AdminCommandHandler runs admin-only commands. Non-admins get no reply.
type AdminCommandHandler struct {
	BotName     string
	AdminIDs    map[int64]struct{}
	RateLimiter *telegram.RateLimiter
	Commands    []admincmd.Command
	Logger      bot.Logger
}

func (h *AdminCommandHandler) Handle(ctx context.Context, b *telego.Bot, update *telego.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return
	}
	message := update.Message
	cmd := commandName(message.Text, h.BotName)
	if cmd == "" {
		return
	}
	command, ok := admincmd.Find(h.Commands, cmd)
	if !ok {
		return
	}
	if !isBotAdmin(h.AdminIDs, message.From.ID) {
		logWarn(h.Logger, "admin command denied", "command", cmd, "user_id", message.From.ID)
		return
	}
	if command.Handler == nil {
		h.reply(ctx, b, message, commandUnavailable)
		return
	}
	result, err := command.Handler(ctx, commandArguments(message.Text))
	if err != nil {
		logError(h.Logger, "admin command failed", "command", cmd, "error", err)
		h.reply(ctx, b, message, fmt.Sprintf(commandFailedTmpl, err))
		return
	}
	result = strings.TrimSpace(result)
	if result == "" {
		result = commandDoneText
	}
	h.reply(ctx, b, message, result)
}

// Names returns the command names the handler owns.
func (h *AdminCommandHandler) Names() []string {
	return admincmd.Names(h.Commands)
}

func (h *AdminCommandHandler) reply(ctx context.Context, b *telego.Bot, message *telego.Message, text string) {
	_, _ = sendText(ctx, b, h.RateLimiter, &telego.SendMessageParams{
		ChatID:          telego.ChatID{ID: message.Chat.ID},
		Text:            text,
		ReplyParameters: &telego.ReplyParameters{MessageID: message.MessageID},
	})
}

// UserCounter reports how many users the bot knows.
type UserCounter interface {
	CountUsers(ctx context.Context) (int64, error)
}

// BuildUsersCommand reports the number of known users.
func BuildUsersCommand(users UserCounter) admincmd.Command {
	return admincmd.Command{
		Name:        "users",
		Description: "Show the number of users",
		Handler: func(ctx context.Context, _ string) (string, error) {
			if users == nil {
				return usersUnavailable, nil
			}
			count, err := users.CountUsers(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(usersTemplate, count), nil
		},
	}
}

// BroadcastSender fans a message out to every user.
type BroadcastSender interface {
	Send(ctx context.Context, text string) (broadcast.Report, error)
}

// BuildBroadcastCommand sends the command arguments to every known user.
func BuildBroadcastCommand(sender BroadcastSender) admincmd.Command {
	return admincmd.Command{
		Name:        "broadcast",
		Description: "Send a message to every user",
		Handler: func(ctx context.Context, args string) (string, error) {
			text := strings.TrimSpace(args)
			if text == "" {
				return broadcastUsage, nil
			}
			if sender == nil {
				return usersUnavailable, nil
			}
			report, err := sender.Send(ctx, text)
			if err != nil {
				return "", err
			}
			return report.Text(), nil
		},
	}
}
