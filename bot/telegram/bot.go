package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	botpkg "github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/config"
)

// Bot wraps telego with application configuration.
type Bot struct {
	client *telego.Bot
	upload *telego.Bot
	config *config.Config
	logger botpkg.Logger
}

// New creates the Telegram clients. Uploads get their own client with a
// longer timeout.
func New(cfg *config.Config, logger botpkg.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger required")
	}

	pollClient := &http.Client{
		Timeout:   2 * time.Minute,
		Transport: newTransport(),
	}
	uploadClient := &http.Client{
		Timeout:   15 * time.Minute,
		Transport: newTransport(),
	}

	client, err := telego.NewBot(cfg.GetString("BOT_TOKEN"), clientOptions(cfg, logger, pollClient)...)
	if err != nil {
		return nil, err
	}
	upload, err := telego.NewBot(cfg.GetString("BOT_TOKEN"), clientOptions(cfg, logger, uploadClient)...)
	if err != nil {
		return nil, err
	}
	return &Bot{client: client, upload: upload, config: cfg, logger: logger}, nil
}

func newTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

func clientOptions(cfg *config.Config, logger botpkg.Logger, httpClient *http.Client) []telego.BotOption {
	options := []telego.BotOption{
		telego.WithHTTPClient(httpClient),
		telego.WithLogger(telegoLogger{logger: logger}),
	}
	if apiServer := strings.TrimRight(cfg.GetString("BotAPI"), "/"); apiServer != "" {
		options = append(options, telego.WithAPIServer(apiServer))
	}
	if cfg.GetBool("BotDebug") {
		options = append(options, telego.WithDebugMode())
	}
	return options
}

// Client exposes the underlying bot client.
func (b *Bot) Client() *telego.Bot {
	return b.client
}

// UploadClient exposes a dedicated client for uploads.
func (b *Bot) UploadClient() *telego.Bot {
	if b.upload != nil {
		return b.upload
	}
	return b.client
}

// GetMe retrieves bot info.
func (b *Bot) GetMe(ctx context.Context) (*telego.User, error) {
	return b.client.GetMe(ctx)
}

// SetCommands publishes the command menu.
func (b *Bot) SetCommands(ctx context.Context, commands []telego.BotCommand) error {
	return b.client.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: commands})
}

// SetWebhook registers url with Telegram. secret is echoed back by Telegram
// in the X-Telegram-Bot-Api-Secret-Token header.
func (b *Bot) SetWebhook(ctx context.Context, url string, secret string) error {
	params := &telego.SetWebhookParams{URL: url, DropPendingUpdates: true}
	if secret != "" {
		params.SecretToken = secret
	}
	return b.client.SetWebhook(ctx, params)
}

// LongPoll removes any webhook, dropping pending updates, and starts long
// polling. The channel closes when ctx is done.
func (b *Bot) LongPoll(ctx context.Context) (<-chan telego.Update, error) {
	if err := b.client.DeleteWebhook(ctx, &telego.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
		return nil, fmt.Errorf("delete webhook: %w", err)
	}
	updates, err := b.client.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: 30,
		AllowedUpdates: []string{
			"message",
			"callback_query",
			"inline_query",
			"chosen_inline_result",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start long polling: %w", err)
	}
	return updates, nil
}

type telegoLogger struct {
	logger botpkg.Logger
}

func (l telegoLogger) Debugf(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l telegoLogger) Errorf(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Error(fmt.Sprintf(format, args...))
}
