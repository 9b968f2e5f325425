package handler

import (
	"context"
	"runtime/debug"
	"strings"

	"github.com/mymmrac/telego"
	"github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
)

type route int

const (
	routeNone route = iota
	routeStart
	routeStats
	routeAdmin
	routeSearch
	routeLink
	routeCallback
	routeInline
	routeChosenInline
)

// Router dispatches updates to handlers and records every user it sees.
type Router struct {
	Start           UpdateHandler
	Stats           UpdateHandler
	Admin           UpdateHandler
	AdminCommands   []string
	Search          UpdateHandler
	Link            UpdateHandler
	Callback        UpdateHandler
	Inline          UpdateHandler
	ChosenInline    UpdateHandler
	PlatformManager platform.Manager
	Users           bot.UserRepository
	BotName         string
	Logger          bot.Logger
}

// Dispatch handles a single update. Panics are logged, never propagated.
func (r *Router) Dispatch(ctx context.Context, b *telego.Bot, update telego.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			logError(r.Logger, "handler panic", "update_id", update.UpdateID, "panic", rec, "stack", string(debug.Stack()))
		}
	}()

	r.touchUser(ctx, &update)

	var h UpdateHandler
	switch r.classify(&update) {
	case routeStart:
		h = r.Start
	case routeStats:
		h = r.Stats
	case routeAdmin:
		h = r.Admin
	case routeSearch:
		h = r.Search
	case routeLink:
		h = r.Link
	case routeCallback:
		h = r.Callback
	case routeInline:
		h = r.Inline
	case routeChosenInline:
		h = r.ChosenInline
	}
	if h != nil {
		h.Handle(ctx, b, &update)
	}
}

func (r *Router) classify(update *telego.Update) route {
	switch {
	case update.CallbackQuery != nil:
		return routeCallback
	case update.InlineQuery != nil:
		return routeInline
	case update.ChosenInlineResult != nil:
		return routeChosenInline
	case update.Message != nil:
		return r.classifyMessage(update.Message)
	}
	return routeNone
}

func (r *Router) classifyMessage(message *telego.Message) route {
	text := strings.TrimSpace(message.Text)
	if text == "" || message.From == nil {
		return routeNone
	}
	if strings.HasPrefix(text, "/") {
		switch cmd := commandName(text, r.BotName); cmd {
		case "start", "help":
			return routeStart
		case "stats":
			return routeStats
		default:
			for _, name := range r.AdminCommands {
				if cmd != "" && cmd == name {
					return routeAdmin
				}
			}
		}
		return routeNone
	}
	if !isPrivateChat(message) {
		return routeNone
	}
	if r.PlatformManager != nil {
		if _, _, _, ok := r.PlatformManager.MatchURL(text); ok {
			return routeLink
		}
	}
	return routeSearch
}

func (r *Router) touchUser(ctx context.Context, update *telego.Update) {
	if r.Users == nil {
		return
	}
	user := updateSender(update)
	if user == nil || user.IsBot {
		return
	}
	if err := r.Users.TouchUser(ctx, user.ID, user.Username, user.FirstName); err != nil {
		logWarn(r.Logger, "failed to record user", "user_id", user.ID, "error", err)
	}
}

func updateSender(update *telego.Update) *telego.User {
	switch {
	case update.Message != nil:
		return update.Message.From
	case update.CallbackQuery != nil:
		return &update.CallbackQuery.From
	case update.InlineQuery != nil:
		return &update.InlineQuery.From
	case update.ChosenInlineResult != nil:
		return &update.ChosenInlineResult.From
	}
	return nil
}
