package handler

import (
	"context"

	"github.com/mymmrac/telego"
)

// UpdateHandler handles one class of update picked by Router.
type UpdateHandler interface {
	Handle(ctx context.Context, b *telego.Bot, update *telego.Update)
}

// HandlerFunc adapts a plain function to UpdateHandler.
type HandlerFunc func(ctx context.Context, b *telego.Bot, update *telego.Update)

func (f HandlerFunc) Handle(ctx context.Context, b *telego.Bot, update *telego.Update) {
	if f != nil {
		f(ctx, b, update)
	}
}
