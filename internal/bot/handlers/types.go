package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events. arg is the decoded callback argument.
type CallbackHandler func(c telebot.Context, arg string) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

const (
	requestContextKey = "request_ctx"
	answeredKey       = "callback_answered"
)

// WithContext attaches the request context to the update.
func WithContext(c telebot.Context, ctx context.Context) {
	c.Set(requestContextKey, ctx)
}

// Context returns the request context set by the router, or context.Background.
func Context(c telebot.Context) context.Context {
	if c != nil {
		if ctx, ok := c.Get(requestContextKey).(context.Context); ok && ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

// Answer responds to the callback query and remembers that it did, so the router does not
// answer twice.
func Answer(c telebot.Context, resp *telebot.CallbackResponse) error {
	c.Set(answeredKey, true)
	if resp == nil {
		return c.Respond()
	}
	return c.Respond(resp)
}

// Answered reports whether Answer was called for this update.
func Answered(c telebot.Context) bool {
	answered, _ := c.Get(answeredKey).(bool)
	return answered
}
