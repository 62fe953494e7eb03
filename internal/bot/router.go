package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/bot/handlers"
	"github.com/Proton-105/plantshop-bot/internal/callback"
)

// Router dispatches commands, reply-keyboard buttons, callbacks and free input.
type Router struct {
	mu             sync.RWMutex
	commands       map[string]handlers.Handler
	texts          map[string]handlers.Handler
	callbacks      map[string]handlers.CallbackHandler
	input          handlers.Handler
	defaultHandler handlers.Handler
	middlewares    []handlers.Middleware
	log            *slog.Logger
}

// NewRouter builds a Router with empty registries.
func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands:    make(map[string]handlers.Handler),
		texts:       make(map[string]handlers.Handler),
		callbacks:   make(map[string]handlers.CallbackHandler),
		middlewares: make([]handlers.Middleware, 0),
		log:         log,
	}
}

// RegisterCommand registers a handler for a bot command such as "/start".
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd] = h
}

// RegisterText registers a handler for an exact message text, i.e. a reply-keyboard button.
func (r *Router) RegisterText(text string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts[text] = h
}

// RegisterCallback registers a handler for a callback action.
func (r *Router) RegisterCallback(action string, h handlers.CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[action] = h
}

// SetInput sets the handler for text and photos that match nothing else.
func (r *Router) SetInput(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.input = h
}

// SetDefault sets the fallback handler for unknown commands.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = h
}

// Use appends a middleware to the chain.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// Route directs the incoming update to the appropriate handler.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	if cb := c.Callback(); cb != nil {
		return r.handleCallback(c, cb.Data)
	}

	return r.handleMessage(c)
}

func (r *Router) handleCallback(c telebot.Context, data string) error {
	action, arg, err := callback.Decode(data)
	var handler handlers.CallbackHandler
	if err == nil {
		handler = r.getCallbackHandler(action)
	}

	if handler == nil {
		r.log.Info("no callback handler found", slog.String("data", data))
		return handlers.Answer(c, nil)
	}

	err = r.executeHandler(func(c telebot.Context) error {
		return handler(c, arg)
	}, c)

	// Telegram keeps the button spinner until the query is answered.
	if !handlers.Answered(c) {
		if answerErr := handlers.Answer(c, nil); answerErr != nil {
			r.log.Debug("failed to answer callback", slog.Any("error", answerErr))
		}
	}

	return err
}

func (r *Router) handleMessage(c telebot.Context) error {
	msg := c.Message()
	if msg == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "/") {
		if handler := r.getCommandHandler(CommandName(text)); handler != nil {
			return r.executeHandler(handler, c)
		}
		if handler := r.getDefaultHandler(); handler != nil {
			return r.executeHandler(handler, c)
		}
		return nil
	}

	if handler := r.getTextHandler(text); handler != nil {
		return r.executeHandler(handler, c)
	}

	if handler := r.getInputHandler(); handler != nil {
		return r.executeHandler(handler, c)
	}

	return nil
}

// CommandName extracts "/start" from "/start@plantshop_bot book_1".
func CommandName(text string) string {
	command, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	command, _, _ = strings.Cut(command, "@")
	return strings.ToLower(command)
}

func (r *Router) executeHandler(h handlers.Handler, c telebot.Context) error {
	wrapped := r.applyMiddlewares(h)
	if wrapped == nil {
		return nil
	}
	return wrapped(c)
}

func (r *Router) getCallbackHandler(action string) handlers.CallbackHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbacks[action]
}

func (r *Router) getCommandHandler(cmd string) handlers.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[cmd]
}

func (r *Router) getTextHandler(text string) handlers.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.texts[text]
}

func (r *Router) getInputHandler() handlers.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.input
}

func (r *Router) getDefaultHandler() handlers.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultHandler
}

// applyMiddlewares wraps the handler with all registered middlewares; the first registered
// runs outermost.
func (r *Router) applyMiddlewares(h handlers.Handler) handlers.Handler {
	if h == nil {
		return nil
	}

	middlewares := r.middlewaresSnapshot()
	wrapped := h
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}
