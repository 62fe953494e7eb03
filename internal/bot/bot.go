package bot

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/bot/handlers"
	"github.com/Proton-105/plantshop-bot/internal/bot/keyboard"
	"github.com/Proton-105/plantshop-bot/internal/callback"
	errors "github.com/Proton-105/plantshop-bot/internal/errors"
	"github.com/Proton-105/plantshop-bot/internal/idempotency"
	"github.com/Proton-105/plantshop-bot/internal/middleware"
	"github.com/Proton-105/plantshop-bot/pkg/config"
)

// Options carries the collaborators of the update pipeline.
type Options struct {
	Deps        handlers.Deps
	ErrHandler  *errors.Handler
	RateLimit   *middleware.RateLimitMiddleware
	Idempotency idempotency.Manager
	DedupeTTL   time.Duration
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot    *telebot.Bot
	cfg        config.BotConfig
	log        *slog.Logger
	deps       handlers.Deps
	router     *Router
	errHandler *errors.Handler
}

// NewTelebot creates the Telegram client: a webhook when webhook_url is set, long polling otherwise.
func NewTelebot(cfg config.BotConfig, log *slog.Logger) (*telebot.Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Token,
		OnError: func(err error, c telebot.Context) {
			attrs := []any{slog.Any("error", err)}
			if c != nil && c.Update().ID != 0 {
				attrs = append(attrs, slog.Int("update_id", c.Update().ID))
			}
			log.Error("telebot error", attrs...)
		},
	}

	if cfg.WebhookURL != "" {
		settings.Poller = &telebot.Webhook{
			Listen:   cfg.WebhookListen,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{Timeout: cfg.LongPollTimeout}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}
	return tb, nil
}

// DeepLinker returns a function producing https://t.me/<username>?start=book_<plant id>.
func DeepLinker(username string) func(plantID string) string {
	return func(plantID string) string {
		return fmt.Sprintf("https://t.me/%s?start=%s", url.PathEscape(username), url.QueryEscape(handlers.DeepLinkPrefix+plantID))
	}
}

// New wires the router and middleware chain onto an existing telebot client.
func New(tb *telebot.Bot, cfg config.BotConfig, opts Options, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}

	deps := opts.Deps
	if deps.Log == nil {
		deps.Log = log
	}
	if deps.Keyboard == nil {
		deps.Keyboard = keyboard.NewBuilder(deps.T, log)
	}

	b := &Bot{
		telebot:    tb,
		cfg:        cfg,
		log:        log,
		deps:       deps,
		router:     NewRouter(log),
		errHandler: opts.ErrHandler,
	}

	b.setupRouter(opts)
	b.registerTelebotHandlers()

	return b
}

// Start registers the command menu and runs the telegram bot event loop. It blocks until Stop.
func (b *Bot) Start() {
	if b.telebot == nil {
		return
	}

	if err := b.telebot.SetCommands(MenuCommands(b.deps.T)); err != nil {
		b.log.Warn("failed to set bot commands", slog.Any("error", err))
	}

	b.telebot.Start()
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// Router exposes the update router.
func (b *Bot) Router() *Router {
	return b.router
}

func (b *Bot) setupRouter(opts Options) {
	d := b.deps
	t := d.T

	b.router.Use(RecoveryMiddleware(b.log, b.errHandler, t))
	b.router.Use(RequestContextMiddleware(b.cfg.HandlerTimeout))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(ErrorHandlingMiddleware(b.log, b.errHandler, t))
	if opts.Idempotency != nil {
		b.router.Use(middleware.Idempotency(opts.Idempotency, opts.DedupeTTL, b.log))
	}
	b.router.Use(middleware.Metrics)
	if opts.RateLimit != nil {
		b.router.Use(opts.RateLimit.Handle)
	}

	catalog := handlers.NewCatalogHandler(d)
	addPlant := handlers.NewAddPlantHandler(d)
	bookings := handlers.NewBookingsHandler(d)

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(d))
	b.router.RegisterCommand(CommandCatalog, catalog)
	b.router.RegisterCommand(CommandInfo, handlers.NewInfoHandler(d))
	b.router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(d))
	b.router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(d))
	b.router.RegisterCommand(CommandAdmin, handlers.NewAdminHandler(d))

	b.router.RegisterText(t.T("start.catalog_button"), catalog)
	b.router.RegisterText(t.T("admin.add_plant_button"), addPlant)
	b.router.RegisterText(t.T("admin.bookings_button"), bookings)

	b.router.RegisterCallback(callback.Catalog, handlers.NewCatalogCallback(d))
	b.router.RegisterCallback(callback.Plant, handlers.NewPlantCallback(d))
	b.router.RegisterCallback(callback.Book, handlers.NewBookCallback(d))
	b.router.RegisterCallback(callback.Delete, handlers.NewDeleteCallback(d))
	b.router.RegisterCallback(callback.AdminAdd, ignoreArg(addPlant))
	b.router.RegisterCallback(callback.AdminBookings, ignoreArg(bookings))
	b.router.RegisterCallback(callback.Confirm, handlers.NewConfirmCallback(d))
	b.router.RegisterCallback(callback.Reject, handlers.NewRejectCallback(d))

	b.router.SetInput(handlers.NewInputHandler(d))
	b.router.SetDefault(unknownCommand(d))
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnPhoto, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
	b.telebot.Handle(telebot.OnChannelPost, b.router.Route)
}

// unknownCommand answers commands the bot does not know in private chats and stays quiet in groups,
// where the command may be addressed to another bot.
func unknownCommand(d handlers.Deps) handlers.Handler {
	return func(c telebot.Context) error {
		if chat := c.Chat(); chat == nil || chat.Type != telebot.ChatPrivate {
			return nil
		}
		return c.Send(d.T.T("dialog.unknown_input"))
	}
}

func ignoreArg(h handlers.Handler) handlers.CallbackHandler {
	return func(c telebot.Context, _ string) error {
		return h(c)
	}
}
