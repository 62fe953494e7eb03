package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/bot/handlers"
	errors "github.com/Proton-105/plantshop-bot/internal/errors"
	"github.com/Proton-105/plantshop-bot/internal/i18n"
	"github.com/Proton-105/plantshop-bot/internal/middleware"
	"github.com/Proton-105/plantshop-bot/pkg/logger"
)

// RequestContextMiddleware gives every update a context with a correlation ID and a deadline.
func RequestContextMiddleware(timeout time.Duration) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			ctx := logger.WithCorrelationID(context.Background(), logger.NewCorrelationID())
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			handlers.WithContext(c, ctx)
			return next(c)
		}
	}
}

// RecoveryMiddleware catches panics, reports them via the centralized handler, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *errors.Handler, t i18n.Translator) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					ctx := handlers.Context(c)
					log.ErrorContext(ctx, "panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

					userMsg := t.T("errors.internal")
					if errHandler != nil {
						if msg, _ := errHandler.Handle(ctx, fmt.Errorf("panic recovered: %v", r), t); msg != "" {
							userMsg = msg
						}
					}

					if c != nil {
						if sendErr := c.Send(userMsg); sendErr != nil {
							log.ErrorContext(ctx, "failed to notify user about panic", slog.Any("error", sendErr))
						}
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for handler failures.
// Callback failures are shown as an alert on the button.
func ErrorHandlingMiddleware(log *slog.Logger, errHandler *errors.Handler, t i18n.Translator) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			ctx := handlers.Context(c)
			userMsg := t.T("errors.internal")
			if errHandler != nil {
				if msg, _ := errHandler.Handle(ctx, err, t); msg != "" {
					userMsg = msg
				}
			}

			if c.Callback() != nil && !handlers.Answered(c) {
				if answerErr := handlers.Answer(c, &telebot.CallbackResponse{Text: userMsg, ShowAlert: true}); answerErr == nil {
					return nil
				}
			}

			if sendErr := c.Send(userMsg); sendErr != nil {
				log.WarnContext(ctx, "failed to deliver error message", slog.Any("error", sendErr))
			}

			return nil
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates. Message text is never logged
// since dialogs collect names and phone numbers.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			ctx := handlers.Context(c)
			start := time.Now()

			userID := int64(0)
			if c.Sender() != nil {
				userID = c.Sender().ID
			}
			action := middleware.CommandLabel(c)

			log.DebugContext(ctx, "handling update", slog.Int64("user_id", userID), slog.String("action", action))
			err := next(c)
			log.InfoContext(ctx, "handled update",
				slog.Int64("user_id", userID),
				slog.String("action", action),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}
