package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/bot/handlers"
	"github.com/Proton-105/plantshop-bot/internal/idempotency"
)

// Idempotency ensures handlers execute at most once per Telegram update.
func Idempotency(manager idempotency.Manager, ttl time.Duration, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := updateKey(c)
			if key == "" {
				return next(c)
			}

			err := manager.Execute(handlers.Context(c), key, ttl, func(context.Context) error {
				return next(c)
			})
			if errors.Is(err, idempotency.ErrDuplicate) {
				log.Info("skipping redelivered update", slog.String("key", key))
				return nil
			}

			return err
		}
	}
}

func updateKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	if id := c.Update().ID; id != 0 {
		return "update:" + strconv.Itoa(id)
	}

	if cb := c.Callback(); cb != nil && cb.ID != "" {
		return "callback:" + cb.ID
	}

	return ""
}
