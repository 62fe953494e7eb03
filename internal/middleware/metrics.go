package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/bot/handlers"
	"github.com/Proton-105/plantshop-bot/internal/callback"
	"github.com/Proton-105/plantshop-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(CommandLabel(c), status, time.Since(start))

		return err
	}
}

// CommandLabel names an update for metrics and logs without leaking identifiers: callbacks
// report their action, commands their name, everything else its kind.
func CommandLabel(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil {
		if action, _, err := callback.Decode(cb.Data); err == nil {
			return "callback:" + action
		}
		return "callback:unknown"
	}

	msg := c.Message()
	if msg == nil {
		return "unknown"
	}

	if msg.Photo != nil {
		return "photo"
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		command, _, _ := strings.Cut(text, " ")
		command, _, _ = strings.Cut(command, "@")
		return command
	}
	if text != "" {
		return "text"
	}

	return "unknown"
}
