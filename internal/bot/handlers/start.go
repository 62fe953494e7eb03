package handlers

import (
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/bot/keyboard"
)

// DeepLinkPrefix starts the reservation dialog from a t.me link: /start book_<plant id>.
const DeepLinkPrefix = "book_"

// NewStartHandler handles /start [book_<id>]. Any dialog in progress is dropped first.
func NewStartHandler(d Deps) Handler {
	log := d.logger()

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			// Channels have no sender; logging the chat ID helps configure channel_id.
			if chat := c.Chat(); chat != nil {
				log.Info("start received without sender", slog.Int64("chat_id", chat.ID), slog.String("chat_type", string(chat.Type)))
			}
			return nil
		}

		ctx := Context(c)
		if err := d.Dialogs.Reset(ctx, sender.ID); err != nil {
			return err
		}

		payload := CommandPayload(c.Text())
		if isPrivate(c) && strings.HasPrefix(payload, DeepLinkPrefix) {
			plantID := strings.TrimPrefix(payload, DeepLinkPrefix)
			reply, err := d.Dialogs.StartBooking(ctx, sender.ID, chatID(c), plantID)
			if err != nil {
				return err
			}
			return send(c, reply.Text)
		}

		if isPrivate(c) {
			welcome, menu := d.T.T("start.welcome"), keyboard.MainMenu(d.T)
			if d.Admins.IsAdmin(sender.ID) {
				welcome, menu = d.T.T("start.welcome_admin"), keyboard.AdminMenu(d.T)
			}
			if err := send(c, welcome, menu); err != nil {
				return err
			}
		}

		return showCatalog(c, d, 1)
	}
}

// NewHelpHandler handles /help.
func NewHelpHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		text := d.T.T("start.help")
		if d.Admins.IsAdmin(senderID(c)) {
			text += "\n\n" + d.T.T("start.help_admin")
		}
		return send(c, text)
	}
}

// NewInfoHandler handles /info.
func NewInfoHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		return send(c, d.T.T("start.info"))
	}
}

// CommandPayload returns what follows the command word, e.g. "book_3" for "/start book_3".
func CommandPayload(text string) string {
	_, payload, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.TrimSpace(payload)
}
