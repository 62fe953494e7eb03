package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/i18n"
)

// MainMenu builds the persistent reply keyboard shown to customers.
func MainMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{ResizeKeyboard: true}
	markup.Reply(markup.Row(markup.Text(t.T("start.catalog_button"))))
	return markup
}

// AdminMenu builds the reply keyboard shown to administrators.
func AdminMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{ResizeKeyboard: true}

	markup.Reply(
		markup.Row(markup.Text(t.T("admin.add_plant_button")), markup.Text(t.T("admin.bookings_button"))),
		markup.Row(markup.Text(t.T("start.catalog_button"))),
	)

	return markup
}
