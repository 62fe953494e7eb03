package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/bot/keyboard"
	apperrors "github.com/Proton-105/plantshop-bot/internal/errors"
)

// NewAdminHandler handles /admin: the admin reply keyboard.
func NewAdminHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		userID := senderID(c)
		if !d.Admins.IsAdmin(userID) {
			return apperrors.NewPermissionError("open admin panel", userID)
		}
		return send(c, d.T.T("admin.panel"), keyboard.AdminMenu(d.T))
	}
}

// NewAddPlantHandler starts the add-plant dialog from the callback or the reply button.
func NewAddPlantHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		reply, err := d.Dialogs.StartAddPlant(Context(c), senderID(c), chatID(c))
		if err != nil {
			return err
		}
		return show(c, d.logger(), reply.Text)
	}
}
