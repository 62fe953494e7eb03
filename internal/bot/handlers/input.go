package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/dialog"
)

// NewInputHandler feeds free text and photos into the active dialog. Without a dialog, private
// chats get a hint and group chatter is ignored.
func NewInputHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		msg := c.Message()
		if sender == nil || msg == nil {
			return nil
		}

		in := dialog.Input{
			UserID: sender.ID,
			ChatID: chatID(c),
			Text:   msg.Text,
		}
		if msg.Photo != nil {
			in.PhotoID = msg.Photo.FileID
			in.Text = msg.Caption
		}

		reply, handled, err := d.Dialogs.Handle(Context(c), in)
		if err != nil {
			return err
		}
		if !handled {
			if !isPrivate(c) {
				return nil
			}
			return send(c, d.T.T("dialog.unknown_input"))
		}
		if reply.Text == "" {
			return nil
		}
		return send(c, reply.Text)
	}
}
