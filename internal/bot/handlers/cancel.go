package handlers

import (
	telebot "gopkg.in/telebot.v3"
)

// NewCancelHandler drops the user's dialog.
func NewCancelHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		reply, err := d.Dialogs.Cancel(Context(c), sender.ID)
		if err != nil {
			return err
		}
		return send(c, reply.Text)
	}
}
