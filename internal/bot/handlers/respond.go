package handlers

import (
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/domain"
	apperrors "github.com/Proton-105/plantshop-bot/internal/errors"
)

// show renders a screen. Messages get a fresh reply; callbacks edit the message in place and,
// when Telegram refuses the edit (photo messages, deleted messages), delete it and send anew.
func show(c telebot.Context, log *slog.Logger, what interface{}, opts ...interface{}) error {
	if c.Callback() == nil || c.Message() == nil {
		return send(c, what, opts...)
	}

	if text, ok := what.(string); ok && c.Message().Photo == nil {
		err := c.Edit(text, opts...)
		if err == nil || errors.Is(err, telebot.ErrSameMessageContent) || errors.Is(err, telebot.ErrMessageNotModified) {
			return nil
		}
		log.Debug("edit failed, sending a new message", slog.Any("error", err))
	}

	if err := c.Delete(); err != nil {
		log.Debug("failed to delete stale message", slog.Any("error", err))
	}
	return send(c, what, opts...)
}

// send posts a new message to the current chat.
func send(c telebot.Context, what interface{}, opts ...interface{}) error {
	if err := c.Send(what, opts...); err != nil {
		return apperrors.NewExternalAPIError("telegram", err)
	}
	return nil
}

// plantContent is a plant card as text, or as a captioned photo when the plant has one.
func plantContent(plant domain.Plant, caption string) interface{} {
	if plant.PhotoID == "" {
		return caption
	}
	return &telebot.Photo{File: telebot.File{FileID: plant.PhotoID}, Caption: caption}
}

func senderID(c telebot.Context) int64 {
	if sender := c.Sender(); sender != nil {
		return sender.ID
	}
	return 0
}

func chatID(c telebot.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	return senderID(c)
}

func isPrivate(c telebot.Context) bool {
	chat := c.Chat()
	return chat == nil || chat.Type == telebot.ChatPrivate
}
