package bot

import (
	"context"
	"errors"
	"time"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/Proton-105/plantshop-bot/internal/errors"
	"github.com/Proton-105/plantshop-bot/internal/notify"
)

// messageAPI is the part of *telebot.Bot the sender uses.
type messageAPI interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Sender delivers notify messages through the Telegram Bot API. Flood-control and transport
// errors are retried; Telegram's refusals (blocked bot, unknown chat) are not.
type Sender struct {
	api   messageAPI
	retry apperrors.RetryPolicy
}

var _ notify.Sender = (*Sender)(nil)

// NewSender wraps a telebot bot.
func NewSender(api messageAPI) *Sender {
	return &Sender{api: api, retry: apperrors.DefaultRetryPolicy}
}

// Send posts msg to chatID: a captioned photo when PhotoID is set, plain text otherwise.
func (s *Sender) Send(ctx context.Context, chatID int64, msg notify.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var what interface{} = msg.Text
	if msg.PhotoID != "" {
		what = &telebot.Photo{File: telebot.File{FileID: msg.PhotoID}, Caption: msg.Text}
	}

	var opts []interface{}
	if markup := inlineMarkup(msg.Actions); markup != nil {
		opts = append(opts, markup)
	}

	return s.retry.Do(ctx, func() error {
		_, err := s.api.Send(telebot.ChatID(chatID), what, opts...)
		return classifySendError(err)
	})
}

func classifySendError(err error) error {
	if err == nil {
		return nil
	}

	apiErr := apperrors.NewExternalAPIError("telegram", err)

	var flood telebot.FloodError
	if errors.As(err, &flood) {
		apiErr.RetryAfter = time.Duration(flood.RetryAfter) * time.Second
		return apiErr
	}

	var refusal *telebot.Error
	if errors.As(err, &refusal) {
		apiErr.Retryable = false
	}
	return apiErr
}

func inlineMarkup(actions [][]notify.Action) *telebot.ReplyMarkup {
	if len(actions) == 0 {
		return nil
	}

	rows := make([][]telebot.InlineButton, 0, len(actions))
	for _, row := range actions {
		buttons := make([]telebot.InlineButton, 0, len(row))
		for _, action := range row {
			button := telebot.InlineButton{Text: action.Text}
			if action.URL != "" {
				button.URL = action.URL
			} else {
				button.Data = action.Data
			}
			buttons = append(buttons, button)
		}
		if len(buttons) > 0 {
			rows = append(rows, buttons)
		}
	}

	return &telebot.ReplyMarkup{InlineKeyboard: rows}
}
