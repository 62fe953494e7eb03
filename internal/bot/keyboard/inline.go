package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/callback"
)

// InlineButton is a lightweight inline button definition. Either URL is set, or Action (with
// an optional Arg) is encoded into callback data.
type InlineButton struct {
	Text   string
	Action string
	Arg    string
	URL    string
}

// InlineKeyboardBuilder accumulates rows of InlineButton definitions before rendering telebot markup.
type InlineKeyboardBuilder struct {
	rows [][]InlineButton
}

// NewInlineKeyboard creates an empty builder.
func NewInlineKeyboard() *InlineKeyboardBuilder {
	return &InlineKeyboardBuilder{rows: make([][]InlineButton, 0)}
}

// AddRow appends a new row. Empty rows are ignored.
func (b *InlineKeyboardBuilder) AddRow(buttons ...InlineButton) *InlineKeyboardBuilder {
	if len(buttons) == 0 {
		return b
	}

	row := make([]InlineButton, len(buttons))
	copy(row, buttons)
	b.rows = append(b.rows, row)
	return b
}

// Rows reports how many rows were added.
func (b *InlineKeyboardBuilder) Rows() int {
	return len(b.rows)
}

// Build renders the markup. Callback data is encoded raw, without telebot's Unique prefix, so
// the router can decode it with the callback package.
func (b *InlineKeyboardBuilder) Build() (*telebot.ReplyMarkup, error) {
	inlineKeyboard := make([][]telebot.InlineButton, len(b.rows))
	for i, row := range b.rows {
		inlineKeyboard[i] = make([]telebot.InlineButton, len(row))
		for j, btn := range row {
			rendered := telebot.InlineButton{Text: btn.Text}
			if btn.URL != "" {
				rendered.URL = btn.URL
			} else {
				data, err := callback.Encode(btn.Action, btn.Arg)
				if err != nil {
					return nil, err
				}
				rendered.Data = data
			}
			inlineKeyboard[i][j] = rendered
		}
	}

	return &telebot.ReplyMarkup{InlineKeyboard: inlineKeyboard}, nil
}
