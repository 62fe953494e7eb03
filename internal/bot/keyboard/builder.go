// Package keyboard renders the bot's inline and reply keyboards.
package keyboard

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/callback"
	"github.com/Proton-105/plantshop-bot/internal/domain"
	"github.com/Proton-105/plantshop-bot/internal/i18n"
)

const (
	// CatalogPageSize is the number of plant buttons per catalog page.
	CatalogPageSize = 8

	shortNameRunes = 15
)

// Builder creates the shop's inline keyboards in one language.
type Builder struct {
	t   i18n.Translator
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(t i18n.Translator, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{t: t, log: log}
}

// Catalog lists one page of plants. Customers only see available plants; admins also see
// sold-out ones so they can delete them, and get the admin actions.
func (b *Builder) Catalog(plants []domain.Plant, isAdmin bool, page int) *telebot.ReplyMarkup {
	visible := VisiblePlants(plants, isAdmin)
	totalPages := TotalPages(len(visible), CatalogPageSize)
	page = clampPage(page, totalPages)

	kb := NewInlineKeyboard()
	start := (page - 1) * CatalogPageSize
	end := min(start+CatalogPageSize, len(visible))
	for _, plant := range visible[start:end] {
		text := b.t.Tf("catalog.item", plant.Name, plant.Price)
		if !plant.Available() {
			text = b.t.Tf("catalog.item_booked", plant.Name)
		}
		kb.AddRow(InlineButton{Text: text, Action: callback.Plant, Arg: plant.ID})
	}

	if totalPages > 1 {
		kb.AddRow(PaginationButtons(b.t, callback.Catalog, page, totalPages)...)
	}

	if isAdmin {
		kb.AddRow(InlineButton{Text: b.t.T("admin.add_plant_button"), Action: callback.AdminAdd})
		kb.AddRow(InlineButton{Text: b.t.T("admin.bookings_button"), Action: callback.AdminBookings})
	}

	return b.build(kb)
}

// PlantCard offers reserve (when available), back and, for admins, delete.
func (b *Builder) PlantCard(plant domain.Plant, isAdmin bool) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()
	if plant.Available() {
		kb.AddRow(InlineButton{Text: b.t.T("plant.reserve_button"), Action: callback.Book, Arg: plant.ID})
	}
	kb.AddRow(b.backToCatalog())
	if isAdmin {
		kb.AddRow(InlineButton{Text: b.t.T("plant.delete_button"), Action: callback.Delete, Arg: plant.ID})
	}
	return b.build(kb)
}

// GoPrivate links a group user to the private chat where the reservation dialog runs.
func (b *Builder) GoPrivate(deepLink, plantID string) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard().
		AddRow(InlineButton{Text: b.t.T("booking.go_private_button"), URL: deepLink}).
		AddRow(InlineButton{Text: b.t.T("plant.back_button"), Action: callback.Plant, Arg: plantID})
	return b.build(kb)
}

// Bookings gives every booking a reject button and pending ones a confirm button.
func (b *Builder) Bookings(bookings []domain.Booking) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()
	for _, booking := range bookings {
		short := ShortName(booking.PlantName)
		row := make([]InlineButton, 0, 2)
		if booking.Status == domain.BookingPending {
			row = append(row, InlineButton{
				Text:   b.t.Tf("booking.confirm_short", short),
				Action: callback.Confirm,
				Arg:    booking.ID,
			})
		}
		row = append(row, InlineButton{
			Text:   b.t.Tf("booking.reject_short", short),
			Action: callback.Reject,
			Arg:    booking.ID,
		})
		kb.AddRow(row...)
	}
	kb.AddRow(b.backToCatalog())
	return b.build(kb)
}

// Back is a lone "back to catalog" button.
func (b *Builder) Back() *telebot.ReplyMarkup {
	return b.build(NewInlineKeyboard().AddRow(b.backToCatalog()))
}

func (b *Builder) backToCatalog() InlineButton {
	return InlineButton{Text: b.t.T("plant.back_button"), Action: callback.Catalog}
}

func (b *Builder) build(kb *InlineKeyboardBuilder) *telebot.ReplyMarkup {
	markup, err := kb.Build()
	if err != nil {
		// Arguments are plant IDs and UUIDs, so this only fires on a programming error.
		b.log.Error("failed to build inline keyboard", slog.Any("error", err))
		return &telebot.ReplyMarkup{}
	}
	return markup
}

// VisiblePlants filters the catalog for the viewer.
func VisiblePlants(plants []domain.Plant, isAdmin bool) []domain.Plant {
	visible := make([]domain.Plant, 0, len(plants))
	for _, plant := range plants {
		if isAdmin || plant.Available() {
			visible = append(visible, plant)
		}
	}
	return visible
}

// ShortName truncates long plant names for button labels.
func ShortName(name string) string {
	if utf8.RuneCountInString(name) <= shortNameRunes {
		return name
	}
	runes := []rune(name)
	return fmt.Sprintf("%s…", string(runes[:shortNameRunes]))
}
