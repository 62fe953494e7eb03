package handlers

import (
	"context"
	"log/slog"

	"github.com/Proton-105/plantshop-bot/internal/bot/keyboard"
	"github.com/Proton-105/plantshop-bot/internal/dialog"
	"github.com/Proton-105/plantshop-bot/internal/domain"
	"github.com/Proton-105/plantshop-bot/internal/i18n"
	"github.com/Proton-105/plantshop-bot/internal/notify"
)

// Shop is the catalog and booking surface the handlers need.
type Shop interface {
	Catalog(ctx context.Context) ([]domain.Plant, error)
	Plant(ctx context.Context, plantID string) (domain.Plant, error)
	DeletePlant(ctx context.Context, plantID string) (domain.Plant, error)
	Bookings(ctx context.Context) ([]domain.Booking, error)
	Confirm(ctx context.Context, bookingID string, adminID int64) (domain.Booking, error)
	Reject(ctx context.Context, bookingID string) (domain.Booking, error)
}

// Dialogs drives multi-step conversations.
type Dialogs interface {
	StartBooking(ctx context.Context, userID, chatID int64, plantID string) (dialog.Reply, error)
	StartAddPlant(ctx context.Context, userID, chatID int64) (dialog.Reply, error)
	Handle(ctx context.Context, in dialog.Input) (dialog.Reply, bool, error)
	Cancel(ctx context.Context, userID int64) (dialog.Reply, error)
	Reset(ctx context.Context, userID int64) error
}

// Notifier delivers a message to someone other than the current chat.
type Notifier interface {
	Notify(ctx context.Context, audience string, chatID int64, msg notify.Message) notify.Result
}

// AdminSet answers whether a user is an administrator.
type AdminSet interface {
	IsAdmin(userID int64) bool
}

// Deps bundles what the handlers share.
type Deps struct {
	Shop     Shop
	Dialogs  Dialogs
	Notifier Notifier
	Admins   AdminSet
	T        i18n.Translator
	Keyboard *keyboard.Builder
	// DeepLink returns the t.me link that opens the reservation dialog for a plant.
	DeepLink func(plantID string) string
	Log      *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Log == nil {
		return slog.Default()
	}
	return d.Log
}
