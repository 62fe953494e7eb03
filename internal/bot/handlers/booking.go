package handlers

import (
	"errors"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/domain"
	apperrors "github.com/Proton-105/plantshop-bot/internal/errors"
	"github.com/Proton-105/plantshop-bot/internal/i18n"
	"github.com/Proton-105/plantshop-bot/internal/notify"
	"github.com/Proton-105/plantshop-bot/internal/shop"
)

// NewBookCallback handles book:<id>. In a private chat the dialog starts right away; elsewhere
// the user is sent to the private chat through a deep link.
func NewBookCallback(d Deps) CallbackHandler {
	log := d.logger()

	return func(c telebot.Context, plantID string) error {
		ctx := Context(c)

		if isPrivate(c) {
			reply, err := d.Dialogs.StartBooking(ctx, senderID(c), chatID(c), plantID)
			if err != nil {
				return err
			}
			return send(c, reply.Text)
		}

		plant, err := d.Shop.Plant(ctx, plantID)
		switch {
		case errors.Is(err, shop.ErrPlantNotFound):
			return show(c, log, d.T.T("plant.not_found"), d.Keyboard.Back())
		case err != nil:
			return apperrors.NewStorageError(err)
		case !plant.Available():
			return show(c, log, d.T.T("plant.sold_out"), d.Keyboard.Back())
		}

		return show(c, log, d.T.Tf("booking.go_private", plant.Name), d.Keyboard.GoPrivate(d.DeepLink(plant.ID), plant.ID))
	}
}

// NewBookingsHandler lists active bookings for admins; used by the callback and the reply button.
func NewBookingsHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		userID := senderID(c)
		if !d.Admins.IsAdmin(userID) {
			return apperrors.NewPermissionError("list bookings", userID)
		}

		bookings, err := d.Shop.Bookings(Context(c))
		if err != nil {
			return apperrors.NewStorageError(err)
		}

		if len(bookings) == 0 {
			return show(c, d.logger(), d.T.T("booking.list_empty"), d.Keyboard.Back())
		}
		return show(c, d.logger(), BookingsText(d.T, bookings), d.Keyboard.Bookings(bookings))
	}
}

// BookingsText renders the admin list of active bookings.
func BookingsText(t i18n.Translator, bookings []domain.Booking) string {
	var b strings.Builder
	b.WriteString(t.T("booking.list_title"))
	for _, booking := range bookings {
		comment := booking.Comment
		if comment == "" {
			comment = t.T("booking.comment_none")
		}
		status := t.T("booking.status_pending")
		if booking.Status == domain.BookingConfirmed {
			status = t.T("booking.status_confirmed")
		}

		b.WriteString("\n\n")
		b.WriteString(t.Tf("booking.list_item",
			booking.PlantName, booking.CustomerName, booking.CustomerPhone, comment, status))
	}
	return b.String()
}

// NewConfirmCallback handles confirm:<booking id>.
func NewConfirmCallback(d Deps) CallbackHandler {
	log := d.logger()

	return func(c telebot.Context, bookingID string) error {
		adminID := senderID(c)
		if !d.Admins.IsAdmin(adminID) {
			return apperrors.NewPermissionError("confirm booking", adminID)
		}

		ctx := Context(c)
		booking, err := d.Shop.Confirm(ctx, bookingID, adminID)
		switch {
		case errors.Is(err, shop.ErrBookingNotFound):
			return show(c, log, d.T.T("booking.not_found"))
		case errors.Is(err, shop.ErrBookingAlreadyConfirmed):
			return Answer(c, &telebot.CallbackResponse{Text: d.T.T("booking.already_confirmed")})
		case err != nil:
			return apperrors.NewStorageError(err)
		}

		res := d.Notifier.Notify(ctx, "customer", booking.ChatID, notify.Message{
			Text: d.T.Tf("booking.confirmed_customer", booking.PlantName),
		})
		if !res.OK() {
			log.Warn("customer not told about confirmation", slog.String("booking_id", booking.ID), slog.Any("error", res.Err))
		}

		return show(c, log, d.T.Tf("booking.confirmed_admin", booking.PlantName, booking.CustomerName))
	}
}

// NewRejectCallback handles reject:<booking id>. The booking is deleted and the plant restocked.
func NewRejectCallback(d Deps) CallbackHandler {
	log := d.logger()

	return func(c telebot.Context, bookingID string) error {
		adminID := senderID(c)
		if !d.Admins.IsAdmin(adminID) {
			return apperrors.NewPermissionError("reject booking", adminID)
		}

		ctx := Context(c)
		booking, err := d.Shop.Reject(ctx, bookingID)
		switch {
		case errors.Is(err, shop.ErrBookingNotFound):
			return show(c, log, d.T.T("booking.not_found"))
		case err != nil:
			return apperrors.NewStorageError(err)
		}

		res := d.Notifier.Notify(ctx, "customer", booking.ChatID, notify.Message{
			Text: d.T.Tf("booking.rejected_customer", booking.PlantName),
		})
		if !res.OK() {
			log.Warn("customer not told about rejection", slog.String("booking_id", booking.ID), slog.Any("error", res.Err))
		}

		return show(c, log, d.T.Tf("booking.rejected_admin", booking.PlantName, booking.CustomerName))
	}
}
