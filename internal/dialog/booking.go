package dialog

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/Proton-105/plantshop-bot/internal/callback"
	"github.com/Proton-105/plantshop-bot/internal/domain"
	apperrors "github.com/Proton-105/plantshop-bot/internal/errors"
	"github.com/Proton-105/plantshop-bot/internal/notify"
	"github.com/Proton-105/plantshop-bot/internal/shop"
	"github.com/Proton-105/plantshop-bot/internal/state"
)

// StartBooking opens the reservation dialog for plantID. Missing or sold-out plants are refused
// without creating any state.
func (e *Engine) StartBooking(ctx context.Context, userID, chatID int64, plantID string) (Reply, error) {
	plant, err := e.shop.Reservable(ctx, plantID)
	switch {
	case errors.Is(err, shop.ErrPlantNotFound):
		return Reply{Text: e.t.T("plant.not_found"), Done: true}, nil
	case errors.Is(err, shop.ErrSoldOut):
		return Reply{Text: e.t.T("plant.sold_out"), Done: true}, nil
	case err != nil:
		return Reply{}, apperrors.NewStorageError(err)
	}

	_, err = e.fsm.Begin(ctx, userID, state.DialogBooking, map[string]string{
		state.KeyPlantID: plant.ID,
		state.KeyChatID:  strconv.FormatInt(chatID, 10),
	})
	if err != nil {
		return Reply{}, apperrors.NewStorageError(err)
	}

	e.log.Info("booking dialog started", slog.Int64("user_id", userID), slog.String("plant_id", plant.ID))
	return Reply{Text: e.t.Tf("booking.ask_name", plant.Name)}, nil
}

func (e *Engine) bookingName(ctx context.Context, st *state.UserState, in Input) (Reply, error) {
	name, ok := validName(in.Text)
	if !ok {
		return Reply{Text: e.t.T("booking.invalid_name")}, nil
	}
	return e.advance(ctx, in.UserID, state.StateBookingPhone, state.KeyName, name, e.t.T("booking.ask_phone"))
}

func (e *Engine) bookingPhone(ctx context.Context, st *state.UserState, in Input) (Reply, error) {
	phone, ok := validPhone(in.Text)
	if !ok {
		return Reply{Text: e.t.T("booking.invalid_phone")}, nil
	}
	return e.advance(ctx, in.UserID, state.StateBookingComment, state.KeyPhone, phone, e.t.T("booking.ask_comment"))
}

// bookingComment commits the reservation. On a storage failure the state stays at this step so
// the user can resend the comment.
func (e *Engine) bookingComment(ctx context.Context, st *state.UserState, in Input) (Reply, error) {
	chatID := in.ChatID
	if stored, err := strconv.ParseInt(st.Value(state.KeyChatID), 10, 64); err == nil && stored != 0 {
		chatID = stored
	}

	req := domain.ReservationRequest{
		PlantID:       st.Value(state.KeyPlantID),
		CustomerID:    in.UserID,
		ChatID:        chatID,
		CustomerName:  st.Value(state.KeyName),
		CustomerPhone: st.Value(state.KeyPhone),
		Comment:       normalizeComment(in.Text),
	}

	booking, err := e.shop.Reserve(ctx, req)
	switch {
	case errors.Is(err, shop.ErrPlantNotFound):
		return e.done(ctx, in.UserID, e.t.T("plant.not_found"))
	case errors.Is(err, shop.ErrSoldOut):
		return e.done(ctx, in.UserID, e.t.T("plant.sold_out"))
	case err != nil:
		return Reply{}, apperrors.NewStorageError(err)
	}

	e.reset(ctx, in.UserID)
	e.notifyAdmins(ctx, booking)

	return Reply{
		Text: e.t.Tf("booking.submitted", booking.PlantName, booking.CustomerName, booking.CustomerPhone),
		Done: true,
	}, nil
}

func (e *Engine) notifyAdmins(ctx context.Context, booking domain.Booking) {
	comment := booking.Comment
	if comment == "" {
		comment = e.t.T("booking.comment_none")
	}

	msg := notify.Message{
		Text: e.t.Tf("booking.admin_new",
			booking.PlantName, booking.PlantPrice, booking.CustomerName, booking.CustomerPhone, comment),
		Actions: [][]notify.Action{{
			{Text: e.t.T("booking.confirm_button"), Data: callback.MustEncode(callback.Confirm, booking.ID)},
			{Text: e.t.T("booking.reject_button"), Data: callback.MustEncode(callback.Reject, booking.ID)},
		}},
	}

	report := e.notifier.Broadcast(ctx, "admin", e.admins.IDs(), msg)
	if len(report.Results) == 0 {
		e.log.Warn("no admins to notify about booking", slog.String("booking_id", booking.ID))
	}
}
