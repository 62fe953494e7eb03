package dialog

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/Proton-105/plantshop-bot/internal/domain"
	apperrors "github.com/Proton-105/plantshop-bot/internal/errors"
	"github.com/Proton-105/plantshop-bot/internal/notify"
	"github.com/Proton-105/plantshop-bot/internal/state"
)

// StartAddPlant opens the add-plant dialog for an administrator.
func (e *Engine) StartAddPlant(ctx context.Context, userID, chatID int64) (Reply, error) {
	if !e.admins.IsAdmin(userID) {
		return Reply{}, apperrors.NewPermissionError("add plants", userID)
	}

	_, err := e.fsm.Begin(ctx, userID, state.DialogAddPlant, map[string]string{
		state.KeyChatID: strconv.FormatInt(chatID, 10),
	})
	if err != nil {
		return Reply{}, apperrors.NewStorageError(err)
	}

	return Reply{Text: e.t.T("add_plant.ask_name")}, nil
}

// adminOnly re-checks the admin set on every step; a revoked admin loses the dialog.
func (e *Engine) adminOnly(next StepHandler) StepHandler {
	return func(ctx context.Context, st *state.UserState, in Input) (Reply, error) {
		if !e.admins.IsAdmin(in.UserID) {
			e.reset(ctx, in.UserID)
			return Reply{Done: true}, apperrors.NewPermissionError("add plants", in.UserID)
		}
		return next(ctx, st, in)
	}
}

func (e *Engine) addPlantName(ctx context.Context, _ *state.UserState, in Input) (Reply, error) {
	name, ok := validName(in.Text)
	if !ok {
		return Reply{Text: e.t.T("add_plant.invalid_name")}, nil
	}
	return e.advance(ctx, in.UserID, state.StateAddPlantDescription, state.KeyName, name, e.t.T("add_plant.ask_description"))
}

func (e *Engine) addPlantDescription(ctx context.Context, _ *state.UserState, in Input) (Reply, error) {
	description, ok := validDescription(in.Text)
	if !ok {
		return Reply{Text: e.t.T("add_plant.invalid_description")}, nil
	}
	return e.advance(ctx, in.UserID, state.StateAddPlantPrice, state.KeyDescription, description, e.t.T("add_plant.ask_price"))
}

func (e *Engine) addPlantPrice(ctx context.Context, _ *state.UserState, in Input) (Reply, error) {
	price, ok := validPrice(in.Text)
	if !ok {
		return Reply{Text: e.t.T("add_plant.invalid_price")}, nil
	}
	return e.advance(ctx, in.UserID, state.StateAddPlantQuantity, state.KeyPrice,
		strconv.FormatInt(int64(price), 10), e.t.T("add_plant.ask_quantity"))
}

func (e *Engine) addPlantQuantity(ctx context.Context, _ *state.UserState, in Input) (Reply, error) {
	quantity, ok := validQuantity(in.Text)
	if !ok {
		return Reply{Text: e.t.T("add_plant.invalid_quantity")}, nil
	}
	return e.advance(ctx, in.UserID, state.StateAddPlantPhoto, state.KeyQuantity,
		strconv.Itoa(quantity), e.t.T("add_plant.ask_photo"))
}

// addPlantPhoto accepts a photo or a skip word, then commits the plant.
func (e *Engine) addPlantPhoto(ctx context.Context, st *state.UserState, in Input) (Reply, error) {
	photoID := in.PhotoID
	if photoID == "" && !isSkip(in.Text, photoSkipWords) {
		return Reply{Text: e.t.T("add_plant.invalid_photo")}, nil
	}

	price, priceErr := strconv.ParseInt(st.Value(state.KeyPrice), 10, 64)
	quantity, quantityErr := strconv.Atoi(st.Value(state.KeyQuantity))
	if priceErr != nil || quantityErr != nil {
		e.reset(ctx, in.UserID)
		return Reply{Done: true}, apperrors.NewStateError("add-plant dialog lost its fields", nil)
	}

	plant, err := e.shop.AddPlant(ctx, domain.PlantDraft{
		Name:        st.Value(state.KeyName),
		Description: st.Value(state.KeyDescription),
		Price:       domain.Money(price),
		Quantity:    quantity,
		PhotoID:     photoID,
	})
	if err != nil {
		return Reply{}, apperrors.NewStorageError(err)
	}

	e.reset(ctx, in.UserID)
	e.announce(ctx, plant)

	return Reply{Text: e.t.Tf("add_plant.done", plant.Name, plant.Price, plant.Quantity), Done: true}, nil
}

func (e *Engine) announce(ctx context.Context, plant domain.Plant) {
	if e.opts.ChannelID == 0 {
		return
	}

	msg := notify.Message{
		Text:    e.t.Tf("add_plant.announce", plant.Name, plant.Price, plant.Description),
		PhotoID: plant.PhotoID,
	}
	if e.opts.DeepLink != nil && plant.Available() {
		msg.Actions = [][]notify.Action{{
			{Text: e.t.T("plant.reserve_button"), URL: e.opts.DeepLink(plant.ID)},
		}}
	}

	if res := e.notifier.Notify(ctx, "channel", e.opts.ChannelID, msg); !res.OK() {
		e.log.Warn("new plant not announced", slog.String("plant_id", plant.ID), slog.Any("error", res.Err))
	}
}
