package handlers

import (
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/bot/keyboard"
	"github.com/Proton-105/plantshop-bot/internal/domain"
	apperrors "github.com/Proton-105/plantshop-bot/internal/errors"
	"github.com/Proton-105/plantshop-bot/internal/i18n"
	"github.com/Proton-105/plantshop-bot/internal/shop"
)

// NewCatalogHandler handles /catalog and the catalog reply button.
func NewCatalogHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		return showCatalog(c, d, 1)
	}
}

// NewCatalogCallback handles catalog[:page].
func NewCatalogCallback(d Deps) CallbackHandler {
	return func(c telebot.Context, arg string) error {
		return showCatalog(c, d, keyboard.ParsePage(arg))
	}
}

func showCatalog(c telebot.Context, d Deps, page int) error {
	plants, err := d.Shop.Catalog(Context(c))
	if err != nil {
		return apperrors.NewStorageError(err)
	}

	isAdmin := d.Admins.IsAdmin(senderID(c))
	return show(c, d.logger(), CatalogText(d.T, plants), d.Keyboard.Catalog(plants, isAdmin, page))
}

// CatalogText is the catalog header: empty shop, everything booked, or how many are available.
func CatalogText(t i18n.Translator, plants []domain.Plant) string {
	title := t.T("catalog.title") + "\n\n"
	if len(plants) == 0 {
		return title + t.T("catalog.empty")
	}

	available := len(keyboard.VisiblePlants(plants, false))
	if available == 0 {
		return title + t.T("catalog.all_booked")
	}
	return title + t.Tf("catalog.available", available)
}

// PlantText renders a plant card.
func PlantText(t i18n.Translator, plant domain.Plant) string {
	status := t.T("plant.status_booked")
	if plant.Available() {
		status = t.Tf("plant.status_available", plant.Quantity)
	}
	return t.Tf("plant.card", plant.Name, plant.Price, plant.Description) + "\n\n" + status
}

// NewPlantCallback handles plant:<id>.
func NewPlantCallback(d Deps) CallbackHandler {
	return func(c telebot.Context, plantID string) error {
		plant, err := d.Shop.Plant(Context(c), plantID)
		switch {
		case errors.Is(err, shop.ErrPlantNotFound):
			return show(c, d.logger(), d.T.T("plant.not_found"), d.Keyboard.Back())
		case err != nil:
			return apperrors.NewStorageError(err)
		}

		isAdmin := d.Admins.IsAdmin(senderID(c))
		return show(c, d.logger(), plantContent(plant, PlantText(d.T, plant)), d.Keyboard.PlantCard(plant, isAdmin))
	}
}

// NewDeleteCallback handles delete:<id>. Admins only; plants with bookings are kept.
func NewDeleteCallback(d Deps) CallbackHandler {
	log := d.logger()

	return func(c telebot.Context, plantID string) error {
		userID := senderID(c)
		if !d.Admins.IsAdmin(userID) {
			return apperrors.NewPermissionError("delete plant", userID)
		}

		plant, err := d.Shop.DeletePlant(Context(c), plantID)
		switch {
		case errors.Is(err, shop.ErrPlantNotFound):
			return show(c, log, d.T.T("plant.not_found"), d.Keyboard.Back())
		case errors.Is(err, shop.ErrPlantHasBookings):
			return show(c, log, d.T.T("plant.delete_refused"), d.Keyboard.Back())
		case err != nil:
			return apperrors.NewStorageError(err)
		}

		log.Info("plant deleted by admin", slog.String("plant_id", plant.ID), slog.Int64("admin_id", userID))
		return show(c, log, d.T.Tf("plant.deleted", plant.Name), d.Keyboard.Back())
	}
}
