package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/plantshop-bot/internal/access"
	"github.com/Proton-105/plantshop-bot/internal/bot/handlers"
	"github.com/Proton-105/plantshop-bot/internal/bot/keyboard"
	"github.com/Proton-105/plantshop-bot/internal/dialog"
	"github.com/Proton-105/plantshop-bot/internal/domain"
	apperrors "github.com/Proton-105/plantshop-bot/internal/errors"
	"github.com/Proton-105/plantshop-bot/internal/i18n"
	"github.com/Proton-105/plantshop-bot/internal/notify"
	"github.com/Proton-105/plantshop-bot/internal/shop"
	"github.com/Proton-105/plantshop-bot/internal/state"
	"github.com/Proton-105/plantshop-bot/internal/storage"
	"github.com/Proton-105/plantshop-bot/internal/testutil"
)

const (
	adminID    int64 = 100
	customerID int64 = 1
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type delivery struct {
	audience string
	chatID   int64
	text     string
}

type recordingNotifier struct {
	mu  sync.Mutex
	out []delivery
}

func (n *recordingNotifier) Broadcast(ctx context.Context, audience string, recipients []int64, msg notify.Message) notify.Report {
	report := notify.Report{}
	for _, id := range recipients {
		report.Results = append(report.Results, n.Notify(ctx, audience, id, msg))
	}
	return report
}

func (n *recordingNotifier) Notify(_ context.Context, audience string, chatID int64, msg notify.Message) notify.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.out = append(n.out, delivery{audience: audience, chatID: chatID, text: msg.Text})
	return notify.Result{ChatID: chatID}
}

func (n *recordingNotifier) to(audience string) []delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []delivery
	for _, d := range n.out {
		if d.audience == audience {
			out = append(out, d)
		}
	}
	return out
}

type fixture struct {
	deps     handlers.Deps
	shop     *shop.Service
	notifier *recordingNotifier
	t        i18n.Translator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	blob, err := storage.NewFileBlob(t.TempDir(), testLogger())
	require.NoError(t, err)

	svc := shop.NewService(shop.NewStore(blob, testLogger()), nil, testLogger(), shop.Options{})
	fsm := state.NewStateMachine(state.NewMemoryStorage(), testLogger(), nil)
	notifier := &recordingNotifier{}
	admins := access.NewAdmins([]int64{adminID}, testLogger())
	translator := i18n.MustLoad("en").Translator("en")
	deepLink := func(plantID string) string { return "https://t.me/plantshop_bot?start=book_" + plantID }

	engine := dialog.NewEngine(fsm, svc, notifier, admins, translator, testLogger(), dialog.Options{DeepLink: deepLink})

	return &fixture{
		deps: handlers.Deps{
			Shop:     svc,
			Dialogs:  engine,
			Notifier: notifier,
			Admins:   admins,
			T:        translator,
			Keyboard: keyboard.NewBuilder(translator, testLogger()),
			DeepLink: deepLink,
			Log:      testLogger(),
		},
		shop:     svc,
		notifier: notifier,
		t:        translator,
	}
}

func (f *fixture) addPlant(t *testing.T, name string, quantity int, photoID string) domain.Plant {
	t.Helper()
	plant, err := f.shop.AddPlant(context.Background(), domain.PlantDraft{
		Name:        name,
		Description: "Easy to care for",
		Price:       150000,
		Quantity:    quantity,
		PhotoID:     photoID,
	})
	require.NoError(t, err)
	return plant
}

func (f *fixture) reserve(t *testing.T, plantID string) domain.Booking {
	t.Helper()
	booking, err := f.shop.Reserve(context.Background(), domain.ReservationRequest{
		PlantID:       plantID,
		CustomerID:    customerID,
		ChatID:        customerID,
		CustomerName:  "Anna",
		CustomerPhone: "+79991234567",
	})
	require.NoError(t, err)
	return booking
}

func urlButtons(markup *telebot.ReplyMarkup) []string {
	var urls []string
	if markup == nil {
		return urls
	}
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.URL != "" {
				urls = append(urls, btn.URL)
			}
		}
	}
	return urls
}

func TestCatalogHandler_EmptyShop(t *testing.T) {
	f := newFixture(t)
	c := testutil.NewMessage(customerID, telebot.ChatPrivate, "/catalog")

	require.NoError(t, handlers.NewCatalogHandler(f.deps)(c))

	require.Len(t, c.Sent, 1)
	assert.Contains(t, c.Sent[0].Text(), f.t.T("catalog.empty"))
}

func TestCatalogHandler_CountsAvailablePlants(t *testing.T) {
	f := newFixture(t)
	f.addPlant(t, "Monstera", 1, "")
	f.addPlant(t, "Ficus", 0, "")

	c := testutil.NewMessage(customerID, telebot.ChatPrivate, "/catalog")
	require.NoError(t, handlers.NewCatalogHandler(f.deps)(c))

	require.Len(t, c.Sent, 1)
	assert.Contains(t, c.Sent[0].Text(), f.t.Tf("catalog.available", 1))
	markup := c.Sent[0].Markup()
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 1)
}

func TestCatalogCallback_EditsInPlace(t *testing.T) {
	f := newFixture(t)
	f.addPlant(t, "Monstera", 1, "")

	c := testutil.NewCallback(customerID, telebot.ChatPrivate, "catalog:1")
	require.NoError(t, handlers.NewCatalogCallback(f.deps)(c, "1"))

	assert.Len(t, c.Edited, 1)
	assert.Empty(t, c.Sent)
}

func TestCatalogCallback_UnchangedContentIsNotResent(t *testing.T) {
	f := newFixture(t)
	c := testutil.NewCallback(customerID, telebot.ChatPrivate, "catalog")
	c.EditErr = telebot.ErrSameMessageContent

	require.NoError(t, handlers.NewCatalogCallback(f.deps)(c, ""))

	assert.Empty(t, c.Sent)
	assert.Zero(t, c.Deleted)
}

func TestPlantCallback_PhotoReplacesTextMessage(t *testing.T) {
	f := newFixture(t)
	plant := f.addPlant(t, "Monstera", 2, "photo-file-id")

	c := testutil.NewCallback(customerID, telebot.ChatPrivate, "plant:"+plant.ID)
	require.NoError(t, handlers.NewPlantCallback(f.deps)(c, plant.ID))

	assert.Equal(t, 1, c.Deleted)
	require.Len(t, c.Sent, 1)
	photo, ok := c.Sent[0].What.(*telebot.Photo)
	require.True(t, ok)
	assert.Equal(t, "photo-file-id", photo.FileID)
	assert.Contains(t, photo.Caption, "Monstera")
	assert.Contains(t, photo.Caption, f.t.Tf("plant.status_available", 2))
}

func TestPlantCallback_NotFound(t *testing.T) {
	f := newFixture(t)
	c := testutil.NewCallback(customerID, telebot.ChatPrivate, "plant:missing")

	require.NoError(t, handlers.NewPlantCallback(f.deps)(c, "missing"))

	require.Len(t, c.Edited, 1)
	assert.Equal(t, f.t.T("plant.not_found"), c.Edited[0].Text())
}

func TestBookCallback_GroupChatSendsDeepLink(t *testing.T) {
	f := newFixture(t)
	plant := f.addPlant(t, "Monstera", 1, "")

	c := testutil.NewCallback(customerID, telebot.ChatSuperGroup, "book:"+plant.ID)
	require.NoError(t, handlers.NewBookCallback(f.deps)(c, plant.ID))

	require.Len(t, c.Edited, 1)
	assert.Equal(t, f.t.Tf("booking.go_private", "Monstera"), c.Edited[0].Text())
	assert.Contains(t, urlButtons(c.Edited[0].Markup()), "https://t.me/plantshop_bot?start=book_"+plant.ID)
}

func TestBookCallback_GroupChatSoldOut(t *testing.T) {
	f := newFixture(t)
	plant := f.addPlant(t, "Monstera", 0, "")

	c := testutil.NewCallback(customerID, telebot.ChatGroup, "book:"+plant.ID)
	require.NoError(t, handlers.NewBookCallback(f.deps)(c, plant.ID))

	require.Len(t, c.Edited, 1)
	assert.Equal(t, f.t.T("plant.sold_out"), c.Edited[0].Text())
}

func TestBookingFlow_PrivateChat(t *testing.T) {
	f := newFixture(t)
	plant := f.addPlant(t, "Monstera", 1, "")
	input := handlers.NewInputHandler(f.deps)

	c := testutil.NewCallback(customerID, telebot.ChatPrivate, "book:"+plant.ID)
	require.NoError(t, handlers.NewBookCallback(f.deps)(c, plant.ID))
	assert.Equal(t, f.t.Tf("booking.ask_name", "Monstera"), c.LastText())

	steps := []struct {
		text string
		want string
	}{
		{text: "Anna", want: f.t.T("booking.ask_phone")},
		{text: "+79991234567", want: f.t.T("booking.ask_comment")},
		{text: "skip", want: f.t.Tf("booking.submitted", "Monstera", "Anna", "+79991234567")},
	}
	for _, step := range steps {
		msg := testutil.NewMessage(customerID, telebot.ChatPrivate, step.text)
		require.NoError(t, input(msg))
		assert.Equal(t, step.want, msg.LastText())
	}

	bookings, err := f.shop.Bookings(context.Background())
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Len(t, f.notifier.to("admin"), 1)
}

func TestStartHandler_DeepLinkStartsBooking(t *testing.T) {
	f := newFixture(t)
	plant := f.addPlant(t, "Monstera", 1, "")

	c := testutil.NewMessage(customerID, telebot.ChatPrivate, "/start book_"+plant.ID)
	require.NoError(t, handlers.NewStartHandler(f.deps)(c))

	require.Len(t, c.Sent, 1)
	assert.Equal(t, f.t.Tf("booking.ask_name", "Monstera"), c.Sent[0].Text())
}

func TestStartHandler_WelcomeThenCatalog(t *testing.T) {
	f := newFixture(t)

	c := testutil.NewMessage(adminID, telebot.ChatPrivate, "/start")
	require.NoError(t, handlers.NewStartHandler(f.deps)(c))

	require.Len(t, c.Sent, 2)
	assert.Equal(t, f.t.T("start.welcome_admin"), c.Sent[0].Text())
	menu := c.Sent[0].Markup()
	require.NotNil(t, menu)
	assert.Len(t, menu.ReplyKeyboard, 2)
	assert.Contains(t, c.Sent[1].Text(), f.t.T("catalog.title"))
}

func TestStartHandler_ChannelWithoutSender(t *testing.T) {
	f := newFixture(t)
	c := testutil.NewMessage(customerID, telebot.ChatChannel, "/start")
	c.User = nil

	require.NoError(t, handlers.NewStartHandler(f.deps)(c))
	assert.Empty(t, c.Sent)
}

func TestCommandPayload(t *testing.T) {
	assert.Equal(t, "book_3", handlers.CommandPayload("/start book_3"))
	assert.Equal(t, "", handlers.CommandPayload("/start"))
	assert.Equal(t, "book_3", handlers.CommandPayload("  /start   book_3 "))
}

func TestDeleteCallback(t *testing.T) {
	f := newFixture(t)
	plant := f.addPlant(t, "Monstera", 1, "")
	booked := f.addPlant(t, "Ficus", 1, "")
	f.reserve(t, booked.ID)
	del := handlers.NewDeleteCallback(f.deps)

	c := testutil.NewCallback(customerID, telebot.ChatPrivate, "delete:"+plant.ID)
	err := del(c, plant.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePermission))

	c = testutil.NewCallback(adminID, telebot.ChatPrivate, "delete:"+booked.ID)
	require.NoError(t, del(c, booked.ID))
	assert.Equal(t, f.t.T("plant.delete_refused"), c.LastText())

	c = testutil.NewCallback(adminID, telebot.ChatPrivate, "delete:"+plant.ID)
	require.NoError(t, del(c, plant.ID))
	assert.Equal(t, f.t.Tf("plant.deleted", "Monstera"), c.LastText())

	_, err = f.shop.Plant(context.Background(), plant.ID)
	assert.ErrorIs(t, err, shop.ErrPlantNotFound)
}

func TestBookingsHandler(t *testing.T) {
	f := newFixture(t)
	list := handlers.NewBookingsHandler(f.deps)

	err := list(testutil.NewMessage(customerID, telebot.ChatPrivate, "📋 Bookings"))
	assert.True(t, apperrors.IsCode(err, apperrors.CodePermission))

	c := testutil.NewMessage(adminID, telebot.ChatPrivate, "📋 Bookings")
	require.NoError(t, list(c))
	assert.Equal(t, f.t.T("booking.list_empty"), c.LastText())

	plant := f.addPlant(t, "Monstera", 1, "")
	f.reserve(t, plant.ID)

	c = testutil.NewMessage(adminID, telebot.ChatPrivate, "📋 Bookings")
	require.NoError(t, list(c))
	assert.Contains(t, c.LastText(), "Anna")
	assert.Contains(t, c.LastText(), f.t.T("booking.status_pending"))
}

func TestConfirmCallback(t *testing.T) {
	f := newFixture(t)
	plant := f.addPlant(t, "Monstera", 1, "")
	booking := f.reserve(t, plant.ID)
	confirm := handlers.NewConfirmCallback(f.deps)

	c := testutil.NewCallback(adminID, telebot.ChatPrivate, "confirm:"+booking.ID)
	require.NoError(t, confirm(c, booking.ID))
	assert.Equal(t, f.t.Tf("booking.confirmed_admin", "Monstera", "Anna"), c.LastText())

	customerMsgs := f.notifier.to("customer")
	require.Len(t, customerMsgs, 1)
	assert.Equal(t, customerID, customerMsgs[0].chatID)
	assert.Equal(t, f.t.Tf("booking.confirmed_customer", "Monstera"), customerMsgs[0].text)

	again := testutil.NewCallback(adminID, telebot.ChatPrivate, "confirm:"+booking.ID)
	require.NoError(t, confirm(again, booking.ID))
	assert.True(t, handlers.Answered(again))
	require.Len(t, again.Responses, 1)
	assert.Equal(t, f.t.T("booking.already_confirmed"), again.Responses[0].Text)
	assert.Len(t, f.notifier.to("customer"), 1)
}

func TestConfirmCallback_UnknownBooking(t *testing.T) {
	f := newFixture(t)
	c := testutil.NewCallback(adminID, telebot.ChatPrivate, "confirm:gone")

	require.NoError(t, handlers.NewConfirmCallback(f.deps)(c, "gone"))
	assert.Equal(t, f.t.T("booking.not_found"), c.LastText())
	assert.Empty(t, f.notifier.to("customer"))
}

func TestRejectCallback_Restocks(t *testing.T) {
	f := newFixture(t)
	plant := f.addPlant(t, "Monstera", 1, "")
	booking := f.reserve(t, plant.ID)
	reject := handlers.NewRejectCallback(f.deps)

	err := reject(testutil.NewCallback(customerID, telebot.ChatPrivate, "reject:"+booking.ID), booking.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePermission))

	c := testutil.NewCallback(adminID, telebot.ChatPrivate, "reject:"+booking.ID)
	require.NoError(t, reject(c, booking.ID))
	assert.Equal(t, f.t.Tf("booking.rejected_admin", "Monstera", "Anna"), c.LastText())

	stored, err := f.shop.Plant(context.Background(), plant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Quantity)
	assert.Len(t, f.notifier.to("customer"), 1)
}

func TestAddPlantFlow(t *testing.T) {
	f := newFixture(t)
	input := handlers.NewInputHandler(f.deps)

	err := handlers.NewAddPlantHandler(f.deps)(testutil.NewCallback(customerID, telebot.ChatPrivate, "admin_add"))
	assert.True(t, apperrors.IsCode(err, apperrors.CodePermission))

	c := testutil.NewCallback(adminID, telebot.ChatPrivate, "admin_add")
	require.NoError(t, handlers.NewAddPlantHandler(f.deps)(c))
	assert.Equal(t, f.t.T("add_plant.ask_name"), c.LastText())

	for _, text := range []string{"Monstera", "Large leaves, loves light", "1500", "3"} {
		require.NoError(t, input(testutil.NewMessage(adminID, telebot.ChatPrivate, text)))
	}

	photo := testutil.NewPhoto(adminID, "photo-1", "")
	require.NoError(t, input(photo))
	assert.Contains(t, photo.LastText(), "Monstera")

	plants, err := f.shop.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, plants, 1)
	assert.Equal(t, "photo-1", plants[0].PhotoID)
	assert.Equal(t, 3, plants[0].Quantity)
}

func TestInputHandler_WithoutDialog(t *testing.T) {
	f := newFixture(t)
	input := handlers.NewInputHandler(f.deps)

	private := testutil.NewMessage(customerID, telebot.ChatPrivate, "hello")
	require.NoError(t, input(private))
	assert.Equal(t, f.t.T("dialog.unknown_input"), private.LastText())

	group := testutil.NewMessage(customerID, telebot.ChatGroup, "hello")
	require.NoError(t, input(group))
	assert.Empty(t, group.Sent)
}

func TestCancelHandler(t *testing.T) {
	f := newFixture(t)
	plant := f.addPlant(t, "Monstera", 1, "")
	cancel := handlers.NewCancelHandler(f.deps)

	c := testutil.NewMessage(customerID, telebot.ChatPrivate, "/cancel")
	require.NoError(t, cancel(c))
	assert.Equal(t, f.t.T("dialog.nothing_to_cancel"), c.LastText())

	_, err := f.deps.Dialogs.StartBooking(context.Background(), customerID, customerID, plant.ID)
	require.NoError(t, err)

	c = testutil.NewMessage(customerID, telebot.ChatPrivate, "/cancel")
	require.NoError(t, cancel(c))
	assert.Equal(t, f.t.T("dialog.cancelled"), c.LastText())
}

func TestSendFailureIsExternalError(t *testing.T) {
	f := newFixture(t)
	c := testutil.NewMessage(customerID, telebot.ChatPrivate, "/info")
	c.SendErr = telebot.ErrBlockedByUser

	err := handlers.NewInfoHandler(f.deps)(c)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeExternalAPI))
}
