package keyboard_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/plantshop-bot/internal/bot/keyboard"
	"github.com/Proton-105/plantshop-bot/internal/callback"
	"github.com/Proton-105/plantshop-bot/internal/domain"
	"github.com/Proton-105/plantshop-bot/internal/i18n"
)

func translator() i18n.Translator {
	return i18n.MustLoad("en").Translator("en")
}

func plants(n int, soldOut ...int) []domain.Plant {
	out := make([]domain.Plant, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Plant{
			ID:       fmt.Sprint(i),
			Name:     fmt.Sprintf("Plant %d", i),
			Price:    domain.Money(i * 100),
			Quantity: 1,
		})
	}
	for _, idx := range soldOut {
		out[idx].Quantity = 0
	}
	return out
}

func TestInlineKeyboardBuilder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		markup, err := keyboard.NewInlineKeyboard().
			AddRow(
				keyboard.InlineButton{Text: "Prev", Action: "catalog", Arg: "1"},
				keyboard.InlineButton{Text: "Next", Action: "catalog", Arg: "2"},
			).
			AddRow(keyboard.InlineButton{Text: "Open", URL: "https://t.me/bot?start=book_1"}).
			AddRow().
			Build()
		require.NoError(t, err)

		require.Len(t, markup.InlineKeyboard, 2)
		assert.Len(t, markup.InlineKeyboard[0], 2)
		assert.Equal(t, "catalog:2", markup.InlineKeyboard[0][1].Data)
		assert.Empty(t, markup.InlineKeyboard[0][1].Unique)
		assert.Equal(t, "https://t.me/bot?start=book_1", markup.InlineKeyboard[1][0].URL)
		assert.Empty(t, markup.InlineKeyboard[1][0].Data)
	})

	t.Run("callback data overflow", func(t *testing.T) {
		_, err := keyboard.NewInlineKeyboard().
			AddRow(keyboard.InlineButton{Text: "Too big", Action: "overflow", Arg: strings.Repeat("x", callback.LimitBytes)}).
			Build()
		assert.Error(t, err)
	})
}

func TestPaginationButtons(t *testing.T) {
	tr := translator()

	testCases := []struct {
		name      string
		page      int
		total     int
		wantTexts []string
		wantArgs  []string
	}{
		{name: "first page", page: 1, total: 5, wantTexts: []string{"1/5", "▶️"}, wantArgs: []string{"1", "2"}},
		{name: "middle page", page: 3, total: 5, wantTexts: []string{"◀️", "3/5", "▶️"}, wantArgs: []string{"2", "3", "4"}},
		{name: "last page", page: 5, total: 5, wantTexts: []string{"◀️", "5/5"}, wantArgs: []string{"4", "5"}},
		{name: "out of range is clamped", page: 9, total: 2, wantTexts: []string{"◀️", "2/2"}, wantArgs: []string{"1", "2"}},
		{name: "single page", page: 1, total: 0, wantTexts: []string{"1/1"}, wantArgs: []string{"1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buttons := keyboard.PaginationButtons(tr, callback.Catalog, tc.page, tc.total)
			require.Len(t, buttons, len(tc.wantTexts))

			for i := range tc.wantTexts {
				assert.Equal(t, tc.wantTexts[i], buttons[i].Text)
				assert.Equal(t, callback.Catalog, buttons[i].Action)
				assert.Equal(t, tc.wantArgs[i], buttons[i].Arg)
			}
		})
	}
}

func TestParsePageAndTotal(t *testing.T) {
	assert.Equal(t, 1, keyboard.ParsePage(""))
	assert.Equal(t, 1, keyboard.ParsePage("-3"))
	assert.Equal(t, 4, keyboard.ParsePage("4"))

	assert.Equal(t, 1, keyboard.TotalPages(0, 8))
	assert.Equal(t, 1, keyboard.TotalPages(8, 8))
	assert.Equal(t, 2, keyboard.TotalPages(9, 8))
}

func TestCatalog(t *testing.T) {
	b := keyboard.NewBuilder(translator(), nil)

	t.Run("customer sees available plants only", func(t *testing.T) {
		markup := b.Catalog(plants(3, 1), false, 1)
		require.Len(t, markup.InlineKeyboard, 2)
		assert.Equal(t, "plant:1", markup.InlineKeyboard[0][0].Data)
		assert.Equal(t, "🪴 Plant 1 · 1.00 ₽", markup.InlineKeyboard[0][0].Text)
		assert.Equal(t, "plant:3", markup.InlineKeyboard[1][0].Data)
	})

	t.Run("admin sees sold out plants and admin actions", func(t *testing.T) {
		markup := b.Catalog(plants(2, 1), true, 1)
		require.Len(t, markup.InlineKeyboard, 4)
		assert.Contains(t, markup.InlineKeyboard[1][0].Text, "booked")
		assert.Equal(t, callback.AdminAdd, markup.InlineKeyboard[2][0].Data)
		assert.Equal(t, callback.AdminBookings, markup.InlineKeyboard[3][0].Data)
	})

	t.Run("paginates", func(t *testing.T) {
		markup := b.Catalog(plants(keyboard.CatalogPageSize+2), false, 2)
		require.Len(t, markup.InlineKeyboard, 3)
		assert.Equal(t, fmt.Sprintf("plant:%d", keyboard.CatalogPageSize+1), markup.InlineKeyboard[0][0].Data)
		pager := markup.InlineKeyboard[2]
		require.Len(t, pager, 2)
		assert.Equal(t, "catalog:1", pager[0].Data)
		assert.Equal(t, "catalog:2", pager[1].Data)
	})
}

func TestPlantCard(t *testing.T) {
	b := keyboard.NewBuilder(translator(), nil)
	plant := plants(1)[0]

	markup := b.PlantCard(plant, false)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "book:1", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "catalog", markup.InlineKeyboard[1][0].Data)

	plant.Quantity = 0
	markup = b.PlantCard(plant, true)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "catalog", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "delete:1", markup.InlineKeyboard[1][0].Data)
}

func TestBookings(t *testing.T) {
	b := keyboard.NewBuilder(translator(), nil)

	markup := b.Bookings([]domain.Booking{
		{ID: "a", PlantName: "Monstera deliciosa variegata", Status: domain.BookingPending},
		{ID: "b", PlantName: "Ficus", Status: domain.BookingConfirmed},
	})

	require.Len(t, markup.InlineKeyboard, 3)
	require.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "confirm:a", markup.InlineKeyboard[0][0].Data)
	assert.Contains(t, markup.InlineKeyboard[0][0].Text, "Monstera delici…")
	assert.Equal(t, "reject:a", markup.InlineKeyboard[0][1].Data)
	require.Len(t, markup.InlineKeyboard[1], 1)
	assert.Equal(t, "reject:b", markup.InlineKeyboard[1][0].Data)
	assert.Equal(t, "catalog", markup.InlineKeyboard[2][0].Data)
}

func TestGoPrivate(t *testing.T) {
	markup := keyboard.NewBuilder(translator(), nil).GoPrivate("https://t.me/shop_bot?start=book_7", "7")
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "https://t.me/shop_bot?start=book_7", markup.InlineKeyboard[0][0].URL)
	assert.Equal(t, "plant:7", markup.InlineKeyboard[1][0].Data)
}

func TestReplyMenus(t *testing.T) {
	tr := translator()

	admin := keyboard.AdminMenu(tr)
	require.Len(t, admin.ReplyKeyboard, 2)
	assert.Equal(t, tr.T("admin.add_plant_button"), admin.ReplyKeyboard[0][0].Text)
	assert.Equal(t, tr.T("admin.bookings_button"), admin.ReplyKeyboard[0][1].Text)
	assert.True(t, admin.ResizeKeyboard)

	main := keyboard.MainMenu(tr)
	require.Len(t, main.ReplyKeyboard, 1)
	assert.Equal(t, tr.T("start.catalog_button"), main.ReplyKeyboard[0][0].Text)
}
