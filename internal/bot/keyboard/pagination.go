package keyboard

import (
	"strconv"

	"github.com/Proton-105/plantshop-bot/internal/i18n"
)

// PaginationButtons returns up to three inline buttons (prev, current page, next)
// allowing the caller to paginate lists using a shared action.
func PaginationButtons(t i18n.Translator, action string, page, totalPages int) []InlineButton {
	if totalPages < 1 {
		totalPages = 1
	}
	page = clampPage(page, totalPages)

	buttons := make([]InlineButton, 0, 3)

	if page > 1 {
		buttons = append(buttons, InlineButton{
			Text:   t.T("pagination.prev"),
			Action: action,
			Arg:    strconv.Itoa(page - 1),
		})
	}

	buttons = append(buttons, InlineButton{
		Text:   t.Tf("pagination.page", page, totalPages),
		Action: action,
		Arg:    strconv.Itoa(page),
	})

	if page < totalPages {
		buttons = append(buttons, InlineButton{
			Text:   t.T("pagination.next"),
			Action: action,
			Arg:    strconv.Itoa(page + 1),
		})
	}

	return buttons
}

// TotalPages is the number of pages needed for n items.
func TotalPages(n, pageSize int) int {
	if n <= 0 || pageSize <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// ParsePage reads a 1-based page argument; anything invalid means the first page.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func clampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
