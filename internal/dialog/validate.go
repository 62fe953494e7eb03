package dialog

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Proton-105/plantshop-bot/internal/domain"
)

const (
	minNameLength        = 2
	minPhoneLength       = 10
	minDescriptionLength = 5
)

var (
	commentSkipWords = []string{"нет", "skip", "пропустить"}
	photoSkipWords   = []string{"skip", "пропустить"}
)

func validName(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	return name, utf8.RuneCountInString(name) >= minNameLength
}

func validPhone(raw string) (string, bool) {
	phone := strings.TrimSpace(raw)
	return phone, utf8.RuneCountInString(phone) >= minPhoneLength
}

func validDescription(raw string) (string, bool) {
	description := strings.TrimSpace(raw)
	return description, utf8.RuneCountInString(description) >= minDescriptionLength
}

func validPrice(raw string) (domain.Money, bool) {
	price, err := domain.ParseMoney(raw)
	return price, err == nil
}

func validQuantity(raw string) (int, bool) {
	quantity, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || quantity < 0 {
		return 0, false
	}
	return quantity, true
}

// isSkip reports whether raw is one of words, ignoring case and surrounding spaces.
func isSkip(raw string, words []string) bool {
	text := strings.TrimSpace(raw)
	for _, word := range words {
		if strings.EqualFold(text, word) {
			return true
		}
	}
	return false
}

// normalizeComment turns a skip word into an empty comment.
func normalizeComment(raw string) string {
	if isSkip(raw, commentSkipWords) {
		return ""
	}
	return strings.TrimSpace(raw)
}
