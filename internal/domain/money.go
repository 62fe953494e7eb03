package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidPrice is returned when a price cannot be parsed into a positive amount.
var ErrInvalidPrice = errors.New("invalid price")

// Money stores an amount in minor units (cents).
type Money int64

// ParseMoney converts user input such as "15.50" or "15,5" into Money.
// Only digits with an optional decimal separator are accepted, at most two fractional digits,
// and the amount must be positive.
func ParseMoney(raw string) (Money, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.Replace(s, ",", ".", 1)

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, ErrInvalidPrice
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, fmt.Errorf("%w: not a decimal number", ErrInvalidPrice)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: more than two fractional digits", ErrInvalidPrice)
	}

	var units int64
	if whole != "" {
		var err error
		units, err = strconv.ParseInt(whole, 10, 64)
		if err != nil || units > math.MaxInt64/100 {
			return 0, fmt.Errorf("%w: too large", ErrInvalidPrice)
		}
	}

	var cents int64
	if frac != "" {
		cents, _ = strconv.ParseInt(frac, 10, 64)
		if len(frac) == 1 {
			cents *= 10
		}
	}

	total := units*100 + cents
	if total < units*100 {
		return 0, fmt.Errorf("%w: too large", ErrInvalidPrice)
	}
	if total <= 0 {
		return 0, fmt.Errorf("%w: must be positive", ErrInvalidPrice)
	}

	return Money(total), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String renders the amount with two fractional digits, e.g. "15.50".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
