// Package callback encodes inline button payloads as "<action>:<argument>".
package callback

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Separator  = ":"
	LimitBytes = 64
)

// Actions understood by the bot.
const (
	Catalog       = "catalog"
	Plant         = "plant"
	Book          = "book"
	Delete        = "delete"
	AdminAdd      = "admin_add"
	AdminBookings = "admin_bookings"
	Confirm       = "confirm"
	Reject        = "reject"
)

// Encode joins action and argument, enforcing Telegram's 64-byte callback data limit.
func Encode(action, argument string) (string, error) {
	if argument == "" {
		if len(action) > LimitBytes {
			return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", LimitBytes, len(action))
		}
		return action, nil
	}

	payload := action + Separator + argument
	if len(payload) > LimitBytes {
		return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", LimitBytes, len(payload))
	}

	return payload, nil
}

// MustEncode is Encode for payloads built from bounded identifiers (numeric plant IDs, UUIDs).
func MustEncode(action, argument string) string {
	payload, err := Encode(action, argument)
	if err != nil {
		panic(err)
	}
	return payload
}

// Decode splits callback data into its action and argument.
func Decode(data string) (action, argument string, err error) {
	if data == "" {
		return "", "", errors.New("callback data is empty")
	}

	idx := strings.Index(data, Separator)
	if idx == -1 {
		return data, "", nil
	}

	return data[:idx], data[idx+len(Separator):], nil
}
