package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// BookingStatus is the lifecycle status of a booking. Rejected bookings are deleted.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
)

// Booking is a reservation request against a single plant.
type Booking struct {
	ID            string        `json:"id"`
	PlantID       string        `json:"plant_id"`
	PlantName     string        `json:"plant_name"`
	PlantPrice    Money         `json:"plant_price"`
	CustomerID    int64         `json:"customer_id"`
	ChatID        int64         `json:"chat_id"`
	CustomerName  string        `json:"customer_name"`
	CustomerPhone string        `json:"customer_phone"`
	Comment       string        `json:"comment"`
	Status        BookingStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	ExpiresAt     *time.Time    `json:"expires_at,omitempty"`
	ConfirmedAt   *time.Time    `json:"confirmed_at,omitempty"`
	ConfirmedBy   int64         `json:"confirmed_by,omitempty"`
}

// Expired reports whether a pending booking has passed its expiry time.
func (b Booking) Expired(now time.Time) bool {
	return b.Status == BookingPending && b.ExpiresAt != nil && !now.Before(*b.ExpiresAt)
}

// Validate checks the invariants of a persisted booking record.
func (b Booking) Validate() error {
	var errs []error
	if strings.TrimSpace(b.ID) == "" {
		errs = append(errs, errors.New("id is empty"))
	}
	if strings.TrimSpace(b.PlantID) == "" {
		errs = append(errs, errors.New("plant_id is empty"))
	}
	if strings.TrimSpace(b.CustomerName) == "" {
		errs = append(errs, errors.New("customer_name is empty"))
	}
	switch b.Status {
	case BookingPending, BookingConfirmed:
	default:
		errs = append(errs, fmt.Errorf("unknown status %q", b.Status))
	}
	return errors.Join(errs...)
}

// ReservationRequest carries the fields collected by the booking dialog.
type ReservationRequest struct {
	PlantID       string
	CustomerID    int64
	ChatID        int64
	CustomerName  string
	CustomerPhone string
	Comment       string
}
