package shop

import "errors"

var (
	// ErrPlantNotFound indicates that the plant identifier is not in the catalog.
	ErrPlantNotFound = errors.New("plant not found")
	// ErrSoldOut indicates that the plant has no units left to reserve.
	ErrSoldOut = errors.New("plant already booked")
	// ErrPlantHasBookings indicates that a plant cannot be deleted while bookings reference it.
	ErrPlantHasBookings = errors.New("plant has active bookings")
	// ErrBookingNotFound indicates that the booking does not exist (or was already rejected).
	ErrBookingNotFound = errors.New("booking not found")
	// ErrBookingAlreadyConfirmed indicates that a confirm request was a no-op.
	ErrBookingAlreadyConfirmed = errors.New("booking already confirmed")
)
