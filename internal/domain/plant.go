package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Plant is a catalog item offered for reservation.
type Plant struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       Money     `json:"price"`
	Quantity    int       `json:"quantity"`
	PhotoID     string    `json:"photo_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Available reports whether the plant can be reserved right now.
func (p Plant) Available() bool {
	return p.Quantity > 0
}

// Validate checks the invariants of a persisted plant record.
func (p Plant) Validate() error {
	var errs []error
	if strings.TrimSpace(p.ID) == "" {
		errs = append(errs, errors.New("id is empty"))
	}
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, errors.New("name is empty"))
	}
	if p.Price <= 0 {
		errs = append(errs, fmt.Errorf("price %s is not positive", p.Price))
	}
	if p.Quantity < 0 {
		errs = append(errs, fmt.Errorf("quantity %d is negative", p.Quantity))
	}
	return errors.Join(errs...)
}

// PlantDraft holds the fields collected by the add-plant dialog.
type PlantDraft struct {
	Name        string
	Description string
	Price       Money
	Quantity    int
	PhotoID     string
}
