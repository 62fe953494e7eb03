package state

import "time"

// State represents a finite-state machine state.
type State string

const (
	// StateIdle indicates that the user has no dialog in progress.
	StateIdle State = "idle"

	// StateAddPlantName waits for the new plant name.
	StateAddPlantName State = "add_plant_name"
	// StateAddPlantDescription waits for the plant description.
	StateAddPlantDescription State = "add_plant_description"
	// StateAddPlantPrice waits for the plant price.
	StateAddPlantPrice State = "add_plant_price"
	// StateAddPlantQuantity waits for the number of units in stock.
	StateAddPlantQuantity State = "add_plant_quantity"
	// StateAddPlantPhoto waits for an optional photo.
	StateAddPlantPhoto State = "add_plant_photo"

	// StateBookingName waits for the customer's name.
	StateBookingName State = "booking_name"
	// StateBookingPhone waits for the customer's phone number.
	StateBookingPhone State = "booking_phone"
	// StateBookingComment waits for an optional comment.
	StateBookingComment State = "booking_comment"
)

// Dialog names the multi-step conversation a user is in.
type Dialog string

const (
	DialogAddPlant Dialog = "add_plant"
	DialogBooking  Dialog = "booking"
)

// Context keys shared by the dialogs.
const (
	KeyChatID      = "chat_id"
	KeyPlantID     = "plant_id"
	KeyName        = "name"
	KeyPhone       = "phone"
	KeyComment     = "comment"
	KeyDescription = "description"
	KeyPrice       = "price"
	KeyQuantity    = "quantity"
	KeyPhotoID     = "photo_id"
)

// UserState captures the in-progress dialog of a Telegram user.
type UserState struct {
	UserID       int64             `json:"user_id"`
	Dialog       Dialog            `json:"dialog"`
	CurrentState State             `json:"current_state"`
	Context      map[string]string `json:"context"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Value returns a collected field or an empty string.
func (s *UserState) Value(key string) string {
	if s == nil || s.Context == nil {
		return ""
	}
	return s.Context[key]
}

func (s *UserState) clone() *UserState {
	if s == nil {
		return nil
	}
	copied := *s
	copied.Context = make(map[string]string, len(s.Context))
	for k, v := range s.Context {
		copied.Context[k] = v
	}
	return &copied
}
