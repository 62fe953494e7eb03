package state

// validTransitions lists the forward steps of each dialog. Any state may return to idle.
var validTransitions = map[State][]State{
	StateIdle: {
		StateAddPlantName,
		StateBookingName,
	},
	StateAddPlantName:        {StateAddPlantDescription},
	StateAddPlantDescription: {StateAddPlantPrice},
	StateAddPlantPrice:       {StateAddPlantQuantity},
	StateAddPlantQuantity:    {StateAddPlantPhoto},
	StateBookingName:         {StateBookingPhone},
	StateBookingPhone:        {StateBookingComment},
}

// firstStates maps each dialog to its entry state.
var firstStates = map[Dialog]State{
	DialogAddPlant: StateAddPlantName,
	DialogBooking:  StateBookingName,
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	if to == StateIdle {
		return true
	}

	for _, state := range validTransitions[from] {
		if state == to {
			return true
		}
	}

	return false
}

// FirstState returns the entry state of dialog.
func FirstState(dialog Dialog) (State, bool) {
	st, ok := firstStates[dialog]
	return st, ok
}
