package lifecycle

// State represents a photo's position in the approval lifecycle
type State string

const (
	StatePending   State = "PENDING"
	StateConfirmed State = "CONFIRMED"
	StateReturned  State = "RETURNED"
)

var validStates = map[State]bool{
	StatePending:   true,
	StateConfirmed: true,
	StateReturned:  true,
}

var terminalStates = map[State]bool{
	StateReturned: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
