package upload

// State is a phase of the upload state machine.
type State int

const (
	StateDiscoveringOffset State = iota + 1
	StateTransmitting
	StateResynchronizing
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDiscoveringOffset:
		return "discovering offset"
	case StateTransmitting:
		return "transmitting"
	case StateResynchronizing:
		return "resynchronizing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
