package modeling

// State tracks one upload control: idle until a file is chosen, running
// while the pipeline works, then success or error until the next upload.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateSuccess
	StateError
)

// String returns the display label for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Busy reports whether an upload is in flight.
func (s State) Busy() bool {
	return s == StateRunning
}

// Finished maps a pipeline outcome to its terminal state.
func Finished(ok bool) State {
	if ok {
		return StateSuccess
	}
	return StateError
}
