package recording

import (
	"fmt"

	"focuslens/internal/services"
)

// State is a recording session lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
	StateError     State = "error"
)

// Active reports whether the state still owns a live encoder process.
func (s State) Active() bool {
	return s == StateRecording || s == StatePaused
}

// guard validates a transition and returns the rejection error when the
// transition is not legal from the current state.
func guard(from, to State) error {
	ok := false
	switch to {
	case StateRecording:
		// start from Idle, resume from Paused
		ok = from == StateIdle || from == StatePaused
	case StatePaused:
		ok = from == StateRecording
	case StateStopped:
		ok = from.Active()
	case StateError:
		ok = from.Active()
	}
	if !ok {
		return services.Wrap(
			services.ErrPrecondition,
			"INVALID_RECORDING_STATE",
			fmt.Sprintf("cannot transition from %s to %s", from, to),
			"",
			nil,
		)
	}
	return nil
}
