package export

import (
	"fmt"

	"focuslens/internal/services"
)

// State is the lifecycle phase of an export task.
type State string

const (
	StateQueued   State = "queued"
	StateRunning  State = "running"
	StateFallback State = "fallback"
	StateSuccess  State = "success"
	StateFailed   State = "failed"
)

// Active reports whether the task still holds its per-project slot.
func (s State) Active() bool {
	return s == StateQueued || s == StateRunning || s == StateFallback
}

// Terminal reports whether the task has finished for good.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailed
}

// guard validates a transition. Fallback is only reachable from Running,
// success from Running or Fallback, and a successful task can never be
// failed after the fact.
func guard(from, to State) error {
	legal := false
	switch to {
	case StateRunning:
		legal = from == StateQueued
	case StateFallback:
		legal = from == StateRunning
	case StateSuccess:
		legal = from == StateRunning || from == StateFallback
	case StateFailed:
		legal = from != StateSuccess && from != StateFailed
	}
	if !legal {
		return services.Wrap(
			services.ErrPrecondition,
			"INVALID_EXPORT_STATE",
			fmt.Sprintf("cannot transition export from %s to %s", from, to),
			"",
			nil,
		)
	}
	return nil
}
