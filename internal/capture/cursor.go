package capture

import (
	"time"

	"focuslens/internal/motion"
)

// CursorSource produces pointer positions for the recording sampler.
type CursorSource interface {
	// Position returns the current pointer coordinates. ok is false when
	// the source is temporarily unreadable; the sampler skips that tick.
	Position() (x, y float64, ok bool)
}

// NewCursorSource returns the live pointer source on platforms that expose
// one and a deterministic synthetic source everywhere else.
func NewCursorSource() CursorSource {
	return newPlatformCursorSource()
}

// syntheticCursorSource replays the deterministic stand-in trajectory keyed
// off wall-clock time since construction.
type syntheticCursorSource struct {
	start time.Time
}

func newSyntheticCursorSource() *syntheticCursorSource {
	return &syntheticCursorSource{start: time.Now()}
}

func (s *syntheticCursorSource) Position() (float64, float64, bool) {
	elapsed := time.Since(s.start)
	if elapsed < 0 {
		elapsed = 0
	}
	x, y := motion.SyntheticAt(uint64(elapsed.Milliseconds()))
	return x, y, true
}
