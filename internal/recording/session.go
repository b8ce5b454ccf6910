package recording

import (
	"sync"
	"time"

	"focuslens/internal/motion"
	"focuslens/internal/process"
)

// Options describes one capture request.
type Options struct {
	FPS                int
	CaptureSystemAudio bool
	CaptureMicrophone  bool
}

// Session is one in-progress recording. State changes go through
// transition so every caller gets the same guard behavior; the cursor
// buffer has a single writer (the sampler) and a single reader (stop).
type Session struct {
	ID        string
	ProjectID string
	Options   Options

	mu             sync.Mutex
	state          State
	startedAt      time.Time
	degradeMessage string
	cursorBuf      []motion.Sample

	handle *process.Handle
	stop   chan struct{} // closed exactly once on teardown
}

func newSession(id, projectID string, opts Options) *Session {
	return &Session{
		ID:        id,
		ProjectID: projectID,
		Options:   opts,
		state:     StateIdle,
		stop:      make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StartedAt returns the capture start instant.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// DegradeMessage is non-empty when audio capture was dropped at start.
func (s *Session) DegradeMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degradeMessage
}

// transition applies a guarded state change.
func (s *Session) transition(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := guard(s.state, to); err != nil {
		return err
	}
	s.state = to
	return nil
}

// forceError marks the session failed regardless of guards; used by the
// supervisor when the process died underneath us.
func (s *Session) forceError() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped || s.state == StateError {
		return false
	}
	s.state = StateError
	return true
}

func (s *Session) markStarted(handle *process.Handle, degradeMessage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = handle
	s.degradeMessage = degradeMessage
	s.startedAt = time.Now()
	s.state = StateRecording
}

func (s *Session) appendSample(sample motion.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursorBuf = append(s.cursorBuf, sample)
}

// drainSamples hands the buffer to the stop path.
func (s *Session) drainSamples() []motion.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := s.cursorBuf
	s.cursorBuf = nil
	return buf
}

// closeLoops cancels the ticker and sampler. Safe to call more than once.
func (s *Session) closeLoops() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}
