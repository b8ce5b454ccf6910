package export

import (
	"context"
	"sync"
	"time"

	"focuslens/internal/quality"
)

// Task is one export request with its own retry lineage. Tasks stay in the
// registry after reaching a terminal state so status polling keeps working.
type Task struct {
	ID        string
	ProjectID string
	Profile   Profile
	Retries   int
	CreatedAt time.Time

	mu             sync.Mutex
	state          State
	progress       int
	detail         string
	codecUsed      string
	fallbackUsed   bool
	lastError      error
	outputPath     string
	metrics        quality.Metrics
	qualityReasons []string
	done           chan struct{}
}

func newTask(id, projectID string, profile Profile, retries int) *Task {
	return &Task{
		ID:        id,
		ProjectID: projectID,
		Profile:   profile,
		Retries:   retries,
		CreatedAt: time.Now(),
		state:     StateQueued,
		done:      make(chan struct{}),
	}
}

// Wait blocks until the task reaches a terminal state or the context is
// cancelled. Waiting does not cancel the pipeline.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish releases waiters. Called exactly once after the terminal
// transition.
func (t *Task) finish() {
	close(t.done)
}

// State returns the current lifecycle phase.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Progress returns the last reported milestone percentage.
func (t *Task) Progress() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// Detail returns the last reported human-readable milestone.
func (t *Task) Detail() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.detail
}

// CodecUsed returns the codec that produced the output, once known.
func (t *Task) CodecUsed() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.codecUsed
}

// FallbackUsed reports whether the software retry produced the output.
func (t *Task) FallbackUsed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fallbackUsed
}

// LastError returns the terminal failure, if any.
func (t *Task) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastError
}

// OutputPath returns the produced file location after success.
func (t *Task) OutputPath() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outputPath
}

// QualityMetrics returns the post-encode measurements and any gate
// violations recorded with them.
func (t *Task) QualityMetrics() (quality.Metrics, []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.metrics, append([]string(nil), t.qualityReasons...)
}

// transition moves the task through a guarded state change.
func (t *Task) transition(to State) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := guard(t.state, to); err != nil {
		return err
	}
	t.state = to
	return nil
}

// advance records a milestone. Progress never moves backwards.
func (t *Task) advance(progress int, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if progress > t.progress {
		t.progress = progress
	}
	t.detail = detail
}

func (t *Task) markCodec(codec string, fallback bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.codecUsed = codec
	t.fallbackUsed = fallback
}

func (t *Task) markFailure(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastError = err
}

func (t *Task) markOutput(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outputPath = path
}

func (t *Task) markQuality(metrics quality.Metrics, reasons []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = metrics
	t.qualityReasons = append([]string(nil), reasons...)
}
