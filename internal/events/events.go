package events

import (
	"context"
	"log/slog"
	"sync"

	"focuslens/internal/logging"
)

// Status keywords carried by progress events.
const (
	StatusQueued   = "queued"
	StatusRunning  = "running"
	StatusFallback = "fallback"
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusPaused   = "paused"
	StatusStopped  = "stopped"
	StatusError    = "error"
)

// RecordingStatus is one lifecycle notification for a capture session.
type RecordingStatus struct {
	SessionID string
	ProjectID string
	Status    string
	Detail    string
}

// ExportProgress is one milestone notification for an export task.
// Progress is 0-100 and non-decreasing over a task's lifetime.
type ExportProgress struct {
	TaskID    string
	ProjectID string
	Status    string
	Progress  int
	Detail    string
}

// Publisher receives events. Implementations must be safe for concurrent
// use and should never block for long; the state machines publish outside
// their locks but on their own goroutines.
type Publisher interface {
	PublishRecording(ctx context.Context, status RecordingStatus)
	PublishExport(ctx context.Context, progress ExportProgress)
}

// Bus fans events out to every registered publisher.
type Bus struct {
	mu         sync.RWMutex
	publishers []Publisher
}

// NewBus builds an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Register attaches a publisher. Nil publishers are ignored.
func (b *Bus) Register(p Publisher) {
	if p == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publishers = append(b.publishers, p)
}

func (b *Bus) PublishRecording(ctx context.Context, status RecordingStatus) {
	b.mu.RLock()
	targets := append([]Publisher(nil), b.publishers...)
	b.mu.RUnlock()
	for _, p := range targets {
		p.PublishRecording(ctx, status)
	}
}

func (b *Bus) PublishExport(ctx context.Context, progress ExportProgress) {
	b.mu.RLock()
	targets := append([]Publisher(nil), b.publishers...)
	b.mu.RUnlock()
	for _, p := range targets {
		p.PublishExport(ctx, progress)
	}
}

// LogPublisher mirrors every event into the structured log.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher builds a publisher writing to logger.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogPublisher{logger: logging.NewComponentLogger(logger, "events")}
}

func (l *LogPublisher) PublishRecording(ctx context.Context, status RecordingStatus) {
	l.logger.InfoContext(ctx, "recording status",
		logging.String(logging.FieldSessionID, status.SessionID),
		logging.String(logging.FieldProjectID, status.ProjectID),
		logging.String(logging.FieldState, status.Status),
		logging.String("detail", status.Detail),
	)
}

func (l *LogPublisher) PublishExport(ctx context.Context, progress ExportProgress) {
	l.logger.InfoContext(ctx, "export progress",
		logging.String(logging.FieldTaskID, progress.TaskID),
		logging.String(logging.FieldProjectID, progress.ProjectID),
		logging.String(logging.FieldState, progress.Status),
		logging.Int(logging.FieldProgress, progress.Progress),
		logging.String("detail", progress.Detail),
	)
}

// Collector retains every event it sees. Intended for tests and for the
// status command's in-process polling.
type Collector struct {
	mu         sync.Mutex
	recordings []RecordingStatus
	exports    []ExportProgress
}

// NewCollector builds an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) PublishRecording(_ context.Context, status RecordingStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordings = append(c.recordings, status)
}

func (c *Collector) PublishExport(_ context.Context, progress ExportProgress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exports = append(c.exports, progress)
}

// Recordings returns a copy of the recording events seen so far.
func (c *Collector) Recordings() []RecordingStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]RecordingStatus(nil), c.recordings...)
}

// Exports returns a copy of the export events seen so far.
func (c *Collector) Exports() []ExportProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ExportProgress(nil), c.exports...)
}
