package logging

import (
	"context"
	"log/slog"
	"time"
)

// Attr aliases slog.Attr so call sites do not import slog just for fields.
type Attr = slog.Attr

// Canonical field names shared across the codebase. Using these constants
// keeps log lines joinable across recording, export, and process components.
const (
	FieldComponent  = "component"
	FieldSessionID  = "session_id"
	FieldTaskID     = "task_id"
	FieldProjectID  = "project_id"
	FieldCodec      = "codec"
	FieldPID        = "pid"
	FieldState      = "state"
	FieldStage      = "stage"
	FieldProgress   = "progress"
	FieldDurationMS = "duration_ms"
	FieldPath       = "path"
	FieldError      = "error"
)

func String(key, value string) Attr { return slog.String(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func Uint64(key string, value uint64) Attr { return slog.Uint64(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Group(key string, attrs ...any) Attr { return slog.Group(key, attrs...) }

// Error tags the canonical error field; nil errors produce an empty value so
// callers do not need to branch.
func Error(err error) Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

// Args converts attrs to the variadic ...any form expected by slog methods.
func Args(attrs ...Attr) []any {
	out := make([]any, len(attrs))
	for i, attr := range attrs {
		out[i] = attr
	}
	return out
}

// NewNop returns a logger that discards everything. Handy for tests and for
// optional dependencies that must never be nil.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NoopHandler drops all records.
type NoopHandler struct{}

func (NoopHandler) Enabled(_ context.Context, _ slog.Level) bool  { return false }
func (NoopHandler) Handle(_ context.Context, _ slog.Record) error { return nil }
func (NoopHandler) WithAttrs(_ []slog.Attr) slog.Handler          { return NoopHandler{} }
func (NoopHandler) WithGroup(_ string) slog.Handler               { return NoopHandler{} }

// NewComponentLogger tags a child logger with the canonical component field.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(String(FieldComponent, component))
}
