package logging

import (
	"context"
	"log/slog"

	"focuslens/internal/services"
)

// contextIDHandler lifts the session, task, and project identifiers carried
// by a context into log attributes. Services annotate contexts once at their
// entry points; everything below them logs with InfoContext and inherits the
// identifiers without threading them explicitly.
type contextIDHandler struct {
	inner slog.Handler
}

// WithContextIDs wraps a handler so records pick up identifiers from the
// logging context.
func WithContextIDs(inner slog.Handler) slog.Handler {
	return contextIDHandler{inner: inner}
}

func (h contextIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h contextIDHandler) Handle(ctx context.Context, record slog.Record) error {
	if id, ok := services.SessionIDFromContext(ctx); ok {
		record.AddAttrs(slog.String(FieldSessionID, id))
	}
	if id, ok := services.TaskIDFromContext(ctx); ok {
		record.AddAttrs(slog.String(FieldTaskID, id))
	}
	if id, ok := services.ProjectIDFromContext(ctx); ok {
		record.AddAttrs(slog.String(FieldProjectID, id))
	}
	return h.inner.Handle(ctx, record)
}

func (h contextIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextIDHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h contextIDHandler) WithGroup(name string) slog.Handler {
	return contextIDHandler{inner: h.inner.WithGroup(name)}
}
