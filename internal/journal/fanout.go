package journal

import (
	"context"
	"errors"
	"log/slog"
)

// Fanout dispatches each record to every handler that accepts its level.
type Fanout struct {
	handlers []slog.Handler
}

var _ slog.Handler = (*Fanout)(nil)

func NewFanout(handlers ...slog.Handler) *Fanout {
	return &Fanout{handlers: handlers}
}

func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *Fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h.WithAttrs(attrs))
	}
	return &Fanout{handlers: handlers}
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h.WithGroup(name))
	}
	return &Fanout{handlers: handlers}
}
