// Package slogrecorder provides an in-memory slog.Handler for tests that
// assert on what a component narrated.
package slogrecorder

import (
	"context"
	"log/slog"
	"sync"
)

// Entry is a captured log record.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]slog.Value
}

// Recorder captures every record it handles. A zero value is not usable, use
// New.
type Recorder struct {
	mu      *sync.Mutex
	entries *[]Entry
	attrs   []slog.Attr
}

var _ slog.Handler = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{
		mu:      &sync.Mutex{},
		entries: &[]Entry{},
	}
}

// Logger returns a logger writing into the recorder.
func (r *Recorder) Logger() *slog.Logger {
	return slog.New(r)
}

func (r *Recorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	e := Entry{
		Level:   rec.Level,
		Message: rec.Message,
		Attrs:   make(map[string]slog.Value, rec.NumAttrs()+len(r.attrs)),
	}
	for _, a := range r.attrs {
		e.Attrs[a.Key] = a.Value
	}
	rec.Attrs(func(a slog.Attr) bool {
		e.Attrs[a.Key] = a.Value
		return true
	})

	r.mu.Lock()
	*r.entries = append(*r.entries, e)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Recorder{
		mu:      r.mu,
		entries: r.entries,
		attrs:   append(append([]slog.Attr{}, r.attrs...), attrs...),
	}
}

func (r *Recorder) WithGroup(string) slog.Handler { return r }

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), *r.entries...)
}

// Count returns how many records carry exactly msg.
func (r *Recorder) Count(msg string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Message == msg {
			n++
		}
	}
	return n
}

// Find returns the first record carrying msg.
func (r *Recorder) Find(msg string) (Entry, bool) {
	for _, e := range r.Entries() {
		if e.Message == msg {
			return e, true
		}
	}
	return Entry{}, false
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	*r.entries = (*r.entries)[:0]
	r.mu.Unlock()
}
