// Package journal writes the monitor's append-only log file. Every record
// becomes one line prefixed with a bracketed ISO-8601 timestamp.
package journal

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// FileHandler is a slog.Handler appending to a file. The file is opened in
// append mode and closed again for every record, so no handle is held
// between writes.
type FileHandler struct {
	fs    afero.Fs
	path  string
	level slog.Leveler

	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*FileHandler)(nil)

// NewFileHandler creates the log directory if needed and returns a handler
// writing to path.
func NewFileHandler(fs afero.Fs, path string, level slog.Leveler) (*FileHandler, error) {
	if level == nil {
		level = slog.LevelInfo
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	return &FileHandler{
		fs:    fs,
		path:  path,
		level: level,
		mu:    &sync.Mutex{},
	}, nil
}

func (h *FileHandler) Path() string {
	return h.path
}

func (h *FileHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *FileHandler) Handle(_ context.Context, r slog.Record) error {
	line := h.format(r)

	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := h.fs.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("append log file: %w", err)
	}

	return f.Close()
}

func (h *FileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefixed := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		prefixed = append(prefixed, slog.Attr{Key: h.key(a.Key), Value: a.Value})
	}

	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), prefixed...)
	return &clone
}

func (h *FileHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func (h *FileHandler) key(k string) string {
	if len(h.groups) == 0 {
		return k
	}
	return strings.Join(h.groups, ".") + "." + k
}

func (h *FileHandler) format(r slog.Record) []byte {
	var buf bytes.Buffer

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	buf.WriteByte('[')
	buf.WriteString(ts.UTC().Format(timeFormat))
	buf.WriteString("] ")

	if r.Level != slog.LevelInfo {
		buf.WriteString(r.Level.String())
		buf.WriteByte(' ')
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		writeAttr(&buf, a.Key, a.Value)
	}

	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, h.key(a.Key), a.Value)
		return true
	})

	buf.WriteByte('\n')
	return buf.Bytes()
}

func writeAttr(buf *bytes.Buffer, key string, v slog.Value) {
	v = v.Resolve()

	if v.Kind() == slog.KindGroup {
		for _, a := range v.Group() {
			writeAttr(buf, key+"."+a.Key, a.Value)
		}
		return
	}

	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().Format(timeFormat)
	default:
		s = v.String()
	}

	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		s = strconv.Quote(s)
	}

	buf.WriteByte(' ')
	buf.WriteString(key)
	buf.WriteByte('=')
	buf.WriteString(s)
}
