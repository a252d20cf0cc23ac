package alog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// FileName is the log file written under the log directory.
	FileName = "aimless.log"

	maxSizeMB  = 10
	maxBackups = 5
	timeLayout = "2006-01-02 15:04:05"
	nameKey    = "logger"
)

// Logger wraps slog.Logger with convenience methods
type Logger struct {
	*slog.Logger
	closer io.Closer
}

// Options selects level and destination. Terminal wins over Dir.
type Options struct {
	Level    slog.Level
	Dir      string
	Terminal bool
}

// textHandler writes "time - name - LEVEL - message key=value" lines.
type textHandler struct {
	level slog.Level
	mu    *sync.Mutex
	out   io.Writer
	name  string
	attrs []slog.Attr
	group string
}

func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(ts.Format(timeLayout))
	b.WriteString(" - ")
	if h.name != "" {
		b.WriteString(h.name)
	} else {
		b.WriteString("aimless")
	}
	b.WriteString(" - ")
	b.WriteString(r.Level.String())
	b.WriteString(" - ")
	b.WriteString(r.Message)

	write := func(a slog.Attr) {
		if a.Equal(slog.Attr{}) {
			return
		}
		b.WriteString(" ")
		if h.group != "" {
			b.WriteString(h.group)
			b.WriteString(".")
		}
		b.WriteString(a.Key)
		b.WriteString("=")
		b.WriteString(a.Value.Resolve().String())
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(a)
		return true
	})
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = nil
	for _, a := range h.attrs {
		nh.attrs = append(nh.attrs, a)
	}
	for _, a := range attrs {
		if a.Key == nameKey {
			if nh.name != "" {
				nh.name = nh.name + "." + a.Value.String()
			} else {
				nh.name = a.Value.String()
			}
			continue
		}
		nh.attrs = append(nh.attrs, a)
	}
	return &nh
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	if nh.group != "" {
		nh.group = nh.group + "." + name
	} else {
		nh.group = name
	}
	return &nh
}

// NewLogger creates a new logger with the specified level and output
func NewLogger(level slog.Level, output io.Writer) *Logger {
	if output == nil {
		output = os.Stderr
	}
	return &Logger{
		Logger: slog.New(&textHandler{level: level, mu: &sync.Mutex{}, out: output}),
	}
}

// New builds a logger from opts. Without Terminal the output is a
// size-rotated file under Dir, defaulting to ~/.aimless.
func New(opts Options) (*Logger, error) {
	if opts.Terminal {
		return NewLogger(opts.Level, os.Stderr), nil
	}
	dir := opts.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".aimless")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %s: %w", dir, err)
	}
	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}
	l := NewLogger(opts.Level, file)
	l.closer = file
	return l, nil
}

// NewDefault creates a logger with INFO level on stderr
func NewDefault() *Logger {
	return NewLogger(slog.LevelInfo, os.Stderr)
}

// NewQuiet creates a logger with WARN level (suppresses info/debug)
func NewQuiet() *Logger {
	return NewLogger(slog.LevelWarn, os.Stderr)
}

// NewVerbose creates a logger with DEBUG level
func NewVerbose() *Logger {
	return NewLogger(slog.LevelDebug, os.Stderr)
}

// NewDiscard returns a logger that drops everything.
func NewDiscard() *Logger {
	return NewLogger(slog.LevelError+4, io.Discard)
}

// Named returns a child logger whose name is suffixed with name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.With(nameKey, name), closer: l.closer}
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// ParseLevel maps debug/info/warn/error to a slog level. Unknown values
// yield info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Fatal logs at ERROR level and exits with code 1
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	_ = l.Close()
	os.Exit(1)
}

// Fatalf formats and logs at ERROR level, then exits with code 1
func (l *Logger) Fatalf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
	_ = l.Close()
	os.Exit(1)
}
