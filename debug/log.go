package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes categorized, timestamped lines. A nil *Logger discards
// everything, so components can take one unconditionally.
type Logger struct {
	mu       sync.Mutex
	w        io.Writer
	closer   io.Closer
	counters map[string]int
	now      func() time.Time
}

// New returns a logger writing to w
func New(w io.Writer) *Logger {
	return &Logger{
		w:        w,
		counters: make(map[string]int),
		now:      time.Now,
	}
}

// Open starts debug logging to path, truncating any previous log
func Open(path string) (*Logger, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	l := New(f)
	l.closer = f
	l.Log("debug", "=== Debug logging started ===")
	return l, nil
}

// DefaultPath returns ~/.config/go-tracker/debug.log
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-tracker", "debug.log"), nil
}

// Close stops logging and closes the underlying file, if any
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.w = nil
	if l.closer != nil {
		err := l.closer.Close()
		l.closer = nil
		return err
	}
	return nil
}

// Log writes a message to the debug log
func (l *Logger) Log(category, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		return
	}

	ts := l.now().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.w, "[%s] %-10s %s\n", ts, category, msg)
	if f, ok := l.w.(*os.File); ok {
		f.Sync() // flush immediately so we see logs even on crash
	}
}

// LogEvery logs only every N calls (use for high-frequency events)
func (l *Logger) LogEvery(n int, category, format string, args ...any) {
	if l == nil || n <= 0 {
		return
	}
	l.mu.Lock()
	key := category + format
	l.counters[key]++
	count := l.counters[key]
	l.mu.Unlock()

	if count%n == 0 {
		l.Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
