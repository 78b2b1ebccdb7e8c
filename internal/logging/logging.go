// Package logging configures the shared slog logger and provides a limiter
// for reports that may repeat every audio block.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ParseLevel maps debug, info, warn and error (case-insensitive) to a level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
	}
}

// Setup builds a text logger writing to w and installs it as the default,
// so the standard log package routes through the same handler.
func Setup(level slog.Level, w io.Writer) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	})

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// Component returns logger tagged with the component name, falling back to
// the default logger.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}

	return logger.With("component", name)
}

// Limiter lets through at most one report per key per interval and counts
// what it held back.
type Limiter struct {
	interval time.Duration

	mu   sync.Mutex
	keys map[string]*window
}

type window struct {
	last       time.Time
	suppressed int
}

// NewLimiter returns a limiter with the given interval.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{interval: interval, keys: make(map[string]*window)}
}

// Allow reports whether a report for key may be emitted at now. When it
// may, suppressed is the number of reports dropped since the last one.
func (l *Limiter) Allow(key string, now time.Time) (ok bool, suppressed int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, seen := l.keys[key]
	if !seen {
		l.keys[key] = &window{last: now}
		return true, 0
	}

	if now.Sub(w.last) < l.interval {
		w.suppressed++
		return false, 0
	}

	suppressed = w.suppressed
	w.last = now
	w.suppressed = 0

	return true, suppressed
}

// Forget drops the state for key.
func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	delete(l.keys, key)
	l.mu.Unlock()
}
