package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// --------------------------------------------------------------------------
// Named Logger
// --------------------------------------------------------------------------

// Logger is a named logger with printf-style helpers. All loggers share one
// slog handler and one level variable, so SetLevel takes effect globally.
type Logger struct {
	name string
	s    *slog.Logger
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.s.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.s.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warningf(format string, args ...interface{}) {
	l.s.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.s.Error(fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Logger Registry
// --------------------------------------------------------------------------

var (
	level   slog.LevelVar
	mu      sync.Mutex
	loggers = map[string]*Logger{}
	handler slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: &level,
	})
)

// GetLogger returns the logger for the given package name. Loggers are
// cached, calling GetLogger twice with the same name returns the same
// instance.
func GetLogger(name string) *Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[name]; ok {
		return l
	}

	l := &Logger{
		name: name,
		s:    slog.New(handler).With("logger", name),
	}
	loggers[name] = l
	return l
}

// SetHandler replaces the shared slog handler. Existing loggers are rebuilt
// on top of the new handler.
func SetHandler(h slog.Handler) {
	mu.Lock()
	defer mu.Unlock()

	handler = h
	for name, l := range loggers {
		l.s = slog.New(handler).With("logger", name)
	}
}

// SetLevel sets the global log level from a string.
// Must be one of debug, info, warn(ing) or error.
func SetLevel(s string) error {
	l, err := ParseLevel(s)
	if err != nil {
		return err
	}
	level.Set(l)
	return nil
}

// ParseLevel converts a string level to a slog.Level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", s)
	}
}
