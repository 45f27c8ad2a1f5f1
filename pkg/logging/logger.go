// Package logging provides levelled logging for the server and pool.
package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// Level represents a logging verbosity level.
type Level int

const (
	// LevelDebug emits all messages.
	LevelDebug Level = iota
	// LevelInfo emits INFO, WARN and ERROR messages.
	LevelInfo
	// LevelWarn emits WARN and ERROR messages.
	LevelWarn
	// LevelError emits only ERROR messages.
	LevelError
)

// ParseLevel converts a configuration string into a Level.
// Unknown values default to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger provides structured logging capabilities
// This abstraction allows swapping logging implementations
type Logger interface {
	// Error logs an error message
	Error(args ...interface{})

	// Errorf logs a formatted error message
	Errorf(format string, args ...interface{})

	// Warn logs a warning message
	Warn(args ...interface{})

	// Warnf logs a formatted warning message
	Warnf(format string, args ...interface{})

	// Info logs an informational message
	Info(args ...interface{})

	// Infof logs a formatted informational message
	Infof(format string, args ...interface{})

	// Debug logs a debug message
	Debug(args ...interface{})

	// Debugf logs a formatted debug message
	Debugf(format string, args ...interface{})
}

// defaultLogger implements Logger using Go's standard log package.
// The wrapped log.Logger serialises writes with its own mutex; the extra
// RWMutex guards only the level field.
type defaultLogger struct {
	errorLogger *log.Logger
	warnLogger  *log.Logger
	infoLogger  *log.Logger
	debugLogger *log.Logger
	mu          sync.RWMutex
	level       Level
}

// New creates a Logger that writes to stderr at the given minimum level.
func New(level Level) Logger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &defaultLogger{
		errorLogger: log.New(os.Stderr, "[ERROR] ", flags),
		warnLogger:  log.New(os.Stderr, "[WARN] ", flags),
		infoLogger:  log.New(os.Stderr, "[INFO] ", flags),
		debugLogger: log.New(os.Stderr, "[DEBUG] ", flags),
		level:       level,
	}
}

func (l *defaultLogger) enabled(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level <= level
}

// Error logs an error message
func (l *defaultLogger) Error(args ...interface{}) {
	if l.enabled(LevelError) {
		l.errorLogger.Output(2, fmt.Sprint(args...))
	}
}

// Errorf logs a formatted error message
func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(LevelError) {
		l.errorLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

// Warn logs a warning message
func (l *defaultLogger) Warn(args ...interface{}) {
	if l.enabled(LevelWarn) {
		l.warnLogger.Output(2, fmt.Sprint(args...))
	}
}

// Warnf logs a formatted warning message
func (l *defaultLogger) Warnf(format string, args ...interface{}) {
	if l.enabled(LevelWarn) {
		l.warnLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

// Info logs an informational message
func (l *defaultLogger) Info(args ...interface{}) {
	if l.enabled(LevelInfo) {
		l.infoLogger.Output(2, fmt.Sprint(args...))
	}
}

// Infof logs a formatted informational message
func (l *defaultLogger) Infof(format string, args ...interface{}) {
	if l.enabled(LevelInfo) {
		l.infoLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

// Debug logs a debug message
func (l *defaultLogger) Debug(args ...interface{}) {
	if l.enabled(LevelDebug) {
		l.debugLogger.Output(2, fmt.Sprint(args...))
	}
}

// Debugf logs a formatted debug message
func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(LevelDebug) {
		l.debugLogger.Output(2, fmt.Sprintf(format, args...))
	}
}
