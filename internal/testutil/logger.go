package testutil

import (
	"sync"

	"postify/internal/postify"
)

// LogEntry is one call recorded by RecordingLogger.
type LogEntry struct {
	Level   string
	Message string
	Args    []any
}

// RecordingLogger is a postify.Logger that keeps every call for inspection.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ postify.Logger = (*RecordingLogger)(nil)

func (l *RecordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Message: msg, Args: args})
}

func (l *RecordingLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args) }
func (l *RecordingLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args) }
func (l *RecordingLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args) }
func (l *RecordingLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args) }

// Find returns the first entry with the given message.
func (l *RecordingLogger) Find(msg string) (LogEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.Message == msg {
			return e, true
		}
	}
	return LogEntry{}, false
}
