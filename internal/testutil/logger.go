package testutil

import "sync"

// LogEntry is one captured log call.
type LogEntry struct {
	Level string
	Msg   string
	Args  []any
}

// RecordingLogger captures log calls for assertions. Safe for concurrent use.
type RecordingLogger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

func NewRecordingLogger() *RecordingLogger { return &RecordingLogger{} }

func (l *RecordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *RecordingLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args) }
func (l *RecordingLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args) }
func (l *RecordingLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args) }
func (l *RecordingLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args) }

// Warnings returns the captured WARN entries.
func (l *RecordingLogger) Warnings() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range l.Entries {
		if e.Level == "WARN" {
			out = append(out, e)
		}
	}
	return out
}
