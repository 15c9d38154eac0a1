package core

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger interface for structured logging
// Implementations can provide custom logging behavior. The default is
// backed by zerolog.
type Logger interface {
	// Debug logs a debug message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an info message with optional fields
	Info(msg string, fields ...Field)

	// Warn logs a warning message with optional fields
	Warn(msg string, fields ...Field)

	// Error logs an error message with optional fields
	Error(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// =============================================================================
// ZerologLogger
// =============================================================================

// ZerologLogger adapts a zerolog.Logger to Logger.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog.Logger.
func NewZerologLogger(zl zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{zl: zl}
}

// NewDefaultLogger returns a console zerolog logger writing to stderr at info level.
func NewDefaultLogger() *ZerologLogger {
	return NewConsoleLogger(os.Stderr, zerolog.InfoLevel)
}

// NewConsoleLogger returns a human readable zerolog logger writing to w.
func NewConsoleLogger(w io.Writer, level zerolog.Level) *ZerologLogger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	return NewZerologLogger(zerolog.New(out).Level(level).With().Timestamp().Logger())
}

func (l *ZerologLogger) Debug(msg string, fields ...Field) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *ZerologLogger) Info(msg string, fields ...Field) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *ZerologLogger) Warn(msg string, fields ...Field) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *ZerologLogger) Error(msg string, fields ...Field) {
	l.emit(l.zl.Error(), msg, fields)
}

// emit is a no-op when ev is nil (level disabled).
func (l *ZerologLogger) emit(ev *zerolog.Event, msg string, fields []Field) {
	if ev == nil {
		return
	}
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

// =============================================================================
// NoOpLogger
// =============================================================================

// NoOpLogger is a logger that discards all log messages
// Useful for tests or when logging is not desired
type NoOpLogger struct{}

// NewNoOpLogger creates a new NoOpLogger
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(msg string, fields ...Field) {}
func (l *NoOpLogger) Info(msg string, fields ...Field)  {}
func (l *NoOpLogger) Warn(msg string, fields ...Field)  {}
func (l *NoOpLogger) Error(msg string, fields ...Field) {}

// =============================================================================
// CapturingLogger
// =============================================================================

// LogEntry is one message recorded by CapturingLogger.
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
	Fields  []Field
}

// Field returns the value of the named field and whether it was present.
func (e LogEntry) Field(key string) (any, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// CapturingLogger records every entry so callers can assert on what was logged.
// It is safe for concurrent use.
type CapturingLogger struct {
	lock    sync.Mutex
	entries []LogEntry
}

// NewCapturingLogger creates an empty CapturingLogger.
func NewCapturingLogger() *CapturingLogger {
	return &CapturingLogger{}
}

func (l *CapturingLogger) Debug(msg string, fields ...Field) { l.append("DEBUG", msg, fields) }
func (l *CapturingLogger) Info(msg string, fields ...Field)  { l.append("INFO", msg, fields) }
func (l *CapturingLogger) Warn(msg string, fields ...Field)  { l.append("WARN", msg, fields) }
func (l *CapturingLogger) Error(msg string, fields ...Field) { l.append("ERROR", msg, fields) }

func (l *CapturingLogger) append(level, msg string, fields []Field) {
	e := LogEntry{
		Time:    time.Now(),
		Level:   level,
		Message: msg,
		Fields:  append([]Field(nil), fields...),
	}
	l.lock.Lock()
	l.entries = append(l.entries, e)
	l.lock.Unlock()
}

// Entries returns a copy of everything logged so far.
func (l *CapturingLogger) Entries() []LogEntry {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]LogEntry(nil), l.entries...)
}

// EntriesAt returns the entries logged at the given level ("DEBUG", "INFO", "WARN", "ERROR").
func (l *CapturingLogger) EntriesAt(level string) []LogEntry {
	var out []LogEntry
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many entries contain substr in their message.
func (l *CapturingLogger) Count(substr string) int {
	n := 0
	for _, e := range l.Entries() {
		if strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}

// Reset discards all captured entries.
func (l *CapturingLogger) Reset() {
	l.lock.Lock()
	l.entries = nil
	l.lock.Unlock()
}
