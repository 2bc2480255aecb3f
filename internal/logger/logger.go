// Package logger writes leveled log lines as JSON objects, one per line.
//
// A Logger carries a minimum level and an optional set of fields that are
// attached to every entry:
//
//	log := logger.Default().With(logger.Fields{"run_id": runID})
//	log.Info("Run completed", logger.Fields{"notified": 3})
//	log.Error("Notification failed", logger.Fields{"match_id": "400128082"}, err)
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is the severity of an entry.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var severity = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel parses a level name case-insensitively.
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	if level == "WARNING" {
		level = LevelWarn
	}
	if _, ok := severity[level]; !ok {
		return "", fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// Fields are the structured key/value pairs of an entry.
type Fields map[string]interface{}

// LogEntry is the JSON shape of one line.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Logger is safe for concurrent use. Loggers derived with With share the
// writer and its lock.
type Logger struct {
	min    Level
	mu     *sync.Mutex
	out    io.Writer
	fields Fields
}

var std = New(LevelInfo, os.Stdout)

// New returns a logger that drops entries below level.
func New(level Level, out io.Writer) *Logger {
	return &Logger{min: level, mu: &sync.Mutex{}, out: out}
}

// SetDefault replaces the logger behind the package-level functions.
func SetDefault(l *Logger) {
	std = l
}

// Default returns the logger behind the package-level functions.
func Default() *Logger {
	return std
}

// With returns a logger that adds fields to every entry. Fields passed to a
// single call take precedence.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{min: l.min, mu: l.mu, out: l.out, fields: merge(l.fields, fields)}
}

// Enabled reports whether entries at level are written.
func (l *Logger) Enabled(level Level) bool {
	return severity[level] >= severity[l.min]
}

func (l *Logger) Debug(message string, fields Fields) {
	l.write(LevelDebug, message, fields, nil)
}

func (l *Logger) Info(message string, fields Fields) {
	l.write(LevelInfo, message, fields, nil)
}

func (l *Logger) Warn(message string, fields Fields) {
	l.write(LevelWarn, message, fields, nil)
}

// Error logs message with err in the entry's error field. err may be nil.
func (l *Logger) Error(message string, fields Fields, err error) {
	l.write(LevelError, message, fields, err)
}

func (l *Logger) write(level Level, message string, fields Fields, err error) {
	if !l.Enabled(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   message,
		Fields:    merge(l.fields, fields),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	line, jsonErr := json.Marshal(entry)
	if jsonErr != nil {
		// Unencodable field values still leave a readable line.
		line = []byte(fmt.Sprintf("[%s] %s: %s (unencodable fields: %v)", entry.Timestamp, entry.Level, message, jsonErr))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(append(line, '\n'))
}

func merge(base, extra Fields) Fields {
	if len(base) == 0 {
		return extra
	}
	if len(extra) == 0 {
		return base
	}
	merged := make(Fields, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

func Debug(message string, fields Fields) { std.Debug(message, fields) }

func Info(message string, fields Fields) { std.Info(message, fields) }

func Warn(message string, fields Fields) { std.Warn(message, fields) }

func Error(message string, fields Fields, err error) { std.Error(message, fields, err) }
