package logs

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	INFO  Level = "INFO"
	WARN  Level = "WARN"
	ERROR Level = "ERROR"
	DEBUG Level = "DEBUG"
)

// zapLevel maps a Level to the corresponding zap level.
var zapLevel = map[Level]zapcore.Level{
	DEBUG: zapcore.DebugLevel,
	INFO:  zapcore.InfoLevel,
	WARN:  zapcore.WarnLevel,
	ERROR: zapcore.ErrorLevel,
}

// ParseLevel maps a config string ("debug", "info", ...) to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "debug":
		return DEBUG, nil
	case "info", "":
		return INFO, nil
	case "warn":
		return WARN, nil
	case "error":
		return ERROR, nil
	}
	return "", fmt.Errorf("unknown log level %q", s)
}

type Entry struct {
	TimeStamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
}

// Logger emits structured records through zap and keeps the most
// recent records in a bounded in-memory ring. The ring feeds the
// health analyzer; zap owns output formatting and level filtering.
type Logger struct {
	sugar *zap.SugaredLogger

	mu      sync.Mutex
	entries []Entry
	maxSize int
}

// NewLogger wraps zl with an in-memory ring of at most maxSize records.
func NewLogger(zl *zap.Logger, maxSize int) *Logger {
	return &Logger{
		sugar:   zl.Sugar(),
		entries: make([]Entry, 0, maxSize),
		maxSize: maxSize,
	}
}

// NewNop returns a logger that records to the ring but emits nothing.
// Intended for tests.
func NewNop(maxSize int) *Logger {
	return NewLogger(zap.NewNop(), maxSize)
}

// NewZap builds the process-wide zap logger: JSON records to stderr,
// filtered at the given level. Stderr keeps log output out of the
// interactive prompt stream.
func NewZap(level Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel[level])
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// log records the entry in the ring and forwards it to zap.
func (l *Logger) log(level Level, msg string, keysAndValues []any) {
	l.mu.Lock()
	if len(l.entries) >= l.maxSize {
		// remove oldest entry (ring behavior)
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, Entry{
		TimeStamp: time.Now(),
		Level:     level,
		Message:   msg,
	})
	l.mu.Unlock()

	l.sugar.Logw(zapLevel[level], msg, keysAndValues...)
}

func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.log(DEBUG, msg, keysAndValues)
}

func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.log(INFO, msg, keysAndValues)
}

func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.log(WARN, msg, keysAndValues)
}

func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.log(ERROR, msg, keysAndValues)
}

func (l *Logger) GetLast(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n > len(l.entries) {
		out := make([]Entry, len(l.entries))
		copy(out, l.entries)
		return out
	}

	start := len(l.entries) - n
	out := make([]Entry, n)
	copy(out, l.entries[start:])
	return out
}
