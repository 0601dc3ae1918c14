// Package logging provides a small leveled logger with an optional
// rotating file sink. Library packages stay quiet; only batch
// orchestration and the command layer log.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level orders log severities from most to least verbose.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

var levelNames = []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "OFF"}

// String returns the level's name.
func (l Level) String() string {
	if l < LevelTrace || l > LevelOff {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel converts a level name to a Level, ignoring case and
// surrounding whitespace.
func ParseLevel(name string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "OFF", "NONE":
		return LevelOff, nil
	}
	return LevelOff, fmt.Errorf("parselevel: unknown level %q", name)
}

// FileConfig configures the rotating file sink.
type FileConfig struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Console additionally mirrors every line to stdout.
	Console bool
}

// Logger writes timestamped, level-tagged lines to a sink. Safe for
// concurrent use.
type Logger struct {
	name string

	mu    sync.Mutex
	level Level
	out   io.Writer
}

// New returns a Logger named name writing to out at the given level.
// A nil out writes to stdout.
func New(name string, level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}
	return &Logger{name: name, level: level, out: out}
}

// NewFile returns a Logger writing to a size-rotated file described by
// cfg.
func NewFile(name string, level Level, cfg FileConfig) *Logger {
	sink := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	var out io.Writer = sink
	if cfg.Console {
		out = io.MultiWriter(sink, os.Stdout)
	}
	return &Logger{name: name, level: level, out: out}
}

// Discard returns a Logger that drops every message.
func Discard() *Logger {
	return &Logger{level: LevelOff, out: io.Discard}
}

// SetLevel changes the minimum level the logger writes.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the minimum level the logger writes.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Enabled reports whether a message at level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

// Tracef logs a formatted message at TRACE.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.logf(LevelTrace, format, args...)
}

// Debugf logs a formatted message at DEBUG.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logf(LevelDebug, format, args...)
}

// Infof logs a formatted message at INFO.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logf(LevelInfo, format, args...)
}

// Warnf logs a formatted message at WARN.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logf(LevelWarn, format, args...)
}

// Errorf logs a formatted message at ERROR.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logf(LevelError, format, args...)
}

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	timestamp := time.Now().Format("2006/01/02 15:04:05.000")
	message := fmt.Sprintf(format, args...)
	if l.name != "" {
		fmt.Fprintf(l.out, "%s %-5s %s: %s\n", timestamp, level, l.name,
			message)
	} else {
		fmt.Fprintf(l.out, "%s %-5s %s\n", timestamp, level, message)
	}
}
