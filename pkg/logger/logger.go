package logger

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Level represents the severity level of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	NoticeLevel
	ErrorLevel
)

var levelPrefixes = map[Level]string{
	DebugLevel:  "[DEBUG]  ",
	InfoLevel:   "[INFO]   ",
	NoticeLevel: "[NOTICE] ",
	ErrorLevel:  "[ERROR]  ",
}

var levelColors = map[Level]color.Attribute{
	DebugLevel:  color.FgWhite,
	InfoLevel:   color.FgHiGreen,
	NoticeLevel: color.FgYellow,
	ErrorLevel:  color.FgRed,
}

// ParseLevel converts a level name (debug, info, notice, error) to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "notice":
		return NoticeLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level: %s", name)
}

// Logger is a simple interface for logging messages.
type Logger interface {
	// Debug logs a debug message.
	Debug(format string, args ...interface{})

	// Info logs an informational message.
	Info(format string, args ...interface{})

	// Notice logs a notice message.
	Notice(format string, args ...interface{})

	// Error logs an error message.
	Error(format string, args ...interface{})

	// WithScope returns a logger that tags every message with the given scope,
	// e.g. a helper name or a signer address.
	WithScope(scope string) Logger
}

// EmptyLogger is a simple implementation of the Logger interface that does nothing.
type EmptyLogger struct{}

var _ Logger = (*EmptyLogger)(nil)

func (l *EmptyLogger) Debug(_ string, _ ...interface{})  {}
func (l *EmptyLogger) Info(_ string, _ ...interface{})   {}
func (l *EmptyLogger) Notice(_ string, _ ...interface{}) {}
func (l *EmptyLogger) Error(_ string, _ ...interface{})  {}
func (l *EmptyLogger) WithScope(_ string) Logger         { return l }

// StdLogger is a standard implementation of the Logger interface that logs messages to the console.
type StdLogger struct {
	enableColoring bool
	level          Level
	scope          string
	mu             *sync.Mutex
}

var _ Logger = (*StdLogger)(nil)

func NewStdLogger(enableColoring bool, level Level) *StdLogger {
	return &StdLogger{
		enableColoring: enableColoring,
		level:          level,
		mu:             &sync.Mutex{},
	}
}

// WithScope returns a child logger sharing the parent's output lock.
func (l *StdLogger) WithScope(scope string) Logger {
	if l.scope != "" {
		scope = l.scope + "/" + scope
	}
	return &StdLogger{
		enableColoring: l.enableColoring,
		level:          l.level,
		scope:          scope,
		mu:             l.mu,
	}
}

// formatMessage formats the log message with the level prefix, scope, and coloring if enabled.
func (l *StdLogger) formatMessage(level Level, format string) string {
	levelStr := levelPrefixes[level]
	if l.enableColoring {
		levelStr = color.New(levelColors[level]).Sprint(levelStr)
	}

	if l.scope != "" {
		return levelStr + "[" + l.scope + "] " + format
	}
	return levelStr + format
}

func (l *StdLogger) logf(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= level {
		log.Printf(l.formatMessage(level, format), args...)
	}
}

func (l *StdLogger) Debug(format string, args ...interface{}) {
	l.logf(DebugLevel, format, args...)
}

func (l *StdLogger) Info(format string, args ...interface{}) {
	l.logf(InfoLevel, format, args...)
}

func (l *StdLogger) Notice(format string, args ...interface{}) {
	l.logf(NoticeLevel, format, args...)
}

func (l *StdLogger) Error(format string, args ...interface{}) {
	l.logf(ErrorLevel, format, args...)
}
