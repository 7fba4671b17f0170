package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with structured error logging
type Logger struct {
	*logrus.Logger
}

// NewLogger creates a structured logger writing to stderr. format is "text"
// or "json"; level is any logrus level name.
func NewLogger(level, format string) (*Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)

	return &Logger{Logger: logger}, nil
}

// Discard returns a logger that drops everything. The TUI uses it while the
// alternate screen owns the terminal.
func Discard() *Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Logger{Logger: logger}
}

// LogError logs an error with structured context
func (l *Logger) LogError(err error, message string, fields ...logrus.Fields) {
	l.entryFor(err, fields).Error(message)
}

// LogWarn logs a warning with structured context
func (l *Logger) LogWarn(err error, message string, fields ...logrus.Fields) {
	l.entryFor(err, fields).Warn(message)
}

// WithError adds an error to subsequent log entries
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.entryFor(err, nil)
}

func (l *Logger) entryFor(err error, fields []logrus.Fields) *logrus.Entry {
	entry := l.Logger.WithError(err)

	if appErr, ok := As(err); ok {
		entry = entry.WithField("error_code", appErr.Code)
		for k, v := range appErr.Context {
			entry = entry.WithField(k, v)
		}
	}

	for _, field := range fields {
		entry = entry.WithFields(field)
	}
	return entry
}
