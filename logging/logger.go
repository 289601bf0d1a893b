// Package logging adapts logrus to the runtime's Logger contract.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/getpup/tournament-runtime"
	"github.com/sirupsen/logrus"
)

// Formats accepted by Options.Format.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Options configures a Logger.
type Options struct {
	// Level is a logrus level name (default: info).
	Level string

	// Format is "json" (default) or "text".
	Format string

	// Output defaults to stderr.
	Output io.Writer
}

// Logger writes structured entries through logrus.
type Logger struct {
	entry *logrus.Entry
}

var _ tournament.Logger = (*Logger)(nil)

// New builds a logrus logger from opts.
func New(opts Options) (*Logger, error) {
	l := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	l.SetLevel(level)

	switch opts.Format {
	case "", FormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{})
	case FormatText:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	if opts.Output != nil {
		l.SetOutput(opts.Output)
	} else {
		l.SetOutput(os.Stderr)
	}

	return FromLogrus(l), nil
}

// FromLogrus wraps an existing logrus logger.
func FromLogrus(l *logrus.Logger) *Logger {
	return &Logger{entry: logrus.NewEntry(l)}
}

// With returns a logger that adds keyvals to every entry.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{entry: l.entry.WithFields(Fields(keyvals...))}
}

// Debug implements tournament.Logger.
func (l *Logger) Debug(ctx context.Context, msg string, keyvals ...any) {
	l.entry.WithContext(ctx).WithFields(Fields(keyvals...)).Debug(msg)
}

// Info implements tournament.Logger.
func (l *Logger) Info(ctx context.Context, msg string, keyvals ...any) {
	l.entry.WithContext(ctx).WithFields(Fields(keyvals...)).Info(msg)
}

// Error implements tournament.Logger.
func (l *Logger) Error(ctx context.Context, msg string, keyvals ...any) {
	l.entry.WithContext(ctx).WithFields(Fields(keyvals...)).Error(msg)
}

// Fields converts alternating key/value pairs to logrus fields. A trailing
// key without a value is logged under "!BADKEY". Errors are logged by message.
func Fields(keyvals ...any) logrus.Fields {
	fields := make(logrus.Fields, len(keyvals)/2+1)
	for i := 0; i < len(keyvals); i += 2 {
		if i+1 >= len(keyvals) {
			fields["!BADKEY"] = keyvals[i]
			break
		}

		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}

		value := keyvals[i+1]
		if err, ok := value.(error); ok && err != nil {
			value = err.Error()
		}
		fields[key] = value
	}
	return fields
}
