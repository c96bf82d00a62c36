package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Option customizes the logger built by New
type Option func(*options)

type options struct {
	output  io.Writer
	file    string
	service string
}

// WithOutput replaces stdout as the primary log destination
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithFile additionally writes logs to a size-rotated file
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithService tags every record with the emitting service name
func WithService(name string) Option {
	return func(o *options) { o.service = name }
}

// New creates a JSON structured logger for the given level.
// Unknown levels fall back to info.
func New(level string, opts ...Option) *slog.Logger {
	o := &options{output: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	w := o.output
	if o.file != "" {
		w = io.MultiWriter(o.output, &lumberjack.Logger{
			Filename:   o.file,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		})
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	log := slog.New(h)
	if o.service != "" {
		log = log.With("service", o.service)
	}
	return log
}

// ParseLevel maps debug, info, warn and error to slog levels
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything, handy in tests
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
