package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

type jsonLogger struct {
	log *slog.Logger
}

// New returns a JSON logger writing to stdout at info level
func New(service string) Logger {
	return NewWithWriter(service, "info", os.Stdout)
}

// NewWithWriter returns a JSON logger for service writing to w.
// level is one of debug, info, error.
func NewWithWriter(service, level string, w io.Writer) Logger {
	hostname, _ := os.Hostname()

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	})

	return &jsonLogger{
		log: slog.New(h).With("service", service, "hostname", hostname),
	}
}

// Nop discards everything
func Nop() Logger {
	return &jsonLogger{log: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

func (l *jsonLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.emit(slog.LevelInfo, action, message, requestID, details, nil)
}

func (l *jsonLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.emit(slog.LevelDebug, action, message, requestID, details, nil)
}

func (l *jsonLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.emit(slog.LevelError, action, message, requestID, details, err)
}

func (l *jsonLogger) emit(level slog.Level, action, message, requestID string, details map[string]interface{}, err error) {
	ctx := context.Background()
	if !l.log.Enabled(ctx, level) {
		return
	}

	attrs := []slog.Attr{
		slog.String("action", action),
		slog.String("request_id", requestID),
	}
	if len(details) > 0 {
		attrs = append(attrs, slog.Any("details", details))
	}
	if err != nil {
		attrs = append(attrs, slog.Group("error", slog.String("msg", err.Error())))
	}

	l.log.LogAttrs(ctx, level, message, attrs...)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
