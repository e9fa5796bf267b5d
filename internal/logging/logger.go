package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const (
	ctxKeyPanel ctxKey = "codecompanion/logging/panel"
	ctxKeyTurn  ctxKey = "codecompanion/logging/turn"
)

var logger = newLogger(os.Stderr)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Log returns the process-wide logger.
func Log() *logrus.Logger {
	return logger
}

// Configure applies the level ("debug", "info", ...) and format ("text" or "json").
func Configure(level, format string) error {
	if strings.TrimSpace(level) != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		logger.SetLevel(lvl)
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}

// SetOutput redirects the logger, mostly for tests.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// WithFields returns an entry with key/value pairs attached. Odd trailing keys are dropped.
func WithFields(kv ...any) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return logger.WithFields(fields)
}

// WithPanel stores the panel name in the context.
func WithPanel(ctx context.Context, panel string) context.Context {
	return context.WithValue(ctx, ctxKeyPanel, panel)
}

// WithTurn stores the chat turn identifier in the context.
func WithTurn(ctx context.Context, turn string) context.Context {
	return context.WithValue(ctx, ctxKeyTurn, turn)
}

// FromContext adds panel and turn fields when present.
func FromContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(logger)
	if ctx == nil {
		return entry
	}
	if panel, ok := ctx.Value(ctxKeyPanel).(string); ok && panel != "" {
		entry = entry.WithField("panel", panel)
	}
	if turn, ok := ctx.Value(ctxKeyTurn).(string); ok && turn != "" {
		entry = entry.WithField("turn", turn)
	}
	return entry
}
