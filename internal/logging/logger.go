package logging

import (
	"context"
	"io"
	"log"
	"os"
	"sync"
)

type contextKey string

const loggerKey = contextKey("logger")

const defaultPrefix = "Gocyconv: "

var (
	defaultLogger     *log.Logger
	defaultLoggerOnce sync.Once
)

func DefaultLogger() *log.Logger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = NewLogger(os.Stderr, defaultPrefix, log.Lmsgprefix)
	})
	return defaultLogger
}

// NewLogger returns a logger writing to w. Nil w means stderr
func NewLogger(w io.Writer, prefix string, flag int) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	return log.New(w, prefix, flag)
}

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return log.New(io.Discard, defaultPrefix, 0)
}

func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored by WithLogger or DefaultLogger
func FromContext(ctx context.Context) *log.Logger {
	if logger, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return logger
	}
	return DefaultLogger()
}
