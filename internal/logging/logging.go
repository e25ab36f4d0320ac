// Package logging configures the process-wide zerolog logger and per-request child loggers.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs the global logger: a coloured console writer in DEV, JSON otherwise.
// An unknown level falls back to info.
func Setup(env, level string, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if strings.EqualFold(env, "DEV") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger
	return logger
}

// WithRequestID returns ctx carrying a child of the global logger tagged with requestID.
// zerolog.Ctx(ctx) returns it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	logger := log.Logger.With().Str("request_id", requestID).Logger()
	return logger.WithContext(ctx)
}
