// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the gateway's log output. Zero values fall back to info
// level JSON on stderr. Every entry carries an RFC 3339 "time" field.
type Config struct {
	Level  string // trace, debug, info, warn, error, fatal, panic or disabled
	Format string // json or console
	Caller bool
	Output io.Writer
}

var levels = map[string]zerolog.Level{
	"trace":    zerolog.TraceLevel,
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"fatal":    zerolog.FatalLevel,
	"panic":    zerolog.PanicLevel,
	"disabled": zerolog.Disabled,
}

var (
	mu     sync.RWMutex
	global zerolog.Logger
)

//nolint:gochecknoinits // logging must work before Init is called from main
func init() {
	Init(Config{})
}

// Init reconfigures the global logger. It is safe to call more than once,
// and tests call it to redirect output.
func Init(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	logCtx := zerolog.New(out).With().Timestamp()
	if cfg.Caller {
		logCtx = logCtx.Caller()
	}

	mu.Lock()
	global = logCtx.Logger()
	mu.Unlock()
}

// ParseLevel converts a level name to a zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l
	}
	return zerolog.InfoLevel
}

// ValidLevel reports whether ParseLevel recognises the name.
func ValidLevel(level string) bool {
	_, ok := levels[strings.ToLower(strings.TrimSpace(level))]
	return ok
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := global
	return &l
}

// With creates a child logger context from the global logger.
//
//	gwLogger := logging.With().Str("component", "gateway").Logger()
func With() zerolog.Context {
	return current().With()
}

// WithComponent returns a child logger tagged with a component field.
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}

// Debug starts a debug event on the global logger. The other level helpers
// below work the same way; Fatal exits the process after writing.
//
//	logging.Info().Str("conn_id", id).Msg("websocket client authenticated")
func Debug() *zerolog.Event { return current().Debug() }

// Info starts an info event.
func Info() *zerolog.Event { return current().Info() }

// Warn starts a warn event.
func Warn() *zerolog.Event { return current().Warn() }

// Error starts an error event.
func Error() *zerolog.Event { return current().Error() }

// Fatal starts a fatal event.
func Fatal() *zerolog.Event { return current().Fatal() }
