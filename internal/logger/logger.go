// Package logger configures the process-wide zerolog logger. Log output goes to
// stderr by default because stdout carries the event stream.
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for the base logger.
type Config struct {
	Level   string    // "debug", "info", ...; defaults to info
	Format  string    // "json" or "console"; defaults to console
	Output  io.Writer // defaults to os.Stderr
	Service string
	Session string // attached to every entry when set
}

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Configure replaces the base logger.
func Configure(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}
	zerolog.TimeFieldFormat = time.RFC3339

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}
	if cfg.Format != "json" {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.Kitchen}
	}

	service := cfg.Service
	if service == "" {
		service = "feed-listener"
	}

	ctx := zerolog.New(writer).Level(level).With().Timestamp().Str("service", service)
	if cfg.Session != "" {
		ctx = ctx.Str("session", cfg.Session)
	}
	l := ctx.Logger()

	mu.Lock()
	base = l
	mu.Unlock()
	return l
}

// Base returns the configured base logger.
func Base() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// WithComponent returns a child logger annotated with the component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}
