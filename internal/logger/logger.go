// Package logger builds the process logger.
//
// Logs always go to stderr: stdout carries the MCP protocol.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/image-features-mcp/internal/config"
)

// New returns a logger for cfg writing to stderr.
func New(cfg *config.Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter returns a logger for cfg writing to w. The console format
// renders human-readable lines without color; json writes one object per
// line.
func NewWithWriter(cfg *config.Config, w io.Writer) zerolog.Logger {
	if cfg.LogFormat != config.FormatJSON {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		Level(cfg.LogLevel).
		With().
		Timestamp().
		Str("service", "image-features-mcp").
		Logger()
}
