// Package logging routes zerolog output to a file, since the terminal
// belongs to the TUI.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures the global logger.
type Options struct {
	Path  string // log file, created if missing
	Level string // zerolog level name
	JSON  bool   // JSON lines instead of the console format
}

// Setup opens the log file and installs it as the global zerolog logger.
// The returned closer flushes and closes the file.
func Setup(opts Options) (io.Closer, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = New(f, opts.JSON)
	return f, nil
}

// New builds a timestamped logger writing to w.
func New(w io.Writer, json bool) zerolog.Logger {
	if !json {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.DateTime}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
