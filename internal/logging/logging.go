// Package logging builds the zerolog loggers shared by every component.
// Components default to zerolog.Nop() and accept a logger at
// construction, so tests stay quiet without plumbing.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the root logger writing human-readable lines to w.
// Debug widens the level filter; everything else stays at info.
func New(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: true}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}

// ToFile opens path for appending and returns a logger writing JSON
// lines to it, plus the close func for the underlying file. The TUI
// uses this: it owns the terminal, so stderr is not available.
func ToFile(path string, debug bool) (zerolog.Logger, func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	lg := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return lg, f.Close, nil
}
