package logging

import (
	"io"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
)

// New returns a colored console logger writing to stderr. Verbose enables
// debug output.
func New(verbose bool) zerolog.Logger {
	return newLogger(zerolog.ConsoleWriter{Out: colorable.NewColorableStderr(), TimeFormat: time.RFC3339}, verbose)
}

// NewWithWriter returns an uncolored console logger writing to w.
func NewWithWriter(w io.Writer, verbose bool) zerolog.Logger {
	return newLogger(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}, verbose)
}

func newLogger(out zerolog.ConsoleWriter, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
