// Package logging configures the zerolog logger shared by the clipper
// packages. Diagnostics go to stderr through a console writer; the user
// facing run report is printed separately by the command.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Public functions (alphabetical)

// Init configures the global logger. Debug messages are only emitted when
// verbose is set.
func Init(verbose bool) {
	InitWithWriter(os.Stderr, verbose, false)
}

// InitWithWriter configures the global logger to write to out.
func InitWithWriter(out io.Writer, verbose, noColor bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// WithComponent creates a logger tagged with a component field.
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// WithMarkerPair creates a component logger that also carries the 1-based
// marker pair number.
func WithMarkerPair(component string, pair int) zerolog.Logger {
	return log.Logger.With().Str("component", component).Int("pair", pair).Logger()
}
