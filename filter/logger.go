package filter

import (
	"github.com/rs/zerolog"
	"github.com/torre76/clipper/logging"
)

// componentLogger returns l, or the shared filter component logger when l is nil.
func componentLogger(l *zerolog.Logger) *zerolog.Logger {
	if l != nil {
		return l
	}
	logger := logging.WithComponent("filter")
	return &logger
}
