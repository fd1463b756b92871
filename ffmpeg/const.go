// Package ffmpeg wraps the external FFmpeg tools clipper drives. It detects
// the installation, probes source videos, builds encoder arguments, runs
// encode and concat commands and measures the bitrate of produced clips.
package ffmpeg

import (
	"fmt"
	"time"
)

// Private constants (alphabetical)
const (
	// defaultTimeout is the standard timeout for short FFmpeg operations such
	// as version detection and probing. Encodes are not bounded by it.
	defaultTimeout = 30 * time.Second

	// errorPrefix is used as a prefix for all error messages from this package.
	// This ensures consistent error formatting across the package.
	errorPrefix = "ffmpeg: "

	// trackTimescale is 2^4 * 3^2 * 5^2 * 7 * 11 * 13 * 23, divisible by
	// the timebases of the common frame rates.
	trackTimescale = "82882800"
)

// Public constants (alphabetical)
const (
	// DefaultProbeRetries is the number of ffprobe attempts before giving up.
	DefaultProbeRetries = 3

	// DefaultProbeRetryDelay is the pause between ffprobe attempts.
	DefaultProbeRetryDelay = 2 * time.Second

	// MaxInlineFilterLength is the longest filter graph passed on the command
	// line. Longer graphs are written to a filter script.
	MaxInlineFilterLength = 10000
)

// Public functions (alphabetical)

// FormatError creates a standardized error message with the package prefix.
// It ensures all errors from this package have a consistent format and can be
// easily identified as originating from the ffmpeg package.
func FormatError(format string, args ...interface{}) error {
	return fmt.Errorf(errorPrefix+format, args...)
}

// GetDefaultTimeout returns the standard timeout duration for FFmpeg operations.
// Applications can use this when creating contexts or setting command timeouts.
func GetDefaultTimeout() time.Duration {
	return defaultTimeout
}
