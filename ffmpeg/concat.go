package ffmpeg

import (
	"os"
	"path/filepath"
	"strings"
)

// Public functions (alphabetical)

// ConcatArgs returns the arguments that join the files listed in listPath
// into output without re-encoding.
func ConcatArgs(listPath, output string, overwrite bool) []string {
	return []string{
		overwriteArg(overwrite),
		"-hide_banner",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		output,
	}
}

// ConcatList renders the concat demuxer input list for names, which are
// resolved relative to the list file.
func ConcatList(names []string) string {
	var b strings.Builder
	for _, name := range names {
		b.WriteString("file '")
		b.WriteString(EscapeSingleQuotes(name))
		b.WriteString("'\n")
	}
	return b.String()
}

// EscapeSingleQuotes escapes s for use inside a single quoted ffmpeg string.
func EscapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}

// WriteConcatList writes the input list of names to path.
func WriteConcatList(path string, names []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return FormatError("creating concat list directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(ConcatList(names)), 0o644); err != nil {
		return FormatError("writing concat list: %w", err)
	}
	return nil
}

// Private functions (alphabetical)

func overwriteArg(overwrite bool) string {
	if overwrite {
		return "-y"
	}
	return "-n"
}
