package ffmpeg

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/kballard/go-shellquote"

	"github.com/torre76/clipper/logging"
)

// Public types (alphabetical)

// Command is one ffmpeg invocation. Clips encoded in two passes or with
// stabilization produce several commands that must run in order.
type Command struct {
	// Label is shown while the command runs, for example "first pass".
	Label string
	// Path is the executable, the runner's ffmpeg when empty.
	Path string
	Args []string
}

// ExitError reports a command that ran but exited with a non-zero status.
type ExitError struct {
	Code int
	Err  error
}

// Runner executes ffmpeg commands.
type Runner struct {
	// Path is the ffmpeg executable.
	Path string
	// Stdout and Stderr receive the output of ffmpeg. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// Public functions (alphabetical)

// ExitCode returns the exit status carried by err, 0 for a nil error and
// -1 when the command could not be started.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

// NewRunner creates a Runner for the given FFmpeg installation.
func NewRunner(ffmpegInfo *FFmpegInfo) (*Runner, error) {
	if ffmpegInfo == nil || !ffmpegInfo.Installed {
		return nil, FormatError("FFmpeg is not installed")
	}
	return &Runner{Path: ffmpegInfo.Path, Stdout: os.Stdout, Stderr: os.Stderr}, nil
}

// Printable renders a command for logs. The values of -i are replaced by
// "..." so long input paths and URLs do not drown the filter arguments.
func Printable(path string, args []string) string {
	redacted := make([]string, 0, len(args)+1)
	redacted = append(redacted, path)
	for i := 0; i < len(args); i++ {
		redacted = append(redacted, args[i])
		if args[i] == "-i" && i+1 < len(args) {
			redacted = append(redacted, "...")
			i++
		}
	}
	return shellquote.Join(redacted...)
}

// SplitArgs splits user supplied extra arguments with shell quoting rules.
func SplitArgs(extra string) ([]string, error) {
	args, err := shellquote.Split(extra)
	if err != nil {
		return nil, FormatError("parsing extra arguments %q: %w", extra, err)
	}
	return args, nil
}

// WriteFilterScript writes graph to dir/name and returns the path, for use
// with -filter_script:v when the graph exceeds MaxInlineFilterLength.
func WriteFilterScript(dir, name, graph string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", FormatError("creating filter script directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(graph), 0o644); err != nil {
		return "", FormatError("writing filter script: %w", err)
	}
	return path, nil
}

// Type methods (alphabetical)

// Error implements the error interface.
func (e *ExitError) Error() string {
	return errorPrefix + "exited with code " + strconv.Itoa(e.Code)
}

// Run executes args with the runner's ffmpeg and waits for it to finish.
// A non-zero exit status is returned as an *ExitError.
func (r *Runner) Run(ctx context.Context, args []string) error {
	return r.run(ctx, r.Path, args)
}

// RunAll executes commands in order and stops at the first failure.
func (r *Runner) RunAll(ctx context.Context, commands []Command) error {
	logger := logging.WithComponent("ffmpeg")
	for _, c := range commands {
		path := c.Path
		if path == "" {
			path = r.Path
		}
		if c.Label != "" {
			logger.Info().Msgf("Running %s...", c.Label)
		}
		logger.Debug().Msgf("Using command: %s", Printable(path, c.Args))
		if err := r.run(ctx, path, c.Args); err != nil {
			return err
		}
	}
	return nil
}

// Unwrap returns the underlying process error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

func (r *Runner) run(ctx context.Context, path string, args []string) error {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Err: err}
	}
	return FormatError("running %s: %w", path, err)
}
