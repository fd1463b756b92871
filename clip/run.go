package clip

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/torre76/clipper/ffmpeg"
)

// Public types (alphabetical)

// CommandRunner executes planned ffmpeg commands. *ffmpeg.Runner
// implements it.
type CommandRunner interface {
	RunAll(ctx context.Context, commands []ffmpeg.Command) error
}

// Result is the outcome of one marker pair or merge.
type Result struct {
	// Number is the marker pair number, 0 for merges.
	Number int
	// Label names merges, for example "1-3".
	Label  string
	Output Output
	Status Status
	// Code is the ffmpeg exit status of failed runs, -1 when ffmpeg could
	// not be started or the job failed before running it.
	Code int
	Err  error
}

// Status classifies a Result.
type Status int

// Public constants (alphabetical)

// Result statuses.
const (
	StatusGenerated Status = iota
	StatusFailed
	StatusSkippedExisting
	StatusExcluded
	StatusInvalid
)

// Public functions (alphabetical)

// Run executes the commands of job. Jobs that were not queued, failed to
// plan or whose output already exists are reported without running
// anything.
func Run(ctx context.Context, runner CommandRunner, job *Job) Result {
	res := Result{Number: job.Number, Output: job.Output}
	switch {
	case !job.Queued:
		res.Status = StatusExcluded
		return res
	case job.Err != nil:
		res.Status, res.Code, res.Err = StatusInvalid, -1, job.Err
		return res
	case len(job.Commands) == 0 && job.Output.Exists:
		res.Status = StatusSkippedExisting
		return res
	}

	if err := prepare(job); err != nil {
		res.Status, res.Code, res.Err = StatusFailed, -1, err
		return res
	}
	if err := runner.RunAll(ctx, job.Commands); err != nil {
		res.Status, res.Code, res.Err = StatusFailed, ffmpeg.ExitCode(err), err
		return res
	}
	res.Status = StatusGenerated
	return res
}

// Private functions (alphabetical)

// prepare creates the directories and filter scripts the commands of job
// expect.
func prepare(job *Job) error {
	if !job.Settings.Preview {
		if err := os.MkdirAll(job.Settings.ClipsDir, 0o755); err != nil {
			return err
		}
	}
	for _, dir := range job.Dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	for _, s := range job.Scripts {
		if _, err := ffmpeg.WriteFilterScript(s.Dir, s.Name, s.Graph); err != nil {
			return err
		}
	}
	return nil
}

// Type methods (alphabetical)

// PlanAll plans every marker pair concurrently, at most limit at a time
// when limit is positive. Pairs missing from queue are named but not
// planned. The jobs are returned in marker pair order; planning errors are
// carried by each job, so only context cancellation fails the call.
func (p *Planner) PlanAll(ctx context.Context, queue []int, limit int) ([]*Job, error) {
	queued := make(map[int]bool, len(queue))
	for _, i := range queue {
		queued[i] = true
	}

	jobs := make([]*Job, p.Len())
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range jobs {
		number := i + 1
		if !queued[i] {
			jobs[i] = p.Skip(number)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			jobs[number-1] = p.Plan(number)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// String returns the report wording of s.
func (s Status) String() string {
	switch s {
	case StatusGenerated:
		return "generated"
	case StatusFailed:
		return "failed"
	case StatusSkippedExisting:
		return "skipped existing"
	case StatusExcluded:
		return "excluded"
	case StatusInvalid:
		return "invalid"
	}
	return "unknown"
}
