package clip

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/torre76/clipper/ffmpeg"
	"github.com/torre76/clipper/settings"
)

// Private constants (alphabetical)
const (
	concatListName = "inputs.txt"
)

// Public types (alphabetical)

// MergeJob concatenates finished clips without re-encoding.
type MergeJob struct {
	Label    string
	Output   Output
	ListPath string
	// Inputs are clip file names, relative to the list file.
	Inputs []string
	// Err is set when an input is missing or failed. The merge is reported
	// but not run.
	Err error
}

// Public variables (alphabetical)

// ErrMergeInput is returned for merges naming a marker pair without a clip.
var ErrMergeInput = errors.New("clip: merge input unavailable")

// Public functions (alphabetical)

// RunMerge writes the concat list of m, runs the concat and removes the
// list again.
func RunMerge(ctx context.Context, runner CommandRunner, m MergeJob) Result {
	res := Result{Label: m.Label, Output: m.Output}
	switch {
	case m.Err != nil:
		res.Status, res.Code, res.Err = StatusInvalid, -1, m.Err
		return res
	case len(m.Inputs) == 0 && m.Output.Exists:
		res.Status = StatusSkippedExisting
		return res
	}

	if err := ffmpeg.WriteConcatList(m.ListPath, m.Inputs); err != nil {
		res.Status, res.Code, res.Err = StatusFailed, -1, err
		return res
	}
	defer os.Remove(m.ListPath)

	cmd := ffmpeg.Command{
		Label: fmt.Sprintf("merge of marker pairs %s", m.Label),
		Args:  ffmpeg.ConcatArgs(m.ListPath, m.Output.Path, true),
	}
	if err := runner.RunAll(ctx, []ffmpeg.Command{cmd}); err != nil {
		res.Status, res.Code, res.Err = StatusFailed, ffmpeg.ExitCode(err), err
		return res
	}
	res.Status = StatusGenerated
	return res
}

// Type methods (alphabetical)

// PlanMerges resolves the merge list against the results of every marker
// pair, indexed by pair number minus one.
func (p *Planner) PlanMerges(results []Result) ([]MergeJob, error) {
	merges, err := settings.MergeLists(p.global.MergeList)
	if err != nil {
		return nil, err
	}

	jobs := make([]MergeJob, 0, len(merges))
	for _, m := range merges {
		job := MergeJob{Label: m.Label, ListPath: filepath.Join(p.global.ClipsDir, concatListName)}
		job.Output = p.mergeName(m)

		inputs := make([]string, 0, len(m.Pairs))
		for _, n := range m.Pairs {
			if n < 1 || n > len(results) {
				job.Err = fmt.Errorf("%w: marker pair %d does not exist", ErrMergeInput, n)
				break
			}
			r := results[n-1]
			if r.Status == StatusFailed || r.Status == StatusInvalid {
				job.Err = fmt.Errorf("%w: marker pair %d failed to generate", ErrMergeInput, n)
				break
			}
			if !p.fileExists(r.Output.Path) {
				job.Err = fmt.Errorf("%w: %s not found", ErrMergeInput, r.Output.Path)
				break
			}
			inputs = append(inputs, r.Output.Name)
		}
		if job.Err == nil && !(job.Output.Exists && !p.global.Overwrite) {
			job.Inputs = inputs
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// mergeName uses the title prefix shared by every merged pair, or no prefix
// when they differ.
func (p *Planner) mergeName(m settings.Merge) Output {
	prefix := ""
	for i, n := range m.Pairs {
		if n < 1 || n > p.Len() {
			prefix = ""
			break
		}
		pairPrefix := p.markers.MarkerPairs[n-1].TitlePrefix()
		if i == 0 {
			prefix = pairPrefix
		} else if pairPrefix != prefix {
			prefix = ""
			break
		}
	}

	stem := fmt.Sprintf("%s-(%s)", p.global.TitleSuffix, m.Label)
	if prefix = settings.CleanFileName(prefix); prefix != "" {
		stem = prefix + "-" + stem
	}
	name := stem + "." + ffmpeg.Container(p.global.VideoCodec)
	path := filepath.Join(p.global.ClipsDir, name)
	return Output{Stem: stem, Name: name, Path: path, Exists: p.fileExists(path)}
}
