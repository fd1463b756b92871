package clip

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/torre76/clipper/ffmpeg"
	"github.com/torre76/clipper/logging"
	"github.com/torre76/clipper/settings"
)

// fakeRunner records commands instead of running ffmpeg.
type fakeRunner struct {
	mu       sync.Mutex
	commands []ffmpeg.Command
	err      error
	// inspect is called with each batch before returning.
	inspect func(commands []ffmpeg.Command)
}

func (f *fakeRunner) RunAll(_ context.Context, commands []ffmpeg.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, commands...)
	if f.inspect != nil {
		f.inspect(commands)
	}
	return f.err
}

// RunTestSuite tests job execution, concurrent planning and merges.
type RunTestSuite struct {
	suite.Suite
}

// SetupSuite silences the diagnostics logger.
func (s *RunTestSuite) SetupSuite() {
	logging.InitWithWriter(io.Discard, false, true)
}

// TestRun maps job states and runner errors to results.
func (s *RunTestSuite) TestRun() {
	dir := s.T().TempDir()
	p := newPlanner(func(g *settings.Global, _ *settings.Markers) {
		g.ClipsDir = dir
		g.ExtraVideoFilters = "null"
	})

	s.Run("generated", func() {
		runner := &fakeRunner{}
		res := Run(context.Background(), runner, p.Plan(1))
		assert.Equal(s.T(), StatusGenerated, res.Status)
		assert.Equal(s.T(), 1, res.Number)
		assert.NoError(s.T(), res.Err)
		require.Len(s.T(), runner.commands, 1)
		assert.Equal(s.T(), "encode", runner.commands[0].Label)
	})

	s.Run("failed", func() {
		runner := &fakeRunner{err: &ffmpeg.ExitError{Code: 2}}
		res := Run(context.Background(), runner, p.Plan(1))
		assert.Equal(s.T(), StatusFailed, res.Status)
		assert.Equal(s.T(), 2, res.Code)
		assert.Error(s.T(), res.Err)
	})

	s.Run("invalid", func() {
		runner := &fakeRunner{}
		res := Run(context.Background(), runner, &Job{Number: 3, Queued: true, Err: ErrInvalidPair})
		assert.Equal(s.T(), StatusInvalid, res.Status)
		assert.Equal(s.T(), -1, res.Code)
		assert.Empty(s.T(), runner.commands)
	})

	s.Run("excluded", func() {
		res := Run(context.Background(), &fakeRunner{}, p.Skip(2))
		assert.Equal(s.T(), StatusExcluded, res.Status)
		assert.Equal(s.T(), "my-markers-2.webm", res.Output.Name)
	})

	s.Run("skipped existing", func() {
		job := &Job{Number: 1, Queued: true, Output: Output{Exists: true}}
		res := Run(context.Background(), &fakeRunner{}, job)
		assert.Equal(s.T(), StatusSkippedExisting, res.Status)
		assert.Equal(s.T(), "skipped existing", res.Status.String())
	})
}

// TestRunWritesScripts creates directories and filter scripts before the
// commands run.
func (s *RunTestSuite) TestRunWritesScripts() {
	dir := s.T().TempDir()
	job := &Job{
		Number:   1,
		Queued:   true,
		Settings: settings.Global{ClipsDir: filepath.Join(dir, "clips")},
		Dirs:     []string{filepath.Join(dir, "clips", "shaky")},
		Scripts:  []FilterScript{{Dir: filepath.Join(dir, "clips", "temp"), Name: "vfilter-1-pass1.txt", Graph: "null"}},
		Commands: []ffmpeg.Command{{Label: "encode"}},
	}

	var seen bool
	runner := &fakeRunner{inspect: func([]ffmpeg.Command) {
		data, err := os.ReadFile(filepath.Join(dir, "clips", "temp", "vfilter-1-pass1.txt"))
		seen = err == nil && string(data) == "null"
	}}
	res := Run(context.Background(), runner, job)
	require.Equal(s.T(), StatusGenerated, res.Status)
	assert.True(s.T(), seen)
	assert.DirExists(s.T(), filepath.Join(dir, "clips", "shaky"))
}

// TestPlanAll plans queued pairs concurrently and names the rest.
func (s *RunTestSuite) TestPlanAll() {
	p := newPlanner(func(_ *settings.Global, m *settings.Markers) {
		m.MarkerPairs = append(m.MarkerPairs, settings.MarkerPair{Start: 5, End: 4, Speed: 1, Crop: "0:0:640:360"})
	})

	jobs, err := p.PlanAll(context.Background(), []int{0, 2}, 2)
	require.NoError(s.T(), err)
	require.Len(s.T(), jobs, 3)

	assert.True(s.T(), jobs[0].Queued)
	assert.NoError(s.T(), jobs[0].Err)
	assert.NotEmpty(s.T(), jobs[0].Commands)

	assert.False(s.T(), jobs[1].Queued)
	assert.Equal(s.T(), 2, jobs[1].Number)
	assert.Equal(s.T(), "my-markers-2.webm", jobs[1].Output.Name)
	assert.Empty(s.T(), jobs[1].Commands)

	assert.True(s.T(), jobs[2].Queued)
	assert.True(s.T(), errors.Is(jobs[2].Err, ErrInvalidPair))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.PlanAll(ctx, []int{0}, 1)
	assert.ErrorIs(s.T(), err, context.Canceled)
}

// TestMerges resolves merge lists against the pair results.
func (s *RunTestSuite) TestMerges() {
	prefix := "intro"
	p := newPlanner(func(g *settings.Global, m *settings.Markers) {
		g.MergeList = "1-2;2,3;1"
		m.MarkerPairs[0].Overrides.TitlePrefix = &prefix
		m.MarkerPairs[1].Overrides.TitlePrefix = &prefix
		m.MarkerPairs = append(m.MarkerPairs, settings.MarkerPair{Start: 30, End: 31, Speed: 1, Crop: "0:0:640:360"})
	})
	existing := map[string]bool{}
	p.fileExists = func(path string) bool { return existing[path] }

	results := []Result{
		{Number: 1, Status: StatusGenerated, Output: p.Name(1)},
		{Number: 2, Status: StatusExcluded, Output: p.Name(2)},
		{Number: 3, Status: StatusFailed, Output: p.Name(3)},
	}
	existing[results[0].Output.Path] = true
	existing[results[1].Output.Path] = true

	merges, err := p.PlanMerges(results)
	require.NoError(s.T(), err)
	require.Len(s.T(), merges, 3)

	assert.Equal(s.T(), "1-2", merges[0].Label)
	assert.NoError(s.T(), merges[0].Err)
	assert.Equal(s.T(), "intro-my-markers-(1-2).webm", merges[0].Output.Name)
	assert.Equal(s.T(), []string{"intro-my-markers-1.webm", "intro-my-markers-2.webm"}, merges[0].Inputs)
	assert.Equal(s.T(), filepath.Join("clips", "inputs.txt"), merges[0].ListPath)

	assert.True(s.T(), errors.Is(merges[1].Err, ErrMergeInput))
	assert.Equal(s.T(), "my-markers-(2,3).webm", merges[1].Output.Name)

	assert.NoError(s.T(), merges[2].Err)
	assert.Equal(s.T(), "intro-my-markers-(1).webm", merges[2].Output.Name)

	s.Run("missing pair", func() {
		p.global.MergeList = "4"
		merges, err := p.PlanMerges(results)
		require.NoError(s.T(), err)
		assert.True(s.T(), errors.Is(merges[0].Err, ErrMergeInput))
	})

	s.Run("malformed list", func() {
		p.global.MergeList = "a-b"
		_, err := p.PlanMerges(results)
		assert.Error(s.T(), err)
	})
}

// TestRunMerge writes the concat list and removes it afterwards.
func (s *RunTestSuite) TestRunMerge() {
	dir := s.T().TempDir()
	list := filepath.Join(dir, "inputs.txt")
	m := MergeJob{
		Label:    "1-2",
		Output:   Output{Name: "out.webm", Path: filepath.Join(dir, "out.webm")},
		ListPath: list,
		Inputs:   []string{"a-1.webm", "a-2.webm"},
	}

	var listed string
	runner := &fakeRunner{inspect: func([]ffmpeg.Command) {
		data, _ := os.ReadFile(list)
		listed = string(data)
	}}
	res := RunMerge(context.Background(), runner, m)
	assert.Equal(s.T(), StatusGenerated, res.Status)
	assert.Equal(s.T(), "1-2", res.Label)
	assert.Equal(s.T(), "file 'a-1.webm'\nfile 'a-2.webm'\n", listed)
	assert.NoFileExists(s.T(), list)
	require.Len(s.T(), runner.commands, 1)
	assert.Equal(s.T(), ffmpeg.ConcatArgs(list, m.Output.Path, true), runner.commands[0].Args)

	res = RunMerge(context.Background(), &fakeRunner{err: &ffmpeg.ExitError{Code: 1}}, m)
	assert.Equal(s.T(), StatusFailed, res.Status)
	assert.Equal(s.T(), 1, res.Code)

	res = RunMerge(context.Background(), &fakeRunner{}, MergeJob{Label: "3", Err: ErrMergeInput})
	assert.Equal(s.T(), StatusInvalid, res.Status)

	res = RunMerge(context.Background(), &fakeRunner{}, MergeJob{Label: "1", Output: Output{Exists: true}})
	assert.Equal(s.T(), StatusSkippedExisting, res.Status)
}

// TestRunSuite runs the execution test suite.
func TestRunSuite(t *testing.T) {
	suite.Run(t, new(RunTestSuite))
}
