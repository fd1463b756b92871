// Package clip plans and runs the encodes of marker pairs. Each pair is
// planned on its own: its speed and crop curves are compiled, encoder
// settings are derived from them, and the filter graph and ffmpeg command
// lines are assembled. Running a plan and merging finished clips are kept
// separate from planning so plans can be built concurrently.
package clip

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/torre76/clipper/curve"
	"github.com/torre76/clipper/expr"
	"github.com/torre76/clipper/ffmpeg"
	"github.com/torre76/clipper/filter"
	"github.com/torre76/clipper/logging"
	"github.com/torre76/clipper/settings"
)

// Public types (alphabetical)

// FilterScript is a filter graph too long for the command line. It is
// written to Dir/Name before the commands of its job run.
type FilterScript struct {
	Dir   string
	Name  string
	Graph string
}

// Job is the plan of one marker pair.
type Job struct {
	// Number is the 1-based marker pair number.
	Number   int
	Settings settings.Global
	Output   Output
	// Queued is false for pairs left out by --only or --except. They are
	// named so merges can find earlier outputs, never encoded.
	Queued bool

	// Start and End are the delayed trim points in source seconds.
	Start        float64
	End          float64
	Variable     bool
	AverageSpeed float64
	Speed        filter.SpeedResult
	Crop         filter.CropResult
	Encode       filter.EncodeSettings
	Factors      filter.BitrateFactors
	// MinterpFPS is the interpolation target, "" without interpolation.
	MinterpFPS string
	Audio      bool
	Dedupe     bool

	// VideoFilter is the graph of the final encode.
	VideoFilter string
	AudioFilter string
	Commands    []ffmpeg.Command
	Scripts     []FilterScript
	// Dirs are created before Commands run.
	Dirs []string

	// Err is set when the pair could not be planned. Other pairs are not
	// affected.
	Err error
}

// Output names the file produced by a marker pair or a merge.
type Output struct {
	Stem   string
	Name   string
	Path   string
	Exists bool
}

// Planner plans the marker pairs of one markers file against one source.
type Planner struct {
	global  settings.Global
	markers settings.Markers
	source  Source
	scaler  settings.Scaler
	tools   ffmpeg.ExecutablePaths

	fileExists func(path string) bool
}

// Source describes the probed input video.
type Source struct {
	Path      string
	Width     int
	Height    int
	FrameRate curve.FrameRate
	// BitRate in kbps, 0 when unknown.
	BitRate int
	HDR     bool
}

// Public variables (alphabetical)

// ErrInvalidPair is returned for marker pairs that cannot be encoded as
// given.
var ErrInvalidPair = errors.New("clip: invalid marker pair")

// Public functions (alphabetical)

// NewPlanner creates a planner. The top level settings of the markers file
// are applied over global, and fields the user left empty are filled from
// the markers file and the source.
func NewPlanner(global settings.Global, markers settings.Markers, source Source, tools ffmpeg.ExecutablePaths) *Planner {
	g := settings.Effective(global, markers.Overrides)
	if g.TitleSuffix == "" {
		g.TitleSuffix = markers.TitleSuffix
	}
	if g.VideoTitle == "" {
		g.VideoTitle = markers.VideoTitle
	}
	if g.MergeList == "" {
		g.MergeList = markers.MergeList
	}
	if g.InputVideo == "" {
		g.InputVideo = source.Path
	}
	return &Planner{
		global:     g,
		markers:    markers,
		source:     source,
		scaler:     settings.NewScaler(g, markers, source.Width, source.Height),
		tools:      tools,
		fileExists: fileExists,
	}
}

// SourceFromProbe converts probed stream properties. HDR output is only
// meaningful when enableHDR is set, but the source transfer decides the
// zoom prescale and the bitrate factor.
func SourceFromProbe(info *ffmpeg.VideoInfo) (Source, error) {
	fps, err := curve.ParseFrameRate(info.FrameRate)
	if err != nil {
		return Source{}, fmt.Errorf("clip: source frame rate: %w", err)
	}
	return Source{
		Path:      info.FilePath,
		Width:     info.Width,
		Height:    info.Height,
		FrameRate: fps,
		BitRate:   info.BitRate,
		HDR:       info.IsHDR(),
	}, nil
}

// Private functions (alphabetical)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// tempDir resolves the temp directory, relative paths being inside the
// clips directory.
func tempDir(g settings.Global) string {
	if filepath.IsAbs(g.TempDir) {
		return g.TempDir
	}
	return filepath.Join(g.ClipsDir, g.TempDir)
}

// Type methods (alphabetical)

// Global returns the run wide settings after the markers file was applied.
func (p *Planner) Global() settings.Global {
	return p.global
}

// Len returns the number of marker pairs.
func (p *Planner) Len() int {
	return len(p.markers.MarkerPairs)
}

// Name returns the output of marker pair number.
func (p *Planner) Name(number int) Output {
	pair := p.markers.MarkerPairs[number-1]
	return p.name(number, settings.Effective(p.global, pair.Overrides))
}

// Plan compiles marker pair number into a job. Configuration errors are
// reported in Job.Err.
func (p *Planner) Plan(number int) *Job {
	pair := p.markers.MarkerPairs[number-1]
	g := settings.Effective(p.global, pair.Overrides)
	job := &Job{Number: number, Settings: g, Queued: true}

	if !g.Preview {
		job.Output = p.name(number, g)
		if job.Output.Exists && !g.Overwrite {
			return job
		}
	}

	logger := logging.WithMarkerPair("clip", number)
	if err := p.compile(job, pair, &logger); err != nil {
		job.Err = fmt.Errorf("marker pair %d: %w", number, err)
	}
	return job
}

// Skip returns the job of a pair that is not encoded in this run.
func (p *Planner) Skip(number int) *Job {
	pair := p.markers.MarkerPairs[number-1]
	g := settings.Effective(p.global, pair.Overrides)
	return &Job{Number: number, Settings: g, Output: p.name(number, g)}
}

func (p *Planner) compile(job *Job, pair settings.MarkerPair, logger *zerolog.Logger) error {
	g := job.Settings
	fps := p.source.FrameRate

	job.Start = pair.Start + g.Delay
	job.End = pair.End + g.Delay
	if !(job.End > job.Start) {
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidPair,
			expr.FormatNumber(pair.End), expr.FormatNumber(pair.Start))
	}
	duration := job.End - job.Start

	speedCurve, err := pair.SpeedCurve(g.EnableSpeedMaps)
	if err != nil {
		return fmt.Errorf("speed map: %w", err)
	}
	speedCurve = speedCurve.Shift(g.Delay)
	if job.Speed, err = filter.CompileSpeed(speedCurve, fps, duration); err != nil {
		return err
	}
	job.Variable = job.Speed.Variable
	job.AverageSpeed = filter.AverageSpeed(speedCurve)

	cropCurve, err := pair.CropCurve(p.scaler, g.EnableCropMaps)
	if err != nil {
		return fmt.Errorf("crop: %w", err)
	}
	cropCurve = cropCurve.Shift(g.Delay)
	job.Crop, err = filter.CompileCrop(cropCurve, fps, filter.CropOptions{
		Frame:  filter.Size{W: p.source.Width, H: p.source.Height},
		HDR:    p.source.HDR,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("crop map: %w", err)
	}

	mode, err := filter.ParseMinterpMode(g.MinterpMode)
	if err != nil {
		return err
	}
	target, interpolating := filter.MinterpFPS(mode, float64(g.MinterpFPS), &speedCurve, fps)
	if interpolating {
		job.MinterpFPS = target.String()
	}

	job.Encode, job.Factors = p.encodeSettings(job, g, target, interpolating)

	loop, err := g.LoopMode()
	if err != nil {
		return err
	}
	job.Audio = g.Audio && !job.Variable && loop == filter.LoopNone
	job.Dedupe = filter.ShouldDedupe(g.Dedupe, g.NoDedupe, interpolating, fps)
	if job.Dedupe {
		logger.Info().Msg("Duplicate frames will be removed")
	}

	graph := filter.Graph{
		Preview:     g.Preview,
		Start:       job.Start,
		End:         job.End,
		Duration:    duration,
		Crop:        job.Crop.Filter,
		Rotate:      g.Rotate,
		Deinterlace: g.Deinterlace,
		Dedupe:      job.Dedupe,
		Gamma:       &g.Gamma,
		Extra:       g.ExtraVideoFilters,
		Speed:       job.Speed.Filter,
		Loop:        loop,
	}
	if g.Denoise.Enabled {
		graph.Denoise = g.Denoise.LumaSpatial
	}
	switch loop {
	case filter.LoopForwardReverse:
		reverse, err := filter.CompileSpeed(filter.ReverseSpeedCurve(speedCurve), fps, duration)
		if err != nil {
			return err
		}
		graph.ReverseSpeed = reverse.Filter
	case filter.LoopFade:
		graph.FadeDuration = filter.ClampFadeDuration(g.FadeDuration, job.Speed.Duration)
	}
	if interpolating {
		graph.Minterp = filter.MinterpFilter(filter.MinterpOptions{
			Target:       target,
			Enable:       filter.MinterpEnable(speedCurve, job.Speed.Durations, target, fps),
			Enhancements: g.EnableMinterpEnhancements,
			SearchParam:  g.MinterpSearchParam,
		})
	}

	if job.Audio {
		job.AudioFilter = filter.AudioFilter(filter.Audio{
			Preview:  g.Preview,
			Start:    job.Start + g.AudioDelay,
			End:      job.End + g.AudioDelay,
			Duration: duration,
			Speed:    speedCurve.Point(0).Value,
			Fade:     g.AudioFade,
			Extra:    g.ExtraAudioFilters,
		})
	}

	if g.EnableHDR && g.VideoCodec == "vp8" {
		logger.Warn().Msg("HDR output was requested but vp8 does not support HDR")
	}
	logSettings(logger, job, loop)

	return p.buildCommands(job, graph, speedCurve.Point(0).Value)
}

// encodeSettings runs the bitrate heuristic and applies the user's choices
// over its results.
func (p *Planner) encodeSettings(job *Job, g settings.Global, target curve.FrameRate, interpolating bool) (filter.EncodeSettings, filter.BitrateFactors) {
	in := filter.HeuristicInput{
		CropArea:         float64(job.Crop.MaxBoundingSize.W) * float64(job.Crop.MaxBoundingSize.H),
		FrameArea:        float64(p.source.Width) * float64(p.source.Height),
		AverageSpeed:     job.AverageSpeed,
		SourceFPS:        p.source.FrameRate.Float(),
		HDR:              p.source.HDR,
		HardwareAccel:    ffmpeg.HardwareDevice(g.VideoCodec) != "",
		SourceBitrate:    float64(p.source.BitRate),
		TargetMaxBitrate: g.TargetMaxBitrate,
	}
	if interpolating {
		in.MinterpFPS = target.Float()
	}

	encode, factors := filter.Heuristic(in)
	if g.CRF >= 0 {
		encode = encode.WithCRF(g.CRF)
	}
	if g.EncodeSpeed >= 0 {
		encode.EncodeSpeed = g.EncodeSpeed
	}
	if g.TwoPass != nil {
		encode.TwoPass = *g.TwoPass
	}
	return encode, factors
}

func (p *Planner) name(number int, g settings.Global) Output {
	stem := fmt.Sprintf("%s-%d", g.TitleSuffix, number)
	if prefix := settings.CleanFileName(g.TitlePrefix); prefix != "" {
		stem = prefix + "-" + stem
	}
	name := stem + "." + ffmpeg.Container(g.VideoCodec)
	path := filepath.Join(g.ClipsDir, name)
	return Output{Stem: stem, Name: name, Path: path, Exists: p.fileExists(path)}
}

func logSettings(logger *zerolog.Logger, job *Job, loop filter.LoopMode) {
	g := job.Settings
	event := logger.Info().
		Str("title_prefix", g.TitlePrefix).
		Str("codec", g.VideoCodec).
		Int("crf", job.Encode.CRF).
		Int("target_max_bitrate", job.Encode.TargetMaxBitrate).
		Int("auto_target_max_bitrate", job.Encode.AutoTargetMaxBitrate).
		Float64("crop_factor", job.Factors.Crop).
		Float64("speed_factor", job.Factors.Speed).
		Bool("two_pass", job.Encode.TwoPass).
		Int("encode_speed", job.Encode.EncodeSpeed).
		Bool("hdr", g.EnableHDR).
		Bool("audio", job.Audio).
		Str("denoise", g.Denoise.Desc).
		Bool("variable_speed", job.Variable).
		Str("minterp_mode", g.MinterpMode).
		Str("minterp_fps", job.MinterpFPS).
		Str("loop", string(loop)).
		Float64("output_duration", job.Speed.Duration).
		Str("stabilization", g.Stabilization.Desc)
	if loop == filter.LoopFade {
		event = event.Float64("fade_duration", g.FadeDuration)
	}
	event.Msg("Marker pair settings")
}
