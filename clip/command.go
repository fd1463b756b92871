package clip

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/torre76/clipper/expr"
	"github.com/torre76/clipper/ffmpeg"
	"github.com/torre76/clipper/filter"
	"github.com/torre76/clipper/logging"
	"github.com/torre76/clipper/settings"
)

// Private constants (alphabetical)
const (
	detectEncodeSpeed = 5
	shakyDir          = "shaky"
	subsDir           = "subs"
)

// Private variables (alphabetical)

var subtitleExtensions = map[string]bool{".ass": true, ".srt": true, ".vtt": true}

// Private functions (alphabetical)

// asciiSafe reports whether path can be embedded in a vidstab filter
// option. vidstab does not accept quotes and mangles non-ASCII paths.
func asciiSafe(path string) bool {
	for _, r := range path {
		if r > unicode.MaxASCII || r == '\'' {
			return false
		}
	}
	return true
}

func constantBitrate(targetSize, duration float64) float64 {
	if targetSize <= 0 || duration <= 0 {
		return 0
	}
	return targetSize / duration
}

func formatSeconds(v float64) string {
	return expr.FormatNumber(v)
}

func overwriteFlag(overwrite bool) string {
	if overwrite {
		return "-y"
	}
	return "-n"
}

// Type methods (alphabetical)

// baseArgs returns the arguments shared by every encode of a job, up to and
// excluding the filter graph.
func (p *Planner) baseArgs(job *Job, codec ffmpeg.CodecArgs) ([]string, error) {
	g := job.Settings
	args := []string{"-hide_banner"}
	args = append(args, codec.Input...)
	args = append(args, "-ss", formatSeconds(job.Start), "-i", g.InputVideo, "-benchmark")
	args = append(args, codec.Video...)
	if job.Audio {
		args = append(args, "-af", job.AudioFilter)
		args = append(args, ffmpeg.AudioCodecArgs(g.VideoCodec)...)
	} else {
		args = append(args, "-an")
	}
	if g.RemoveMetadata || g.VideoTitle == "" {
		args = append(args, "-map_metadata", "-1")
	} else {
		args = append(args, "-metadata", "title="+g.VideoTitle)
	}
	args = append(args, codec.Output...)

	extra, err := ffmpeg.SplitArgs(g.ExtraFFmpegArgs)
	if err != nil {
		return nil, err
	}
	return append(args, extra...), nil
}

// buildCommands assembles the video graph and the commands of job. speed
// is the speed of the first control point, used by constant speed encodes.
func (p *Planner) buildCommands(job *Job, graph filter.Graph, speed float64) error {
	g := job.Settings

	if g.SubsFile != "" {
		subs, err := p.subtitles(job, g)
		if err != nil {
			return err
		}
		graph.Subtitles = filter.SubtitlesFilter(subs, g.SubsStyle)
	}

	if g.Preview {
		job.VideoFilter = filter.Assemble(graph)
		job.Commands = append(job.Commands, p.previewCommand(job))
		return nil
	}

	codec, err := ffmpeg.VideoCodecArgs(ffmpeg.EncodeSpec{
		Codec:                g.VideoCodec,
		CRF:                  job.Encode.CRF,
		QMin:                 job.Encode.QMin,
		QMax:                 job.Encode.QMax,
		TargetMaxBitrate:     job.Encode.TargetMaxBitrate,
		TargetSize:           g.TargetSize,
		ConstantBitrate:      constantBitrate(g.TargetSize, job.Speed.Duration),
		HDR:                  g.EnableHDR,
		FrameRate:            p.source.FrameRate.String(),
		KeyframeInterval:     job.AverageSpeed * p.source.FrameRate.Float(),
		MinterpFPS:           job.MinterpFPS,
		Speed:                speed,
		VariableSpeed:        job.Variable,
		Width:                job.Crop.MaxBoundingSize.W,
		Height:               job.Crop.MaxBoundingSize.H,
		DisableReduceStutter: g.H264DisableReduceStutter,
	})
	if err != nil {
		return err
	}
	base, err := p.baseArgs(job, codec)
	if err != nil {
		return err
	}

	if g.Stabilization.Enabled {
		return p.stabilizedCommands(job, graph, base)
	}

	job.VideoFilter = filter.Assemble(graph)
	if !job.Encode.TwoPass {
		args := p.filterArgs(job, job.VideoFilter, 1, base)
		args = append(args, overwriteFlag(g.Overwrite), "-speed", strconv.Itoa(job.Encode.EncodeSpeed), job.Output.Path)
		job.Commands = append(job.Commands, ffmpeg.Command{Label: "encode", Args: args})
		return nil
	}

	first := p.filterArgs(job, job.VideoFilter, 1, base)
	first = append(first, "-y", "-pass", "1", os.DevNull)
	second := p.filterArgs(job, job.VideoFilter, 2, base)
	second = append(second, overwriteFlag(g.Overwrite), "-speed", strconv.Itoa(job.Encode.EncodeSpeed), "-pass", "2", job.Output.Path)
	job.Commands = append(job.Commands,
		ffmpeg.Command{Label: "first pass", Args: first},
		ffmpeg.Command{Label: "second pass", Args: second},
	)
	return nil
}

// filterArgs appends the video graph to a copy of base, inline or through a
// filter script when it is too long for the command line.
func (p *Planner) filterArgs(job *Job, graph string, pass int, base []string) []string {
	args := append([]string(nil), base...)
	if device := ffmpeg.HardwareDevice(job.Settings.VideoCodec); device != "" {
		graph = filter.HardwareWrap(device, graph)
	}
	if len(graph) <= ffmpeg.MaxInlineFilterLength {
		return append(args, "-vf", graph)
	}

	dir := tempDir(job.Settings)
	name := fmt.Sprintf("vfilter-%d-pass%d.txt", job.Number, pass)
	job.Scripts = append(job.Scripts, FilterScript{Dir: dir, Name: name, Graph: graph})
	return append(args, "-filter_script:v", filepath.Join(dir, name))
}

func (p *Planner) previewCommand(job *Job) ffmpeg.Command {
	args := []string{
		"-hide_banner",
		"-ss", formatSeconds(job.Start),
		"-i", job.Settings.InputVideo,
		"-fs", "-sync", "video", "-fast", "-genpts", "-infbuf",
		"-loop", "0",
		"-vf", job.VideoFilter,
	}
	if job.Audio {
		args = append(args, "-af", job.AudioFilter)
	} else {
		args = append(args, "-an")
	}
	return ffmpeg.Command{Label: "preview", Path: p.tools.FFplay, Args: args}
}

// stabilizedCommands encodes a detection pass that writes the vidstab
// transforms, then the final encode applying them.
func (p *Planner) stabilizedCommands(job *Job, graph filter.Graph, base []string) error {
	g := job.Settings
	v := g.Stabilization.Vidstab()
	ext := filepath.Ext(job.Output.Name)

	shaky := filepath.Join(g.ClipsDir, shakyDir)
	trf := filepath.Join(shaky, job.Output.Stem+".trf")
	if !asciiSafe(trf) {
		sum := sha256.Sum256([]byte(g.TitleSuffix))
		dir := filepath.Join(tempDir(g), base64.RawURLEncoding.EncodeToString(sum[:9]), shakyDir)
		trf = filepath.Join(dir, strconv.Itoa(job.Number)+".trf")
		logger := logging.WithMarkerPair("clip", job.Number)
		logger.Warn().Str("path", trf).Msg("Clip path is not ASCII safe, writing stabilization data to the temp directory")
		job.Dirs = append(job.Dirs, dir)
	}
	job.Dirs = append(job.Dirs, shaky)

	detect := graph
	detect.Stabilize = filter.VidstabDetect(trf, v)
	detect.Minterp = ""
	detectArgs := p.filterArgs(job, filter.Assemble(detect), 1, base)
	detectArgs = append(detectArgs, "-y")
	if job.Encode.TwoPass {
		detectArgs = append(detectArgs, "-pass", "1")
	} else {
		detectArgs = append(detectArgs, "-speed", strconv.Itoa(detectEncodeSpeed))
	}
	detectArgs = append(detectArgs, filepath.Join(shaky, job.Output.Stem+"-shaky"+ext))

	transform := graph
	transform.Stabilize = filter.VidstabTransform(trf, v, g.StabilizationMaxAngle, g.StabilizationMaxShift, g.StabilizationZoom)
	job.VideoFilter = filter.Assemble(transform)
	transformArgs := p.filterArgs(job, job.VideoFilter, 2, base)
	transformArgs = append(transformArgs, overwriteFlag(g.Overwrite))
	if job.Encode.TwoPass {
		transformArgs = append(transformArgs, "-pass", "2")
	}
	transformArgs = append(transformArgs, "-speed", strconv.Itoa(job.Encode.EncodeSpeed), job.Output.Path)

	job.Commands = append(job.Commands,
		ffmpeg.Command{Label: "stabilization detection pass", Args: detectArgs},
		ffmpeg.Command{Label: "stabilized encode", Args: transformArgs},
	)
	return nil
}

// subtitles plans the trim of the subtitles file to the marker pair and
// returns the path to burn in. Previews keep source timestamps and read the
// file as is.
func (p *Planner) subtitles(job *Job, g settings.Global) (string, error) {
	ext := strings.ToLower(filepath.Ext(g.SubsFile))
	if !subtitleExtensions[ext] {
		return "", fmt.Errorf("%w: unsupported subtitles format %q, use .vtt, .srt or .ass", ErrInvalidPair, ext)
	}
	if g.Preview {
		return g.SubsFile, nil
	}

	dir := filepath.Join(g.ClipsDir, subsDir)
	out := filepath.Join(dir, fmt.Sprintf("%s-%d.vtt", g.TitleSuffix, job.Number))
	job.Dirs = append(job.Dirs, dir)
	job.Commands = append(job.Commands, ffmpeg.Command{
		Label: "subtitles trim",
		Args: []string{
			"-hide_banner", "-y",
			"-ss", formatSeconds(job.Start),
			"-to", formatSeconds(job.End),
			"-i", g.SubsFile,
			"-c:s", "webvtt",
			out,
		},
	})
	return out, nil
}
