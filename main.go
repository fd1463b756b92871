// Package main provides the entry point for the clipper application.
// It reads the marker pairs exported by the clip editor and encodes each
// pair of a source video into a clip with ffmpeg, applying speed maps, crop
// maps and the configured filters, then merges the requested clips.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gertd/go-pluralize"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/torre76/clipper/clip"
	"github.com/torre76/clipper/ffmpeg"
	"github.com/torre76/clipper/filter"
	"github.com/torre76/clipper/logging"
	"github.com/torre76/clipper/settings"
)

// Private constants (alphabetical)
const (
	defaultsFile = "clipper.yaml"
)

// Private variables (alphabetical)

var (
	rotations   = map[string]bool{"": true, "0": true, "clock": true, "cclock": true}
	videoCodecs = map[string]bool{"vp9": true, "vp8": true, "h264": true, "h264_nvenc": true, "h264_vulkan": true}
)

// Public variables (alphabetical)

// BuildDate contains the date when the binary was built.
// This value is set during build using ldflags.
var BuildDate = "unknown"

// Commit contains the git commit hash that the binary was built from.
// This value is set during build using ldflags.
var Commit = "unknown"

// Version contains the current version of the application.
// This value can be overridden during build using ldflags:
// go build -ldflags="-X 'main.Version=v1.0.0'"
var Version = "Development Version"

// Private functions (alphabetical)

// appFlags returns the command line flags. Only flags the user sets are
// applied over the defaults file, see buildGlobal.
func appFlags() []cli.Flag {
	return []cli.Flag{
		// Inputs and outputs.
		&cli.StringFlag{Name: "markers-json", Aliases: []string{"j"}, Usage: "marker pairs JSON exported by the editor"},
		&cli.StringFlag{Name: "input-video", Aliases: []string{"i"}, Usage: "source video to clip"},
		&cli.StringFlag{Name: "defaults", Usage: "YAML file with default settings", Value: defaultsFile},
		&cli.StringFlag{Name: "ffmpeg", Usage: "path to the ffmpeg executable, detected when empty"},
		&cli.StringFlag{Name: "clips-dir", Usage: "directory receiving the clips"},
		&cli.StringFlag{Name: "temp-dir", Usage: "directory for intermediate files, relative to the clips directory"},
		&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "re-encode clips that already exist"},
		&cli.BoolFlag{Name: "preview", Aliases: []string{"p"}, Usage: "play marker pairs with ffplay instead of encoding them"},
		&cli.StringFlag{Name: "only", Aliases: []string{"o"}, Usage: "marker pairs to process, for example 1-3,5"},
		&cli.StringFlag{Name: "except", Aliases: []string{"e"}, Usage: "marker pairs to skip, for example 2,4-6"},
		&cli.StringFlag{Name: "marker-pairs-merge-list", Aliases: []string{"mpml"}, Usage: "marker pair lists to merge, separated by ;"},
		&cli.BoolFlag{Name: "remove-metadata", Aliases: []string{"rm"}, Usage: "do not copy metadata or set a title"},
		&cli.StringFlag{Name: "extra-ffmpeg-args", Aliases: []string{"efa"}, Usage: "extra arguments appended to every encode"},

		// Crop resolution scaling.
		&cli.Float64Flag{Name: "multiply-crop", Aliases: []string{"x"}, Usage: "multiply crop dimensions by this factor"},
		&cli.Float64Flag{Name: "multiply-crop-x", Aliases: []string{"mcx"}, Usage: "multiply crop x and width by this factor"},
		&cli.Float64Flag{Name: "multiply-crop-y", Aliases: []string{"mcy"}, Usage: "multiply crop y and height by this factor"},
		&cli.BoolFlag{Name: "no-auto-scale-crop-res", Aliases: []string{"nascr"}, Usage: "do not rescale crops drawn at another resolution"},

		// Timing.
		&cli.Float64Flag{Name: "delay", Aliases: []string{"d"}, Usage: "seconds added to every marker"},
		&cli.Float64Flag{Name: "audio-delay", Aliases: []string{"ad"}, Usage: "seconds added to the audio trim points"},
		&cli.BoolFlag{Name: "no-speed-maps", Aliases: []string{"nsm"}, Usage: "ignore speed maps and use the pair speed"},
		&cli.BoolFlag{Name: "no-crop-maps", Aliases: []string{"ncm"}, Usage: "ignore crop maps and use the pair crop"},

		// Encoding.
		&cli.StringFlag{Name: "video-codec", Aliases: []string{"vc"}, Usage: "vp9, vp8, h264, h264_nvenc or h264_vulkan"},
		&cli.IntFlag{Name: "crf", Aliases: []string{"q"}, Usage: "constant rate factor, chosen from the source bitrate when unset"},
		&cli.IntFlag{Name: "target-max-bitrate", Aliases: []string{"b"}, Usage: "maximum bitrate in kbps"},
		&cli.Float64Flag{Name: "target-size", Aliases: []string{"ts"}, Usage: "target clip size in MB, switches to constant bitrate"},
		&cli.BoolFlag{Name: "two-pass", Aliases: []string{"tp"}, Usage: "encode in two passes"},
		&cli.IntFlag{Name: "encode-speed", Aliases: []string{"s"}, Usage: "encoder speed, higher is faster"},
		&cli.BoolFlag{Name: "enable-hdr", Aliases: []string{"hdr"}, Usage: "keep HDR colorimetry in the output"},
		&cli.BoolFlag{Name: "h264-disable-reduce-stutter", Usage: "do not force the output frame rate of h264 encodes"},

		// Audio.
		&cli.BoolFlag{Name: "audio", Aliases: []string{"a"}, Usage: "keep audio for constant speed pairs without loops"},
		&cli.Float64Flag{Name: "audio-fade", Usage: "audio fade in and out duration in seconds"},
		&cli.StringFlag{Name: "extra-audio-filters", Aliases: []string{"eaf"}, Usage: "audio filters appended to the audio chain"},

		// Filters.
		&cli.StringFlag{Name: "rotate", Aliases: []string{"r"}, Usage: "clock or cclock"},
		&cli.BoolFlag{Name: "deinterlace", Aliases: []string{"di"}, Usage: "deinterlace with bwdif"},
		&cli.BoolFlag{Name: "remove-duplicate-frames", Aliases: []string{"rdf"}, Usage: "remove duplicate frames before the speed remap"},
		&cli.BoolFlag{Name: "no-remove-duplicate-frames", Aliases: []string{"nrdf"}, Usage: "never remove duplicate frames"},
		&cli.Float64Flag{Name: "gamma", Aliases: []string{"g"}, Usage: "gamma correction between 0 and 4"},
		&cli.IntFlag{Name: "denoise", Aliases: []string{"dn"}, Usage: "denoise strength from 0 to 5"},
		&cli.StringFlag{Name: "extra-video-filters", Aliases: []string{"evf"}, Usage: "video filters appended before the speed remap"},
		&cli.StringFlag{Name: "subs-file", Aliases: []string{"sf"}, Usage: "subtitles to burn in, .vtt, .srt or .ass"},
		&cli.StringFlag{Name: "subs-style", Aliases: []string{"ss"}, Usage: "ASS force_style of burnt in subtitles"},

		// Looping.
		&cli.StringFlag{Name: "loop", Aliases: []string{"l"}, Usage: "none, fwrev or fade"},
		&cli.Float64Flag{Name: "fade-duration", Aliases: []string{"fd"}, Usage: "crossfade duration of the fade loop"},

		// Motion interpolation.
		&cli.StringFlag{Name: "minterp-mode", Aliases: []string{"mm"}, Usage: "Numeric, MaxSpeed, MaxSpeedx2, VideoFPS, VideoFPSx2 or None"},
		&cli.IntFlag{Name: "minterp-fps", Aliases: []string{"mf"}, Usage: "interpolation frame rate of the Numeric mode"},
		&cli.IntFlag{Name: "minterp-search-parameter", Aliases: []string{"msp"}, Usage: "motion search range of minterpolate"},
		&cli.BoolFlag{Name: "enable-minterp-enhancements", Aliases: []string{"eme"}, Usage: "only interpolate where the speed needs it"},

		// Stabilization.
		&cli.IntFlag{Name: "video-stabilization", Aliases: []string{"vs"}, Usage: "stabilization strength from 0 to 6"},
		&cli.Float64Flag{Name: "video-stabilization-max-angle", Aliases: []string{"vsma"}, Usage: "maximum rotation in degrees, negative for no limit"},
		&cli.IntFlag{Name: "video-stabilization-max-shift", Aliases: []string{"vsms"}, Usage: "maximum shift in pixels, negative for no limit"},
		&cli.BoolFlag{Name: "video-stabilization-dynamic-zoom", Aliases: []string{"vsdz"}, Usage: "zoom in to hide stabilization borders"},

		// Run.
		&cli.IntFlag{Name: "jobs", Usage: "marker pairs planned concurrently", Value: runtime.NumCPU()},
		&cli.BoolFlag{Name: "measure-bitrate", Usage: "report the bitrate of every generated clip"},
		&cli.BoolFlag{Name: "verbose", Usage: "log debug messages and show ffmpeg output"},
	}
}

// buildGlobal loads the defaults file and applies the flags the user set.
func buildGlobal(c *cli.Context) (settings.Global, error) {
	g, err := settings.LoadDefaults(c.String("defaults"))
	if err != nil {
		return g, err
	}

	set(c, "markers-json", c.String, &g.MarkersJSON)
	set(c, "input-video", c.String, &g.InputVideo)
	set(c, "clips-dir", c.String, &g.ClipsDir)
	set(c, "temp-dir", c.String, &g.TempDir)
	set(c, "overwrite", c.Bool, &g.Overwrite)
	set(c, "preview", c.Bool, &g.Preview)
	set(c, "only", c.String, &g.Only)
	set(c, "except", c.String, &g.Except)
	set(c, "marker-pairs-merge-list", c.String, &g.MergeList)
	set(c, "remove-metadata", c.Bool, &g.RemoveMetadata)
	set(c, "extra-ffmpeg-args", c.String, &g.ExtraFFmpegArgs)

	set(c, "multiply-crop", c.Float64, &g.CropMultipleX)
	set(c, "multiply-crop", c.Float64, &g.CropMultipleY)
	set(c, "multiply-crop-x", c.Float64, &g.CropMultipleX)
	set(c, "multiply-crop-y", c.Float64, &g.CropMultipleY)
	set(c, "no-auto-scale-crop-res", c.Bool, &g.NoAutoScaleCropRes)

	set(c, "delay", c.Float64, &g.Delay)
	set(c, "audio-delay", c.Float64, &g.AudioDelay)
	if c.Bool("no-speed-maps") {
		g.EnableSpeedMaps = false
	}
	if c.Bool("no-crop-maps") {
		g.EnableCropMaps = false
	}

	set(c, "video-codec", c.String, &g.VideoCodec)
	set(c, "crf", c.Int, &g.CRF)
	set(c, "target-max-bitrate", c.Int, &g.TargetMaxBitrate)
	set(c, "target-size", c.Float64, &g.TargetSize)
	if c.IsSet("two-pass") {
		twoPass := c.Bool("two-pass")
		g.TwoPass = &twoPass
	}
	set(c, "encode-speed", c.Int, &g.EncodeSpeed)
	set(c, "enable-hdr", c.Bool, &g.EnableHDR)
	set(c, "h264-disable-reduce-stutter", c.Bool, &g.H264DisableReduceStutter)

	set(c, "audio", c.Bool, &g.Audio)
	set(c, "audio-fade", c.Float64, &g.AudioFade)
	set(c, "extra-audio-filters", c.String, &g.ExtraAudioFilters)

	set(c, "rotate", c.String, &g.Rotate)
	set(c, "deinterlace", c.Bool, &g.Deinterlace)
	set(c, "remove-duplicate-frames", c.Bool, &g.Dedupe)
	set(c, "no-remove-duplicate-frames", c.Bool, &g.NoDedupe)
	set(c, "gamma", c.Float64, &g.Gamma)
	if c.IsSet("denoise") {
		g.Denoise = settings.DenoisePreset(c.Int("denoise"))
	}
	set(c, "extra-video-filters", c.String, &g.ExtraVideoFilters)
	set(c, "subs-file", c.String, &g.SubsFile)
	set(c, "subs-style", c.String, &g.SubsStyle)

	set(c, "loop", c.String, &g.Loop)
	set(c, "fade-duration", c.Float64, &g.FadeDuration)

	set(c, "minterp-mode", c.String, &g.MinterpMode)
	set(c, "minterp-fps", c.Int, &g.MinterpFPS)
	set(c, "minterp-search-parameter", c.Int, &g.MinterpSearchParam)
	set(c, "enable-minterp-enhancements", c.Bool, &g.EnableMinterpEnhancements)

	if c.IsSet("video-stabilization") {
		g.Stabilization = settings.StabilizationPreset(c.Int("video-stabilization"))
	}
	set(c, "video-stabilization-max-angle", c.Float64, &g.StabilizationMaxAngle)
	set(c, "video-stabilization-max-shift", c.Int, &g.StabilizationMaxShift)
	set(c, "video-stabilization-dynamic-zoom", c.Bool, &g.StabilizationZoom)

	return g, validateGlobal(g)
}

// clipCommand implements the default command which clips every queued
// marker pair and runs the merges.
func clipCommand(c *cli.Context) error {
	verbose := c.Bool("verbose")
	logging.Init(verbose)

	valueStyle := color.New(color.Bold)
	regularStyle := color.New(color.Reset)
	summaryStyle := color.New(color.FgCyan, color.Bold)

	g, err := buildGlobal(c)
	if err != nil {
		return err
	}
	markers, err := settings.LoadMarkers(g.MarkersJSON)
	if err != nil {
		return err
	}

	ffmpegInfo, err := ffmpeg.FindFFmpeg(c.String("ffmpeg"))
	if err != nil {
		return fmt.Errorf("error finding FFmpeg: %w", err)
	}
	if !ffmpegInfo.Installed {
		return fmt.Errorf("FFmpeg not found, install it or pass --ffmpeg")
	}
	regularStyle.Printf("🔧 Using FFmpeg at ")
	valueStyle.Printf("%s\n", ffmpegInfo.Path)
	regularStyle.Printf("🔖 FFmpeg version: ")
	valueStyle.Printf("%s\n\n", ffmpegInfo.Version)

	ctx := c.Context
	if !g.Preview {
		encoder := ffmpeg.Encoder(g.VideoCodec)
		ok, err := ffmpeg.HasEncoder(ctx, ffmpegInfo, encoder)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("FFmpeg at %s was built without the %s encoder", ffmpegInfo.Path, encoder)
		}
	}

	prober, err := ffmpeg.NewProber(ffmpegInfo)
	if err != nil {
		return fmt.Errorf("error creating prober: %w", err)
	}
	info, err := prober.Probe(ctx, g.InputVideo)
	if err != nil {
		return fmt.Errorf("error probing input video: %w", err)
	}
	source, err := clip.SourceFromProbe(info)
	if err != nil {
		return err
	}
	regularStyle.Printf("🎬 Working on: ")
	valueStyle.Printf("%s\n\n", info)

	planner := clip.NewPlanner(g, markers, source, *ffmpeg.GetExecutablePaths(ffmpegInfo.Path))
	global := planner.Global()
	queue, err := settings.Queue(planner.Len(), global.Only, global.Except)
	if err != nil {
		return err
	}
	printQueue(os.Stdout, queue, planner.Len())

	jobs, err := planner.PlanAll(ctx, queue, c.Int("jobs"))
	if err != nil {
		return err
	}

	runner, err := ffmpeg.NewRunner(ffmpegInfo)
	if err != nil {
		return err
	}
	if !verbose {
		runner.Stdout, runner.Stderr = nil, nil
	}

	bar := progressbar.NewOptions(len(queue),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Clipping"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
	results := make([]clip.Result, len(jobs))
	for i, job := range jobs {
		results[i] = clip.Run(ctx, runner, job)
		if job.Queued {
			_ = bar.Add(1)
		}
	}
	_ = bar.Finish()

	summaryStyle.Println("\n🎞️ MARKER PAIRS")
	regularStyle.Println("----------------")
	printResults(os.Stdout, results)

	var merged []clip.Result
	if !global.Preview && global.MergeList != "" {
		merges, err := planner.PlanMerges(results)
		if err != nil {
			return err
		}
		for _, m := range merges {
			merged = append(merged, clip.RunMerge(ctx, runner, m))
		}
		summaryStyle.Println("\n🔗 MERGES")
		regularStyle.Println("----------------")
		printResults(os.Stdout, merged)
	}

	if c.Bool("measure-bitrate") && !global.Preview {
		if err := printBitrates(ctx, os.Stdout, ffmpegInfo, results); err != nil {
			return err
		}
	}

	failed := printSummary(os.Stdout, results, merged)
	if failed > 0 {
		return fmt.Errorf("%s failed", pluralize.NewClient().Pluralize("job", failed, true))
	}
	return nil
}

// describeResult renders the report line of one marker pair or merge, and
// whether it is an error line. Excluded pairs have no line.
func describeResult(r clip.Result) (string, bool) {
	subject := r.Output.Path
	if r.Label != "" {
		subject = fmt.Sprintf("merge of marker pairs %s to %s", r.Label, r.Output.Path)
	} else if subject == "" {
		subject = fmt.Sprintf("preview of marker pair %d", r.Number)
	}

	switch r.Status {
	case clip.StatusGenerated:
		if size, err := os.Stat(r.Output.Path); err == nil && r.Output.Path != "" {
			return fmt.Sprintf("Successfully generated: %s (%s)", subject, formatHumanReadableSize(int(size.Size()))), false
		}
		return "Successfully generated: " + subject, false
	case clip.StatusFailed:
		return fmt.Sprintf("Failed to generate: %s (error code %d)", subject, r.Code), true
	case clip.StatusSkippedExisting:
		return "Skipped existing file: " + subject, false
	case clip.StatusInvalid:
		return fmt.Sprintf("Skipped %s: %v", subject, r.Err), true
	}
	return "", false
}

// formatDuration formats seconds into a human-readable duration string
// such as "10.5 seconds" or "1 hour, 2 minutes and 13 seconds"
func formatDuration(seconds float64) string {
	// Return seconds with appropriate formatting if less than 60 seconds
	if seconds < 60 {
		if seconds == float64(int(seconds)) {
			return fmt.Sprintf("%d seconds", int(seconds))
		}
		return fmt.Sprintf("%.3f seconds", seconds)
	}

	duration := time.Duration(seconds * float64(time.Second))
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	secs := int(duration.Seconds()) % 60

	var parts []string
	if hours > 0 {
		if hours == 1 {
			parts = append(parts, "1 hour")
		} else {
			parts = append(parts, fmt.Sprintf("%d hours", hours))
		}
	}
	if minutes > 0 {
		if minutes == 1 {
			parts = append(parts, "1 minute")
		} else {
			parts = append(parts, fmt.Sprintf("%d minutes", minutes))
		}
	}
	if secs > 0 || (hours == 0 && minutes == 0) {
		if secs == 1 {
			parts = append(parts, "1 second")
		} else {
			parts = append(parts, fmt.Sprintf("%d seconds", secs))
		}
	}

	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	case 3:
		return parts[0] + ", " + parts[1] + " and " + parts[2]
	default:
		return fmt.Sprintf("%.3f seconds", seconds)
	}
}

// formatHumanReadableSize formats a size in bytes to a human-readable format
func formatHumanReadableSize(bytes int) string {
	const (
		_          = iota
		KB float64 = 1 << (10 * iota)
		MB
		GB
		TB
	)

	if bytes < 1000 {
		return fmt.Sprintf("%d bytes", bytes)
	} else if bytes < 1000*int(KB) {
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	} else if bytes < 1000*int(MB) {
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	} else if bytes < 1000*int(GB) {
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	}
	return fmt.Sprintf("%.2f TB", float64(bytes)/TB)
}

// formatWithThousandSeparators formats an integer with thousand separators.
// It takes an int64 value and returns a string with commas separating thousands.
func formatWithThousandSeparators(n int64) string {
	inStr := strconv.FormatInt(n, 10)

	// If the number is negative, handle the sign separately
	sign := ""
	if n < 0 {
		sign = "-"
		inStr = inStr[1:]
	}

	var result strings.Builder
	for i, c := range inStr {
		if i > 0 && (len(inStr)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}
	return sign + result.String()
}

// newApp creates the clipper command line application.
func newApp() *cli.App {
	return &cli.App{
		Name:  "clipper",
		Usage: "Encode marker pairs of a video into clips",
		Description: "clipper reads the marker pairs exported by the clip editor and encodes each " +
			"pair of the source video with ffmpeg, following its speed and crop maps.",
		Authors: []*cli.Author{
			{
				Name: "Gian Luca Dalla Torre",
			},
		},
		Version: Version,
		Action:  clipCommand,
		Flags:   appFlags(),
	}
}

// printBitrates measures every generated clip with ffprobe.
func printBitrates(ctx context.Context, w io.Writer, ffmpegInfo *ffmpeg.FFmpegInfo, results []clip.Result) error {
	summaryStyle := color.New(color.FgCyan, color.Bold)
	valueStyle := color.New(color.Bold)
	regularStyle := color.New(color.Reset)

	analyzer, err := ffmpeg.NewBitrateAnalyzer(ffmpegInfo)
	if err != nil {
		return err
	}
	summaryStyle.Fprintln(w, "\n📈 BITRATES")
	regularStyle.Fprintln(w, "----------------")
	for _, r := range results {
		if r.Status != clip.StatusGenerated || r.Output.Path == "" {
			continue
		}
		summary, err := analyzer.Summarize(ctx, r.Output.Path)
		if err != nil {
			return err
		}
		regularStyle.Fprintf(w, "%s: ", r.Output.Name)
		valueStyle.Fprintf(w, "%.2f Kbps", summary.AverageKbps())
		regularStyle.Fprintf(w, " over %s frames, %s\n",
			formatWithThousandSeparators(int64(summary.Frames)), formatDuration(summary.Duration))
	}
	return nil
}

// printQueue lists the marker pairs about to be processed.
func printQueue(w io.Writer, queue []int, total int) {
	summaryStyle := color.New(color.FgCyan, color.Bold)
	valueStyle := color.New(color.Bold)
	regularStyle := color.New(color.Reset)

	numbers := make([]string, len(queue))
	for i, q := range queue {
		numbers[i] = strconv.Itoa(q + 1)
	}
	summaryStyle.Fprintln(w, "📋 QUEUE")
	regularStyle.Fprintln(w, "----------------")
	regularStyle.Fprintf(w, "Processing the following set of marker pairs: ")
	valueStyle.Fprintf(w, "%s\n", strings.Join(numbers, ", "))
	regularStyle.Fprintf(w, "%d of %d\n", len(queue), total)
}

// printResults writes one report line per result.
func printResults(w io.Writer, results []clip.Result) {
	successStyle := color.New(color.FgGreen)
	errorStyle := color.New(color.FgRed)
	regularStyle := color.New(color.Reset)

	for _, r := range results {
		line, isError := describeResult(r)
		switch {
		case line == "":
		case isError:
			errorStyle.Fprintf(w, "❌ %s\n", line)
		case r.Status == clip.StatusGenerated:
			successStyle.Fprintf(w, "✅ %s\n", line)
		default:
			regularStyle.Fprintf(w, "⏭️ %s\n", line)
		}
	}
}

// printSummary writes the counts of the run and returns the number of
// failed pairs and merges.
func printSummary(w io.Writer, results, merged []clip.Result) int {
	summaryStyle := color.New(color.FgCyan, color.Bold)
	regularStyle := color.New(color.Reset)
	pluralizeClient := pluralize.NewClient()

	counts := map[clip.Status]int{}
	for _, r := range append(append([]clip.Result(nil), results...), merged...) {
		counts[r.Status]++
	}
	failed := counts[clip.StatusFailed] + counts[clip.StatusInvalid]

	summaryStyle.Fprintln(w, "\nℹ️ SUMMARY")
	regularStyle.Fprintln(w, "----------------")
	regularStyle.Fprintf(w, "🎞️ %s generated\n", pluralizeClient.Pluralize("clip", counts[clip.StatusGenerated], true))
	regularStyle.Fprintf(w, "⏭️ %s skipped\n", pluralizeClient.Pluralize("existing file", counts[clip.StatusSkippedExisting], true))
	regularStyle.Fprintf(w, "❌ %s failed\n", pluralizeClient.Pluralize("job", failed, true))
	return failed
}

// set copies flag name into dst when the user set it.
func set[T any](c *cli.Context, name string, get func(name string) T, dst *T) {
	if c.IsSet(name) {
		*dst = get(name)
	}
}

// validateGlobal rejects settings no marker pair could be encoded with.
func validateGlobal(g settings.Global) error {
	if g.MarkersJSON == "" {
		return fmt.Errorf("missing required flag: --markers-json")
	}
	if g.InputVideo == "" {
		return fmt.Errorf("missing required flag: --input-video, downloading is not supported")
	}
	if !videoCodecs[g.VideoCodec] {
		return fmt.Errorf("invalid video codec %q", g.VideoCodec)
	}
	if !rotations[g.Rotate] {
		return fmt.Errorf("invalid rotation %q, use clock or cclock", g.Rotate)
	}
	if g.CRF < -1 || g.CRF > 63 {
		return fmt.Errorf("crf %d out of range 0-63", g.CRF)
	}
	if _, err := filter.ParseMinterpMode(g.MinterpMode); err != nil {
		return err
	}
	if _, err := g.LoopMode(); err != nil {
		return err
	}
	return nil
}

func versionPrinter(c *cli.Context) {
	summaryStyle := color.New(color.FgCyan, color.Bold)
	valueStyle := color.New(color.Bold)
	regularStyle := color.New(color.Reset)

	summaryStyle.Printf("✂️ clipper %s\n", Version)
	regularStyle.Printf("  🛠️ Build date: ")
	valueStyle.Printf("%s\n", BuildDate)
	regularStyle.Printf("  🔍 Commit: ")
	valueStyle.Printf("%s\n", Commit)
}

// main is the entry point of the application.
// It parses command-line arguments and runs the clipper command until done
// or interrupted.
func main() {
	cli.VersionPrinter = versionPrinter

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		errorStyle := color.New(color.FgRed)
		errorStyle.Fprintf(os.Stderr, "⚠️ Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
