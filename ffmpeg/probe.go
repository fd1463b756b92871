package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Private functions (alphabetical)

// execOutput runs name with args and returns its standard output.
func execOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// parseProbeOutput decodes the JSON printed by ffprobe for the first video
// stream of filePath.
func parseProbeOutput(filePath string, data []byte) (*VideoInfo, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, FormatError("decoding ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return nil, FormatError("no video stream in %s", filePath)
	}

	s := out.Streams[0]
	info := &VideoInfo{
		FilePath:       filePath,
		Codec:          s.CodecName,
		Width:          s.Width,
		Height:         s.Height,
		FrameRate:      s.RFrameRate,
		PixFmt:         s.PixFmt,
		ColorSpace:     s.ColorSpace,
		ColorTransfer:  s.ColorTransfer,
		ColorPrimaries: s.ColorPrimaries,
	}
	if info.FrameRate == "" || info.FrameRate == "0/0" {
		info.FrameRate = s.AvgFrameRate
	}

	// The container bitrate covers every stream, which matches what the
	// encoder heuristics were tuned against.
	if bps, err := strconv.ParseInt(out.Format.BitRate, 10, 64); err == nil && bps > 0 {
		info.BitRate = int(bps / 1000)
	}

	duration := s.Duration
	if duration == "" {
		duration = out.Format.Duration
	}
	if d, err := strconv.ParseFloat(duration, 64); err == nil {
		info.Duration = d
	}
	return info, nil
}

// Public functions (alphabetical)

// NewProber creates a new Prober instance using the ffprobe next to the
// FFmpeg executable.
func NewProber(ffmpegInfo *FFmpegInfo) (*Prober, error) {
	if ffmpegInfo == nil || !ffmpegInfo.Installed {
		return nil, FormatError("FFmpeg is not installed")
	}
	return &Prober{
		FFprobePath: GetExecutablePaths(ffmpegInfo.Path).FFprobe,
		Retries:     DefaultProbeRetries,
		RetryDelay:  DefaultProbeRetryDelay,
		run:         execOutput,
	}, nil
}

// Type methods (alphabetical)

// IsHDR reports whether the stream uses a high dynamic range transfer.
func (v *VideoInfo) IsHDR() bool {
	switch v.ColorTransfer {
	case "smpte2084", "arib-std-b67":
		return true
	}
	return false
}

// Probe reads the properties of the first video stream of input. Failed
// ffprobe runs are retried after RetryDelay.
func (p *Prober) Probe(ctx context.Context, input string) (*VideoInfo, error) {
	retries := p.Retries
	if retries <= 0 {
		retries = DefaultProbeRetries
	}
	run := p.run
	if run == nil {
		run = execOutput
	}

	args := []string{
		"-v", "quiet",
		"-select_streams", "v",
		"-print_format", "json",
		"-show_streams", "-show_format",
		input,
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		output, err := run(ctx, p.FFprobePath, args...)
		if err == nil {
			return parseProbeOutput(input, output)
		}
		lastErr = err
		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.RetryDelay):
		}
	}
	return nil, FormatError("probing %s failed after %d attempts: %w", input, retries, lastErr)
}

// String returns a string representation of VideoInfo
func (v *VideoInfo) String() string {
	var parts []string

	if v.Codec != "" {
		parts = append(parts, fmt.Sprintf("Codec: %s", v.Codec))
	}
	if v.Width > 0 && v.Height > 0 {
		parts = append(parts, fmt.Sprintf("Resolution: %dx%d", v.Width, v.Height))
	}
	if v.FrameRate != "" {
		parts = append(parts, fmt.Sprintf("FPS: %s", v.FrameRate))
	}
	if v.BitRate > 0 {
		parts = append(parts, fmt.Sprintf("Bitrate: %dkbps", v.BitRate))
	}
	if v.Duration > 0 {
		parts = append(parts, fmt.Sprintf("Duration: %.3fs", v.Duration))
	}
	if v.IsHDR() {
		parts = append(parts, "HDR: "+strings.ToUpper(v.ColorTransfer))
	}

	return strings.Join(parts, ", ")
}
