package ffmpeg

import (
	"context"
	"encoding/json"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// Private functions (alphabetical)

// decodeFrames streams the frames array of ffprobe's -show_frames JSON from
// r into resultCh. Non-video frames and frames without a packet size are
// skipped.
func decodeFrames(ctx context.Context, r io.Reader, resultCh chan<- FrameBitrateInfo) error {
	decoder := json.NewDecoder(r)

	// Opening brace, then the frames key.
	if _, err := decoder.Token(); err != nil {
		return FormatError("error parsing JSON token: %w", err)
	}
	fieldName, err := decoder.Token()
	if err != nil {
		return FormatError("error parsing JSON field name: %w", err)
	}
	if fieldName != "frames" {
		return FormatError("unexpected JSON field: %v, expected 'frames'", fieldName)
	}
	if _, err := decoder.Token(); err != nil {
		return FormatError("error parsing JSON array start: %w", err)
	}

	frameNumber := 0
	for decoder.More() {
		if err := ctx.Err(); err != nil {
			return err
		}

		var frame ffprobeFrameInfo
		if err := decoder.Decode(&frame); err != nil {
			return FormatError("error decoding frame info: %w", err)
		}
		if frame.MediaType != "video" {
			continue
		}
		pktSize, err := frame.PktSize.Int64()
		if err != nil {
			continue
		}

		pts, _ := frame.PktPts.Int64()
		dts, _ := frame.PktDts.Int64()
		duration, _ := strconv.ParseFloat(frame.PktDuration.String(), 64)

		frameType := strings.ToUpper(frame.PictType)
		if frameType == "" {
			frameType = "?"
		}

		info := FrameBitrateInfo{
			FrameNumber: frameNumber,
			FrameType:   frameType,
			KeyFrame:    frame.KeyFrame == 1,
			Bitrate:     pktSize * 8,
			Duration:    duration,
			PTS:         pts,
			DTS:         dts,
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case resultCh <- info:
		}
		frameNumber++
	}
	return nil
}

// summarize drains frames into a BitrateSummary.
func summarize(frames <-chan FrameBitrateInfo) BitrateSummary {
	var s BitrateSummary
	for f := range frames {
		s.Frames++
		if f.KeyFrame {
			s.KeyFrames++
		}
		s.TotalBits += f.Bitrate
		s.Duration += f.Duration
	}
	return s
}

// Public functions (alphabetical)

// NewBitrateAnalyzer creates a new BitrateAnalyzer instance with the provided FFmpeg information.
// It validates that FFmpeg is available and properly installed on the system before
// creating the analyzer. If FFmpeg is not available, an error is returned.
func NewBitrateAnalyzer(ffmpegInfo *FFmpegInfo) (*BitrateAnalyzer, error) {
	if ffmpegInfo == nil || !ffmpegInfo.Installed {
		return nil, FormatError("ffmpeg not available")
	}
	return &BitrateAnalyzer{
		FFprobePath: GetExecutablePaths(ffmpegInfo.Path).FFprobe,
	}, nil
}

// Type methods (alphabetical)

// Analyze processes a video file to extract frame-by-frame bitrate information.
// Results are streamed through resultCh so long clips are never held in
// memory. The caller owns resultCh and closes it after Analyze returns.
//
// This method is thread-safe; concurrent calls are serialized.
func (b *BitrateAnalyzer) Analyze(ctx context.Context, filePath string, resultCh chan<- FrameBitrateInfo) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	childCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(
		childCtx,
		b.FFprobePath,
		"-v", "quiet",
		"-select_streams", "v:0",
		"-show_frames",
		"-show_entries", "frame=media_type,key_frame,pkt_pts,pkt_dts,pkt_duration_time,pkt_size,pict_type",
		"-print_format", "json",
		filePath,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return FormatError("failed to get stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return FormatError("failed to start FFprobe: %w", err)
	}

	if err := decodeFrames(childCtx, stdout, resultCh); err != nil {
		cancel()
		_ = cmd.Wait()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	if err := cmd.Wait(); err != nil && ctx.Err() == nil {
		return FormatError("ffprobe command failed: %w", err)
	}
	return ctx.Err()
}

// AverageKbps returns the mean bitrate of the summarized frames in kbps, 0
// when no duration was measured.
func (s BitrateSummary) AverageKbps() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.TotalBits) / s.Duration / 1000
}

// Summarize measures filePath and aggregates its frames.
func (b *BitrateAnalyzer) Summarize(ctx context.Context, filePath string) (BitrateSummary, error) {
	frames := make(chan FrameBitrateInfo, 64)
	done := make(chan BitrateSummary, 1)
	go func() {
		done <- summarize(frames)
	}()

	err := b.Analyze(ctx, filePath, frames)
	close(frames)
	summary := <-done
	if err != nil {
		return BitrateSummary{}, err
	}
	return summary, nil
}
