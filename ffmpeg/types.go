package ffmpeg

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Private types (alphabetical)

// commandFunc runs an executable and returns its standard output. Tests
// replace it to avoid spawning processes.
type commandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// ffprobeFormat is the format section of ffprobe's JSON output.
type ffprobeFormat struct {
	BitRate  string `json:"bit_rate"`
	Duration string `json:"duration"`
}

// ffprobeFrameInfo represents the JSON structure returned by FFprobe for a single frame.
type ffprobeFrameInfo struct {
	MediaType   string      `json:"media_type"`
	KeyFrame    int         `json:"key_frame"`
	PktPts      json.Number `json:"pkt_pts"`
	PktDts      json.Number `json:"pkt_dts"`
	PktDuration json.Number `json:"pkt_duration_time"`
	PktSize     json.Number `json:"pkt_size"`
	PictType    string      `json:"pict_type"`
}

// ffprobeOutput is the document printed by ffprobe with -show_streams and
// -show_format.
type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

// ffprobeStream is one entry of the streams section of ffprobe's JSON output.
type ffprobeStream struct {
	CodecName      string `json:"codec_name"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	RFrameRate     string `json:"r_frame_rate"`
	AvgFrameRate   string `json:"avg_frame_rate"`
	PixFmt         string `json:"pix_fmt"`
	ColorSpace     string `json:"color_space"`
	ColorTransfer  string `json:"color_transfer"`
	ColorPrimaries string `json:"color_primaries"`
	Duration       string `json:"duration"`
}

// Public types (alphabetical)

// BitrateAnalyzer measures the bitrate of encoded clips frame by frame.
type BitrateAnalyzer struct {
	// FFprobePath is the path to the FFprobe executable
	FFprobePath string
	// mutex protects concurrent access to internal state
	mutex sync.Mutex
}

// BitrateSummary aggregates the frames of a clip.
type BitrateSummary struct {
	Frames    int
	KeyFrames int
	// TotalBits is the sum of all packet sizes in bits.
	TotalBits int64
	// Duration is the sum of all packet durations in seconds.
	Duration float64
}

// ExecutablePaths holds the paths to the FFmpeg tools.
type ExecutablePaths struct {
	FFmpeg  string
	FFplay  string
	FFprobe string
}

// FFmpegInfo contains information about the FFmpeg installation.
type FFmpegInfo struct {
	// Installed is true if FFmpeg is found in the system
	Installed bool
	// Path is the full path to the FFmpeg executable
	Path string
	// Version is the version of FFmpeg
	Version string
	// Configuration is the build configuration line of ffmpeg -version
	Configuration string
	// Libraries lists the linked libav* libraries
	Libraries []string
}

// FrameBitrateInfo represents the bitrate information for a single frame.
type FrameBitrateInfo struct {
	// FrameNumber is the frame number
	FrameNumber int `json:"frame_number"`
	// FrameType is the frame type (I, P, B)
	FrameType string `json:"frame_type"`
	// KeyFrame is true for frames that start a group of pictures
	KeyFrame bool `json:"key_frame"`
	// Bitrate is the size of the frame in bits
	Bitrate int64 `json:"bitrate"`
	// Duration is the packet duration in seconds
	Duration float64 `json:"duration"`
	// PTS is the presentation timestamp of the frame
	PTS int64 `json:"pts"`
	// DTS is the decoding timestamp of the frame
	DTS int64 `json:"dts"`
}

// Prober reads source video properties with ffprobe.
type Prober struct {
	// FFprobePath is the path to the FFprobe executable
	FFprobePath string
	// Retries is the number of attempts, DefaultProbeRetries when zero.
	Retries int
	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration

	run commandFunc
}

// VideoInfo describes the first video stream of a source.
type VideoInfo struct {
	// FilePath is the probed input
	FilePath string
	// Codec is the codec name of the stream
	Codec string
	// Width and Height are the frame dimensions in pixels
	Width  int
	Height int
	// FrameRate is the exact r_frame_rate, for example "30000/1001"
	FrameRate string
	// BitRate is the container bitrate in kbps, 0 when unknown
	BitRate int
	// Duration is the stream duration in seconds
	Duration float64
	// PixFmt is the pixel format
	PixFmt string
	// ColorSpace, ColorTransfer and ColorPrimaries describe the colorimetry
	ColorSpace     string
	ColorTransfer  string
	ColorPrimaries string
}
