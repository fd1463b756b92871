package ffmpeg

import (
	"strconv"
)

// Private constants (alphabetical)
const sdrPixFmt = "yuv420p"

// Public types (alphabetical)

// CodecArgs are the encoder arguments of one clip, split by where they go on
// the command line.
type CodecArgs struct {
	// Input goes before the inputs, for hardware decoding.
	Input []string
	// Video selects and tunes the video encoder.
	Video []string
	// Output selects the muxer and output frame rate.
	Output []string
}

// EncodeSpec describes the encode of one clip.
type EncodeSpec struct {
	Codec            string
	CRF              int
	QMin             int
	QMax             int
	TargetMaxBitrate int // kbps
	// TargetSize in MB switches to constant bitrate mode when positive.
	TargetSize float64
	// ConstantBitrate is TargetSize divided by the output duration in MB/s.
	ConstantBitrate float64
	HDR             bool
	// FrameRate is the exact source frame rate, for example "30000/1001".
	FrameRate string
	// KeyframeInterval is the average speed times the source frame rate.
	KeyframeInterval float64
	// MinterpFPS is the interpolated output frame rate, "" without motion
	// interpolation.
	MinterpFPS    string
	Speed         float64
	VariableSpeed bool
	Width         int
	Height        int
	// DisableReduceStutter drops the output frame rate argument of the
	// H.264 encoders.
	DisableReduceStutter bool
}

// Public functions (alphabetical)

// AudioCodecArgs returns the audio encoder arguments. vp8 pairs with vorbis
// in WebM, every other codec with opus.
func AudioCodecArgs(codec string) []string {
	if codec == "vp8" {
		return []string{"-c:a", "libvorbis", "-q:a", "7"}
	}
	return []string{"-c:a", "libopus", "-b:a", "128k"}
}

// Container returns the file extension of clips encoded with codec.
func Container(codec string) string {
	if IsH264(codec) {
		return "mp4"
	}
	return "webm"
}

// Encoder returns the ffmpeg encoder name of codec.
func Encoder(codec string) string {
	switch codec {
	case "vp9":
		return "libvpx-vp9"
	case "vp8":
		return "libvpx"
	case "h264":
		return "libx264"
	}
	return codec
}

// HardwareDevice returns the device frames live on while codec encodes, or
// "" for software encoders.
func HardwareDevice(codec string) string {
	switch codec {
	case "h264_nvenc":
		return "cuda"
	case "h264_vulkan":
		return "vulkan"
	}
	return ""
}

// IsH264 reports whether codec produces H.264 in MP4.
func IsH264(codec string) bool {
	switch codec {
	case "h264", "h264_nvenc", "h264_vulkan":
		return true
	}
	return false
}

// VideoCodecArgs returns the encoder arguments for spec.
func VideoCodecArgs(spec EncodeSpec) (CodecArgs, error) {
	switch spec.Codec {
	case "vp9", "vp8":
		return vpxArgs(spec), nil
	case "h264":
		return x264Args(spec), nil
	case "h264_nvenc":
		return nvencArgs(spec), nil
	case "h264_vulkan":
		return vulkanArgs(spec), nil
	}
	return CodecArgs{}, FormatError("invalid video codec: %s", spec.Codec)
}

// Private functions (alphabetical)

func bitrateArg(flag string, spec EncodeSpec, multiple int) []string {
	if spec.ConstantBitrate > 0 {
		return []string{flag, formatFloat(spec.ConstantBitrate*float64(multiple)) + "MB"}
	}
	return []string{flag, strconv.Itoa(spec.TargetMaxBitrate*multiple) + "k"}
}

func constantQuality(spec EncodeSpec) bool {
	return spec.TargetSize <= 0
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func h264FrameRateArg(spec EncodeSpec) []string {
	if spec.VariableSpeed {
		return []string{"-fps_mode", "vfr"}
	}
	if spec.DisableReduceStutter {
		return nil
	}
	return vpxFrameRateArg(spec)
}

func hdrArgs(pixFmt string) []string {
	return []string{
		"-pix_fmt", pixFmt,
		"-color_primaries", "bt2020",
		"-color_trc", "smpte2084",
		"-colorspace", "bt2020nc",
	}
}

func keyframeArgs(spec EncodeSpec) []string {
	return []string{"-force_key_frames", "1", "-g", formatFloat(spec.KeyframeInterval)}
}

func nvencArgs(spec EncodeSpec) CodecArgs {
	args := []string{"-c:v", "h264_nvenc", "-movflags", "write_colr"}
	if spec.HDR {
		args = append(args, hdrArgs("cuda")...)
	} else {
		args = append(args, "-pix_fmt", "cuda")
	}
	args = append(args, "-rc", "vbr")
	if spec.ConstantBitrate <= 0 && constantQuality(spec) {
		args = append(args, "-cq", strconv.Itoa(spec.CRF))
	}
	if constantQuality(spec) {
		args = append(args, "-qmin", "3", "-qmax", strconv.Itoa(spec.QMax))
	}
	args = append(args, bitrateArg("-b:v", spec, 1)...)
	args = append(args, bitrateArg("-maxrate", spec, 2)...)
	args = append(args, keyframeArgs(spec)...)
	args = append(args,
		"-qcomp", "0.9",
		"-tune", "hq",
		"-preset", "p6",
		"-bf", "4",
		"-rc-lookahead", "40",
		"-spatial-aq", "1",
		"-aq-strength", "12",
		"-keyint_min", "1",
	)
	return CodecArgs{
		Input:  []string{"-hwaccel", "cuda", "-hwaccel_output_format", "cuda"},
		Video:  args,
		Output: append([]string{"-f", "mp4"}, h264FrameRateArg(spec)...),
	}
}

func vpxArgs(spec EncodeSpec) CodecArgs {
	vp9 := spec.Codec != "vp8"

	args := []string{"-c:v", "libvpx"}
	if vp9 {
		args[1] = "libvpx-vp9"
	}
	if spec.HDR && vp9 {
		args = append(args, "-profile:v", "2")
		args = append(args, hdrArgs("yuv420p10le")...)
	} else {
		args = append(args, "-pix_fmt", sdrPixFmt)
	}
	args = append(args, "-slices", "8")
	if vp9 {
		args = append(args, "-aq-mode", "4", "-row-mt", "1", "-tile-columns", "6", "-tile-rows", "2")
	}
	if constantQuality(spec) {
		args = append(args, "-qmin", strconv.Itoa(spec.QMin), "-crf", strconv.Itoa(spec.CRF), "-qmax", strconv.Itoa(spec.QMax))
	}
	args = append(args, bitrateArg("-b:v", spec, 1)...)
	args = append(args, keyframeArgs(spec)...)

	return CodecArgs{
		Video:  args,
		Output: append([]string{"-f", "webm"}, vpxFrameRateArg(spec)...),
	}
}

func vpxFrameRateArg(spec EncodeSpec) []string {
	switch {
	case spec.MinterpFPS != "":
		return []string{"-r", spec.MinterpFPS}
	case !spec.VariableSpeed:
		return []string{"-r", "(" + spec.FrameRate + "*" + formatFloat(spec.Speed) + ")"}
	}
	return []string{"-fps_mode", "vfr"}
}

func vulkanArgs(spec EncodeSpec) CodecArgs {
	args := []string{"-c:v", "h264_vulkan", "-movflags", "write_colr"}
	if spec.HDR {
		args = append(args, hdrArgs("vulkan")...)
	} else {
		args = append(args, "-pix_fmt", "vulkan")
	}
	args = append(args,
		"-quality", "0",
		"-rc_mode", "vbr",
		"-tune", "hq",
		"-i_qfactor", "0.75", "-b_qfactor", "1.1",
	)
	if constantQuality(spec) {
		args = append(args, "-qmin", "3", "-qmax", strconv.Itoa(spec.QMax))
	}
	args = append(args, bitrateArg("-b:v", spec, 1)...)
	args = append(args, bitrateArg("-bufsize", spec, 1)...)
	args = append(args, bitrateArg("-maxrate", spec, 4)...)
	args = append(args, keyframeArgs(spec)...)
	args = append(args,
		"-video_track_timescale", trackTimescale,
		"-qcomp", "0.9",
		"-bf", "5",
		"-refs", "4",
		"-keyint_min", "1",
		"-trellis", "2",
		"-b_depth", "1",
		"-async_depth", "2",
	)
	return CodecArgs{
		Input:  []string{"-hwaccel", "vulkan", "-hwaccel_output_format", "vulkan"},
		Video:  args,
		Output: append([]string{"-f", "mp4"}, h264FrameRateArg(spec)...),
	}
}

func x264Args(spec EncodeSpec) CodecArgs {
	// Motion search range widens above roughly 1080p.
	meRange := "16"
	if spec.Width*spec.Height >= 1800*1000 {
		meRange = "32"
	}

	args := []string{"-c:v", "libx264", "-movflags", "write_colr"}
	if spec.HDR {
		args = append(args, hdrArgs("yuv420p10le")...)
	} else {
		args = append(args, "-pix_fmt", sdrPixFmt)
	}
	if constantQuality(spec) {
		args = append(args, "-qmin", "3", "-crf", strconv.Itoa(spec.CRF), "-qmax", strconv.Itoa(spec.QMax))
	}
	args = append(args, bitrateArg("-b:v", spec, 1)...)
	args = append(args, keyframeArgs(spec)...)
	args = append(args,
		"-video_track_timescale", trackTimescale,
		"-bf", "5",
		"-refs", "4",
		"-qcomp", "0.9",
		"-aq-mode", "4",
		"-rc-lookahead", "40",
		"-weightb", "1", "-weightp", "2",
		"-direct-pred", "auto",
		"-b-pyramid", "none",
		"-me_method", "umh",
		"-me_range", meRange,
		"-psy-rd", "1.0:1.0",
		"-fastfirstpass", "1",
		"-keyint_min", "1",
		"-trellis", "2",
		"-x264-params", "rc-lookahead=40",
	)
	return CodecArgs{
		Video:  args,
		Output: append([]string{"-f", "mp4"}, h264FrameRateArg(spec)...),
	}
}
