package filter

import (
	"fmt"
	"math"
	"strings"

	"github.com/torre76/clipper/expr"
)

// Private constants (alphabetical)
const (
	// dedupeFilter drops near duplicate frames and restamps the survivors on
	// the nominal frame grid.
	dedupeFilter = "mpdecimate=hi=64*8:lo=64*5:frac=0.1,setpts=N/FR/TB"
	// fineTimebase is a multiple of 24, 25 and 30 so later timestamp
	// arithmetic stays exact.
	fineTimebase   = "settb=1/9000"
	minAtempo      = 0.5
	previewHalving = "scale=w=iw/2:h=ih/2"
	stabilizeLink  = "[shaky];[shaky]"
)

// Public types (alphabetical)

// Audio describes the audio filter chain of a marker pair.
type Audio struct {
	Preview  bool
	Start    float64
	End      float64
	Duration float64
	Speed    float64
	Fade     float64
	Extra    string
}

// Graph holds every fragment of a marker pair's video filter graph.
// Assemble orders them.
type Graph struct {
	Preview  bool
	Start    float64 // absolute trim start, preview only
	End      float64 // absolute trim end, preview only
	Duration float64

	Crop        string
	Subtitles   string
	Rotate      string // "", "clock" or "cclock"
	Deinterlace bool
	Dedupe      bool
	Gamma       *float64 // applied when in [0,4] and not 1
	Denoise     int     // hqdn3d luma_spatial strength, 0 disables
	Extra       string

	Speed        string
	ReverseSpeed string // used by LoopForwardReverse
	Loop         LoopMode
	FadeDuration float64 // clamped, used by LoopFade
	// Stabilize is a vidstab pass, attached to the speed remap through a
	// shaky link ahead of any loop sub-graph.
	Stabilize string
	Minterp   string
}

// Vidstab is a video stabilization preset.
type Vidstab struct {
	Shakiness int
	ZoomSpeed float64
	Smoothing int
	Desc      string
}

// Private variables (alphabetical)

var vidstabPresets = []Vidstab{
	{Desc: "Disabled"},
	{Shakiness: 2, ZoomSpeed: 0.05, Smoothing: 2, Desc: "Very Weak"},
	{Shakiness: 4, ZoomSpeed: 0.1, Smoothing: 4, Desc: "Weak"},
	{Shakiness: 6, ZoomSpeed: 0.2, Smoothing: 6, Desc: "Medium"},
	{Shakiness: 8, ZoomSpeed: 0.3, Smoothing: 10, Desc: "Strong"},
	{Shakiness: 10, ZoomSpeed: 0.4, Smoothing: 16, Desc: "Very Strong"},
	{Shakiness: 10, ZoomSpeed: 0.5, Smoothing: 22, Desc: "Strongest"},
}

// Public functions (alphabetical)

// Assemble joins the fragments of g in their fixed order: trim, crop,
// subtitles, preview halving, rotation, deinterlacing, timebase, duplicate
// removal, gamma, denoise, extra filters, speed remap, stabilization, loop
// and motion interpolation.
func Assemble(g Graph) string {
	var parts []string
	add := func(s string) {
		if s != "" {
			parts = append(parts, s)
		}
	}

	if g.Preview {
		add(fmt.Sprintf("trim=%s:%s", expr.FormatNumber(g.Start), expr.FormatNumber(g.End)))
	} else {
		add("trim=0:" + expr.FormatNumber(g.Duration))
	}
	add(g.Crop)
	add(g.Subtitles)
	if g.Preview {
		add(previewHalving)
	}
	if g.Rotate != "" && g.Rotate != "0" {
		add("transpose=" + g.Rotate)
	}
	if g.Deinterlace {
		add("bwdif")
	}
	add(fineTimebase)
	if g.Dedupe {
		add(dedupeFilter)
	}
	if g.Gamma != nil {
		add(GammaFilter(*g.Gamma))
	}
	add(DenoiseFilter(g.Denoise))
	add(g.Extra)

	if g.Loop != LoopForwardReverse {
		add(g.Speed)
	}
	if g.Stabilize != "" {
		parts[len(parts)-1] += stabilizeLink + g.Stabilize
	}
	switch g.Loop {
	case LoopForwardReverse:
		add(ForwardReverseLoop(g.Speed, g.ReverseSpeed))
	case LoopFade:
		add(FadeLoop(g.FadeDuration))
	}
	add(g.Minterp)

	return strings.Join(parts, ",")
}

// AudioFilter builds the audio chain. Speeds below 0.5 are split over
// several atempo stages, the lowest factor a single stage accepts.
func AudioFilter(a Audio) string {
	var parts []string
	if a.Preview {
		parts = append(parts, fmt.Sprintf("atrim=%s:%s", expr.FormatNumber(a.Start), expr.FormatNumber(a.End)))
	} else {
		parts = append(parts, "atrim=0:"+expr.FormatNumber(a.Duration))
	}
	parts = append(parts, atempo(a.Speed)...)
	if !a.Preview && a.Fade > 0 {
		f := expr.FormatNumber(a.Fade)
		parts = append(parts, "afade=d="+f, "areverse", "afade=d="+f, "areverse")
	}
	if a.Extra != "" {
		parts = append(parts, a.Extra)
	}
	return strings.Join(parts, ",")
}

// DenoiseFilter returns the hqdn3d fragment for a luma spatial strength.
func DenoiseFilter(lumaSpatial int) string {
	if lumaSpatial <= 0 {
		return ""
	}
	return fmt.Sprintf("hqdn3d=luma_spatial=%d", lumaSpatial)
}

// GammaFilter returns the gamma correction fragment, or "" for a neutral or
// out of range gamma.
func GammaFilter(gamma float64) string {
	if gamma < 0 || gamma > 4 || gamma == 1 {
		return ""
	}
	return fmt.Sprintf("lutyuv=y=gammaval(%s)", expr.FormatNumber(gamma))
}

// HardwareWrap moves frames off and back onto the GPU around a software
// filter graph. device is "cuda" or "vulkan"; any other value returns graph
// unchanged.
func HardwareWrap(device, graph string) string {
	switch device {
	case "cuda":
		return "hwdownload,format=nv12," + graph + ",hwupload_cuda"
	case "vulkan":
		return "hwdownload,format=nv12," + graph + ",hwupload=derive_device=vulkan"
	}
	return graph
}

// SubtitlesFilter returns the burn-in fragment for an already trimmed
// subtitles file.
func SubtitlesFilter(path, style string) string {
	f := "subtitles='" + escapeQuotes(path) + "'"
	if style != "" {
		f += ":force_style='" + escapeQuotes(style) + "'"
	}
	return f
}

// VidstabDetect returns the first stabilization pass filter.
func VidstabDetect(transformPath string, v Vidstab) string {
	return fmt.Sprintf("vidstabdetect=result='%s':shakiness=%d", escapeQuotes(transformPath), v.Shakiness)
}

// VidstabPreset returns the stabilization preset for level 0-6 and whether
// stabilization is enabled.
func VidstabPreset(level int) (Vidstab, bool) {
	if level <= 0 || level >= len(vidstabPresets) {
		return vidstabPresets[0], false
	}
	return vidstabPresets[level], true
}

// VidstabTransform returns the second stabilization pass filter. A negative
// maxAngle (degrees) or maxShift (pixels) leaves the movement unlimited.
func VidstabTransform(transformPath string, v Vidstab, maxAngle float64, maxShift int, dynamicZoom bool) string {
	angle := "-1"
	if maxAngle >= 0 {
		angle = expr.FormatNumber(maxAngle * math.Pi / 180)
	}
	if maxShift < 0 {
		maxShift = -1
	}
	f := fmt.Sprintf("vidstabtransform=input='%s':smoothing=%d:maxangle=%s:maxshift=%d",
		escapeQuotes(transformPath), v.Smoothing, angle, maxShift)
	if dynamicZoom {
		f += ":optzoom=2:zoomspeed=" + expr.FormatNumber(v.ZoomSpeed)
	}
	return f
}

// Private functions (alphabetical)

func atempo(speed float64) []string {
	if !(speed > 0) {
		return []string{"atempo=1"}
	}
	var stages []string
	for speed < minAtempo {
		stages = append(stages, "atempo="+expr.FormatNumber(minAtempo))
		speed /= minAtempo
	}
	return append(stages, "atempo="+expr.FormatNumber(speed))
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}
