package filter

import (
	"fmt"
	"math"
	"strings"

	"github.com/torre76/clipper/curve"
	"github.com/torre76/clipper/expr"
)

// Private constants (alphabetical)
const (
	maxNumericMinterpFPS = 120
	minMaxSpeed          = 0.05
	minSearchParam       = 4
)

// Public types (alphabetical)

// MinterpMode selects how the motion interpolation target frame rate is chosen.
type MinterpMode string

// MinterpOptions configures MinterpFilter.
type MinterpOptions struct {
	Target curve.FrameRate
	// Enable is the guarded window sum from MinterpEnable, nil when no
	// segment needs interpolation.
	Enable       expr.Node
	Enhancements bool
	SearchParam  int
}

// Public constants (alphabetical)

// Motion interpolation modes.
const (
	MinterpMaxSpeed   MinterpMode = "MaxSpeed"
	MinterpMaxSpeedx2 MinterpMode = "MaxSpeedx2"
	MinterpNone       MinterpMode = "None"
	MinterpNumeric    MinterpMode = "Numeric"
	MinterpVideoFPS   MinterpMode = "VideoFPS"
	MinterpVideoFPSx2 MinterpMode = "VideoFPSx2"
)

// Public functions (alphabetical)

// MaxSpeed returns the highest speed of c, at least 0.05. A nil curve has
// maximum speed 1.
func MaxSpeed(c *curve.Curve[float64]) float64 {
	if c == nil {
		return 1
	}
	m := minMaxSpeed
	for _, p := range c.Points() {
		m = math.Max(m, p.Value)
	}
	return m
}

// MinterpEnable builds the enable expression of the interpolation filter: a
// sum of between(t,start,end) windows over output time, one per segment
// whose speed changes or starts below target/fps. durations are the per
// control point output durations of the compiled speed curve. It returns nil
// when no segment qualifies.
func MinterpEnable(c curve.Curve[float64], durations []float64, target, fps curve.FrameRate) expr.Node {
	targetSpeed := math.RoundToEven(target.Ratio(fps)*100) / 100

	var windows []expr.Node
	for _, seg := range c.Segments() {
		if seg.Index+1 >= len(durations) {
			break
		}
		startSpeed := seg.Left.Value
		change := seg.Right.Value - startSpeed
		if change != 0 || startSpeed < targetSpeed {
			windows = append(windows, expr.Between(expr.T,
				expr.Num(durations[seg.Index]), expr.Num(durations[seg.Index+1])))
		}
	}
	if len(windows) == 0 {
		return nil
	}
	return expr.Sum(windows...)
}

// MinterpFilter renders the minterpolate filter fragment. With enhancements
// on, an empty window set is rendered as enable=0 so the filter is present
// but inactive.
func MinterpFilter(opts MinterpOptions) string {
	var b strings.Builder
	b.WriteString("minterpolate=")
	if opts.Enhancements {
		if opts.Enable != nil {
			fmt.Fprintf(&b, "enable='%s':", opts.Enable)
		} else {
			b.WriteString("enable=0:")
		}
	}
	fmt.Fprintf(&b, "fps=(%s):mi_mode=mci:mc_mode=aobmc:me_mode=bidir:vsbmc=1", opts.Target)
	fmt.Fprintf(&b, ":search_param=%d:scd_threshold=8:mb_size=16", max(opts.SearchParam, minSearchParam))
	if opts.Enhancements {
		b.WriteString(":fuovf=1:alpha_threshold=256")
	}
	return b.String()
}

// MinterpFPS returns the interpolation target frame rate for mode, or false
// when the mode does not interpolate. numeric is the user requested rate for
// the Numeric mode and is capped at 120.
func MinterpFPS(mode MinterpMode, numeric float64, speed *curve.Curve[float64], fps curve.FrameRate) (curve.FrameRate, bool) {
	switch mode {
	case MinterpNumeric:
		if numeric <= 0 {
			return curve.FrameRate{}, false
		}
		fr, err := curve.FrameRateFromFloat(math.Min(maxNumericMinterpFPS, numeric))
		return fr, err == nil
	case MinterpMaxSpeed:
		return fps.Scale(MaxSpeed(speed)), true
	case MinterpMaxSpeedx2:
		return fps.Scale(2 * MaxSpeed(speed)), true
	case MinterpVideoFPS:
		return fps, true
	case MinterpVideoFPSx2:
		return fps.Scale(2), true
	}
	return curve.FrameRate{}, false
}

// ParseMinterpMode validates a mode name.
func ParseMinterpMode(s string) (MinterpMode, error) {
	switch m := MinterpMode(s); m {
	case MinterpMaxSpeed, MinterpMaxSpeedx2, MinterpNone, MinterpNumeric, MinterpVideoFPS, MinterpVideoFPSx2:
		return m, nil
	case "":
		return MinterpNumeric, nil
	}
	return "", fmt.Errorf("filter: unknown minterp mode %q", s)
}

// ShouldDedupe reports whether duplicate frames are removed before the speed
// remap. Low frame rate sources are deduplicated whenever motion
// interpolation is active.
func ShouldDedupe(dedupe, noDedupe, interpolating bool, fps curve.FrameRate) bool {
	if noDedupe {
		return false
	}
	return dedupe || (interpolating && fps.Less(47))
}
