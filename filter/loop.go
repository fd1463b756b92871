package filter

import (
	"fmt"
	"math"
	"strings"

	"github.com/torre76/clipper/expr"
)

// Private constants (alphabetical)
const (
	maxFadeShare      = 0.4
	minFadeDuration   = 0.1
	resetTimestamps   = "setpts=(PTS-STARTPTS)"
	reverseTrimFrames = "select='gt(n,0)'"
	transparentFormat = "format=yuva420p"
)

// Public types (alphabetical)

// LoopMode selects how a clip is made to loop seamlessly.
type LoopMode string

// Public constants (alphabetical)

// Loop modes.
const (
	LoopFade           LoopMode = "fade"
	LoopForwardReverse LoopMode = "fwrev"
	LoopNone           LoopMode = "none"
)

// Public functions (alphabetical)

// ClampFadeDuration limits a crossfade to between 0.1s and 40% of the
// output duration.
func ClampFadeDuration(fade, outputDuration float64) float64 {
	return math.Max(minFadeDuration, math.Min(fade, maxFadeShare*outputDuration))
}

// FadeLoop returns the sub-graph that crossfades the tail of the clip over
// its head. It is appended to a chain that already contains the speed remap.
// fade must already be clamped with ClampFadeDuration.
func FadeLoop(fade float64) string {
	d := expr.FormatNumber(fade)
	p := expr.Clip(expr.Div(expr.TUpper, expr.Num(fade)), expr.Num(0), expr.Num(1))
	// Linear alpha ramps.
	alphaIn := expr.Lerp(expr.Num(0), expr.Num(1), p)
	alphaOut := expr.Lerp(expr.Num(1), expr.Num(0), p)
	split := fmt.Sprintf("select='if(lte(t,%s),1,2)':n=2", d)

	var b strings.Builder
	fmt.Fprintf(&b, "%s[fia][mfia];", split)
	fmt.Fprintf(&b, "[fia]%s,geq=lum='p(X,Y)':a='%s*alpha(X,Y)'[fi];", transparentFormat, alphaIn)
	fmt.Fprintf(&b, "[mfia]%s[mfib];", resetTimestamps)
	fmt.Fprintf(&b, "[mfib]reverse,%s[for][mr];", split)
	fmt.Fprintf(&b, "[mr]reverse,%s[m];", resetTimestamps)
	fmt.Fprintf(&b, "[for]reverse,%s,geq=lum='p(X,Y)':a='%s*alpha(X,Y)'[fo];", transparentFormat, alphaOut)
	fmt.Fprintf(&b, "[fi][fo]overlay=eof_action=repeat,%s[fl];", resetTimestamps)
	b.WriteString("[m][fl]concat=n=2")
	return b.String()
}

// ForwardReverseLoop returns the sub-graph that plays the clip forwards with
// the speed remap forward and then backwards with reverse, dropping the
// duplicated turning point frames.
func ForwardReverseLoop(forward, reverse string) string {
	var b strings.Builder
	b.WriteString("split=2[f1][f2];")
	fmt.Fprintf(&b, "[f1]%s[f];", forward)
	fmt.Fprintf(&b, "[f2]%s,%s,reverse,%s,%s[r];", reverse, reverseTrimFrames, reverseTrimFrames, resetTimestamps)
	b.WriteString("[f][r]concat=n=2")
	return b.String()
}

// ParseLoopMode validates a loop mode name. An empty name means none.
func ParseLoopMode(s string) (LoopMode, error) {
	switch m := LoopMode(s); m {
	case LoopFade, LoopForwardReverse, LoopNone:
		return m, nil
	case "":
		return LoopNone, nil
	}
	return "", fmt.Errorf("filter: unknown loop mode %q", s)
}
