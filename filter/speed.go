package filter

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/torre76/clipper/curve"
	"github.com/torre76/clipper/expr"
)

// Private constants (alphabetical)
const (
	// lastFrameEpsilon detects a marker pair end that falls exactly on a frame
	// boundary; that frame is not part of a frame-precise trim.
	lastFrameEpsilon = 1e-10
)

// Public types (alphabetical)

// SpeedResult is the compiled speed curve of one marker pair.
type SpeedResult struct {
	// Filter is the setpts filter fragment.
	Filter string
	// OutputTime is the output time in seconds as a function of T-STARTT.
	// It is nil for constant speed curves.
	OutputTime expr.Node
	// Duration is the output duration in seconds.
	Duration float64
	// Durations holds the cumulative output duration at every control point.
	// Its last entry equals Duration.
	Durations []float64
	// Variable is set when the curve is not constant.
	Variable bool
}

// Public variables (alphabetical)

// ErrInvalidSpeed is returned for a speed curve with a non-positive speed.
var ErrInvalidSpeed = errors.New("filter: speed must be positive")

// ErrZeroDuration is returned for a curve whose segments are all degenerate.
var ErrZeroDuration = errors.New("filter: curve has no non-degenerate segment")

// Public functions (alphabetical)

// AverageSpeed returns the time weighted mean speed of c, integrating every
// segment with the trapezoid rule.
func AverageSpeed(c curve.Curve[float64]) float64 {
	var weighted, duration float64
	for _, seg := range c.Segments() {
		d := seg.Duration()
		duration += d
		weighted += (seg.Left.Value + seg.Right.Value) / 2 * d
	}
	if duration == 0 {
		return c.Point(0).Value
	}
	return weighted / duration
}

// CompileSpeed compiles a speed curve into a setpts remap and the output
// durations it produces. inputDuration is the trimmed input length and is
// only used by the constant speed path.
//
// A constant curve compiles to (PTS-STARTPTS)/speed. Otherwise each segment
// models speed as m*t+b over input time and contributes the closed form of
// the integral of 1/speed to a guarded sum over T-STARTT. The end of the last
// segment is snapped to the frame grid of fps and the final duration is
// rounded to the frame grid plus one held frame, then to milliseconds.
func CompileSpeed(c curve.Curve[float64], fps curve.FrameRate, inputDuration float64) (SpeedResult, error) {
	for i := 0; i < c.Len(); i++ {
		if v := c.Point(i).Value; !(v > 0) {
			return SpeedResult{}, fmt.Errorf("%w: point %d has speed %v", ErrInvalidSpeed, i+1, v)
		}
	}

	if c.IsConstant() {
		return compileConstantSpeed(c, inputDuration), nil
	}
	return compileVariableSpeed(c, fps)
}

// ReverseSpeedCurve returns the curve played backwards: the control point
// times are kept and the speeds are taken in reverse order.
func ReverseSpeedCurve(c curve.Curve[float64]) curve.Curve[float64] {
	n := c.Len()
	return c.Values(func(i int, _ curve.Point[float64]) float64 {
		return c.Point(n - 1 - i).Value
	})
}

// Private functions (alphabetical)

func compileConstantSpeed(c curve.Curve[float64], inputDuration float64) SpeedResult {
	speed := c.Point(0).Value
	duration := inputDuration / speed

	durations := make([]float64, c.Len())
	origin := c.StartTime()
	for i := 1; i < c.Len()-1; i++ {
		durations[i] = math.Min((c.Point(i).Time-origin)/speed, duration)
	}
	durations[c.Len()-1] = duration

	remap := expr.Div(expr.Sub(expr.PTS, expr.StartPTS), expr.Num(speed))
	return SpeedResult{
		Filter:    "setpts=" + remap.String(),
		Duration:  duration,
		Durations: durations,
	}
}

func compileVariableSpeed(c curve.Curve[float64], fps curve.FrameRate) (SpeedResult, error) {
	frameDur := fps.FrameDuration()
	elapsed := expr.Sub(expr.TUpper, expr.StartT)

	segs := c.Segments()
	// The snap applies to the last segment with a duration, whatever
	// degenerate segments trail it.
	lastActive := -1
	for i, seg := range segs {
		if !seg.IsDegenerate() {
			lastActive = i
		}
	}
	if lastActive < 0 {
		return SpeedResult{}, ErrZeroDuration
	}

	durations := []float64{0}
	var terms []expr.Node
	for i, seg := range segs {
		startSpeed, endSpeed := seg.Left.Value, seg.Right.Value
		change := endSpeed - startSpeed
		sectStart, sectEnd := seg.Start, seg.End
		if i == lastActive {
			sectEnd = lastSegmentEnd(seg.Right.Time, c.StartTime(), fps)
		}

		prev := durations[len(durations)-1]
		sectDur := sectEnd - sectStart
		if sectDur <= 0 {
			durations = append(durations, prev)
			continue
		}

		var slice expr.Node
		var next float64
		if change == 0 {
			slice = expr.Div(
				expr.Min(expr.Sub(elapsed, expr.Num(sectStart)), expr.Num(sectDur)),
				expr.Num(endSpeed))
			next = prev + sectDur/endSpeed
		} else {
			m := change / sectDur
			b := startSpeed - m*sectStart
			slice = expr.Mul(
				expr.Num(1/m),
				expr.Sub(
					expr.Log(expr.Abs(expr.Add(expr.Mul(expr.Num(m), expr.Min(elapsed, expr.Num(sectEnd))), expr.Num(b)))),
					expr.Log(expr.Abs(expr.Num(m*sectStart+b)))))
			next = prev + (1/m)*(math.Log(math.Abs(m*sectEnd+b))-math.Log(math.Abs(m*sectStart+b)))
		}
		durations = append(durations, next)

		term := expr.If(expr.Gte(elapsed, expr.Num(sectStart)), slice, expr.Num(0))
		if len(terms) == 0 {
			// The first frame always maps to zero.
			term = expr.If(expr.Eq(expr.N, expr.Num(0)), expr.Num(0), term)
		}
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return SpeedResult{}, ErrZeroDuration
	}

	last := len(durations) - 1
	d := math.RoundToEven(durations[last]/frameDur) * frameDur
	d += frameDur
	durations[last] = math.RoundToEven(d*1000) / 1000

	outputTime := expr.Sum(terms...)
	return SpeedResult{
		Filter:     "setpts='" + expr.Div(outputTime, expr.TB).String() + "'",
		OutputTime: outputTime,
		Duration:   durations[last],
		Durations:  durations,
		Variable:   true,
	}, nil
}

// lastSegmentEnd snaps the absolute end time of a curve to the last frame
// boundary a trim keeps and returns it relative to origin, floored to the
// microsecond.
func lastSegmentEnd(end, origin float64, fps curve.FrameRate) float64 {
	frames := fps.FloorFrames(end)
	snapped := fps.FramesToSeconds(frames)
	if end-snapped < lastFrameEpsilon {
		frames.Sub(frames, big.NewInt(1))
		snapped = fps.FramesToSeconds(frames)
	}
	return math.Floor((snapped-origin)*1e6) / 1e6
}
