// Package curve models the piecewise curves attached to a marker pair: the
// speed curve (time to playback speed) and the crop curve (time to crop
// rectangle). A curve is an ordered list of control points; adjacent points
// form segments that the filter compilers integrate or interpolate.
package curve

import (
	"errors"
	"fmt"
	"sort"
)

// Public types (alphabetical)

// Crop is a crop rectangle in source pixels.
type Crop struct {
	X float64
	Y float64
	W float64
	H float64
}

// Curve is an ordered sequence of at least two control points scoped to one
// marker pair. Its local time origin is the time of the first point.
type Curve[V comparable] struct {
	points []Point[V]
}

// Point is a control point of a curve. EaseIn optionally names the easing
// applied to the segment that ends at this point.
type Point[V comparable] struct {
	Time   float64
	Value  V
	EaseIn string
}

// Segment is a view over two adjacent control points. Start and End are local
// times, measured from the first point of the curve.
type Segment[V comparable] struct {
	Index int
	Left  Point[V]
	Right Point[V]
	Start float64
	End   float64
	Last  bool
}

// Public variables (alphabetical)

// ErrTooFewPoints is returned when a curve is built from fewer than two points.
var ErrTooFewPoints = errors.New("curve: at least two control points are required")

// ErrUnordered is returned when control point times decrease.
var ErrUnordered = errors.New("curve: control point times must be non-decreasing")

// Public functions (alphabetical)

// Constant builds the two point curve holding value from start to end. It is
// used when a marker pair carries no explicit curve.
func Constant[V comparable](start, end float64, value V) Curve[V] {
	return Curve[V]{points: []Point[V]{
		{Time: start, Value: value},
		{Time: end, Value: value},
	}}
}

// New validates points and builds a curve from a copy of them.
func New[V comparable](points []Point[V]) (Curve[V], error) {
	if len(points) < 2 {
		return Curve[V]{}, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(points))
	}
	if !sort.SliceIsSorted(points, func(i, j int) bool { return points[i].Time < points[j].Time }) {
		return Curve[V]{}, ErrUnordered
	}
	cp := make([]Point[V], len(points))
	copy(cp, points)
	return Curve[V]{points: cp}, nil
}

// Public methods (alphabetical)

// Duration returns the local time span covered by the curve.
func (c Curve[V]) Duration() float64 {
	return c.EndTime() - c.StartTime()
}

// EndTime returns the absolute time of the last control point.
func (c Curve[V]) EndTime() float64 {
	return c.points[len(c.points)-1].Time
}

// IsConstant reports whether every control point holds the same value.
func (c Curve[V]) IsConstant() bool {
	for i := 1; i < len(c.points); i++ {
		if c.points[i].Value != c.points[i-1].Value {
			return false
		}
	}
	return true
}

// Len returns the number of control points.
func (c Curve[V]) Len() int {
	return len(c.points)
}

// Point returns the i-th control point.
func (c Curve[V]) Point(i int) Point[V] {
	return c.points[i]
}

// Points returns a copy of the control points.
func (c Curve[V]) Points() []Point[V] {
	cp := make([]Point[V], len(c.points))
	copy(cp, c.points)
	return cp
}

// Segments returns every segment of the curve in order, including zero
// duration ones. Callers skip degenerate segments with IsDegenerate.
func (c Curve[V]) Segments() []Segment[V] {
	origin := c.StartTime()
	n := len(c.points) - 1
	segs := make([]Segment[V], 0, n)
	for i := 0; i < n; i++ {
		left, right := c.points[i], c.points[i+1]
		segs = append(segs, Segment[V]{
			Index: i,
			Left:  left,
			Right: right,
			Start: left.Time - origin,
			End:   right.Time - origin,
			Last:  i == n-1,
		})
	}
	return segs
}

// Shift returns a copy of the curve with every point moved by delay seconds.
func (c Curve[V]) Shift(delay float64) Curve[V] {
	if delay == 0 {
		return c
	}
	cp := c.Points()
	for i := range cp {
		cp[i].Time += delay
	}
	return Curve[V]{points: cp}
}

// StartTime returns the absolute time of the first control point.
func (c Curve[V]) StartTime() float64 {
	return c.points[0].Time
}

// Values returns a copy of the curve with the same times and easing but
// values produced by fn. The speed curve reversal of the forward-reverse
// loop uses it.
func (c Curve[V]) Values(fn func(i int, p Point[V]) V) Curve[V] {
	cp := c.Points()
	for i := range cp {
		cp[i].Value = fn(i, c.points[i])
	}
	return Curve[V]{points: cp}
}

// Duration returns the local length of the segment.
func (s Segment[V]) Duration() float64 {
	return s.End - s.Start
}

// IsDegenerate reports whether the segment has zero duration.
func (s Segment[V]) IsDegenerate() bool {
	return s.End == s.Start
}

// Area returns w*h.
func (c Crop) Area() float64 {
	return c.W * c.H
}

// Bottom returns y+h.
func (c Crop) Bottom() float64 {
	return c.Y + c.H
}

// Right returns x+w.
func (c Crop) Right() float64 {
	return c.X + c.W
}

// String renders the crop as x:y:w:h.
func (c Crop) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", formatFloat(c.X), formatFloat(c.Y), formatFloat(c.W), formatFloat(c.H))
}
