package filter

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/torre76/clipper/curve"
	"github.com/torre76/clipper/expr"
)

// Private constants (alphabetical)
const (
	// zoomPrescale is the upscale applied before zoompan to hide the jitter
	// caused by its integer panning.
	zoomPrescale = 4
)

// Public types (alphabetical)

// CropKind classifies a crop curve.
type CropKind int

// CropOptions configures CompileCrop.
type CropOptions struct {
	// Easing is used for segments whose end point names no easing.
	Easing string
	// Frame is the source frame size. The zoompan bounding window never
	// exceeds it. The zero value leaves the window unbounded.
	Frame Size
	// HDR disables the zoompan prescale.
	HDR bool
	// Logger receives the HDR degrade warning. The global logger is used when nil.
	Logger *zerolog.Logger
}

// CropResult is the compiled crop stage of a marker pair.
type CropResult struct {
	Kind   CropKind
	Filter string
	// MaxBoundingSize is the output size of the crop stage. For zoompan it is
	// the bounding window containing every control point crop.
	MaxBoundingSize Size
}

// Size is a width and height in pixels.
type Size struct {
	W int
	H int
}

// Public constants (alphabetical)

// Crop curve kinds.
const (
	CropStatic CropKind = iota
	CropPan
	CropZoomPan
)

// Public functions (alphabetical)

// BoundingSize returns the smallest even sized window at least as large as
// every crop of c in both dimensions, limited to the largest even window
// that fits in frame. A zero frame dimension is not limited.
func BoundingSize(c curve.Curve[curve.Crop], frame Size) Size {
	var w, h float64
	for _, p := range c.Points() {
		w = math.Max(w, p.Value.W)
		h = math.Max(h, p.Value.H)
	}
	return Size{W: fitEven(w, frame.W), H: fitEven(h, frame.H)}
}

// ClassifyCrop reports whether c is static, pans (x or y change) or zooms
// (w or h change). Zoom takes precedence over pan.
func ClassifyCrop(c curve.Curve[curve.Crop]) CropKind {
	kind := CropStatic
	for i := 1; i < c.Len(); i++ {
		l, r := c.Point(i-1).Value, c.Point(i).Value
		if l.X != r.X || l.Y != r.Y {
			kind = CropPan
		}
		if l.W != r.W || l.H != r.H {
			return CropZoomPan
		}
	}
	return kind
}

// CompileCrop compiles a crop curve into a crop filter, or for zoom curves
// into a containing crop followed by zoompan.
func CompileCrop(c curve.Curve[curve.Crop], fps curve.FrameRate, opts CropOptions) (CropResult, error) {
	switch ClassifyCrop(c) {
	case CropPan:
		return compilePan(c, opts)
	case CropZoomPan:
		return compileZoomPan(c, fps, opts)
	}
	return StaticCrop(c.Point(0).Value), nil
}

// StaticCrop returns the crop filter for a fixed rectangle.
func StaticCrop(crop curve.Crop) CropResult {
	return CropResult{
		Kind:            CropStatic,
		Filter:          cropFilter(expr.Num(crop.X), expr.Num(crop.Y), expr.FormatNumber(crop.W), expr.FormatNumber(crop.H)),
		MaxBoundingSize: Size{W: int(crop.W), H: int(crop.H)},
	}
}

// Private functions (alphabetical)

func ceilToEven(v float64) int {
	n := int(math.Ceil(v))
	if n%2 != 0 {
		n++
	}
	return n
}

func compilePan(c curve.Curve[curve.Crop], opts CropOptions) (CropResult, error) {
	segs, last := activeSegments(c)
	if len(segs) == 0 {
		return CropResult{}, ErrZeroDuration
	}

	var xs, ys []expr.Node
	for i, seg := range segs {
		kind := segmentEasing(seg.Right.EaseIn, opts.Easing)
		p := progress(expr.T, seg)
		l, r := seg.Left.Value, seg.Right.Value

		ex, err := Ease(kind, expr.Num(l.X), expr.Num(r.X), p)
		if err != nil {
			return CropResult{}, err
		}
		ey, err := Ease(kind, expr.Num(l.Y), expr.Num(r.Y), p)
		if err != nil {
			return CropResult{}, err
		}

		guard := segmentGuard(expr.T, seg, i == last)
		xs = append(xs, expr.Mul(guard, ex))
		ys = append(ys, expr.Mul(guard, ey))
	}

	first := c.Point(0).Value
	return CropResult{
		Kind:            CropPan,
		Filter:          cropFilter(expr.Sum(xs...), expr.Sum(ys...), expr.FormatNumber(first.W), expr.FormatNumber(first.H)),
		MaxBoundingSize: Size{W: int(first.W), H: int(first.H)},
	}, nil
}

func compileZoomPan(c curve.Curve[curve.Crop], fps curve.FrameRate, opts CropOptions) (CropResult, error) {
	segs, last := activeSegments(c)
	if len(segs) == 0 {
		return CropResult{}, ErrZeroDuration
	}

	bounds := BoundingSize(c, opts.Frame)
	maxW, maxH := float64(bounds.W), float64(bounds.H)

	scale := float64(zoomPrescale)
	if opts.HDR {
		scale = 1
		logger := componentLogger(opts.Logger)
		logger.Warn().Msg("zoompan prescaling is disabled for HDR input, zooming may jitter")
	}

	var panX, panY, zoom, zoomX, zoomY []expr.Node
	for i, seg := range segs {
		kind := segmentEasing(seg.Right.EaseIn, opts.Easing)
		l, r := seg.Left.Value, seg.Right.Value
		isLast := i == last

		// The containing window pans on the crop filter's clock.
		pp := progress(expr.T, seg)
		right, err := Ease(kind, expr.Num(l.Right()), expr.Num(r.Right()), pp)
		if err != nil {
			return CropResult{}, err
		}
		bottom, err := Ease(kind, expr.Num(l.Bottom()), expr.Num(r.Bottom()), pp)
		if err != nil {
			return CropResult{}, err
		}
		tGuard := segmentGuard(expr.T, seg, isLast)
		panX = append(panX, expr.Mul(tGuard, expr.Max(expr.Sub(right, expr.Num(maxW)), expr.Num(0))))
		panY = append(panY, expr.Mul(tGuard, expr.Max(expr.Sub(bottom, expr.Num(maxH)), expr.Num(0))))

		// zoompan evaluates its expressions on its own clock.
		zp := progress(expr.It, seg)
		eased := make([]expr.Node, 5)
		pairs := [][2]float64{
			{maxW / l.W, maxW / r.W},
			{scale * l.X, scale * r.X},
			{scale * l.Y, scale * r.Y},
			{scale * l.Right(), scale * r.Right()},
			{scale * l.Bottom(), scale * r.Bottom()},
		}
		for j, pr := range pairs {
			eased[j], err = Ease(kind, expr.Num(pr[0]), expr.Num(pr[1]), zp)
			if err != nil {
				return CropResult{}, err
			}
		}
		containX := expr.Max(expr.Sub(eased[3], expr.Num(scale*maxW)), expr.Num(0))
		containY := expr.Max(expr.Sub(eased[4], expr.Num(scale*maxH)), expr.Num(0))

		itGuard := segmentGuard(expr.It, seg, isLast)
		zoom = append(zoom, expr.Mul(itGuard, eased[0]))
		zoomX = append(zoomX, expr.Mul(itGuard, expr.Sub(eased[1], containX)))
		zoomY = append(zoomY, expr.Mul(itGuard, expr.Sub(eased[2], containY)))
	}

	filter := cropFilter(expr.Sum(panX...), expr.Sum(panY...), expr.FormatNumber(maxW), expr.FormatNumber(maxH)) + ","
	if scale > 1 {
		filter += fmt.Sprintf("scale=w=%s*iw:h=%s*ih,", expr.FormatNumber(scale), expr.FormatNumber(scale))
	}
	filter += fmt.Sprintf("zoompan=z='(%s)':x='%s':y='%s':d=1:s=%dx%d:fps=%s",
		expr.Sum(zoom...), expr.Sum(zoomX...), expr.Sum(zoomY...), bounds.W, bounds.H, fps)

	return CropResult{
		Kind:            CropZoomPan,
		Filter:          filter,
		MaxBoundingSize: bounds,
	}, nil
}

func cropFilter(x, y expr.Node, w, h string) string {
	return fmt.Sprintf("crop='x=%s:y=%s:w=%s:h=%s:exact=1'", x, y, w, h)
}

// fitEven rounds v up to even, or down to the even part of limit when that
// would not fit.
func fitEven(v float64, limit int) int {
	n := ceilToEven(v)
	if limit > 0 && n > limit {
		n = limit - limit%2
	}
	return n
}

// activeSegments returns the non-degenerate segments of c and the index of
// the last one.
func activeSegments[V comparable](c curve.Curve[V]) ([]curve.Segment[V], int) {
	var segs []curve.Segment[V]
	for _, seg := range c.Segments() {
		if !seg.IsDegenerate() {
			segs = append(segs, seg)
		}
	}
	return segs, len(segs) - 1
}

// progress returns (v-start)/duration for seg.
func progress[V comparable](v expr.Var, seg curve.Segment[V]) expr.Node {
	var elapsed expr.Node = v
	if seg.Start != 0 {
		elapsed = expr.Sub(v, expr.Num(seg.Start))
	}
	return expr.Div(elapsed, expr.Num(seg.Duration()))
}

// segmentGuard selects seg on the v axis. Every segment but the last is
// half-open so adjacent segments never both apply.
func segmentGuard[V comparable](v expr.Var, seg curve.Segment[V], last bool) expr.Node {
	if last {
		return expr.Between(v, expr.Num(seg.Start), expr.Num(seg.End))
	}
	return expr.Mul(expr.Gte(v, expr.Num(seg.Start)), expr.Lt(v, expr.Num(seg.End)))
}

// Type methods (alphabetical)

// String returns the lower case kind name.
func (k CropKind) String() string {
	switch k {
	case CropPan:
		return "pan"
	case CropZoomPan:
		return "zoompan"
	}
	return "static"
}
