// Package filter compiles marker pair curves and settings into FFmpeg filter
// graph fragments: the speed remap, the crop/pan/zoom stage, motion
// interpolation, loop compositions and the encoder heuristics derived from
// them. Every function in this package is pure apart from diagnostic logging.
package filter

import (
	"errors"
	"fmt"

	"github.com/torre76/clipper/expr"
)

// Public constants (alphabetical)

// Easing kinds accepted by Ease.
const (
	EaseInCircle    = "easeInCircle"
	EaseInCubic     = "easeInCubic"
	EaseInOutCircle = "easeInOutCircle"
	EaseInOutCubic  = "easeInOutCubic"
	EaseInOutSine   = "easeInOutSine"
	EaseOutCircle   = "easeOutCircle"
	EaseOutCubic    = "easeOutCubic"
	Instant         = "instant"
	Linear          = "linear"

	// DefaultEasing is used for crop segments whose end point names no easing.
	DefaultEasing = EaseInOutSine
)

// Public variables (alphabetical)

// ErrUnknownEasing is returned for an easing kind Ease does not support.
var ErrUnknownEasing = errors.New("filter: unknown easing kind")

// Public functions (alphabetical)

// EasingKinds lists every supported easing kind.
func EasingKinds() []string {
	return []string{
		Instant, Linear,
		EaseInCubic, EaseOutCubic, EaseInOutCubic,
		EaseInOutSine,
		EaseInCircle, EaseOutCircle, EaseInOutCircle,
	}
}

// Ease interpolates between from and to following kind. progress is clamped
// to [0,1] first; at progress 0 the result equals from and at 1 it equals to.
func Ease(kind string, from, to, progress expr.Node) (expr.Node, error) {
	p := expr.Clip(progress, expr.Num(0), expr.Num(1))
	t := expr.Mul(expr.Num(2), p)
	m := expr.Sub(p, expr.Num(1))
	one := expr.Num(1)
	half := expr.Num(0.5)

	var ease expr.Node
	switch kind {
	case Instant:
		return expr.If(expr.Lte(p, expr.Num(0)), from, to), nil
	case Linear:
		return expr.Lerp(from, to, p), nil
	case EaseInCubic:
		ease = expr.Pow(p, expr.Num(3))
	case EaseOutCubic:
		ease = expr.Add(one, expr.Pow(m, expr.Num(3)))
	case EaseInOutCubic:
		ease = expr.If(expr.Lt(t, one),
			expr.Mul(p, expr.Pow(t, expr.Num(2))),
			expr.Add(one, expr.Mul(expr.Pow(m, expr.Num(3)), expr.Num(4))))
	case EaseInOutSine:
		ease = expr.Mul(half, expr.Sub(one, expr.Cos(expr.Mul(p, expr.Pi))))
	case EaseInCircle:
		ease = expr.Sub(one, expr.Sqrt(expr.Sub(one, expr.Pow(p, expr.Num(2)))))
	case EaseOutCircle:
		ease = expr.Sqrt(expr.Sub(one, expr.Pow(m, expr.Num(2))))
	case EaseInOutCircle:
		ease = expr.If(expr.Lt(t, one),
			expr.Mul(expr.Sub(one, expr.Sqrt(expr.Sub(one, expr.Pow(t, expr.Num(2))))), half),
			expr.Mul(expr.Add(expr.Sqrt(expr.Sub(one, expr.Mul(expr.Num(4), expr.Pow(m, expr.Num(2))))), one), half))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEasing, kind)
	}

	return expr.Add(from, expr.Mul(expr.Sub(to, from), ease)), nil
}

// Private functions (alphabetical)

// segmentEasing returns the easing for the segment ending at a point whose
// easeIn is override, falling back to fallback.
func segmentEasing(override, fallback string) string {
	if override != "" {
		return override
	}
	if fallback != "" {
		return fallback
	}
	return DefaultEasing
}
