package curve

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Public types (alphabetical)

// FrameRate is an exact rational frame rate such as 30000/1001.
type FrameRate struct {
	r *big.Rat
}

// Public variables (alphabetical)

// ErrInvalidFrameRate is returned for unparsable or non-positive frame rates.
var ErrInvalidFrameRate = errors.New("curve: invalid frame rate")

// Public functions (alphabetical)

// FrameRateFromFloat builds a frame rate from the shortest decimal form of
// fps, so 29.97 becomes 2997/100 rather than its binary expansion.
func FrameRateFromFloat(fps float64) (FrameRate, error) {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return FrameRate{}, fmt.Errorf("%w: %v", ErrInvalidFrameRate, fps)
	}
	return FrameRate{r: decimalRat(fps)}, nil
}

// MustParseFrameRate is ParseFrameRate for constants in tests and defaults.
func MustParseFrameRate(s string) FrameRate {
	fr, err := ParseFrameRate(s)
	if err != nil {
		panic(err)
	}
	return fr
}

// ParseFrameRate parses "30000/1001", "60" or "29.97".
func ParseFrameRate(s string) (FrameRate, error) {
	s = strings.TrimSpace(s)
	r, ok := new(big.Rat).SetString(s)
	if !ok || r.Sign() <= 0 {
		return FrameRate{}, fmt.Errorf("%w: %q", ErrInvalidFrameRate, s)
	}
	return FrameRate{r: r}, nil
}

// Public methods (alphabetical)

// FloorFrames returns the number of whole frames that fit in t seconds,
// computed exactly so that frame boundaries do not drift.
func (f FrameRate) FloorFrames(t float64) *big.Int {
	frames := new(big.Rat).SetFloat64(t)
	frames.Mul(frames, f.r)
	q := new(big.Int).Quo(frames.Num(), frames.Denom())
	// Quo truncates toward zero.
	if frames.Sign() < 0 && new(big.Int).Mul(q, frames.Denom()).Cmp(frames.Num()) != 0 {
		q.Sub(q, big.NewInt(1))
	}
	return q
}

// Float returns the frame rate as a float.
func (f FrameRate) Float() float64 {
	v, _ := f.r.Float64()
	return v
}

// FrameDuration returns the duration of one frame in seconds.
func (f FrameRate) FrameDuration() float64 {
	v, _ := new(big.Rat).Inv(f.r).Float64()
	return v
}

// FramesToSeconds converts a frame count into seconds.
func (f FrameRate) FramesToSeconds(frames *big.Int) float64 {
	v, _ := new(big.Rat).Quo(new(big.Rat).SetInt(frames), f.r).Float64()
	return v
}

// IsZero reports whether the frame rate is unset.
func (f FrameRate) IsZero() bool {
	return f.r == nil
}

// Less reports whether f is strictly below v frames per second.
func (f FrameRate) Less(v float64) bool {
	return f.r.Cmp(new(big.Rat).SetFloat64(v)) < 0
}

// Min returns the smaller of f and v frames per second.
func (f FrameRate) Min(v float64) FrameRate {
	if f.Less(v) {
		return f
	}
	return FrameRate{r: decimalRat(v)}
}

// Ratio returns f/other as a float.
func (f FrameRate) Ratio(other FrameRate) float64 {
	v, _ := new(big.Rat).Quo(f.r, other.r).Float64()
	return v
}

// Scale returns the frame rate multiplied by the decimal value of factor.
func (f FrameRate) Scale(factor float64) FrameRate {
	return FrameRate{r: new(big.Rat).Mul(f.r, decimalRat(factor))}
}

// String renders integral rates as integers and others as num/den.
func (f FrameRate) String() string {
	if f.r == nil {
		return "0"
	}
	if f.r.IsInt() {
		return f.r.Num().String()
	}
	return f.r.Num().String() + "/" + f.r.Denom().String()
}

// Private functions (alphabetical)

func decimalRat(v float64) *big.Rat {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(v, 'f', -1, 64))
	if !ok {
		return new(big.Rat).SetFloat64(v)
	}
	return r
}

func formatFloat(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
