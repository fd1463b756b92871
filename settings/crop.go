package settings

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/torre76/clipper/curve"
)

// Public types (alphabetical)

// Scaler maps crop strings drawn at the editor's crop resolution onto the
// video resolution.
type Scaler struct {
	// ResWidth and ResHeight are the crop resolution, the values of the iw
	// and ih tokens.
	ResWidth  int
	ResHeight int
	// MultipleX and MultipleY scale x/w and y/h.
	MultipleX float64
	MultipleY float64
	// Width and Height are the video dimensions scaled coordinates are
	// clamped to.
	Width  int
	Height int
}

// Public variables (alphabetical)

// ErrMalformedCrop is returned for crop strings that are not x:y:w:h.
var ErrMalformedCrop = errors.New("settings: malformed crop")

// Public functions (alphabetical)

// NewScaler returns the scaler for a video of width x height. The crop
// multiples are derived from the crop resolution unless auto scaling is
// disabled or explicit multiples were configured.
func NewScaler(g Global, m Markers, width, height int) Scaler {
	s := Scaler{
		ResWidth:  m.CropResWidth,
		ResHeight: m.CropResHeight,
		MultipleX: 1,
		MultipleY: 1,
		Width:     width,
		Height:    height,
	}
	if s.ResWidth <= 0 {
		s.ResWidth = width
	}
	if s.ResHeight <= 0 {
		s.ResHeight = height
	}
	if !g.NoAutoScaleCropRes && s.ResWidth > 0 && s.ResHeight > 0 {
		s.MultipleX = float64(width) / float64(s.ResWidth)
		s.MultipleY = float64(height) / float64(s.ResHeight)
	}
	if g.CropMultipleX > 0 && g.CropMultipleX != 1 {
		s.MultipleX = g.CropMultipleX
	}
	if g.CropMultipleY > 0 && g.CropMultipleY != 1 {
		s.MultipleY = g.CropMultipleY
	}
	return s
}

// ParseCrop parses an x:y:w:h crop string. w may be iw and h may be ih,
// meaning the full crop resolution width or height.
func ParseCrop(s string, resWidth, resHeight int) (curve.Crop, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 4 {
		return curve.Crop{}, fmt.Errorf("%w: %q", ErrMalformedCrop, s)
	}
	if parts[2] == "iw" {
		parts[2] = strconv.Itoa(resWidth)
	}
	if parts[3] == "ih" {
		parts[3] = strconv.Itoa(resHeight)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return curve.Crop{}, fmt.Errorf("%w: %q", ErrMalformedCrop, s)
		}
		v[i] = f
	}
	return curve.Crop{X: v[0], Y: v[1], W: v[2], H: v[3]}, nil
}

// Private functions (alphabetical)

func clampTo(v float64, limit int) float64 {
	if limit <= 0 {
		return v
	}
	return math.Min(v, float64(limit))
}

func floorToEven(v float64) float64 {
	return 2 * math.Floor(v/2)
}

// Type methods (alphabetical)

// ParseScaled parses s and scales it onto the video resolution. With
// forceEven the width and height are floored to even values.
func (s Scaler) ParseScaled(crop string, forceEven bool) (curve.Crop, error) {
	c, err := ParseCrop(crop, s.ResWidth, s.ResHeight)
	if err != nil {
		return c, err
	}
	return s.Scale(c, forceEven), nil
}

// Scale multiplies c by the crop multiples, rounds half to even and clamps
// to the video dimensions when they are known.
func (s Scaler) Scale(c curve.Crop, forceEven bool) curve.Crop {
	out := curve.Crop{
		X: clampTo(math.RoundToEven(s.MultipleX*c.X), s.Width),
		Y: clampTo(math.RoundToEven(s.MultipleY*c.Y), s.Height),
		W: clampTo(math.RoundToEven(s.MultipleX*c.W), s.Width),
		H: clampTo(math.RoundToEven(s.MultipleY*c.H), s.Height),
	}
	if forceEven {
		out.W = floorToEven(out.W)
		out.H = floorToEven(out.H)
	}
	return out
}
