package filter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/torre76/clipper/curve"
)

// CropTestSuite tests crop classification and compilation.
type CropTestSuite struct {
	suite.Suite
	fps curve.FrameRate
}

// SetupTest prepares an NTSC destination frame rate.
func (s *CropTestSuite) SetupTest() {
	s.fps = curve.MustParseFrameRate("30000/1001")
}

type cropPoint struct {
	t    float64
	crop curve.Crop
	ease string
}

func (s *CropTestSuite) cropCurve(points ...cropPoint) curve.Curve[curve.Crop] {
	pts := make([]curve.Point[curve.Crop], len(points))
	for i, p := range points {
		pts[i] = curve.Point[curve.Crop]{Time: p.t, Value: p.crop, EaseIn: p.ease}
	}
	c, err := curve.New(pts)
	require.NoError(s.T(), err)
	return c
}

// TestClassify checks static, pan and zoompan detection.
func (s *CropTestSuite) TestClassify() {
	full := curve.Crop{X: 0, Y: 0, W: 100, H: 100}
	tests := []struct {
		name  string
		right curve.Crop
		want  CropKind
	}{
		{"static", full, CropStatic},
		{"pan x", curve.Crop{X: 10, Y: 0, W: 100, H: 100}, CropPan},
		{"pan y", curve.Crop{X: 0, Y: 5, W: 100, H: 100}, CropPan},
		{"zoom", curve.Crop{X: 0, Y: 0, W: 50, H: 100}, CropZoomPan},
		{"zoom and pan", curve.Crop{X: 10, Y: 10, W: 50, H: 50}, CropZoomPan},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			c := s.cropCurve(cropPoint{t: 0, crop: full}, cropPoint{t: 1, crop: tt.right})
			assert.Equal(s.T(), tt.want, ClassifyCrop(c))
		})
	}
	assert.Equal(s.T(), "zoompan", CropZoomPan.String())
}

// TestStatic checks the literal crop filter.
func (s *CropTestSuite) TestStatic() {
	c := curve.Constant(10.0, 15.0, curve.Crop{X: 0, Y: 0, W: 640, H: 360})
	res, err := CompileCrop(c, curve.MustParseFrameRate("30"), CropOptions{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), CropStatic, res.Kind)
	assert.Equal(s.T(), "crop='x=0:y=0:w=640:h=360:exact=1'", res.Filter)
	assert.Equal(s.T(), Size{W: 640, H: 360}, res.MaxBoundingSize)
}

// TestPan checks guarded sums of eased coordinates.
func (s *CropTestSuite) TestPan() {
	a := curve.Crop{X: 0, Y: 0, W: 640, H: 360}
	b := curve.Crop{X: 100, Y: 50, W: 640, H: 360}

	s.Run("single segment", func() {
		c := s.cropCurve(cropPoint{t: 5, crop: a}, cropPoint{t: 7, crop: b})
		res, err := CompileCrop(c, s.fps, CropOptions{Easing: Linear})
		require.NoError(s.T(), err)
		assert.Equal(s.T(), CropPan, res.Kind)
		assert.Equal(s.T(),
			"crop='x=between(t,0,2)*lerp(0,100,clip(t/2,0,1)):y=between(t,0,2)*lerp(0,50,clip(t/2,0,1)):w=640:h=360:exact=1'",
			res.Filter)
	})

	s.Run("several segments", func() {
		c := s.cropCurve(cropPoint{t: 0, crop: a}, cropPoint{t: 1, crop: b}, cropPoint{t: 3, crop: a, ease: Instant})
		res, err := CompileCrop(c, s.fps, CropOptions{Easing: Linear})
		require.NoError(s.T(), err)
		assert.Contains(s.T(), res.Filter, "x=gte(t,0)*lt(t,1)*lerp(0,100,clip(t/1,0,1))+between(t,1,3)*if(lte(clip((t-1)/2,0,1),0),100,0)")
	})

	s.Run("degenerate last segment", func() {
		c := s.cropCurve(cropPoint{t: 0, crop: a}, cropPoint{t: 2, crop: b}, cropPoint{t: 2, crop: b})
		res, err := CompileCrop(c, s.fps, CropOptions{})
		require.NoError(s.T(), err)
		assert.Contains(s.T(), res.Filter, "x=between(t,0,2)*")
		assert.NotContains(s.T(), res.Filter, "+:")
		assert.NotContains(s.T(), res.Filter, "gte(t,2)")
	})

	s.Run("unknown easing", func() {
		c := s.cropCurve(cropPoint{t: 0, crop: a}, cropPoint{t: 2, crop: b, ease: "wobble"})
		_, err := CompileCrop(c, s.fps, CropOptions{})
		assert.ErrorIs(s.T(), err, ErrUnknownEasing)
	})
}

// TestZoomPan checks the containing crop and zoompan stages.
func (s *CropTestSuite) TestZoomPan() {
	c := s.cropCurve(
		cropPoint{t: 0, crop: curve.Crop{X: 0, Y: 0, W: 641, H: 359}},
		cropPoint{t: 1, crop: curve.Crop{X: 100, Y: 60, W: 500, H: 400}},
	)

	res, err := CompileCrop(c, s.fps, CropOptions{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), CropZoomPan, res.Kind)
	assert.Equal(s.T(), Size{W: 642, H: 400}, res.MaxBoundingSize)
	assert.True(s.T(), strings.HasPrefix(res.Filter, "crop='x=between(t,0,1)*max("))
	assert.Contains(s.T(), res.Filter, ":w=642:h=400:exact=1',scale=w=4*iw:h=4*ih,zoompan=z='(between(it,0,1)*")
	assert.True(s.T(), strings.HasSuffix(res.Filter, ":d=1:s=642x400:fps=30000/1001"))

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	res, err = CompileCrop(c, s.fps, CropOptions{HDR: true, Logger: &logger})
	require.NoError(s.T(), err)
	assert.NotContains(s.T(), res.Filter, "scale=w=4*iw")
	assert.Contains(s.T(), buf.String(), "HDR")
}

// TestBoundingSize checks that the bounding window is even and covers every crop.
func (s *CropTestSuite) TestBoundingSize() {
	crops := []curve.Crop{
		{W: 641, H: 359},
		{W: 1280.5, H: 100},
		{W: 10, H: 719},
		{W: 300, H: 720},
	}
	points := make([]cropPoint, len(crops))
	for i, cr := range crops {
		points[i] = cropPoint{t: float64(i), crop: cr}
	}
	size := BoundingSize(s.cropCurve(points...), Size{})
	assert.Equal(s.T(), 0, size.W%2)
	assert.Equal(s.T(), 0, size.H%2)
	for _, cr := range crops {
		assert.GreaterOrEqual(s.T(), float64(size.W), cr.W)
		assert.GreaterOrEqual(s.T(), float64(size.H), cr.H)
	}
	assert.Equal(s.T(), Size{W: 1282, H: 720}, size)

	s.Run("odd frame", func() {
		c := s.cropCurve(
			cropPoint{t: 0, crop: curve.Crop{X: 0, Y: 0, W: 853, H: 480}},
			cropPoint{t: 1, crop: curve.Crop{X: 100, Y: 50, W: 427, H: 240}},
		)
		frame := Size{W: 853, H: 480}
		assert.Equal(s.T(), Size{W: 852, H: 480}, BoundingSize(c, frame))

		res, err := CompileCrop(c, s.fps, CropOptions{Frame: frame})
		require.NoError(s.T(), err)
		assert.Equal(s.T(), Size{W: 852, H: 480}, res.MaxBoundingSize)
		assert.Contains(s.T(), res.Filter, ":w=852:h=480:exact=1'")
		assert.True(s.T(), strings.HasSuffix(res.Filter, ":s=852x480:fps=30000/1001"))
	})

	s.Run("window inside frame", func() {
		c := s.cropCurve(
			cropPoint{t: 0, crop: curve.Crop{W: 641, H: 359}},
			cropPoint{t: 1, crop: curve.Crop{W: 500, H: 400}},
		)
		assert.Equal(s.T(), Size{W: 642, H: 400}, BoundingSize(c, Size{W: 1280, H: 720}))
	})
}

// TestCropSuite runs the crop test suite.
func TestCropSuite(t *testing.T) {
	suite.Run(t, new(CropTestSuite))
}
