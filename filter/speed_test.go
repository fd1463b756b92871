package filter

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/torre76/clipper/curve"
	"github.com/torre76/clipper/expr"
)

// SpeedTestSuite tests the speed curve compiler.
type SpeedTestSuite struct {
	suite.Suite
	fps curve.FrameRate
}

// SetupTest prepares a 30 fps destination.
func (s *SpeedTestSuite) SetupTest() {
	s.fps = curve.MustParseFrameRate("30")
}

func (s *SpeedTestSuite) speedCurve(points ...[2]float64) curve.Curve[float64] {
	pts := make([]curve.Point[float64], len(points))
	for i, p := range points {
		pts[i] = curve.Point[float64]{Time: p[0], Value: p[1]}
	}
	c, err := curve.New(pts)
	require.NoError(s.T(), err)
	return c
}

// simpson integrates 1/(m*t+b) over [a,b] numerically.
func simpson(m, b, from, to float64) float64 {
	const n = 2000
	h := (to - from) / n
	f := func(t float64) float64 { return 1 / (m*t + b) }
	sum := f(from) + f(to)
	for i := 1; i < n; i++ {
		w := 2.0
		if i%2 == 1 {
			w = 4
		}
		sum += w * f(from+float64(i)*h)
	}
	return sum * h / 3
}

// TestConstantSpeed checks the fast path against duration/speed.
func (s *SpeedTestSuite) TestConstantSpeed() {
	s.Run("marker pair", func() {
		res, err := CompileSpeed(curve.Constant(10.0, 15.0, 0.5), s.fps, 5)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), "setpts=(PTS-STARTPTS)/0.5", res.Filter)
		assert.Equal(s.T(), 10.0, res.Duration)
		assert.Equal(s.T(), []float64{0, 10}, res.Durations)
		assert.False(s.T(), res.Variable)
		assert.Nil(s.T(), res.OutputTime)
	})

	s.Run("several points", func() {
		res, err := CompileSpeed(s.speedCurve([2]float64{0, 2}, [2]float64{1, 2}, [2]float64{3, 2}), s.fps, 3)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), 3.0/2, res.Duration)
		assert.Equal(s.T(), []float64{0, 0.5, 1.5}, res.Durations)
	})
}

// TestVariableSpeedIntegration compares the closed form against numeric integration.
func (s *SpeedTestSuite) TestVariableSpeedIntegration() {
	c := s.speedCurve([2]float64{0, 1}, [2]float64{2, 2}, [2]float64{4, 1})
	res, err := CompileSpeed(c, s.fps, 4)
	require.NoError(s.T(), err)
	require.True(s.T(), res.Variable)
	require.Len(s.T(), res.Durations, 3)

	// First segment: speed 1 + 0.5t.
	assert.InDelta(s.T(), simpson(0.5, 1, 0, 2), res.Durations[1], 1e-6)

	// The last segment ends on the last frame a trim to 4s keeps.
	end := math.Floor(119.0/30*1e6) / 1e6
	m := -1 / (end - 2)
	b := 2 - m*2
	raw := simpson(0.5, 1, 0, 2) + simpson(m, b, 2, end)
	want := math.Round((math.Round(raw*30)/30+1.0/30)*1000) / 1000
	assert.InDelta(s.T(), want, res.Duration, 1e-9)

	env := expr.Env{"STARTT": 0, "N": 10}
	env["T"] = 1.5
	v, err := expr.Eval(res.OutputTime, env)
	require.NoError(s.T(), err)
	assert.InDelta(s.T(), simpson(0.5, 1, 0, 1.5), v, 1e-6)

	env["T"] = 3
	v, err = expr.Eval(res.OutputTime, env)
	require.NoError(s.T(), err)
	assert.InDelta(s.T(), simpson(0.5, 1, 0, 2)+simpson(m, b, 2, 3), v, 1e-6)

	// The first frame maps to zero.
	v, err = expr.Eval(res.OutputTime, expr.Env{"STARTT": 0, "N": 0, "T": 0.5})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 0.0, v)
}

// TestDurations checks monotonicity and the frame-grid correction.
func (s *SpeedTestSuite) TestDurations() {
	c := s.speedCurve([2]float64{10, 1}, [2]float64{11, 0.5}, [2]float64{11.5, 0.5}, [2]float64{13, 2})
	res, err := CompileSpeed(c, curve.MustParseFrameRate("30000/1001"), 3)
	require.NoError(s.T(), err)

	for i := 1; i < len(res.Durations); i++ {
		assert.GreaterOrEqual(s.T(), res.Durations[i], res.Durations[i-1])
	}
	assert.Equal(s.T(), res.Durations[len(res.Durations)-1], res.Duration)
	assert.InDelta(s.T(), res.Duration, math.Round(res.Duration*1000)/1000, 1e-12)
	assert.True(s.T(), strings.HasPrefix(res.Filter, "setpts='(if(eq(N,0),0,if(gte(T-STARTT,0),"))
	assert.True(s.T(), strings.HasSuffix(res.Filter, ")/TB'"))
}

// TestDegenerateSegments checks that zero-duration segments do not change the duration.
func (s *SpeedTestSuite) TestDegenerateSegments() {
	with := s.speedCurve([2]float64{0, 1}, [2]float64{5, 1}, [2]float64{5, 1}, [2]float64{10, 2})
	without := s.speedCurve([2]float64{0, 1}, [2]float64{5, 1}, [2]float64{10, 2})

	a, err := CompileSpeed(with, s.fps, 10)
	require.NoError(s.T(), err)
	b, err := CompileSpeed(without, s.fps, 10)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), b.Duration, a.Duration)
	assert.Equal(s.T(), a.Durations[1], a.Durations[2])
	assert.Len(s.T(), a.Durations, 4)

	s.Run("trailing duplicate point", func() {
		plain, err := CompileSpeed(s.speedCurve([2]float64{0, 1}, [2]float64{5, 2}), s.fps, 5)
		require.NoError(s.T(), err)
		trailing, err := CompileSpeed(s.speedCurve([2]float64{0, 1}, [2]float64{5, 2}, [2]float64{5, 2}), s.fps, 5)
		require.NoError(s.T(), err)

		assert.Equal(s.T(), plain.Duration, trailing.Duration)
		assert.Equal(s.T(), plain.Filter, trailing.Filter)
		require.Len(s.T(), trailing.Durations, 3)
		assert.Equal(s.T(), trailing.Durations[2], trailing.Duration)
	})

	s.Run("leading duplicate point", func() {
		plain, err := CompileSpeed(s.speedCurve([2]float64{0, 1}, [2]float64{5, 2}), s.fps, 5)
		require.NoError(s.T(), err)
		leading, err := CompileSpeed(s.speedCurve([2]float64{0, 1}, [2]float64{0, 1}, [2]float64{5, 2}), s.fps, 5)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), plain.Duration, leading.Duration)
	})
}

// TestSingleSegment checks the rendering of a lone segment.
func (s *SpeedTestSuite) TestSingleSegment() {
	res, err := CompileSpeed(s.speedCurve([2]float64{0, 1}, [2]float64{1, 2}), s.fps, 1)
	require.NoError(s.T(), err)
	assert.True(s.T(), strings.HasPrefix(res.Filter, "setpts='if(eq(N,0),0,if(gte(T-STARTT,0),"))
	assert.Contains(s.T(), res.Filter, "log(abs(")
}

// TestErrors checks invalid curves.
func (s *SpeedTestSuite) TestErrors() {
	_, err := CompileSpeed(s.speedCurve([2]float64{0, 1}, [2]float64{1, 0}), s.fps, 1)
	assert.ErrorIs(s.T(), err, ErrInvalidSpeed)

	_, err = CompileSpeed(s.speedCurve([2]float64{0, 1}, [2]float64{0, 2}), s.fps, 0)
	assert.ErrorIs(s.T(), err, ErrZeroDuration)
}

// TestAverageSpeed checks the trapezoid mean.
func (s *SpeedTestSuite) TestAverageSpeed() {
	assert.Equal(s.T(), 1.5, AverageSpeed(s.speedCurve([2]float64{0, 1}, [2]float64{2, 2}, [2]float64{4, 1})))
	assert.Equal(s.T(), 0.5, AverageSpeed(curve.Constant(3.0, 8.0, 0.5)))
	assert.Equal(s.T(), 2.0, AverageSpeed(s.speedCurve([2]float64{1, 2}, [2]float64{1, 4})))
}

// TestReverseSpeedCurve checks that speeds are reversed in place.
func (s *SpeedTestSuite) TestReverseSpeedCurve() {
	rev := ReverseSpeedCurve(s.speedCurve([2]float64{0, 1}, [2]float64{1, 0.5}, [2]float64{3, 2}))
	assert.Equal(s.T(), 2.0, rev.Point(0).Value)
	assert.Equal(s.T(), 0.5, rev.Point(1).Value)
	assert.Equal(s.T(), 1.0, rev.Point(2).Value)
	assert.Equal(s.T(), 3.0, rev.Point(2).Time)
}

// TestSpeedSuite runs the speed test suite.
func TestSpeedSuite(t *testing.T) {
	suite.Run(t, new(SpeedTestSuite))
}
