package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/torre76/clipper/curve"
)

// MinterpTestSuite tests the motion interpolation selector.
type MinterpTestSuite struct {
	suite.Suite
}

func mustCurve(t *testing.T, points ...curve.Point[float64]) curve.Curve[float64] {
	c, err := curve.New(points)
	require.NoError(t, err)
	return c
}

// TestMinterpFPS checks the target frame rate of every mode.
func (s *MinterpTestSuite) TestMinterpFPS() {
	ntsc := curve.MustParseFrameRate("30000/1001")
	thirty := curve.MustParseFrameRate("30")
	fast := mustCurve(s.T(), curve.Point[float64]{Time: 0, Value: 1}, curve.Point[float64]{Time: 1, Value: 2})
	slow := curve.Constant(0.0, 1.0, 0.5)

	tests := []struct {
		name    string
		mode    MinterpMode
		numeric float64
		speed   *curve.Curve[float64]
		fps     curve.FrameRate
		want    string
		ok      bool
	}{
		{"numeric", MinterpNumeric, 60, nil, ntsc, "60", true},
		{"numeric capped", MinterpNumeric, 240, nil, ntsc, "120", true},
		{"numeric unset", MinterpNumeric, 0, nil, ntsc, "", false},
		{"video fps", MinterpVideoFPS, 0, nil, ntsc, "30000/1001", true},
		{"video fps x2", MinterpVideoFPSx2, 0, nil, ntsc, "60000/1001", true},
		{"max speed", MinterpMaxSpeed, 0, &fast, thirty, "60", true},
		{"max speed without curve", MinterpMaxSpeed, 0, nil, thirty, "30", true},
		{"max speed x2", MinterpMaxSpeedx2, 0, &slow, thirty, "30", true},
		{"none", MinterpNone, 60, nil, thirty, "", false},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			got, ok := MinterpFPS(tt.mode, tt.numeric, tt.speed, tt.fps)
			assert.Equal(s.T(), tt.ok, ok)
			if ok {
				assert.Equal(s.T(), tt.want, got.String())
			}
		})
	}
}

// TestMaxSpeed checks the floor of the maximum speed.
func (s *MinterpTestSuite) TestMaxSpeed() {
	tiny := curve.Constant(0.0, 1.0, 0.01)
	assert.Equal(s.T(), 0.05, MaxSpeed(&tiny))
	assert.Equal(s.T(), 1.0, MaxSpeed(nil))
}

// TestMinterpEnable checks the window selection.
func (s *MinterpTestSuite) TestMinterpEnable() {
	thirty := curve.MustParseFrameRate("30")
	c := mustCurve(s.T(),
		curve.Point[float64]{Time: 0, Value: 0.5},
		curve.Point[float64]{Time: 2, Value: 0.5},
		curve.Point[float64]{Time: 4, Value: 1},
	)

	enable := MinterpEnable(c, []float64{0, 4, 6.5}, curve.MustParseFrameRate("60"), thirty)
	require.NotNil(s.T(), enable)
	assert.Equal(s.T(), "between(t,0,4)+between(t,4,6.5)", enable.String())

	// At 15 fps the target speed is 0.5, so only the ramp qualifies.
	enable = MinterpEnable(c, []float64{0, 4, 6.5}, curve.MustParseFrameRate("15"), thirty)
	require.NotNil(s.T(), enable)
	assert.Equal(s.T(), "between(t,4,6.5)", enable.String())

	steady := curve.Constant(0.0, 2.0, 1.0)
	assert.Nil(s.T(), MinterpEnable(steady, []float64{0, 2}, curve.MustParseFrameRate("30"), thirty))
}

// TestMinterpFilter checks the rendered filter.
func (s *MinterpTestSuite) TestMinterpFilter() {
	c := curve.Constant(0.0, 4.0, 0.5)
	enable := MinterpEnable(c, []float64{0, 8}, curve.MustParseFrameRate("60"), curve.MustParseFrameRate("30"))

	got := MinterpFilter(MinterpOptions{
		Target:       curve.MustParseFrameRate("60"),
		Enable:       enable,
		Enhancements: true,
		SearchParam:  32,
	})
	assert.Equal(s.T(),
		"minterpolate=enable='between(t,0,8)':fps=(60):mi_mode=mci:mc_mode=aobmc:me_mode=bidir:vsbmc=1"+
			":search_param=32:scd_threshold=8:mb_size=16:fuovf=1:alpha_threshold=256",
		got)

	got = MinterpFilter(MinterpOptions{Target: curve.MustParseFrameRate("60"), Enhancements: true, SearchParam: 32})
	assert.Contains(s.T(), got, "minterpolate=enable=0:fps=(60)")

	got = MinterpFilter(MinterpOptions{Target: curve.MustParseFrameRate("60"), Enable: enable, SearchParam: 2})
	assert.Equal(s.T(),
		"minterpolate=fps=(60):mi_mode=mci:mc_mode=aobmc:me_mode=bidir:vsbmc=1:search_param=4:scd_threshold=8:mb_size=16",
		got)
}

// TestModesAndDedupe checks mode parsing and the dedupe decision.
func (s *MinterpTestSuite) TestModesAndDedupe() {
	m, err := ParseMinterpMode("VideoFPSx2")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), MinterpVideoFPSx2, m)
	m, err = ParseMinterpMode("")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), MinterpNumeric, m)
	_, err = ParseMinterpMode("Fastest")
	assert.Error(s.T(), err)

	low := curve.MustParseFrameRate("30")
	high := curve.MustParseFrameRate("60")
	assert.True(s.T(), ShouldDedupe(true, false, false, high))
	assert.True(s.T(), ShouldDedupe(false, false, true, low))
	assert.False(s.T(), ShouldDedupe(false, false, true, high))
	assert.False(s.T(), ShouldDedupe(true, true, true, low))
}

// TestMinterpSuite runs the motion interpolation test suite.
func TestMinterpSuite(t *testing.T) {
	suite.Run(t, new(MinterpTestSuite))
}
