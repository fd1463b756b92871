package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/torre76/clipper/expr"
)

// EasingTestSuite tests the easing expressions.
type EasingTestSuite struct {
	suite.Suite
}

// TestEndpoints checks that every kind starts at from and ends at to.
func (s *EasingTestSuite) TestEndpoints() {
	p := expr.Var("p")
	for _, kind := range EasingKinds() {
		s.Run(kind, func() {
			n, err := Ease(kind, expr.Num(0), expr.Num(10), p)
			require.NoError(s.T(), err)

			v, err := expr.Eval(n, expr.Env{"p": 0})
			require.NoError(s.T(), err)
			assert.InDelta(s.T(), 0, v, 1e-12)

			v, err = expr.Eval(n, expr.Env{"p": 1})
			require.NoError(s.T(), err)
			assert.InDelta(s.T(), 10, v, 1e-12)

			// Progress is clamped.
			v, err = expr.Eval(n, expr.Env{"p": 3})
			require.NoError(s.T(), err)
			assert.InDelta(s.T(), 10, v, 1e-12)
			v, err = expr.Eval(n, expr.Env{"p": -1})
			require.NoError(s.T(), err)
			assert.InDelta(s.T(), 0, v, 1e-12)
		})
	}
}

// TestMidpoints checks a few interior values.
func (s *EasingTestSuite) TestMidpoints() {
	tests := []struct {
		kind string
		want float64
	}{
		{Linear, 5},
		{EaseInCubic, 1.25},
		{EaseOutCubic, 8.75},
		{EaseInOutCubic, 5},
		{EaseInOutSine, 5},
		{EaseInOutCircle, 5},
		{Instant, 10},
	}
	for _, tt := range tests {
		s.Run(tt.kind, func() {
			n, err := Ease(tt.kind, expr.Num(0), expr.Num(10), expr.Var("p"))
			require.NoError(s.T(), err)
			v, err := expr.Eval(n, expr.Env{"p": 0.5})
			require.NoError(s.T(), err)
			assert.InDelta(s.T(), tt.want, v, 1e-9)
		})
	}
}

// TestString checks the serialized form of the simple kinds.
func (s *EasingTestSuite) TestString() {
	n, err := Ease(Linear, expr.Num(0), expr.Num(10), expr.Var("p"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "lerp(0,10,clip(p,0,1))", n.String())

	n, err = Ease(Instant, expr.Num(0), expr.Num(10), expr.Var("p"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "if(lte(clip(p,0,1),0),0,10)", n.String())

	n, err = Ease(EaseInCubic, expr.Num(2), expr.Num(4), expr.Var("p"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "2+2*clip(p,0,1)^3", n.String())
}

// TestUnknown checks that unknown kinds are rejected.
func (s *EasingTestSuite) TestUnknown() {
	n, err := Ease("bounce", expr.Num(0), expr.Num(1), expr.Var("p"))
	assert.Nil(s.T(), n)
	assert.ErrorIs(s.T(), err, ErrUnknownEasing)
}

// TestSegmentEasing checks the easing fallback chain.
func (s *EasingTestSuite) TestSegmentEasing() {
	assert.Equal(s.T(), Linear, segmentEasing(Linear, EaseInCubic))
	assert.Equal(s.T(), EaseInCubic, segmentEasing("", EaseInCubic))
	assert.Equal(s.T(), DefaultEasing, segmentEasing("", ""))
}

// TestEasingSuite runs the easing test suite.
func TestEasingSuite(t *testing.T) {
	suite.Run(t, new(EasingTestSuite))
}
