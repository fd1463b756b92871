package ffmpeg

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// probeJSON is ffprobe output for a 1080p HDR source.
const probeJSON = `{
  "streams": [{
    "codec_name": "vp9",
    "width": 1920,
    "height": 1080,
    "r_frame_rate": "30000/1001",
    "avg_frame_rate": "30000/1001",
    "pix_fmt": "yuv420p10le",
    "color_space": "bt2020nc",
    "color_transfer": "smpte2084",
    "color_primaries": "bt2020"
  }],
  "format": {"bit_rate": "4500000", "duration": "12.500000"}
}`

// ProberTestSuite tests source probing against captured ffprobe output.
type ProberTestSuite struct {
	suite.Suite
}

// TestNewProber checks the constructor guards and defaults.
func (s *ProberTestSuite) TestNewProber() {
	_, err := NewProber(nil)
	assert.Error(s.T(), err)

	prober, err := NewProber(&FFmpegInfo{Installed: true, Path: "/usr/bin/ffmpeg"})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), GetExecutablePaths("/usr/bin/ffmpeg").FFprobe, prober.FFprobePath)
	assert.Equal(s.T(), DefaultProbeRetries, prober.Retries)
	assert.Equal(s.T(), DefaultProbeRetryDelay, prober.RetryDelay)
}

// TestParseProbeOutput decodes stream and format fields.
func (s *ProberTestSuite) TestParseProbeOutput() {
	info, err := parseProbeOutput("in.webm", []byte(probeJSON))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), "in.webm", info.FilePath)
	assert.Equal(s.T(), "vp9", info.Codec)
	assert.Equal(s.T(), 1920, info.Width)
	assert.Equal(s.T(), 1080, info.Height)
	assert.Equal(s.T(), "30000/1001", info.FrameRate)
	assert.Equal(s.T(), 4500, info.BitRate)
	assert.InDelta(s.T(), 12.5, info.Duration, 1e-9)
	assert.True(s.T(), info.IsHDR())
}

// TestParseProbeOutputFallbacks covers missing frame rates and bitrates.
func (s *ProberTestSuite) TestParseProbeOutputFallbacks() {
	s.Run("Average frame rate", func() {
		info, err := parseProbeOutput("a", []byte(`{"streams":[{"r_frame_rate":"0/0","avg_frame_rate":"25/1","duration":"3.0"}],"format":{"bit_rate":"N/A","duration":"4.0"}}`))
		require.NoError(s.T(), err)
		assert.Equal(s.T(), "25/1", info.FrameRate)
		assert.Equal(s.T(), 0, info.BitRate)
		assert.InDelta(s.T(), 3.0, info.Duration, 1e-9)
		assert.False(s.T(), info.IsHDR())
	})

	s.Run("No streams", func() {
		_, err := parseProbeOutput("a", []byte(`{"streams":[],"format":{}}`))
		assert.Error(s.T(), err)
	})

	s.Run("Invalid JSON", func() {
		_, err := parseProbeOutput("a", []byte(`{`))
		assert.Error(s.T(), err)
	})
}

// TestProbeRetries verifies failed ffprobe runs are retried.
func (s *ProberTestSuite) TestProbeRetries() {
	s.Run("Succeeds after failure", func() {
		calls := 0
		prober := &Prober{
			FFprobePath: "ffprobe",
			Retries:     3,
			run: func(_ context.Context, name string, args ...string) ([]byte, error) {
				calls++
				assert.Equal(s.T(), "ffprobe", name)
				assert.Equal(s.T(), "src.mp4", args[len(args)-1])
				if calls < 2 {
					return nil, errors.New("transient")
				}
				return []byte(probeJSON), nil
			},
		}
		info, err := prober.Probe(context.Background(), "src.mp4")
		require.NoError(s.T(), err)
		assert.Equal(s.T(), 2, calls)
		assert.Equal(s.T(), 1920, info.Width)
	})

	s.Run("Gives up", func() {
		calls := 0
		prober := &Prober{
			Retries: 2,
			run: func(context.Context, string, ...string) ([]byte, error) {
				calls++
				return nil, errors.New("broken")
			},
		}
		_, err := prober.Probe(context.Background(), "src.mp4")
		require.Error(s.T(), err)
		assert.Equal(s.T(), 2, calls)
		assert.Contains(s.T(), err.Error(), "after 2 attempts")
	})
}

// TestVideoInfoString checks the summary line.
func (s *ProberTestSuite) TestVideoInfoString() {
	info, err := parseProbeOutput("in.webm", []byte(probeJSON))
	require.NoError(s.T(), err)
	assert.Equal(s.T(),
		"Codec: vp9, Resolution: 1920x1080, FPS: 30000/1001, Bitrate: 4500kbps, Duration: 12.500s, HDR: SMPTE2084",
		info.String())
	assert.Equal(s.T(), "", (&VideoInfo{}).String())
}

// TestProberSuite runs the Prober test suite.
func TestProberSuite(t *testing.T) {
	suite.Run(t, new(ProberTestSuite))
}
