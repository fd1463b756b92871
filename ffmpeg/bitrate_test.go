package ffmpeg

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// frameJSON is a trimmed -show_frames document with two video frames and
// one audio frame.
const frameJSON = `{
  "frames": [
    {"media_type": "video", "key_frame": 1, "pkt_pts": 0, "pkt_dts": 0,
     "pkt_duration_time": "0.5", "pkt_size": "1000", "pict_type": "I"},
    {"media_type": "audio", "key_frame": 1, "pkt_pts": 0, "pkt_size": "200"},
    {"media_type": "video", "key_frame": 0, "pkt_pts": 1, "pkt_dts": 1,
     "pkt_duration_time": "0.5", "pkt_size": "250", "pict_type": "p"},
    {"media_type": "video", "key_frame": 0, "pict_type": "B"}
  ]
}`

// BitrateAnalyzerTestSuite tests the frame decoding and aggregation behind
// clip bitrate measurement.
type BitrateAnalyzerTestSuite struct {
	suite.Suite
}

// TestAverageKbps checks the mean bitrate computation.
func (s *BitrateAnalyzerTestSuite) TestAverageKbps() {
	assert.Equal(s.T(), 0.0, BitrateSummary{TotalBits: 1000}.AverageKbps())
	assert.InDelta(s.T(), 10.0, BitrateSummary{TotalBits: 20000, Duration: 2}.AverageKbps(), 1e-9)
}

// TestDecodeFrames verifies video frames are streamed in order with their
// sizes in bits.
func (s *BitrateAnalyzerTestSuite) TestDecodeFrames() {
	frames := make(chan FrameBitrateInfo, 8)
	err := decodeFrames(context.Background(), strings.NewReader(frameJSON), frames)
	require.NoError(s.T(), err)
	close(frames)

	var got []FrameBitrateInfo
	for f := range frames {
		got = append(got, f)
	}
	require.Len(s.T(), got, 2)

	assert.Equal(s.T(), 0, got[0].FrameNumber)
	assert.Equal(s.T(), "I", got[0].FrameType)
	assert.True(s.T(), got[0].KeyFrame)
	assert.Equal(s.T(), int64(8000), got[0].Bitrate)
	assert.InDelta(s.T(), 0.5, got[0].Duration, 1e-9)

	assert.Equal(s.T(), 1, got[1].FrameNumber)
	assert.Equal(s.T(), "P", got[1].FrameType)
	assert.False(s.T(), got[1].KeyFrame)
	assert.Equal(s.T(), int64(1), got[1].PTS)
}

// TestDecodeFramesErrors covers malformed documents and cancellation.
func (s *BitrateAnalyzerTestSuite) TestDecodeFramesErrors() {
	s.Run("Empty", func() {
		err := decodeFrames(context.Background(), strings.NewReader(""), make(chan FrameBitrateInfo, 1))
		assert.Error(s.T(), err)
	})

	s.Run("Unexpected field", func() {
		err := decodeFrames(context.Background(), strings.NewReader(`{"streams": []}`), make(chan FrameBitrateInfo, 1))
		require.Error(s.T(), err)
		assert.Contains(s.T(), err.Error(), "expected 'frames'")
	})

	s.Run("Cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := decodeFrames(ctx, strings.NewReader(frameJSON), make(chan FrameBitrateInfo))
		assert.ErrorIs(s.T(), err, context.Canceled)
	})
}

// TestNewBitrateAnalyzer checks that ffprobe is resolved next to ffmpeg.
func (s *BitrateAnalyzerTestSuite) TestNewBitrateAnalyzer() {
	_, err := NewBitrateAnalyzer(nil)
	assert.Error(s.T(), err)

	_, err = NewBitrateAnalyzer(&FFmpegInfo{Installed: false})
	assert.Error(s.T(), err)

	analyzer, err := NewBitrateAnalyzer(&FFmpegInfo{Installed: true, Path: "/opt/ffmpeg/bin/ffmpeg"})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), GetExecutablePaths("/opt/ffmpeg/bin/ffmpeg").FFprobe, analyzer.FFprobePath)
}

// TestSummarize aggregates decoded frames.
func (s *BitrateAnalyzerTestSuite) TestSummarize() {
	frames := make(chan FrameBitrateInfo, 8)
	require.NoError(s.T(), decodeFrames(context.Background(), strings.NewReader(frameJSON), frames))
	close(frames)

	summary := summarize(frames)
	assert.Equal(s.T(), 2, summary.Frames)
	assert.Equal(s.T(), 1, summary.KeyFrames)
	assert.Equal(s.T(), int64(10000), summary.TotalBits)
	assert.InDelta(s.T(), 1.0, summary.Duration, 1e-9)
	assert.InDelta(s.T(), 10.0, summary.AverageKbps(), 1e-9)
}

// TestBitrateAnalyzerSuite runs the BitrateAnalyzer test suite.
func TestBitrateAnalyzerSuite(t *testing.T) {
	suite.Run(t, new(BitrateAnalyzerTestSuite))
}
