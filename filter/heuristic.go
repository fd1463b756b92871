package filter

import (
	"math"
)

// Private constants (alphabetical)
const (
	// cropRelaxation softens the crop area penalty: crops usually keep the
	// complex part of the picture.
	cropRelaxation = 0.8
	hdrFactor      = 1.1
	hwAccelFactor  = 1.1
)

// Private variables (alphabetical)

// bitrateBuckets maps a source bitrate ceiling in kbps to encoder settings.
// Multipliers are kept in tenths so the target bitrate is exact.
var bitrateBuckets = []struct {
	ceiling     float64
	crf         int
	multiplier  int
	encodeSpeed int
}{
	{1000, 20, 20, 2},
	{2000, 22, 18, 2},
	{4000, 24, 16, 2},
	{6000, 26, 14, 3},
	{10000, 28, 12, 4},
	{14000, 30, 11, 5},
	{18000, 30, 10, 5},
	{25000, 32, 9, 5},
	{math.Inf(1), 34, 8, 5},
}

// Public types (alphabetical)

// BitrateFactors are the multipliers applied to the source bitrate before
// the bucket lookup.
type BitrateFactors struct {
	Crop     float64
	Speed    float64
	HDR      float64
	Hardware float64
}

// EncodeSettings are the quality and rate settings for one encode.
type EncodeSettings struct {
	CRF                  int
	QMin                 int
	QMax                 int
	AutoTargetMaxBitrate int
	TargetMaxBitrate     int
	EncodeSpeed          int
	TwoPass              bool
}

// HeuristicInput describes a compiled marker pair for the bitrate heuristic.
type HeuristicInput struct {
	CropArea      float64
	FrameArea     float64
	AverageSpeed  float64
	MinterpFPS    float64 // 0 without motion interpolation
	SourceFPS     float64
	HDR           bool
	HardwareAccel bool
	// SourceBitrate in kbps; 0 when unknown.
	SourceBitrate float64
	// TargetMaxBitrate in kbps overrides the automatic target when positive.
	TargetMaxBitrate int
}

// Public functions (alphabetical)

// EncodeSettingsFor looks up the encoder settings for a bitrate in kbps.
// A non-positive bitrate means unknown and selects constant quality.
func EncodeSettingsFor(kbps float64) EncodeSettings {
	if kbps <= 0 {
		return withQuantizers(EncodeSettings{CRF: 30, EncodeSpeed: 2})
	}
	for _, b := range bitrateBuckets {
		if kbps <= b.ceiling {
			target := int(math.Floor(kbps*float64(b.multiplier)/10 + 1e-9))
			return withQuantizers(EncodeSettings{
				CRF:                  b.crf,
				AutoTargetMaxBitrate: target,
				TargetMaxBitrate:     target,
				EncodeSpeed:          b.encodeSpeed,
			})
		}
	}
	return EncodeSettings{}
}

// Heuristic derives the encode settings of a marker pair from its crop
// area, speed and source properties.
func Heuristic(in HeuristicInput) (EncodeSettings, BitrateFactors) {
	f := BitrateFactors{Crop: 1, Speed: 1, HDR: 1, Hardware: 1}
	if in.FrameArea > 0 {
		f.Crop = math.Min(1, math.Pow(in.CropArea/in.FrameArea, cropRelaxation))
	}
	if in.MinterpFPS > 0 && in.AverageSpeed > 0 && in.SourceFPS > 0 {
		f.Speed = math.Sqrt(in.MinterpFPS / (in.AverageSpeed * in.SourceFPS))
	}
	if in.HDR {
		f.HDR = hdrFactor
	}
	if in.HardwareAccel {
		f.Hardware = hwAccelFactor
	}

	var settings EncodeSettings
	if in.SourceBitrate > 0 {
		settings = EncodeSettingsFor(in.SourceBitrate * f.Combined())
	} else {
		settings = EncodeSettingsFor(0)
	}
	if in.TargetMaxBitrate > 0 {
		settings.TargetMaxBitrate = in.TargetMaxBitrate
	}
	return settings, f
}

// Private functions (alphabetical)

func withQuantizers(s EncodeSettings) EncodeSettings {
	s.QMax = max(min(s.CRF+13, 63), 34)
	s.QMin = min(s.CRF, 15)
	return s
}

// Type methods (alphabetical)

// Combined returns min(1, crop*speed*hdr)*hardware.
func (f BitrateFactors) Combined() float64 {
	return math.Min(1, f.Crop*f.Speed*f.HDR) * f.Hardware
}

// WithCRF returns s with a user chosen crf and the quantizer bounds derived
// from it.
func (s EncodeSettings) WithCRF(crf int) EncodeSettings {
	s.CRF = crf
	return withQuantizers(s)
}
