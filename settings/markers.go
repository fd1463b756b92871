package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/torre76/clipper/curve"
)

// Public types (alphabetical)

// CropPoint is a crop control point of a marker pair.
type CropPoint struct {
	Time   float64 `json:"x"`
	Crop   string  `json:"crop"`
	EaseIn string  `json:"easeIn,omitempty"`
}

// MarkerPair is one clip of the marker JSON.
type MarkerPair struct {
	Start     float64      `json:"start"`
	End       float64      `json:"end"`
	Speed     float64      `json:"speed"`
	Crop      string       `json:"crop"`
	SpeedMap  []SpeedPoint `json:"speedMap,omitempty"`
	CropMap   []CropPoint  `json:"cropMap,omitempty"`
	Overrides Overrides    `json:"overrides"`
}

// Markers is the decoded marker JSON. Top level setting keys are collected
// in the embedded Overrides.
type Markers struct {
	Overrides

	VideoID       string       `json:"videoID"`
	VideoTitle    string       `json:"videoTitle"`
	Platform      string       `json:"platform"`
	CropResWidth  int          `json:"cropResWidth"`
	CropResHeight int          `json:"cropResHeight"`
	MergeList     string       `json:"markerPairMergeList"`
	MarkerPairs   []MarkerPair `json:"markerPairs"`
	// LegacyMarkers is read from files written before markerPairs existed.
	LegacyMarkers []MarkerPair `json:"markers,omitempty"`

	// TitleSuffix is the stem of the marker JSON file name.
	TitleSuffix string `json:"-"`
}

// SpeedPoint is a speed control point of a marker pair.
type SpeedPoint struct {
	Time  float64 `json:"x"`
	Speed float64 `json:"y"`
}

// Public functions (alphabetical)

// LoadMarkers reads a marker JSON file. A UTF-8 byte order mark is accepted.
func LoadMarkers(path string) (Markers, error) {
	var m Markers

	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("settings: reading markers: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("settings: parsing markers %s: %w", path, err)
	}

	if len(m.MarkerPairs) == 0 && len(m.LegacyMarkers) > 0 {
		m.MarkerPairs = m.LegacyMarkers
	}
	m.LegacyMarkers = nil
	if m.Platform == "" {
		m.Platform = "youtube"
	}
	m.VideoTitle = strings.ReplaceAll(m.VideoTitle, `"`, "")

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if stem != strings.TrimRight(stem, " \t\r\n") {
		return m, fmt.Errorf("settings: markers file name %q must not end in whitespace", stem)
	}
	m.TitleSuffix = stem
	return m, nil
}

// Type methods (alphabetical)

// CropCurve returns the crop curve of the pair, scaled to the video
// resolution. Without a crop map, or with crop maps disabled, the pair crop
// is held constant over the pair.
func (p MarkerPair) CropCurve(s Scaler, enable bool) (curve.Curve[curve.Crop], error) {
	crop, err := s.ParseScaled(p.Crop, true)
	if err != nil {
		return curve.Curve[curve.Crop]{}, err
	}
	if !enable || len(p.CropMap) == 0 {
		return curve.Constant(p.Start, p.End, crop), nil
	}

	points := make([]curve.Point[curve.Crop], 0, len(p.CropMap))
	for _, cp := range p.CropMap {
		c, err := s.ParseScaled(cp.Crop, false)
		if err != nil {
			return curve.Curve[curve.Crop]{}, err
		}
		points = append(points, curve.Point[curve.Crop]{Time: cp.Time, Value: c, EaseIn: cp.EaseIn})
	}
	return curve.New(points)
}

// SpeedCurve returns the speed curve of the pair. Without a speed map, or
// with speed maps disabled, the pair speed is held constant over the pair.
func (p MarkerPair) SpeedCurve(enable bool) (curve.Curve[float64], error) {
	if !enable || len(p.SpeedMap) == 0 {
		return curve.Constant(p.Start, p.End, p.Speed), nil
	}
	points := make([]curve.Point[float64], 0, len(p.SpeedMap))
	for _, sp := range p.SpeedMap {
		points = append(points, curve.Point[float64]{Time: sp.Time, Value: sp.Speed})
	}
	return curve.New(points)
}

// TitlePrefix returns the title prefix override of the pair, or "".
func (p MarkerPair) TitlePrefix() string {
	if p.Overrides.TitlePrefix == nil {
		return ""
	}
	return *p.Overrides.TitlePrefix
}
