// Package settings loads the run configuration of clipper: the global
// settings built from flags and an optional YAML defaults file, the marker
// JSON produced by the editor, and the per marker pair overrides layered on
// top of both.
package settings

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/torre76/clipper/filter"
)

// Private constants (alphabetical)
const (
	defaultFadeDuration = 0.7
	defaultSearchParam  = 32
	defaultSubsStyle    = "FontSize=12,PrimaryColour=&H32FFFFFF,SecondaryColour=&H32000000,MarginV=5"
	defaultVideoCodec   = "vp9"
)

// Public types (alphabetical)

// Denoise is a hqdn3d denoise preset.
type Denoise struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	LumaSpatial int    `json:"lumaSpatial" yaml:"lumaSpatial"`
	Desc        string `json:"desc" yaml:"desc"`
}

// Global holds every setting of a run. Flags and the defaults file fill it;
// marker JSON and marker pair overrides are applied with Effective.
type Global struct {
	// Inputs and outputs.
	MarkersJSON     string `yaml:"json"`
	InputVideo      string `yaml:"inputVideo"`
	ClipsDir        string `yaml:"clipsDir"`
	TempDir         string `yaml:"tempDir"`
	TitlePrefix     string `yaml:"titlePrefix"`
	TitleSuffix     string `yaml:"titleSuffix"`
	VideoTitle      string `yaml:"videoTitle"`
	Overwrite       bool   `yaml:"overwrite"`
	Preview         bool   `yaml:"preview"`
	Only            string `yaml:"only"`
	Except          string `yaml:"except"`
	MergeList       string `yaml:"markerPairsMergeList"`
	RemoveMetadata  bool   `yaml:"removeMetadata"`
	ExtraFFmpegArgs string `yaml:"extraFfmpegArgs"`

	// Crop resolution scaling.
	CropMultipleX      float64 `yaml:"cropMultipleX"`
	CropMultipleY      float64 `yaml:"cropMultipleY"`
	NoAutoScaleCropRes bool    `yaml:"noAutoScaleCropRes"`

	// Timing.
	Delay           float64 `yaml:"delay"`
	AudioDelay      float64 `yaml:"audioDelay"`
	EnableSpeedMaps bool    `yaml:"enableSpeedMaps"`
	EnableCropMaps  bool    `yaml:"enableCropMaps"`

	// Encoding.
	VideoCodec               string  `yaml:"videoCodec"`
	CRF                      int     `yaml:"crf"`
	TargetMaxBitrate         int     `yaml:"targetMaxBitrate"`
	TargetSize               float64 `yaml:"targetSize"`
	TwoPass                  *bool   `yaml:"twoPass"`
	EncodeSpeed              int     `yaml:"encodeSpeed"`
	EnableHDR                bool    `yaml:"enableHDR"`
	H264DisableReduceStutter bool    `yaml:"h264DisableReduceStutter"`

	// Audio.
	Audio             bool    `yaml:"audio"`
	AudioFade         float64 `yaml:"audioFade"`
	ExtraAudioFilters string  `yaml:"extraAudioFilters"`

	// Filters.
	Rotate            string  `yaml:"rotate"`
	Deinterlace       bool    `yaml:"deinterlace"`
	Dedupe            bool    `yaml:"dedupe"`
	NoDedupe          bool    `yaml:"noDedupe"`
	Gamma             float64 `yaml:"gamma"`
	Denoise           Denoise `yaml:"denoise"`
	ExtraVideoFilters string  `yaml:"extraVideoFilters"`
	SubsFile          string  `yaml:"subsFilePath"`
	SubsStyle         string  `yaml:"subsStyle"`

	// Looping.
	Loop         string  `yaml:"loop"`
	FadeDuration float64 `yaml:"fadeDuration"`

	// Motion interpolation.
	MinterpMode               string `yaml:"minterpMode"`
	MinterpFPS                int    `yaml:"minterpFPS"`
	MinterpSearchParam        int    `yaml:"minterpSearchParam"`
	EnableMinterpEnhancements bool   `yaml:"enableMinterpEnhancements"`

	// Stabilization.
	Stabilization         Stabilization `yaml:"videoStabilization"`
	StabilizationMaxAngle float64       `yaml:"videoStabilizationMaxAngle"`
	StabilizationMaxShift int           `yaml:"videoStabilizationMaxShift"`
	StabilizationZoom     bool          `yaml:"videoStabilizationDynamicZoom"`
}

// Overrides are optional settings carried by the marker JSON, either at the
// top level or per marker pair. A nil field leaves the base value alone.
type Overrides struct {
	TitlePrefix               *string        `json:"titlePrefix,omitempty"`
	VideoCodec                *string        `json:"videoCodec,omitempty"`
	CRF                       *int           `json:"crf,omitempty"`
	TargetMaxBitrate          *int           `json:"targetMaxBitrate,omitempty"`
	TargetSize                *float64       `json:"targetSize,omitempty"`
	TwoPass                   *bool          `json:"twoPass,omitempty"`
	EncodeSpeed               *int           `json:"encodeSpeed,omitempty"`
	EnableHDR                 *bool          `json:"enableHDR,omitempty"`
	H264DisableReduceStutter  *bool          `json:"h264DisableReduceStutter,omitempty"`
	Delay                     *float64       `json:"delay,omitempty"`
	AudioDelay                *float64       `json:"audioDelay,omitempty"`
	EnableSpeedMaps           *bool          `json:"enableSpeedMaps,omitempty"`
	EnableCropMaps            *bool          `json:"enableCropMaps,omitempty"`
	Audio                     *bool          `json:"audio,omitempty"`
	AudioFade                 *float64       `json:"audioFade,omitempty"`
	ExtraAudioFilters         *string        `json:"extraAudioFilters,omitempty"`
	Rotate                    *string        `json:"rotate,omitempty"`
	Deinterlace               *bool          `json:"deinterlace,omitempty"`
	Dedupe                    *bool          `json:"dedupe,omitempty"`
	NoDedupe                  *bool          `json:"noDedupe,omitempty"`
	Gamma                     *float64       `json:"gamma,omitempty"`
	Denoise                   *Denoise       `json:"denoise,omitempty"`
	ExtraVideoFilters         *string        `json:"extraVideoFilters,omitempty"`
	SubsStyle                 *string        `json:"subsStyle,omitempty"`
	Loop                      *string        `json:"loop,omitempty"`
	FadeDuration              *float64       `json:"fadeDuration,omitempty"`
	MinterpMode               *string        `json:"minterpMode,omitempty"`
	MinterpFPS                *int           `json:"minterpFPS,omitempty"`
	MinterpSearchParam        *int           `json:"minterpSearchParam,omitempty"`
	EnableMinterpEnhancements *bool          `json:"enableMinterpEnhancements,omitempty"`
	Stabilization             *Stabilization `json:"videoStabilization,omitempty"`
	StabilizationMaxAngle     *float64       `json:"videoStabilizationMaxAngle,omitempty"`
	StabilizationMaxShift     *int           `json:"videoStabilizationMaxShift,omitempty"`
	StabilizationZoom         *bool          `json:"videoStabilizationDynamicZoom,omitempty"`
}

// Stabilization is a vidstab preset as stored in settings and marker JSON.
type Stabilization struct {
	Enabled   bool    `json:"enabled" yaml:"enabled"`
	Shakiness int     `json:"shakiness" yaml:"shakiness"`
	ZoomSpeed float64 `json:"zoomspeed" yaml:"zoomspeed"`
	Smoothing int     `json:"smoothing" yaml:"smoothing"`
	Desc      string  `json:"desc" yaml:"desc"`
}

// Private variables (alphabetical)

var denoisePresets = []Denoise{
	{Desc: "Disabled"},
	{Enabled: true, LumaSpatial: 1, Desc: "Very Weak"},
	{Enabled: true, LumaSpatial: 2, Desc: "Weak"},
	{Enabled: true, LumaSpatial: 4, Desc: "Medium"},
	{Enabled: true, LumaSpatial: 6, Desc: "Strong"},
	{Enabled: true, LumaSpatial: 8, Desc: "Very Strong"},
}

// Public functions (alphabetical)

// Defaults returns the built-in global settings.
func Defaults() Global {
	return Global{
		ClipsDir:              "clips",
		TempDir:               "temp",
		CropMultipleX:         1,
		CropMultipleY:         1,
		EnableSpeedMaps:       true,
		EnableCropMaps:        true,
		VideoCodec:            defaultVideoCodec,
		CRF:                   -1,
		EncodeSpeed:           -1,
		Gamma:                 1,
		Denoise:               DenoisePreset(0),
		SubsStyle:             defaultSubsStyle,
		Loop:                  string(filter.LoopNone),
		FadeDuration:          defaultFadeDuration,
		MinterpMode:           string(filter.MinterpNumeric),
		MinterpSearchParam:    defaultSearchParam,
		Stabilization:         StabilizationPreset(0),
		StabilizationMaxShift: -1,
	}
}

// DenoisePreset returns the denoise preset for level 0-5. Out of range
// levels disable denoising.
func DenoisePreset(level int) Denoise {
	if level <= 0 || level >= len(denoisePresets) {
		return denoisePresets[0]
	}
	return denoisePresets[level]
}

// Effective applies the non-nil fields of each override in order onto a copy
// of base.
func Effective(base Global, overrides ...Overrides) Global {
	g := base
	for _, o := range overrides {
		apply(&g.TitlePrefix, o.TitlePrefix)
		apply(&g.VideoCodec, o.VideoCodec)
		apply(&g.CRF, o.CRF)
		apply(&g.TargetMaxBitrate, o.TargetMaxBitrate)
		apply(&g.TargetSize, o.TargetSize)
		if o.TwoPass != nil {
			v := *o.TwoPass
			g.TwoPass = &v
		}
		apply(&g.EncodeSpeed, o.EncodeSpeed)
		apply(&g.EnableHDR, o.EnableHDR)
		apply(&g.H264DisableReduceStutter, o.H264DisableReduceStutter)
		apply(&g.Delay, o.Delay)
		apply(&g.AudioDelay, o.AudioDelay)
		apply(&g.EnableSpeedMaps, o.EnableSpeedMaps)
		apply(&g.EnableCropMaps, o.EnableCropMaps)
		apply(&g.Audio, o.Audio)
		apply(&g.AudioFade, o.AudioFade)
		apply(&g.ExtraAudioFilters, o.ExtraAudioFilters)
		apply(&g.Rotate, o.Rotate)
		apply(&g.Deinterlace, o.Deinterlace)
		apply(&g.Dedupe, o.Dedupe)
		apply(&g.NoDedupe, o.NoDedupe)
		apply(&g.Gamma, o.Gamma)
		apply(&g.Denoise, o.Denoise)
		apply(&g.ExtraVideoFilters, o.ExtraVideoFilters)
		apply(&g.SubsStyle, o.SubsStyle)
		apply(&g.Loop, o.Loop)
		apply(&g.FadeDuration, o.FadeDuration)
		apply(&g.MinterpMode, o.MinterpMode)
		apply(&g.MinterpFPS, o.MinterpFPS)
		apply(&g.MinterpSearchParam, o.MinterpSearchParam)
		apply(&g.EnableMinterpEnhancements, o.EnableMinterpEnhancements)
		apply(&g.Stabilization, o.Stabilization)
		apply(&g.StabilizationMaxAngle, o.StabilizationMaxAngle)
		apply(&g.StabilizationMaxShift, o.StabilizationMaxShift)
		apply(&g.StabilizationZoom, o.StabilizationZoom)
	}
	return g
}

// LoadDefaults reads a YAML defaults file over the built-in defaults. A
// missing file is not an error.
func LoadDefaults(path string) (Global, error) {
	g := Defaults()
	if path == "" {
		return g, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return g, nil
	}
	if err != nil {
		return g, fmt.Errorf("settings: reading defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, &g); err != nil {
		return g, fmt.Errorf("settings: parsing defaults %s: %w", path, err)
	}
	return g, nil
}

// StabilizationPreset returns the vidstab preset for level 0-6.
func StabilizationPreset(level int) Stabilization {
	v, ok := filter.VidstabPreset(level)
	return Stabilization{
		Enabled:   ok,
		Shakiness: v.Shakiness,
		ZoomSpeed: v.ZoomSpeed,
		Smoothing: v.Smoothing,
		Desc:      v.Desc,
	}
}

// Private functions (alphabetical)

func apply[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Type methods (alphabetical)

// LoopMode parses the loop setting.
func (g Global) LoopMode() (filter.LoopMode, error) {
	return filter.ParseLoopMode(g.Loop)
}

// Vidstab converts the stabilization setting for the filter package.
func (s Stabilization) Vidstab() filter.Vidstab {
	return filter.Vidstab{
		Shakiness: s.Shakiness,
		ZoomSpeed: s.ZoomSpeed,
		Smoothing: s.Smoothing,
		Desc:      s.Desc,
	}
}
