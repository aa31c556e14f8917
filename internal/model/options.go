package model

import (
	"fmt"
	"strings"
)

// QuantizationMode selects how source colors are mapped onto the palette.
type QuantizationMode string

const (
	ModeContrast         QuantizationMode = "contrast"
	ModeNatural          QuantizationMode = "natural"
	ModeKMeans           QuantizationMode = "kmeans"
	ModeKMeansBrightness QuantizationMode = "kmeans_brightness"
)

// Defaults mirror what the conversion service assumes when a field is absent.
const (
	DefaultMode          = ModeContrast
	DefaultMaxResolution = 256
	DefaultUpscaleFactor = 1
)

var quantizationModes = []QuantizationMode{ModeContrast, ModeNatural, ModeKMeans, ModeKMeansBrightness}

// ResolutionPresets lists the square output sizes offered in the UI.
var ResolutionPresets = []int{64, 128, 256, 512, 1024}

// UpscaleFactors lists the integer upscale factors offered in the UI.
var UpscaleFactors = []int{1, 2, 4, 8, 16}

// QuantizationModes returns the enumerated modes in display order.
func QuantizationModes() []QuantizationMode {
	out := make([]QuantizationMode, len(quantizationModes))
	copy(out, quantizationModes)
	return out
}

// ParseQuantizationMode accepts a mode name case-insensitively.
func ParseQuantizationMode(s string) (QuantizationMode, error) {
	mode := QuantizationMode(strings.ToLower(strings.TrimSpace(s)))
	if !mode.Valid() {
		return "", fmt.Errorf("unknown quantization mode %q", s)
	}
	return mode, nil
}

func (m QuantizationMode) String() string {
	return string(m)
}

// Valid reports whether m is one of the enumerated modes.
func (m QuantizationMode) Valid() bool {
	for _, known := range quantizationModes {
		if m == known {
			return true
		}
	}
	return false
}

// Label is the short human name of the mode.
func (m QuantizationMode) Label() string {
	switch m {
	case ModeContrast:
		return "Contrast"
	case ModeNatural:
		return "Natural"
	case ModeKMeans:
		return "K-Means"
	case ModeKMeansBrightness:
		return "K-Means (Brightness)"
	default:
		return string(m)
	}
}

// Description explains the mode in one sentence.
func (m QuantizationMode) Description() string {
	switch m {
	case ModeContrast:
		return "Emphasizes edges while quantizing"
	case ModeNatural:
		return "Attempts a more natural color reduction using CIELAB color space"
	case ModeKMeans:
		return "Uses k-means clustering to find dominant colors and match to palette"
	case ModeKMeansBrightness:
		return "Uses k-means and maps clusters based on brightness"
	default:
		return ""
	}
}

// ProcessingOptions is read fresh from the UI for every submission.
type ProcessingOptions struct {
	Mode          QuantizationMode
	MaxResolution int
	UpscaleFactor int
}

// DefaultOptions returns the options the UI starts with.
func DefaultOptions() ProcessingOptions {
	return ProcessingOptions{
		Mode:          DefaultMode,
		MaxResolution: DefaultMaxResolution,
		UpscaleFactor: DefaultUpscaleFactor,
	}
}

// Validate checks every field; the returned error names the first bad one.
func (o ProcessingOptions) Validate() error {
	if !o.Mode.Valid() {
		return fmt.Errorf("unknown quantization mode %q", o.Mode)
	}
	if o.MaxResolution <= 0 {
		return fmt.Errorf("max resolution must be positive, got %d", o.MaxResolution)
	}
	if o.UpscaleFactor <= 0 {
		return fmt.Errorf("upscale factor must be positive, got %d", o.UpscaleFactor)
	}
	return nil
}
