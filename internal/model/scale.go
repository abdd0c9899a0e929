package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scale is the ratio denominator of an architectural scale: 1 real unit to N plan units.
type Scale float64

// Validate returns ErrInvalidScale unless the scale is a finite positive number.
func (s Scale) Validate() error {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidScale, f)
	}
	return nil
}

func (s Scale) String() string {
	return "1:" + strconv.FormatFloat(float64(s), 'f', -1, 64)
}

// ParseScale reads a custom ratio as typed by the user, e.g. "48" or "1:48".
func ParseScale(text string) (Scale, error) {
	t := strings.TrimSpace(text)
	t = strings.TrimPrefix(t, "1:")
	t = strings.TrimSpace(t)
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidScale, text)
	}
	s := Scale(f)
	if err := s.Validate(); err != nil {
		return 0, err
	}
	return s, nil
}

// ScalePreset is a named architectural scale.
type ScalePreset struct {
	Label       string `json:"label"`
	Ratio       Scale  `json:"ratio"`
	Description string `json:"description"`
}

// ArchitecturalScales lists the common imperial drawing scales, smallest drawing first.
var ArchitecturalScales = []ScalePreset{
	{Label: `1/128" = 1'`, Ratio: 1536, Description: "1:1536"},
	{Label: `1/64" = 1'`, Ratio: 768, Description: "1:768"},
	{Label: `1/32" = 1'`, Ratio: 384, Description: "1:384"},
	{Label: `1/16" = 1'`, Ratio: 192, Description: "1:192"},
	{Label: `3/32" = 1'`, Ratio: 128, Description: "1:128"},
	{Label: `1/8" = 1'`, Ratio: 96, Description: "1:96"},
	{Label: `3/16" = 1'`, Ratio: 64, Description: "1:64"},
	{Label: `1/4" = 1'`, Ratio: 48, Description: "1:48 (Common)"},
	{Label: `3/8" = 1'`, Ratio: 32, Description: "1:32"},
	{Label: `1/2" = 1'`, Ratio: 24, Description: "1:24"},
	{Label: `3/4" = 1'`, Ratio: 16, Description: "1:16"},
	{Label: `1" = 1'`, Ratio: 12, Description: "1:12"},
	{Label: `1-1/2" = 1'`, Ratio: 8, Description: "1:8"},
	{Label: `3" = 1'`, Ratio: 4, Description: "1:4"},
	{Label: `6" = 1'`, Ratio: 2, Description: "1:2"},
	{Label: `12" = 1'`, Ratio: 1, Description: "1:1"},
}

// FindScalePreset returns the preset with the given label, or nil.
func FindScalePreset(label string) *ScalePreset {
	for i := range ArchitecturalScales {
		if ArchitecturalScales[i].Label == label {
			return &ArchitecturalScales[i]
		}
	}
	return nil
}

// PresetFor returns the preset whose ratio equals s, or nil for custom ratios.
func PresetFor(s Scale) *ScalePreset {
	for i := range ArchitecturalScales {
		if ArchitecturalScales[i].Ratio == s {
			return &ArchitecturalScales[i]
		}
	}
	return nil
}

// ScaleLabels returns preset labels for pickers.
func ScaleLabels() []string {
	labels := make([]string, len(ArchitecturalScales))
	for i, p := range ArchitecturalScales {
		labels[i] = p.Label
	}
	return labels
}
