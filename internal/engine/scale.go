package engine

import (
	"fmt"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

// Calibrator holds the current plan scale. A rejected input leaves the
// previous scale in place.
type Calibrator struct {
	scale model.Scale
}

// NewCalibrator starts at the given scale, or 1:1 if it is not valid.
func NewCalibrator(initial model.Scale) *Calibrator {
	if initial.Validate() != nil {
		initial = 1
	}
	return &Calibrator{scale: initial}
}

// Scale returns the current ratio denominator.
func (c *Calibrator) Scale() model.Scale {
	return c.scale
}

// SetScale validates and stores a custom ratio.
func (c *Calibrator) SetScale(ratio float64) (model.Scale, error) {
	s := model.Scale(ratio)
	if err := s.Validate(); err != nil {
		return c.scale, err
	}
	c.scale = s
	return s, nil
}

// SetScaleText parses user input such as "48" or "1:48".
func (c *Calibrator) SetScaleText(text string) (model.Scale, error) {
	s, err := model.ParseScale(text)
	if err != nil {
		return c.scale, err
	}
	c.scale = s
	return s, nil
}

// SelectPreset applies a named architectural scale. It ends in the same state
// as SetScale with the preset's ratio.
func (c *Calibrator) SelectPreset(label string) (model.Scale, error) {
	p := model.FindScalePreset(label)
	if p == nil {
		return c.scale, fmt.Errorf("%w: unknown preset %q", model.ErrInvalidScale, label)
	}
	return c.SetScale(float64(p.Ratio))
}

// Label describes the current scale, preferring the preset name.
func (c *Calibrator) Label() string {
	if p := model.PresetFor(c.scale); p != nil {
		return p.Label
	}
	return c.scale.String()
}
