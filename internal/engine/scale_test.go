package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

func TestCalibratorSetScale(t *testing.T) {
	c := NewCalibrator(1)
	s, err := c.SetScale(48)
	require.NoError(t, err)
	assert.Equal(t, model.Scale(48), s)
	assert.Equal(t, model.Scale(48), c.Scale())
}

func TestCalibratorRejectsAndRetains(t *testing.T) {
	c := NewCalibrator(96)
	for _, bad := range []float64{0, -48, math.NaN(), math.Inf(-1)} {
		s, err := c.SetScale(bad)
		assert.True(t, errors.Is(err, model.ErrInvalidScale))
		assert.Equal(t, model.Scale(96), s)
		assert.Equal(t, model.Scale(96), c.Scale())
	}

	_, err := c.SetScaleText("quarter inch")
	assert.True(t, errors.Is(err, model.ErrInvalidScale))
	assert.Equal(t, model.Scale(96), c.Scale())
}

func TestCalibratorPresetEqualsCustom(t *testing.T) {
	a := NewCalibrator(1)
	b := NewCalibrator(1)

	_, err := a.SelectPreset(`1/4" = 1'`)
	require.NoError(t, err)
	_, err = b.SetScaleText("48")
	require.NoError(t, err)

	assert.Equal(t, a.Scale(), b.Scale())
	assert.Equal(t, `1/4" = 1'`, b.Label())
}

func TestCalibratorUnknownPreset(t *testing.T) {
	c := NewCalibrator(24)
	_, err := c.SelectPreset("1:50 metric")
	assert.True(t, errors.Is(err, model.ErrInvalidScale))
	assert.Equal(t, model.Scale(24), c.Scale())
}

func TestCalibratorInvalidInitial(t *testing.T) {
	c := NewCalibrator(-3)
	assert.Equal(t, model.Scale(1), c.Scale())
	assert.Equal(t, `12" = 1'`, c.Label())
}

func TestCalibratorCustomLabel(t *testing.T) {
	c := NewCalibrator(1)
	_, err := c.SetScale(50)
	require.NoError(t, err)
	assert.Equal(t, "1:50", c.Label())
}
