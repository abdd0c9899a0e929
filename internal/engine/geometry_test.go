package engine

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

const eps = 1e-9

func rect(x, y, w, h float64) []model.Point {
	return []model.Point{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}
}

func reversed(pts []model.Point) []model.Point {
	out := make([]model.Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

func TestMeasureCount(t *testing.T) {
	got, err := Measure(model.KindCount, []model.Point{{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.2}, {X: 0.3, Y: 0.3}})
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)
}

func TestMeasureLength(t *testing.T) {
	tests := []struct {
		name   string
		points []model.Point
		want   float64
	}{
		{"3-4-5", []model.Point{{X: 0, Y: 0}, {X: 0.3, Y: 0.4}}, 0.5},
		{"horizontal", []model.Point{{X: 0.1, Y: 0.5}, {X: 0.9, Y: 0.5}}, 0.8},
		{"two segments", []model.Point{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 0.5, Y: 0.25}}, 0.75},
		{"repeated point", []model.Point{{X: 0.2, Y: 0.2}, {X: 0.2, Y: 0.2}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Measure(model.KindLength, tt.points)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, eps)
		})
	}
}

func TestMeasureLengthIgnoresDirection(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		n := 2 + rng.Intn(8)
		pts := make([]model.Point, n)
		for j := range pts {
			pts[j] = model.Point{X: rng.Float64(), Y: rng.Float64()}
		}
		fwd, err := Measure(model.KindLength, pts)
		require.NoError(t, err)
		back, err := Measure(model.KindLength, reversed(pts))
		require.NoError(t, err)
		assert.InDelta(t, fwd, back, eps)
	}
}

func TestMeasureAreaRectangleEitherDirection(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		w := rng.Float64() * 0.5
		h := rng.Float64() * 0.5
		pts := rect(rng.Float64()*0.5, rng.Float64()*0.5, w, h)

		ccw, err := Measure(model.KindArea, pts)
		require.NoError(t, err)
		cw, err := Measure(model.KindArea, reversed(pts))
		require.NoError(t, err)

		assert.InDelta(t, w*h, ccw, eps)
		assert.InDelta(t, w*h, cw, eps)
	}
}

func TestMeasureAreaTriangle(t *testing.T) {
	got, err := Measure(model.KindArea, []model.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, eps)
}

func TestMeasureAreaSelfIntersectingIsNotAnError(t *testing.T) {
	// Bow-tie: the two lobes cancel in the signed sum.
	bowtie := []model.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	got, err := Measure(model.KindArea, bowtie)
	require.NoError(t, err)
	assert.InDelta(t, 0, got, eps)
}

func TestMeasureInsufficientPoints(t *testing.T) {
	_, err := Measure(model.KindLength, []model.Point{{X: 0.5, Y: 0.5}})
	assert.True(t, errors.Is(err, model.ErrInsufficientPoints))

	_, err = Measure(model.KindArea, []model.Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
	assert.True(t, errors.Is(err, model.ErrInsufficientPoints))

	_, err = Measure(model.KindCount, nil)
	assert.True(t, errors.Is(err, model.ErrInsufficientPoints))
}

func TestMeasureUnknownKind(t *testing.T) {
	_, err := Measure("volume", rect(0, 0, 1, 1))
	assert.True(t, errors.Is(err, model.ErrUnknownKind))
}

func TestMeasureDoesNotModifyInput(t *testing.T) {
	pts := rect(0.1, 0.1, 0.2, 0.3)
	before := append([]model.Point(nil), pts...)
	_, _ = Measure(model.KindArea, pts)
	assert.Equal(t, before, pts)
	assert.False(t, math.IsNaN(pts[0].X))
}
