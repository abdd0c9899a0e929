// Package engine turns drawn takeoff geometry into billable quantities and
// rolls priced quantities into estimate totals. Everything here is pure and
// safe to call from any goroutine.
package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

// Measure returns the raw magnitude of a drawing in normalized plan space:
// the number of placements for count, the polyline length for length and the
// enclosed polygon area for area.
//
// Points are consumed in order. Area uses the shoelace formula over the
// implicitly closed polygon and discards the sign, so winding direction does
// not matter. Self-intersecting polygons are not detected.
func Measure(kind model.Kind, points []model.Point) (float64, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %q", model.ErrUnknownKind, kind)
	}
	if len(points) < kind.MinPoints() {
		return 0, fmt.Errorf("%w: %s needs at least %d points, got %d",
			model.ErrInsufficientPoints, kind, kind.MinPoints(), len(points))
	}

	switch kind {
	case model.KindLength:
		return polylineLength(points), nil
	case model.KindArea:
		return polygonArea(points), nil
	default:
		return float64(len(points)), nil
	}
}

// polylineLength sums the Euclidean distance between consecutive points.
func polylineLength(points []model.Point) float64 {
	var total float64
	for i := 0; i < len(points)-1; i++ {
		total += r2.Norm(r2.Sub(vec(points[i+1]), vec(points[i])))
	}
	return total
}

// polygonArea applies the shoelace formula with indices wrapping modulo n.
func polygonArea(points []model.Point) float64 {
	n := len(points)
	var sum float64
	for i := 0; i < n; i++ {
		sum += r2.Cross(vec(points[i]), vec(points[(i+1)%n]))
	}
	return math.Abs(sum) / 2
}

func vec(p model.Point) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}
