package importer

import (
	"fmt"
	"math"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

// Overlay is a pre-drawn measurement taken from a CAD drawing, in normalized
// plan coordinates and ready to be committed like a hand-drawn one.
type Overlay struct {
	Kind   model.Kind
	Points []model.Point
	Source string // entity type it came from
}

// OverlayResult holds the results of a DXF overlay import.
type OverlayResult struct {
	Overlays []Overlay
	Errors   []string
	Warnings []string
}

// rawShape is a shape still in drawing units.
type rawShape struct {
	kind   model.Kind
	points []model.Point
	source string
}

// segment represents a line segment between two points, used for chaining
// disconnected LINE and ARC entities into runs.
type segment struct {
	start model.Point
	end   model.Point
}

// ImportDXF reads a DXF drawing and converts its entities into overlays.
// Closed LWPOLYLINEs and closed chains of LINE/ARC entities become area
// measurements, open ones become length measurements, and every CIRCLE
// becomes one count placement at its center. Coordinates are normalized
// against the drawing extents with the Y axis flipped to image orientation.
func ImportDXF(path string) OverlayResult {
	result := OverlayResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var shapes []rawShape
	var segments []segment
	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			pts := lwPolylinePoints(e)
			kind := model.KindLength
			if e.Closed {
				kind = model.KindArea
			}
			if len(pts) < kind.MinPoints() {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Skipped LWPOLYLINE with %d vertices", len(pts)))
				continue
			}
			shapes = append(shapes, rawShape{kind: kind, points: pts, source: "LWPOLYLINE"})

		case *entity.Circle:
			shapes = append(shapes, rawShape{
				kind:   model.KindCount,
				points: []model.Point{{X: e.Center[0], Y: e.Center[1]}},
				source: "CIRCLE",
			})

		case *entity.Arc:
			pts := arcToPoints(e, 32)
			segments = append(segments, pointsToSegments(pts)...)

		case *entity.Line:
			segments = append(segments, segment{
				start: model.Point{X: e.Start[0], Y: e.Start[1]},
				end:   model.Point{X: e.End[0], Y: e.End[1]},
			})
		}
	}

	shapes = append(shapes, chainSegments(segments, 0.01)...)

	overlays, warnings := normalizeShapes(shapes)
	result.Warnings = append(result.Warnings, warnings...)
	if len(overlays) == 0 {
		result.Errors = append(result.Errors, "No measurable shapes found in DXF file")
		return result
	}
	result.Overlays = overlays
	return result
}

// normalizeShapes maps drawing coordinates into [0,1]² using one uniform
// factor, so relative lengths and areas are preserved.
func normalizeShapes(shapes []rawShape) ([]Overlay, []string) {
	var all model.Outline
	for _, s := range shapes {
		all = append(all, s.points...)
	}
	if len(all) == 0 {
		return nil, nil
	}
	min, max := all.BoundingBox()
	extent := math.Max(max.X-min.X, max.Y-min.Y)
	if extent < 1e-9 {
		return nil, []string{"Drawing has zero extent"}
	}

	var overlays []Overlay
	var warnings []string
	for _, s := range shapes {
		pts := make([]model.Point, len(s.points))
		for i, p := range s.points {
			pts[i] = model.Point{
				X: clamp01((p.X - min.X) / extent),
				Y: clamp01((max.Y - p.Y) / extent),
			}
		}
		if s.kind == model.KindArea && outlineArea(pts) < 1e-9 {
			warnings = append(warnings, fmt.Sprintf("Skipped degenerate %s", s.source))
			continue
		}
		overlays = append(overlays, Overlay{Kind: s.kind, Points: pts, Source: s.source})
	}
	return overlays, warnings
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// lwPolylinePoints converts a DXF LWPOLYLINE entity to points.
// Bulge values on vertices produce interpolated arc segments.
func lwPolylinePoints(lw *entity.LwPolyline) []model.Point {
	var pts []model.Point
	n := len(lw.Vertices)

	for i := 0; i < n; i++ {
		v := lw.Vertices[i]
		current := model.Point{X: v[0], Y: v[1]}

		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}

		// The last vertex only bulges back to the first on a closed polyline.
		hasNext := i < n-1 || lw.Closed
		if math.Abs(bulge) > 1e-9 && hasNext {
			nv := lw.Vertices[(i+1)%n]
			arc := bulgeArcPoints(current, model.Point{X: nv[0], Y: nv[1]}, bulge, 16)
			pts = append(pts, arc[:len(arc)-1]...)
		} else {
			pts = append(pts, current)
		}
	}

	return pts
}

// bulgeArcPoints generates points along an arc defined by two endpoints and a
// DXF bulge factor. The bulge is the tangent of 1/4 the included angle.
func bulgeArcPoints(p1, p2 model.Point, bulge float64, numSegments int) []model.Point {
	mx := (p1.X + p2.X) / 2
	my := (p1.Y + p2.Y) / 2
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	chordLen := math.Sqrt(dx*dx + dy*dy)
	if chordLen < 1e-9 {
		return []model.Point{p1, p2}
	}

	sagitta := math.Abs(bulge) * chordLen / 2
	radius := (chordLen*chordLen/(4*sagitta) + sagitta) / 2

	perpX := -dy / chordLen
	perpY := dx / chordLen
	dist := radius - sagitta
	if bulge > 0 {
		perpX, perpY = -perpX, -perpY
	}
	cx := mx + perpX*dist
	cy := my + perpY*dist

	startAngle := math.Atan2(p1.Y-cy, p1.X-cx)
	endAngle := math.Atan2(p2.Y-cy, p2.X-cx)
	if bulge < 0 {
		if endAngle > startAngle {
			endAngle -= 2 * math.Pi
		}
	} else if endAngle < startAngle {
		endAngle += 2 * math.Pi
	}

	pts := make([]model.Point, 0, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startAngle + t*(endAngle-startAngle)
		pts = append(pts, model.Point{
			X: cx + radius*math.Cos(angle),
			Y: cy + radius*math.Sin(angle),
		})
	}
	return pts
}

// arcToPoints converts a DXF ARC entity to a series of line points.
func arcToPoints(a *entity.Arc, numSegments int) []model.Point {
	cx, cy := a.Circle.Center[0], a.Circle.Center[1]
	r := a.Circle.Radius

	startRad := a.Angle[0] * math.Pi / 180
	endRad := a.Angle[1] * math.Pi / 180
	if endRad <= startRad {
		endRad += 2 * math.Pi
	}

	pts := make([]model.Point, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startRad + t*(endRad-startRad)
		pts[i] = model.Point{
			X: cx + r*math.Cos(angle),
			Y: cy + r*math.Sin(angle),
		}
	}
	return pts
}

// pointsToSegments converts a point sequence to a slice of connected segments.
func pointsToSegments(pts []model.Point) []segment {
	if len(pts) < 2 {
		return nil
	}
	segs := make([]segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segs = append(segs, segment{start: pts[i], end: pts[i+1]})
	}
	return segs
}

// chainSegments connects segments end to end. A chain that returns to its
// start is an area; any other chain is a length run.
// tolerance is the maximum distance between endpoints to consider them connected.
func chainSegments(segs []segment, tolerance float64) []rawShape {
	used := make([]bool, len(segs))
	var shapes []rawShape

	for start := range segs {
		if used[start] {
			continue
		}
		chain := []model.Point{segs[start].start, segs[start].end}
		used[start] = true

		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]
			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
				} else if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
				} else {
					continue
				}
				used[i] = true
				changed = true
				break
			}
		}

		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			shapes = append(shapes, rawShape{kind: model.KindArea, points: chain[:len(chain)-1], source: "LINE"})
			continue
		}
		shapes = append(shapes, rawShape{kind: model.KindLength, points: chain, source: "LINE"})
	}

	return shapes
}

// pointsClose checks whether two points are within the given tolerance.
func pointsClose(a, b model.Point, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}

// outlineArea computes the absolute area of a polygon using the shoelace formula.
func outlineArea(pts []model.Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(area) / 2
}
