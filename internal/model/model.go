package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind is the type of takeoff measurement drawn on a plan.
type Kind string

const (
	KindCount  Kind = "count"  // One point per counted item
	KindLength Kind = "length" // Open polyline, linear units
	KindArea   Kind = "area"   // Implicitly closed polygon, square units
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindCount, KindLength, KindArea:
		return true
	}
	return false
}

// MinPoints returns the number of points a measurement of this kind needs.
func (k Kind) MinPoints() int {
	switch k {
	case KindLength:
		return 2
	case KindArea:
		return 3
	default:
		return 1
	}
}

func (k Kind) String() string {
	switch k {
	case KindCount:
		return "Count"
	case KindLength:
		return "Length"
	case KindArea:
		return "Area"
	default:
		return string(k)
	}
}

// ParseKind converts a user or wire string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Point is a coordinate normalized to the plan image's rendered bounding box.
// Both components lie in [0, 1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// InBounds reports whether the point lies inside the unit square.
func (p Point) InBounds() bool {
	return p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1
}

// Outline is an ordered list of points in drawing units, before normalization.
type Outline []Point

// BoundingBox returns the min and max corners of the outline.
func (o Outline) BoundingBox() (min, max Point) {
	if len(o) == 0 {
		return Point{}, Point{}
	}
	min = Point{X: o[0].X, Y: o[0].Y}
	max = Point{X: o[0].X, Y: o[0].Y}
	for _, p := range o[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// MeasurementColors is the palette cycled through as measurements are added to a plan.
var MeasurementColors = []string{"#EF4444", "#10B981", "#3B82F6", "#F59E0B", "#8B5CF6", "#EC4899"}

// ColorFor returns the palette color for the n-th measurement on a plan.
func ColorFor(n int) string {
	if n < 0 {
		n = 0
	}
	return MeasurementColors[n%len(MeasurementColors)]
}

// Measurement is one user-drawn annotation priced against a catalog item.
// It is never edited after creation; removal only sets Deleted.
type Measurement struct {
	ID              string  `json:"id"`
	Kind            Kind    `json:"type"`
	Points          []Point `json:"points"`
	Quantity        int     `json:"quantity"`
	PriceListItemID string  `json:"price_list_item_id"`
	Color           string  `json:"color"`
	Notes           string  `json:"notes,omitempty"`
	Deleted         bool    `json:"deleted,omitempty"`
}

func NewMeasurement(kind Kind, points []Point, quantity int, itemID, color string) Measurement {
	pts := make([]Point, len(points))
	copy(pts, points)
	return Measurement{
		ID:              uuid.New().String()[:8],
		Kind:            kind,
		Points:          pts,
		Quantity:        quantity,
		PriceListItemID: itemID,
		Color:           color,
	}
}

// Plan is one uploaded blueprint page and the measurements drawn on it.
type Plan struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	ImageURI     string        `json:"image_uri"`
	Scale        Scale         `json:"scale"`
	Measurements []Measurement `json:"measurements"`
}

func NewPlan(name, imageURI string) Plan {
	return Plan{
		ID:           uuid.New().String()[:8],
		Name:         name,
		ImageURI:     imageURI,
		Scale:        1,
		Measurements: []Measurement{},
	}
}

// LiveMeasurements returns the measurements that have not been removed.
func (p Plan) LiveMeasurements() []Measurement {
	live := make([]Measurement, 0, len(p.Measurements))
	for _, m := range p.Measurements {
		if !m.Deleted {
			live = append(live, m)
		}
	}
	return live
}

// EstimateStatus is the lifecycle state of an estimate.
type EstimateStatus string

const (
	EstimateDraft    EstimateStatus = "draft"
	EstimateSent     EstimateStatus = "sent"
	EstimateApproved EstimateStatus = "approved"
	EstimateRejected EstimateStatus = "rejected"
)

// CustomItemID marks estimate items that do not reference a catalog entry.
const CustomItemID = "custom"

// EstimateItem is one priced line of an estimate.
type EstimateItem struct {
	ID              string  `json:"id"`
	PriceListItemID string  `json:"price_list_item_id"`
	CustomName      string  `json:"custom_name,omitempty"`
	CustomUnit      string  `json:"custom_unit,omitempty"`
	CustomCategory  string  `json:"custom_category,omitempty"`
	Quantity        float64 `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	Total           float64 `json:"total"`
	Notes           string  `json:"notes,omitempty"`
}

// IsCustom reports whether the item was synthesized rather than taken from the catalog.
func (ei EstimateItem) IsCustom() bool {
	return ei.PriceListItemID == CustomItemID
}

// Estimate is a priced, immutable snapshot produced from a takeoff or an AI review.
type Estimate struct {
	ID              string         `json:"id"`
	ProjectID       string         `json:"project_id"`
	Name            string         `json:"name"`
	Items           []EstimateItem `json:"items"`
	Subtotal        float64        `json:"subtotal"`
	OverheadPercent float64        `json:"overhead_percent"`
	OverheadAmount  float64        `json:"overhead_amount"`
	TaxPercent      float64        `json:"tax_percent"`
	TaxRate         float64        `json:"tax_rate"`
	TaxAmount       float64        `json:"tax_amount"`
	Total           float64        `json:"total"`
	Status          EstimateStatus `json:"status"`
	CreatedAt       string         `json:"created_at"`
}

func NewEstimate(projectID, name string) Estimate {
	return Estimate{
		ID:        uuid.New().String()[:8],
		ProjectID: projectID,
		Name:      name,
		Items:     []EstimateItem{},
		Status:    EstimateDraft,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}
