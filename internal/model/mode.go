package model

import "fmt"

// ModeState is the phase of the drawing surface.
type ModeState int

const (
	ModeIdle                     ModeState = iota // No tool selected
	ModeDrawing                                   // Collecting points for Kind
	ModeAwaitingCatalogSelection                  // Points complete, waiting for a price list item
)

func (m ModeState) String() string {
	switch m {
	case ModeDrawing:
		return "Drawing"
	case ModeAwaitingCatalogSelection:
		return "AwaitingCatalogSelection"
	default:
		return "Idle"
	}
}

// DrawingMode is the value threaded through the drawing handlers. Transitions
// return a new DrawingMode and never mutate the receiver.
type DrawingMode struct {
	State  ModeState `json:"state"`
	Kind   Kind      `json:"kind,omitempty"`
	Points []Point   `json:"points,omitempty"`
}

// Idle returns the resting mode.
func Idle() DrawingMode {
	return DrawingMode{State: ModeIdle}
}

// StartDrawing selects a measurement tool. Any in-progress points are dropped.
func (m DrawingMode) StartDrawing(kind Kind) (DrawingMode, error) {
	if !kind.Valid() {
		return m, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return DrawingMode{State: ModeDrawing, Kind: kind}, nil
}

// AddPoint records a tap on the plan. A count placement completes immediately
// and moves to catalog selection; further taps add more placements to the same count.
func (m DrawingMode) AddPoint(p Point) (DrawingMode, error) {
	countMore := m.State == ModeAwaitingCatalogSelection && m.Kind == KindCount
	if m.State != ModeDrawing && !countMore {
		return m, fmt.Errorf("%w: cannot add a point while %s", ErrInvalidMode, m.State)
	}
	if !p.InBounds() {
		return m, fmt.Errorf("%w: (%g, %g)", ErrPointOutOfBounds, p.X, p.Y)
	}
	next := DrawingMode{State: ModeDrawing, Kind: m.Kind, Points: append(append([]Point{}, m.Points...), p)}
	if m.Kind == KindCount {
		next.State = ModeAwaitingCatalogSelection
	}
	return next, nil
}

// Finish ends point collection for length and area tools.
func (m DrawingMode) Finish() (DrawingMode, error) {
	if m.State != ModeDrawing {
		return m, fmt.Errorf("%w: nothing to finish while %s", ErrInvalidMode, m.State)
	}
	if len(m.Points) < m.Kind.MinPoints() {
		return m, fmt.Errorf("%w: %s needs %d, have %d", ErrInsufficientPoints, m.Kind, m.Kind.MinPoints(), len(m.Points))
	}
	return DrawingMode{State: ModeAwaitingCatalogSelection, Kind: m.Kind, Points: m.Points}, nil
}

// Cancel discards any points and returns to Idle.
func (m DrawingMode) Cancel() DrawingMode {
	return Idle()
}
