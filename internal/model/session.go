package model

import (
	"fmt"
	"time"
)

// Session is one takeoff over a multi-page blueprint. A session has a single
// writer; it is not safe for concurrent mutation.
type Session struct {
	ProjectID       string  `json:"project_id"`
	Name            string  `json:"name"`
	Plans           []Plan  `json:"plans"`
	ActivePlan      int     `json:"active_plan"`
	OverheadPercent float64 `json:"overhead_percent"`
	TaxPercent      float64 `json:"tax_percent"`
	UpdatedAt       string  `json:"updated_at"`
}

func NewSession(projectID string) Session {
	return Session{
		ProjectID:       projectID,
		Name:            "Untitled",
		Plans:           []Plan{},
		OverheadPercent: DefaultOverheadPercent,
		TaxPercent:      DefaultTaxPercent,
	}
}

// AddPlan appends a new page named after its position and makes it active.
func (s *Session) AddPlan(imageURI string) *Plan {
	s.Plans = append(s.Plans, NewPlan(fmt.Sprintf("Plan %d", len(s.Plans)+1), imageURI))
	s.ActivePlan = len(s.Plans) - 1
	s.touch()
	return &s.Plans[s.ActivePlan]
}

// SelectPlan changes the active page.
func (s *Session) SelectPlan(i int) error {
	if i < 0 || i >= len(s.Plans) {
		return fmt.Errorf("%w: index %d", ErrNoPlan, i)
	}
	s.ActivePlan = i
	return nil
}

// Active returns the active plan, or nil when the session has no plans.
func (s *Session) Active() *Plan {
	if s.ActivePlan < 0 || s.ActivePlan >= len(s.Plans) {
		return nil
	}
	return &s.Plans[s.ActivePlan]
}

// FindPlan returns a pointer to the plan with the given ID, or nil.
func (s *Session) FindPlan(id string) *Plan {
	for i := range s.Plans {
		if s.Plans[i].ID == id {
			return &s.Plans[i]
		}
	}
	return nil
}

// AppendMeasurement adds m to the active plan. Measurements are only ever appended.
func (s *Session) AppendMeasurement(m Measurement) error {
	p := s.Active()
	if p == nil {
		return ErrNoPlan
	}
	p.Measurements = append(p.Measurements, m)
	s.touch()
	return nil
}

// RemoveMeasurement soft-deletes a measurement on any plan. Measurement IDs
// are unique across the session.
func (s *Session) RemoveMeasurement(id string) error {
	for pi := range s.Plans {
		ms := s.Plans[pi].Measurements
		for i := range ms {
			if ms[i].ID == id && !ms[i].Deleted {
				ms[i].Deleted = true
				s.touch()
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %s", ErrMeasurementNotFound, id)
}

// LiveMeasurements returns every non-deleted measurement across all plans, in plan order.
func (s *Session) LiveMeasurements() []Measurement {
	var all []Measurement
	for _, p := range s.Plans {
		all = append(all, p.LiveMeasurements()...)
	}
	return all
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}
