package engine

import (
	"fmt"
	"math"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

// Resolver converts raw geometric magnitudes into whole billable units.
type Resolver struct {
	KLength float64 // normalized distance → linear units at 1:1
	KArea   float64 // normalized area → square units at 1:1
}

// DefaultResolver uses the calibrated constants of a standard plan image.
func DefaultResolver() Resolver {
	return Resolver{KLength: model.DefaultKLength, KArea: model.DefaultKArea}
}

// ResolverFromConfig builds a Resolver from the application config, falling
// back to the defaults for unset constants.
func ResolverFromConfig(cfg model.AppConfig) Resolver {
	r := DefaultResolver()
	if cfg.KLength > 0 {
		r.KLength = cfg.KLength
	}
	if cfg.KArea > 0 {
		r.KArea = cfg.KArea
	}
	return r
}

// ResolveQuantity rounds a raw magnitude to the nearest whole unit.
// Counts ignore the scale; lengths scale linearly; areas scale with scale².
func (r Resolver) ResolveQuantity(kind model.Kind, raw float64, scale model.Scale) (int, error) {
	s := float64(scale)
	switch kind {
	case model.KindCount:
		return int(math.Round(raw)), nil
	case model.KindLength:
		if err := scale.Validate(); err != nil {
			return 0, err
		}
		return int(math.Round(raw * r.KLength * s)), nil
	case model.KindArea:
		if err := scale.Validate(); err != nil {
			return 0, err
		}
		return int(math.Round(raw * r.KArea * s * s)), nil
	default:
		return 0, fmt.Errorf("%w: %q", model.ErrUnknownKind, kind)
	}
}

// Resolve measures the points and converts the result in one step.
func (r Resolver) Resolve(kind model.Kind, points []model.Point, scale model.Scale) (int, error) {
	raw, err := Measure(kind, points)
	if err != nil {
		return 0, err
	}
	return r.ResolveQuantity(kind, raw, scale)
}

// ResolveQuantity uses the default constants.
func ResolveQuantity(kind model.Kind, raw float64, scale model.Scale) (int, error) {
	return DefaultResolver().ResolveQuantity(kind, raw, scale)
}
