package scoring

import (
	"fmt"

	"github.com/wms-platform/slotting-service/internal/domain"
)

// TravelScorer rates the travel penalty of a location. Higher means more
// walking, so the composite score subtracts it.
type TravelScorer struct {
	// Normalization ceilings, taken from the warehouse's farthest location
	// and its most-walked slot
	MaxDockDistance float64
	MaxPathDistance float64
	MaxCoPickMeters float64
}

// NewTravelScorer derives normalization ceilings from a warehouse's
// locations and its observed pick statistics
func NewTravelScorer(locations []*domain.Location, stats []domain.PickStat) TravelScorer {
	s := TravelScorer{}
	for _, loc := range locations {
		if loc.DistanceFromDock > s.MaxDockDistance {
			s.MaxDockDistance = loc.DistanceFromDock
		}
		if loc.DistanceFromPath > s.MaxPathDistance {
			s.MaxPathDistance = loc.DistanceFromPath
		}
	}
	for _, stat := range stats {
		if stat.AvgTravelMeter > s.MaxCoPickMeters {
			s.MaxCoPickMeters = stat.AvgTravelMeter
		}
	}
	return s
}

// Score returns the travel cost component in [0,1].
// Dock distance dominates, detour from the main pick path adds the next
// share, and the observed average walk to co-picked stock tops it off.
// coPickMeters is zero for slots with no pick history.
func (s TravelScorer) Score(loc *domain.Location, coPickMeters float64) float64 {
	dock := 0.0
	if s.MaxDockDistance > 0 {
		dock = domain.Clamp01(loc.DistanceFromDock / s.MaxDockDistance)
	}
	path := 0.0
	if s.MaxPathDistance > 0 {
		path = domain.Clamp01(loc.DistanceFromPath / s.MaxPathDistance)
	}
	copick := 0.0
	if s.MaxCoPickMeters > 0 {
		copick = domain.Clamp01(coPickMeters / s.MaxCoPickMeters)
	}

	return domain.Clamp01(0.7*dock + 0.3*path + 0.2*copick)
}

// Explain returns the operator-facing reasoning sentence for the component
func (s TravelScorer) Explain(loc *domain.Location, component float64) string {
	switch {
	case component >= 0.7:
		return fmt.Sprintf("far slot: %.0fm from dock in zone %s", loc.DistanceFromDock, loc.Zone)
	case component >= 0.3:
		return fmt.Sprintf("mid-range slot: %.0fm from dock", loc.DistanceFromDock)
	default:
		return "prime slot: close to dock and pick path"
	}
}
