package scoring

import (
	"fmt"

	"github.com/wms-platform/slotting-service/internal/domain"
)

// defaultZoneCapacity is the picks-per-hour ceiling assumed for zones with
// no configured capacity
const defaultZoneCapacity = 120.0

// CongestionScorer rates how crowded a location's zone is. Higher means a
// busier zone, so the composite score subtracts it.
type CongestionScorer struct {
	// Recent picks/hour per zone, aggregated for the warehouse
	ZoneRates map[string]float64
	// Configured capacity per zone; zones not listed use the default
	ZoneCapacity map[string]float64
}

// Score returns the congestion component in [0,1] as utilization of the
// zone's pick capacity.
func (s CongestionScorer) Score(loc *domain.Location) float64 {
	rate := s.ZoneRates[loc.Zone]
	if rate <= 0 {
		return 0
	}

	capacity := defaultZoneCapacity
	if c, ok := s.ZoneCapacity[loc.Zone]; ok && c > 0 {
		capacity = c
	}

	return domain.Clamp01(rate / capacity)
}

// Explain returns the operator-facing reasoning sentence for the component
func (s CongestionScorer) Explain(loc *domain.Location, component float64) string {
	switch {
	case component >= 0.7:
		return fmt.Sprintf("zone %s is heavily congested", loc.Zone)
	case component >= 0.3:
		return fmt.Sprintf("zone %s carries moderate traffic", loc.Zone)
	default:
		return fmt.Sprintf("zone %s has spare capacity", loc.Zone)
	}
}
