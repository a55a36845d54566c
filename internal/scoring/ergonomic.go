package scoring

import (
	"fmt"

	"github.com/wms-platform/slotting-service/internal/domain"
)

// ErgonomicScorer rates the physical strain of picking from a location.
// Higher means riskier, so the composite score subtracts it.
type ErgonomicScorer struct{}

// Score returns the ergonomic component in [0,1]. The traffic-light band
// sets the base penalty; the composite risk score from the vision pipeline
// and recorded incidents shade it within the band.
func (ErgonomicScorer) Score(loc *domain.Location) float64 {
	base := loc.Band.Penalty()

	// compositeRiskScore is 0-100; blend a fraction of it into the band
	// penalty so two red slots with different measured risk still order
	risk := domain.Clamp01(loc.CompositeRiskScore / 100.0)

	incident := 0.0
	if loc.IncidentCount > 0 {
		incident = domain.Clamp01(float64(loc.IncidentCount) / 10.0)
	}

	return domain.Clamp01(0.7*base + 0.2*risk + 0.1*incident)
}

// Explain returns the operator-facing reasoning sentence for the component
func (ErgonomicScorer) Explain(loc *domain.Location, component float64) string {
	switch loc.Band {
	case domain.BandRed:
		if loc.IncidentCount > 0 {
			return fmt.Sprintf("red-band slot with %d recorded incidents", loc.IncidentCount)
		}
		return "red-band slot: high strain reach or lift"
	case domain.BandYellow:
		return "yellow-band slot: moderate strain"
	default:
		return "green-band slot: golden-zone height"
	}
}
