package scoring

import (
	"github.com/wms-platform/slotting-service/internal/domain"
)

// frequencyWindow is the aggregation window for pick frequency, in days
const frequencyWindowDays = 30

// defaultPeakPicksPerHour is the normalization ceiling used when a
// warehouse has no measured peak
const defaultPeakPicksPerHour = 60.0

// FrequencyScorer rates how often a SKU is picked. Higher is better for the
// composite score, so a fast mover scores near 1.0.
type FrequencyScorer struct{}

// Score returns the frequency component in [0,1].
// Blends the sustained rate with the peak-hour burst so a SKU that is quiet
// on average but slams one hour still ranks as a mover.
func (FrequencyScorer) Score(stat domain.PickStat, warehouse *domain.Warehouse) float64 {
	ceiling := defaultPeakPicksPerHour
	if warehouse != nil && warehouse.PeakPicksPerHour > 0 {
		ceiling = warehouse.PeakPicksPerHour
	}

	sustained := domain.Clamp01(stat.PicksPerHour / ceiling)
	peak := domain.Clamp01(float64(stat.PeakHourPicks) / ceiling)

	return domain.Clamp01(0.7*sustained + 0.3*peak)
}

// Explain returns the operator-facing reasoning sentence for the component
func (FrequencyScorer) Explain(stat domain.PickStat, component float64) string {
	switch {
	case component >= 0.7:
		return "fast mover: picked frequently over the last 30 days"
	case component >= 0.3:
		return "moderate mover over the last 30 days"
	default:
		return "slow mover: few picks over the last 30 days"
	}
}
