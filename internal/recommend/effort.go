package recommend

import (
	"hash/fnv"
	"math"

	"github.com/wms-platform/slotting-service/internal/domain"
)

// Effort model constants
const (
	// walkSpeed is assumed travel speed with a cart, meters per minute
	walkSpeed = 50.0
	// baseHandlingMinutes covers pulling, restow and system confirmation
	baseHandlingMinutes = 8.0
	// minEffortMinutes and maxEffortMinutes bound the estimate
	minEffortMinutes = 10.0
	maxEffortMinutes = 40.0
	// pairVarianceMinutes bounds the stable per-pair component
	pairVarianceMinutes = 5.0
)

func bandHandlingAdder(band domain.ErgonomicBand) float64 {
	switch band {
	case domain.BandRed:
		return 5.0
	case domain.BandYellow:
		return 3.0
	default:
		return 0.0
	}
}

// EstimateEffort returns the estimated minutes to execute a move between two
// locations. Deterministic: the same pair always yields the same estimate.
func EstimateEffort(from, to *domain.Location) float64 {
	travel := math.Abs(from.X-to.X) + math.Abs(from.Y-to.Y)
	minutes := baseHandlingMinutes + travel/walkSpeed

	// Reaching into a strained slot slows both ends of the move
	minutes += bandHandlingAdder(from.Band)
	minutes += bandHandlingAdder(to.Band)

	// Stable per-pair spread standing in for slot particularities the
	// model does not observe (door clearance, tote sizes)
	minutes += pairOffset(from.LocationID, to.LocationID)

	if minutes < minEffortMinutes {
		return minEffortMinutes
	}
	if minutes > maxEffortMinutes {
		return maxEffortMinutes
	}
	return minutes
}

func pairOffset(fromID, toID string) float64 {
	h := fnv.New32a()
	h.Write([]byte(fromID))
	h.Write([]byte{0})
	h.Write([]byte(toID))
	return float64(h.Sum32()%uint32(pairVarianceMinutes*10)) / 10.0
}
