package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/wms-platform/slotting-service/internal/domain"
	"github.com/wms-platform/slotting-service/internal/scoring"
	"github.com/wms-platform/slotting-service/pkg/logging"
)

// DefaultMinImprovement is the minimum score gain a move must deliver
const DefaultMinImprovement = 0.05

// referenceTravelSeconds converts a full-scale travel component delta into
// seconds saved per pick
const referenceTravelSeconds = 60.0

// Options tunes a recommendation run
type Options struct {
	// Limit caps the number of returned recommendations; 0 means no cap
	Limit int
	// MinImprovement is the score-gain floor; zero uses the default
	MinImprovement float64
	// MinBand restricts candidate slots: only bands at or better than
	// this one are considered. Zero value allows yellow and green.
	MinBand domain.ErgonomicBand
}

func (o Options) minImprovement() float64 {
	if o.MinImprovement > 0 {
		return o.MinImprovement
	}
	return DefaultMinImprovement
}

func (o Options) minBand() domain.ErgonomicBand {
	if o.MinBand.Valid() {
		return o.MinBand
	}
	return domain.BandYellow
}

// MoveRecommendation is a ranked, explained slotting improvement
type MoveRecommendation struct {
	SKUID          string              `json:"skuId"`
	WarehouseID    string              `json:"warehouseId"`
	FromLocationID string              `json:"fromLocationId"`
	ToLocationID   string              `json:"toLocationId"`
	CurrentScore   float64             `json:"currentScore"`
	CandidateScore float64             `json:"candidateScore"`
	Improvement    float64             `json:"improvement"`
	EffortMinutes  float64             `json:"effortMinutes"`
	ExpectedGain   domain.ExpectedGain `json:"expectedGain"`
	ROI            float64             `json:"roi"`
	Reasoning      []string            `json:"reasoning"`
}

// Generator produces ranked move recommendations for a warehouse
type Generator struct {
	engine *scoring.Engine
	logger *logging.Logger
}

// NewGenerator creates a recommendation generator
func NewGenerator(engine *scoring.Engine, logger *logging.Logger) *Generator {
	return &Generator{
		engine: engine,
		logger: logger.WithComponent("recommendation-generator"),
	}
}

// Recommend scores every active SKU against candidate slots and returns
// improving moves sorted by non-increasing ROI. SKUs with no improving
// placement are silently omitted.
func (g *Generator) Recommend(ctx context.Context, warehouseID string, opts Options) ([]MoveRecommendation, error) {
	snap, err := g.engine.LoadSnapshot(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	return g.RecommendFromSnapshot(ctx, snap, opts)
}

// RecommendFromSnapshot runs the generator against an already-loaded
// snapshot, so a job can score and recommend from one consistent view.
func (g *Generator) RecommendFromSnapshot(ctx context.Context, snap *scoring.Snapshot, opts Options) ([]MoveRecommendation, error) {
	minImprovement := opts.minImprovement()
	minBand := opts.minBand()

	recs := make([]MoveRecommendation, 0)

	// Deterministic iteration order
	skuIDs := make([]string, 0, len(snap.CurrentSlot))
	for skuID := range snap.CurrentSlot {
		skuIDs = append(skuIDs, skuID)
	}
	sort.Strings(skuIDs)

	for _, skuID := range skuIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, ok := g.bestMoveFor(snap, skuID, minImprovement, minBand)
		if ok {
			recs = append(recs, rec)
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].ROI != recs[j].ROI {
			return recs[i].ROI > recs[j].ROI
		}
		if recs[i].Improvement != recs[j].Improvement {
			return recs[i].Improvement > recs[j].Improvement
		}
		return recs[i].SKUID < recs[j].SKUID
	})

	if opts.Limit > 0 && len(recs) > opts.Limit {
		recs = recs[:opts.Limit]
	}

	return recs, nil
}

// RecommendForSKU returns the best improving move for a single SKU, if one
// exists. Used for emergency placements where only one SKU is in scope.
func (g *Generator) RecommendForSKU(snap *scoring.Snapshot, skuID string, opts Options) (MoveRecommendation, bool) {
	return g.bestMoveFor(snap, skuID, opts.minImprovement(), opts.minBand())
}

func (g *Generator) bestMoveFor(snap *scoring.Snapshot, skuID string, minImprovement float64, minBand domain.ErgonomicBand) (MoveRecommendation, bool) {
	currentLocID := snap.CurrentSlot[skuID]
	currentLoc, ok := snap.Locations[currentLocID]
	if !ok {
		return MoveRecommendation{}, false
	}

	current, err := g.engine.ScorePair(snap, skuID, currentLocID)
	if err != nil {
		g.logger.WithError(err).Warn("Skipping sku with unscorable current slot", "skuId", skuID)
		return MoveRecommendation{}, false
	}

	// Deterministic candidate order
	candidateIDs := make([]string, 0, len(snap.Locations))
	for locID := range snap.Locations {
		candidateIDs = append(candidateIDs, locID)
	}
	sort.Strings(candidateIDs)

	var best *MoveRecommendation
	for _, locID := range candidateIDs {
		if locID == currentLocID {
			continue
		}
		loc := snap.Locations[locID]
		if loc.Band.WorseThan(minBand) {
			continue
		}

		if err := g.engine.ValidateMove(snap, skuID, locID); err != nil {
			continue // hard constraint veto
		}

		candidate, err := g.engine.ScorePair(snap, skuID, locID)
		if err != nil {
			continue
		}

		improvement := current.Improvement(candidate)
		if improvement < minImprovement {
			continue
		}

		rec := g.buildRecommendation(snap, skuID, currentLoc, loc, current, candidate, improvement)
		if best == nil || rec.ROI > best.ROI {
			best = &rec
		}
	}

	if best == nil {
		return MoveRecommendation{}, false
	}
	return *best, true
}

func (g *Generator) buildRecommendation(
	snap *scoring.Snapshot,
	skuID string,
	from, to *domain.Location,
	current, candidate *domain.Score,
	improvement float64,
) MoveRecommendation {
	stat := snap.Stats[skuID]

	dailyPicks := stat.PickCount / 30
	if dailyPicks < 1 && stat.PickCount > 0 {
		dailyPicks = 1
	}

	secondsPerPick := (current.TravelCost - candidate.TravelCost) * referenceTravelSeconds
	if secondsPerPick < 0 {
		secondsPerPick = 0
	}
	ergoReduction := current.Ergonomic - candidate.Ergonomic
	if ergoReduction < 0 {
		ergoReduction = 0
	}

	gain := domain.ExpectedGain{
		SecondsPerPick:         secondsPerPick,
		ErgonomicRiskReduction: ergoReduction,
		AffectedDailyPicks:     dailyPicks,
	}

	effort := EstimateEffort(from, to)
	roi := 0.0
	if effort > 0 {
		roi = gain.SecondsPerDay() / (effort * 60.0)
	}

	reasoning := []string{
		fmt.Sprintf("score improves %.2f -> %.2f at %s", current.Total, candidate.Total, to.LocationID),
	}
	if secondsPerPick > 0 {
		reasoning = append(reasoning, fmt.Sprintf("saves %.1fs travel per pick across %d daily picks", secondsPerPick, dailyPicks))
	}
	if ergoReduction > 0 {
		reasoning = append(reasoning, fmt.Sprintf("moves sku from %s band to %s band", from.Band, to.Band))
	}
	reasoning = append(reasoning, fmt.Sprintf("estimated effort %.0f minutes", effort))

	return MoveRecommendation{
		SKUID:          skuID,
		WarehouseID:    snap.Warehouse.WarehouseID,
		FromLocationID: from.LocationID,
		ToLocationID:   to.LocationID,
		CurrentScore:   current.Total,
		CandidateScore: candidate.Total,
		Improvement:    improvement,
		EffortMinutes:  effort,
		ExpectedGain:   gain,
		ROI:            roi,
		Reasoning:      reasoning,
	}
}
