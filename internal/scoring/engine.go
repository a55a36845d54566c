package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/slotting-service/internal/domain"
	"github.com/wms-platform/slotting-service/pkg/errors"
	"github.com/wms-platform/slotting-service/pkg/logging"
)

// Engine computes slotting scores. Deterministic: identical snapshots yield
// identical scores.
type Engine struct {
	locations      domain.LocationRepository
	skus           domain.SKURepository
	rules          domain.ServiceRuleRepository
	warehouses     domain.WarehouseRepository
	pickHistory    domain.PickHistoryRepository
	defaultWeights domain.Weights
	logger         *logging.Logger

	frequency FrequencyScorer
	ergonomic ErgonomicScorer
}

// NewEngine creates a scoring engine
func NewEngine(
	locations domain.LocationRepository,
	skus domain.SKURepository,
	rules domain.ServiceRuleRepository,
	warehouses domain.WarehouseRepository,
	pickHistory domain.PickHistoryRepository,
	defaultWeights domain.Weights,
	logger *logging.Logger,
) *Engine {
	return &Engine{
		locations:      locations,
		skus:           skus,
		rules:          rules,
		warehouses:     warehouses,
		pickHistory:    pickHistory,
		defaultWeights: defaultWeights.Normalized(),
		logger:         logger.WithComponent("scoring-engine"),
	}
}

// Snapshot is a consistent view of one warehouse's slotting inputs. All
// scoring within a run happens against a single snapshot so results are
// stable and comparable.
type Snapshot struct {
	Warehouse    *domain.Warehouse
	Locations    map[string]*domain.Location
	SKUs         map[string]*domain.SKU
	Stats        map[string]domain.PickStat // keyed by skuId, stat at the current slot
	PairStats    map[string]domain.PickStat // keyed by pairKey(skuId, locationId)
	Rules        *domain.ServiceRuleSet
	Weights      domain.Weights
	ZoneFamilies map[string][]string // families currently slotted per zone
	CurrentSlot  map[string]string   // skuId -> most recently picked-from locationId
	TakenAt      time.Time

	travel     TravelScorer
	congestion CongestionScorer
	ruleEngine RuleEngine
}

func pairKey(skuID, locationID string) string {
	return skuID + "|" + locationID
}

// LoadSnapshot reads all scoring inputs for a warehouse
func (e *Engine) LoadSnapshot(ctx context.Context, warehouseID string) (*Snapshot, error) {
	warehouse, err := e.warehouses.FindByWarehouseID(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, errors.ErrNotFoundWithID("warehouse", warehouseID)
	}

	locations, err := e.locations.FindByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("loading locations: %w", err)
	}

	skus, err := e.skus.FindByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("loading skus: %w", err)
	}

	window := domain.PickWindow{
		From: time.Now().AddDate(0, 0, -frequencyWindowDays),
		To:   time.Now(),
	}

	stats, err := e.pickHistory.AggregatePicks(ctx, warehouseID, window)
	if err != nil {
		return nil, fmt.Errorf("aggregating picks: %w", err)
	}

	zoneRates, err := e.pickHistory.ZonePicksPerHour(ctx, warehouseID, window)
	if err != nil {
		return nil, fmt.Errorf("aggregating zone rates: %w", err)
	}

	pairs, err := e.pickHistory.SKULocationPairs(ctx, warehouseID, window)
	if err != nil {
		return nil, fmt.Errorf("resolving sku locations: %w", err)
	}

	ruleSet, err := e.rules.FindByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("loading rule set: %w", err)
	}

	snap := &Snapshot{
		Warehouse:    warehouse,
		Locations:    make(map[string]*domain.Location, len(locations)),
		SKUs:         make(map[string]*domain.SKU, len(skus)),
		Stats:        make(map[string]domain.PickStat, len(stats)),
		PairStats:    make(map[string]domain.PickStat, len(stats)),
		Rules:        ruleSet,
		ZoneFamilies: make(map[string][]string),
		CurrentSlot:  make(map[string]string, len(pairs)),
		TakenAt:      time.Now(),
	}

	for _, loc := range locations {
		snap.Locations[loc.LocationID] = loc
	}
	for _, sku := range skus {
		snap.SKUs[sku.SKUID] = sku
	}
	for _, stat := range stats {
		snap.PairStats[pairKey(stat.SKUID, stat.LocationID)] = stat
	}

	// The current slot of a SKU is the one it was most recently picked from
	lastPicked := make(map[string]time.Time, len(pairs))
	for _, pair := range pairs {
		if pair.LastPickedAt.After(lastPicked[pair.SKUID]) || snap.CurrentSlot[pair.SKUID] == "" {
			lastPicked[pair.SKUID] = pair.LastPickedAt
			snap.CurrentSlot[pair.SKUID] = pair.LocationID
		}
	}
	for skuID, locID := range snap.CurrentSlot {
		snap.Stats[skuID] = snap.PairStats[pairKey(skuID, locID)]
	}

	if ruleSet != nil {
		snap.Weights = ruleSet.EffectiveWeights()
	} else {
		snap.Weights = e.defaultWeights
	}

	// Families already present per zone, for incompatibility checks. Every
	// active slot counts, not just the current one.
	for _, pair := range pairs {
		sku, okSKU := snap.SKUs[pair.SKUID]
		loc, okLoc := snap.Locations[pair.LocationID]
		if okSKU && okLoc && sku.FamilyID != "" {
			snap.ZoneFamilies[loc.Zone] = append(snap.ZoneFamilies[loc.Zone], sku.FamilyID)
		}
	}

	snap.travel = NewTravelScorer(locations, stats)
	snap.congestion = CongestionScorer{ZoneRates: zoneRates, ZoneCapacity: warehouse.ZoneCapacity}
	snap.ruleEngine = RuleEngine{Rules: ruleSet}

	return snap, nil
}

// ScorePair computes the score of a SKU at a location within a snapshot
func (e *Engine) ScorePair(snap *Snapshot, skuID, locationID string) (*domain.Score, error) {
	sku, ok := snap.SKUs[skuID]
	if !ok {
		return nil, errors.ErrNotFoundWithID("sku", skuID)
	}
	loc, ok := snap.Locations[locationID]
	if !ok {
		return nil, errors.ErrNotFoundWithID("location", locationID)
	}
	if sku.WarehouseID != loc.WarehouseID {
		return nil, errors.ErrValidation("sku and location belong to different warehouses")
	}

	stat := snap.Stats[skuID]                              // zero value means no picks in window
	pairStat := snap.PairStats[pairKey(skuID, locationID)] // zero value means the slot is unobserved

	score := &domain.Score{
		SKUID:       skuID,
		LocationID:  locationID,
		WarehouseID: snap.Warehouse.WarehouseID,
		Frequency:   e.frequency.Score(stat, snap.Warehouse),
		TravelCost:  snap.travel.Score(loc, pairStat.AvgTravelMeter),
		Ergonomic:   e.ergonomic.Score(loc),
		Congestion:  snap.congestion.Score(loc),
		RuleBonus:   snap.ruleEngine.Bonus(sku, loc),
		Weights:     snap.Weights,
	}
	score.Compose()

	return score, nil
}

// ValidateMove checks the hard placement constraints within a snapshot
func (e *Engine) ValidateMove(snap *Snapshot, skuID, locationID string) error {
	sku, ok := snap.SKUs[skuID]
	if !ok {
		return errors.ErrNotFoundWithID("sku", skuID)
	}
	loc, ok := snap.Locations[locationID]
	if !ok {
		return errors.ErrNotFoundWithID("location", locationID)
	}
	return snap.ruleEngine.ValidateMove(sku, loc, snap.ZoneFamilies[loc.Zone])
}

// Score loads a snapshot and scores a single SKU/location pair
func (e *Engine) Score(ctx context.Context, warehouseID, skuID, locationID string) (*domain.Score, error) {
	snap, err := e.LoadSnapshot(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	return e.ScorePair(snap, skuID, locationID)
}

// Explain scores a pair and attaches per-component reasoning sentences
func (e *Engine) Explain(ctx context.Context, warehouseID, skuID, locationID string) (*domain.Score, error) {
	snap, err := e.LoadSnapshot(ctx, warehouseID)
	if err != nil {
		return nil, err
	}

	score, err := e.ScorePair(snap, skuID, locationID)
	if err != nil {
		return nil, err
	}

	loc := snap.Locations[locationID]
	stat := snap.Stats[skuID]

	reasoning := []string{
		e.frequency.Explain(stat, score.Frequency),
		snap.travel.Explain(loc, score.TravelCost),
		e.ergonomic.Explain(loc, score.Ergonomic),
		snap.congestion.Explain(loc, score.Congestion),
	}
	if r := snap.ruleEngine.Explain(score.RuleBonus); r != "" {
		reasoning = append(reasoning, r)
	}
	score.Reasoning = reasoning

	return score, nil
}
