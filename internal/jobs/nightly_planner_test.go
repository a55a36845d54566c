package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/slotting-service/internal/domain"
	"github.com/wms-platform/slotting-service/internal/recommend"
	"github.com/wms-platform/slotting-service/internal/scoring"
)

type plannerHarness struct {
	movePlans   *memMovePlanRepo
	alerts      *memSpikeAlertRepo
	warehouses  *stubWarehouseRepo
	pickHistory *stubPickHistoryRepo
	publisher   *recordingPublisher
	broadcaster *recordingBroadcaster
	engine      *scoring.Engine
	generator   *recommend.Generator
}

// newPlannerHarness sets up one active warehouse where SKU-HOT clears the
// weekly pick floor in a far red slot with a prime green slot free, and
// SKU-COLD has an improving move but too few picks to qualify.
func newPlannerHarness() *plannerHarness {
	locations := &stubLocationRepo{locations: []*domain.Location{
		{LocationID: "FAR-RED", WarehouseID: "WH-001", Zone: "C", Band: domain.BandRed,
			DistanceFromDock: 100, DistanceFromPath: 20, CompositeRiskScore: 60, IncidentCount: 2},
		{LocationID: "NEAR-GREEN", WarehouseID: "WH-001", Zone: "A", Band: domain.BandGreen,
			DistanceFromDock: 10, DistanceFromPath: 2},
		{LocationID: "MID-YELLOW", WarehouseID: "WH-001", Zone: "B", Band: domain.BandYellow,
			DistanceFromDock: 50, DistanceFromPath: 10},
	}}

	skus := &stubSKURepo{skus: []*domain.SKU{
		{SKUID: "SKU-HOT", WarehouseID: "WH-001", WeightKg: 20},
		{SKUID: "SKU-COLD", WarehouseID: "WH-001", WeightKg: 1},
	}}

	h := &plannerHarness{
		movePlans: &memMovePlanRepo{},
		alerts:    &memSpikeAlertRepo{},
		warehouses: &stubWarehouseRepo{warehouses: []*domain.Warehouse{
			{WarehouseID: "WH-001", Name: "East", Active: true, PeakPicksPerHour: 60},
		}},
		pickHistory: &stubPickHistoryRepo{
			stats: map[string][]domain.PickStat{
				"WH-001": {
					{SKUID: "SKU-HOT", LocationID: "FAR-RED", PickCount: 900, PicksPerHour: 30, PeakHourPicks: 60},
					{SKUID: "SKU-COLD", LocationID: "MID-YELLOW", PickCount: 5, PicksPerHour: 1, PeakHourPicks: 2},
				},
			},
			zoneRates: map[string]map[string]float64{
				"WH-001": {"A": 30, "B": 40, "C": 60},
			},
			pairs: map[string][]domain.SKULocationPair{
				"WH-001": {
					{SKUID: "SKU-HOT", LocationID: "FAR-RED"},
					{SKUID: "SKU-COLD", LocationID: "MID-YELLOW"},
				},
			},
			counts:    map[string]int{},
			baselines: map[string]float64{},
			statsErr:  map[string]error{},
		},
		publisher:   &recordingPublisher{},
		broadcaster: &recordingBroadcaster{},
	}

	h.engine = scoring.NewEngine(locations, skus, stubRuleRepo{}, h.warehouses, h.pickHistory, domain.DefaultWeights(), testLogger())
	h.generator = recommend.NewGenerator(h.engine, testLogger())
	return h
}

func (h *plannerHarness) planner(config NightlyPlannerConfig) *NightlyPlanner {
	return NewNightlyPlanner(h.engine, h.generator, h.movePlans, h.warehouses, h.pickHistory,
		h.publisher, h.broadcaster, testMetrics(), testLogger(), config)
}

func TestNightlyPlanner_Run(t *testing.T) {
	h := newPlannerHarness()
	planner := h.planner(DefaultNightlyPlannerConfig())

	result, err := planner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Warehouses)
	assert.Equal(t, 1, result.PlansCreated)
	assert.Zero(t, result.FailedWarehouses)

	plans := h.movePlans.all()
	require.Len(t, plans, 1)
	plan := plans[0]
	assert.Equal(t, "SKU-HOT", plan.SKUID)
	assert.Equal(t, domain.PlanTypeNightly, plan.PlanType)
	assert.Equal(t, 1, plan.PriorityRank)
	assert.Equal(t, domain.MoveStatusPending, plan.Status)
	assert.Equal(t, "FAR-RED", plan.FromLocationID)
	assert.Equal(t, "NEAR-GREEN", plan.ToLocationID)
	assert.Greater(t, plan.ROI, 0.0)
	// moving out of the red slot must carry an ergonomic win
	assert.Greater(t, plan.ExpectedGain.ErgonomicRiskReduction, 0.0)
	assert.NotEmpty(t, plan.Reasoning)

	events := h.publisher.published()
	require.Len(t, events, 1)
	published, ok := events[0].(*domain.PlanPublishedEvent)
	require.True(t, ok)
	assert.Equal(t, 1, published.MoveCount)

	require.Len(t, h.broadcaster.countdowns, 1)
	countdown := h.broadcaster.countdowns[0]
	assert.Equal(t, "WH-001", countdown.WarehouseID)
	assert.Equal(t, 1, countdown.PlannedMoves)
	assert.Greater(t, countdown.SecondsRemaining, int64(0))
}

func TestNightlyPlanner_WeeklyPickFloor(t *testing.T) {
	h := newPlannerHarness()
	planner := h.planner(DefaultNightlyPlannerConfig())

	_, err := planner.Run(context.Background())
	require.NoError(t, err)

	// SKU-COLD has an improving move but only 5 weekly picks
	for _, plan := range h.movePlans.all() {
		assert.NotEqual(t, "SKU-COLD", plan.SKUID)
	}
}

func TestNightlyPlanner_NoEligibleSKUs(t *testing.T) {
	h := newPlannerHarness()
	h.pickHistory.stats["WH-001"] = []domain.PickStat{
		{SKUID: "SKU-COLD", LocationID: "MID-YELLOW", PickCount: 3, PicksPerHour: 1, PeakHourPicks: 1},
	}
	planner := h.planner(DefaultNightlyPlannerConfig())

	result, err := planner.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.PlansCreated)
	assert.Empty(t, h.movePlans.all())
}

func TestNightlyPlanner_WeeklyFloorIsPerSlot(t *testing.T) {
	h := newPlannerHarness()
	// SKU-HOT's twelve weekly picks are split across two slots, so no
	// single slot clears the floor
	h.pickHistory.stats["WH-001"] = []domain.PickStat{
		{SKUID: "SKU-HOT", LocationID: "FAR-RED", PickCount: 6, PicksPerHour: 1, PeakHourPicks: 2},
		{SKUID: "SKU-HOT", LocationID: "MID-YELLOW", PickCount: 6, PicksPerHour: 1, PeakHourPicks: 2},
	}
	h.pickHistory.pairs["WH-001"] = []domain.SKULocationPair{
		{SKUID: "SKU-HOT", LocationID: "FAR-RED"},
		{SKUID: "SKU-HOT", LocationID: "MID-YELLOW"},
	}
	planner := h.planner(DefaultNightlyPlannerConfig())

	result, err := planner.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.PlansCreated)
	assert.Empty(t, h.movePlans.all())
}

func TestNightlyPlanner_SupersedesPendingPlans(t *testing.T) {
	h := newPlannerHarness()

	stale, err := domain.NewMovePlan("move-stale", domain.PlanTypeNightly, "WH-001", "SKU-HOT", "FAR-RED", "MID-YELLOW", 1)
	require.NoError(t, err)
	require.NoError(t, h.movePlans.Save(context.Background(), stale))

	planner := h.planner(DefaultNightlyPlannerConfig())
	result, err := planner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.PlansCreated)

	assert.Equal(t, domain.MoveStatusCancelled, stale.Status)
	assert.Contains(t, stale.CancelReason, "superseded by ")

	pending, err := h.movePlans.FindPendingByWarehouse(context.Background(), "WH-001", domain.PlanTypeNightly)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotEqual(t, "move-stale", pending[0].MoveID)
	assert.Equal(t, "SKU-HOT", pending[0].SKUID)
}

func TestNightlyPlanner_TopNCap(t *testing.T) {
	h := newPlannerHarness()
	// Both SKUs clear the floor and have improving moves
	h.pickHistory.stats["WH-001"] = []domain.PickStat{
		{SKUID: "SKU-HOT", LocationID: "FAR-RED", PickCount: 900, PicksPerHour: 30, PeakHourPicks: 60},
		{SKUID: "SKU-COLD", LocationID: "MID-YELLOW", PickCount: 300, PicksPerHour: 10, PeakHourPicks: 20},
	}

	config := DefaultNightlyPlannerConfig()
	config.TopN = 1
	planner := h.planner(config)

	result, err := planner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.PlansCreated)

	plans := h.movePlans.all()
	require.Len(t, plans, 1)
	assert.Equal(t, "SKU-HOT", plans[0].SKUID)
	assert.Equal(t, 1, plans[0].PriorityRank)
}

func TestNightlyPlanner_WarehouseFailureIsolated(t *testing.T) {
	h := newPlannerHarness()
	h.warehouses.warehouses = append(h.warehouses.warehouses,
		&domain.Warehouse{WarehouseID: "WH-BAD", Name: "West", Active: true})
	h.pickHistory.statsErr["WH-BAD"] = errors.New("aggregation timeout")

	planner := h.planner(DefaultNightlyPlannerConfig())
	result, err := planner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Warehouses)
	assert.Equal(t, 1, result.FailedWarehouses)
	assert.Equal(t, 1, result.PlansCreated)
}

func TestNightlyPlanner_SkipsOverlappingRun(t *testing.T) {
	h := newPlannerHarness()
	planner := h.planner(DefaultNightlyPlannerConfig())

	require.True(t, planner.guard.TryStart())
	defer planner.guard.Finish()

	result, err := planner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RunResult{}, result)
	assert.Empty(t, h.movePlans.all())
}
