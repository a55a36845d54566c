package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/slotting-service/internal/domain"
)

func (h *plannerHarness) detector() *SpikeDetector {
	return NewSpikeDetector(h.engine, h.generator, h.movePlans, h.alerts, h.warehouses,
		h.pickHistory, h.publisher, h.broadcaster, testMetrics(), testLogger(), DefaultSpikeDetectorConfig())
}

func TestSpikeDetector_RaisesAlertWithEmergencyMove(t *testing.T) {
	h := newPlannerHarness()
	h.pickHistory.counts[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 25
	h.pickHistory.baselines[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 10

	result, err := h.detector().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.SpikesDetected)
	assert.Zero(t, result.AlertsUpdated)
	assert.Equal(t, 2, result.PairsChecked)

	alerts := h.alerts.all()
	require.Len(t, alerts, 1)
	alert := alerts[0]
	assert.Equal(t, "SKU-HOT", alert.SKUID)
	assert.Equal(t, "FAR-RED", alert.LocationID)
	assert.InDelta(t, 2.5, alert.Multiplier, 1e-9)
	assert.False(t, alert.Resolved)
	require.NotEmpty(t, alert.MovePlanID)

	plans := h.movePlans.all()
	require.Len(t, plans, 1)
	plan := plans[0]
	assert.Equal(t, domain.PlanTypeInShiftSpike, plan.PlanType)
	assert.Equal(t, alert.MovePlanID, plan.MoveID)
	assert.Equal(t, alert.AlertID, plan.AlertID)
	// Emergency moves only target green-band slots
	assert.Equal(t, "NEAR-GREEN", plan.ToLocationID)
	assert.Contains(t, plan.Reasoning[0], "pick spike")

	require.Len(t, h.broadcaster.spikes, 1)
	assert.Equal(t, plan.MoveID, h.broadcaster.spikes[0].MovePlanID)

	events := h.publisher.published()
	require.Len(t, events, 1)
	_, ok := events[0].(*domain.SpikeDetectedEvent)
	assert.True(t, ok)
}

func TestSpikeDetector_ChecksEverySlotOfSKU(t *testing.T) {
	h := newPlannerHarness()
	// SKU-HOT is picked from two slots in the window and both are spiking
	h.pickHistory.pairs["WH-001"] = []domain.SKULocationPair{
		{SKUID: "SKU-HOT", LocationID: "FAR-RED"},
		{SKUID: "SKU-HOT", LocationID: "MID-YELLOW"},
	}
	h.pickHistory.counts[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 25
	h.pickHistory.baselines[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 10
	h.pickHistory.counts[pairKey("WH-001", "SKU-HOT", "MID-YELLOW")] = 20
	h.pickHistory.baselines[pairKey("WH-001", "SKU-HOT", "MID-YELLOW")] = 5

	result, err := h.detector().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.PairsChecked)
	assert.Equal(t, 2, result.SpikesDetected)

	alerts := h.alerts.all()
	require.Len(t, alerts, 2)
	seen := map[string]bool{}
	for _, alert := range alerts {
		assert.Equal(t, "SKU-HOT", alert.SKUID)
		seen[alert.LocationID] = true
	}
	assert.True(t, seen["FAR-RED"])
	assert.True(t, seen["MID-YELLOW"])
}

func TestSpikeDetector_BelowMinimumCurrentPicks(t *testing.T) {
	h := newPlannerHarness()
	h.pickHistory.counts[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 4
	h.pickHistory.baselines[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 1

	result, err := h.detector().Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.SpikesDetected)
	assert.Empty(t, h.alerts.all())
}

func TestSpikeDetector_BelowRatio(t *testing.T) {
	h := newPlannerHarness()
	h.pickHistory.counts[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 15
	h.pickHistory.baselines[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 10

	result, err := h.detector().Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.SpikesDetected)
	assert.Empty(t, h.alerts.all())
}

func TestSpikeDetector_ColdStart(t *testing.T) {
	t.Run("fires at the absolute minimum", func(t *testing.T) {
		h := newPlannerHarness()
		h.pickHistory.counts[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 12

		result, err := h.detector().Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, result.SpikesDetected)
		alerts := h.alerts.all()
		require.Len(t, alerts, 1)
		assert.Equal(t, domain.UnboundedMultiplier, alerts[0].Multiplier)
	})

	t.Run("stays quiet below it", func(t *testing.T) {
		h := newPlannerHarness()
		h.pickHistory.counts[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 8

		result, err := h.detector().Run(context.Background())
		require.NoError(t, err)

		assert.Zero(t, result.SpikesDetected)
		assert.Empty(t, h.alerts.all())
	})
}

func TestSpikeDetector_RefreshesOpenAlert(t *testing.T) {
	h := newPlannerHarness()
	h.pickHistory.counts[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 30
	h.pickHistory.baselines[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 10

	open, err := domain.NewSpikeAlert("alert-open", "WH-001", "SKU-HOT", "FAR-RED", 10, 22)
	require.NoError(t, err)
	open.ClearDomainEvents()
	require.NoError(t, h.alerts.Save(context.Background(), open))

	result, err := h.detector().Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.SpikesDetected)
	assert.Equal(t, 1, result.AlertsUpdated)

	// The open alert is refreshed in place, never duplicated
	alerts := h.alerts.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, "alert-open", alerts[0].AlertID)
	assert.Equal(t, 30.0, alerts[0].CurrentFrequency)
	assert.InDelta(t, 3.0, alerts[0].Multiplier, 1e-9)

	assert.Empty(t, h.movePlans.all())
	assert.Empty(t, h.broadcaster.spikes)
}

func TestSpikeDetector_ResolvedAlertDoesNotBlockNewOne(t *testing.T) {
	h := newPlannerHarness()
	h.pickHistory.counts[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 25
	h.pickHistory.baselines[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 10

	old, err := domain.NewSpikeAlert("alert-old", "WH-001", "SKU-HOT", "FAR-RED", 5, 12)
	require.NoError(t, err)
	old.ClearDomainEvents()
	require.NoError(t, old.Resolve())
	require.NoError(t, h.alerts.Save(context.Background(), old))

	result, err := h.detector().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.SpikesDetected)
	assert.Len(t, h.alerts.all(), 2)
}

func TestSpikeDetector_SkipsOverlappingRun(t *testing.T) {
	h := newPlannerHarness()
	h.pickHistory.counts[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 25
	h.pickHistory.baselines[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 10

	detector := h.detector()
	require.True(t, detector.guard.TryStart())
	defer detector.guard.Finish()

	result, err := detector.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanResult{}, result)
	assert.Empty(t, h.alerts.all())
}

func TestSpikeDetector_WarehouseFailureIsolated(t *testing.T) {
	h := newPlannerHarness()
	h.pickHistory.counts[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 25
	h.pickHistory.baselines[pairKey("WH-001", "SKU-HOT", "FAR-RED")] = 10

	h.warehouses.warehouses = append(h.warehouses.warehouses,
		&domain.Warehouse{WarehouseID: "WH-BAD", Name: "West", Active: true})
	h.pickHistory.pairs["WH-BAD"] = []domain.SKULocationPair{{SKUID: "SKU-X", LocationID: "LOC-X"}}
	h.pickHistory.counts[pairKey("WH-BAD", "SKU-X", "LOC-X")] = 25
	h.pickHistory.statsErr["WH-BAD"] = assert.AnError

	result, err := h.detector().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Warehouses)
	assert.Equal(t, 1, result.FailedWarehouses)
	assert.Equal(t, 1, result.SpikesDetected)
}
