package application

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/slotting-service/internal/domain"
	"github.com/wms-platform/slotting-service/pkg/errors"
)

type serviceHarness struct {
	movePlans   *memMovePlanRepo
	alerts      *memSpikeAlertRepo
	publisher   *recordingPublisher
	broadcaster *recordingBroadcaster
	service     *ReplenService
}

func newServiceHarness() *serviceHarness {
	h := &serviceHarness{
		movePlans:   &memMovePlanRepo{},
		alerts:      &memSpikeAlertRepo{},
		publisher:   &recordingPublisher{},
		broadcaster: &recordingBroadcaster{},
	}
	h.service = NewReplenService(h.movePlans, h.alerts, nil, passthroughTx{},
		h.publisher, h.broadcaster, testMetrics(), testLogger())
	return h
}

func (h *serviceHarness) seedPlan(t *testing.T, moveID string, planType domain.PlanType, rank int) *domain.MovePlan {
	t.Helper()
	plan, err := domain.NewMovePlan(moveID, planType, "WH-001", "SKU-"+moveID, "A-01", "B-01", 1)
	require.NoError(t, err)
	plan.PriorityRank = rank
	plan.ClearDomainEvents()
	require.NoError(t, h.movePlans.Save(context.Background(), plan))
	return plan
}

func TestGetTonightMoves(t *testing.T) {
	h := newServiceHarness()
	h.seedPlan(t, "move-2", domain.PlanTypeNightly, 2)
	h.seedPlan(t, "move-1", domain.PlanTypeNightly, 1)
	h.seedPlan(t, "move-3", domain.PlanTypeInShiftSpike, 1)

	moves, err := h.service.GetTonightMoves(context.Background(), GetTonightMovesQuery{WarehouseID: "WH-001"})
	require.NoError(t, err)

	require.Len(t, moves, 2)
	assert.Equal(t, "move-1", moves[0].MoveID)
	assert.Equal(t, "move-2", moves[1].MoveID)
}

func TestGetTonightMoves_Empty(t *testing.T) {
	h := newServiceHarness()

	moves, err := h.service.GetTonightMoves(context.Background(), GetTonightMovesQuery{WarehouseID: "WH-404"})
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestCompleteMove(t *testing.T) {
	h := newServiceHarness()
	plan := h.seedPlan(t, "move-1", domain.PlanTypeNightly, 1)

	alert, err := domain.NewSpikeAlert("alert-1", "WH-001", plan.SKUID, "A-01", 10, 25)
	require.NoError(t, err)
	alert.ClearDomainEvents()
	require.NoError(t, h.alerts.Save(context.Background(), alert))
	plan.LinkAlert(alert.AlertID)

	dto, err := h.service.CompleteMove(context.Background(), CompleteMoveCommand{
		MoveID:               "move-1",
		UserID:               "user-42",
		TravelSecondsSaved:   120,
		PickSecondsSaved:     30,
		ErgonomicImprovement: 0.4,
		Notes:                "done between waves",
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.MoveStatusCompleted), dto.Status)
	assert.Equal(t, "user-42", dto.CompletedBy)
	require.NotNil(t, dto.ActualImpact)
	assert.Equal(t, 120.0, dto.ActualImpact.TravelSecondsSaved)

	// The linked alert resolves in the same transaction
	resolved, err := h.alerts.FindByAlertID(context.Background(), "alert-1")
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)

	// Post-commit notifications went out once
	require.Len(t, h.broadcaster.completed, 1)
	assert.Equal(t, "move-1", h.broadcaster.completed[0].MoveID)
	require.Len(t, h.publisher.events, 1)
}

func TestCompleteMove_NotFound(t *testing.T) {
	h := newServiceHarness()

	_, err := h.service.CompleteMove(context.Background(), CompleteMoveCommand{MoveID: "move-missing", UserID: "user-1"})
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)
}

func TestCompleteMove_AlreadyCompleted(t *testing.T) {
	h := newServiceHarness()
	h.seedPlan(t, "move-1", domain.PlanTypeNightly, 1)

	_, err := h.service.CompleteMove(context.Background(), CompleteMoveCommand{MoveID: "move-1", UserID: "user-1"})
	require.NoError(t, err)

	_, err = h.service.CompleteMove(context.Background(), CompleteMoveCommand{MoveID: "move-1", UserID: "user-2"})
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.CodeConflict, appErr.Code)

	// Only the first completion notified
	assert.Len(t, h.broadcaster.completed, 1)
}

func TestCompleteMove_CancelledPlanConflicts(t *testing.T) {
	h := newServiceHarness()
	plan := h.seedPlan(t, "move-1", domain.PlanTypeNightly, 1)
	require.NoError(t, plan.Cancel("superseded by move-2"))

	_, err := h.service.CompleteMove(context.Background(), CompleteMoveCommand{MoveID: "move-1", UserID: "user-1"})
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.CodeConflict, appErr.Code)
}

func TestGetLiveSuggestions(t *testing.T) {
	h := newServiceHarness()

	plan := h.seedPlan(t, "move-1", domain.PlanTypeInShiftSpike, 0)
	plan.ROI = 1.8

	linked, err := domain.NewSpikeAlert("alert-1", "WH-001", "SKU-1", "A-01", 10, 25)
	require.NoError(t, err)
	linked.ClearDomainEvents()
	linked.LinkMovePlan("move-1")
	require.NoError(t, h.alerts.Save(context.Background(), linked))

	bare, err := domain.NewSpikeAlert("alert-2", "WH-001", "SKU-2", "B-01", 0, 14)
	require.NoError(t, err)
	bare.ClearDomainEvents()
	require.NoError(t, h.alerts.Save(context.Background(), bare))

	suggestions, err := h.service.GetLiveSuggestions(context.Background(), GetLiveSuggestionsQuery{WarehouseID: "WH-001"})
	require.NoError(t, err)
	require.Len(t, suggestions, 2)

	byAlert := map[string]*LiveSuggestionDTO{}
	for _, s := range suggestions {
		byAlert[s.Alert.AlertID] = s
	}

	withMove := byAlert["alert-1"]
	require.NotNil(t, withMove.Move)
	assert.Equal(t, "move-1", withMove.Move.MoveID)
	assert.InDelta(t, 1.8, withMove.ROI, 1e-9)

	withoutMove := byAlert["alert-2"]
	assert.Nil(t, withoutMove.Move)
	assert.Zero(t, withoutMove.ROI)
}

func TestGetImpactSummary_NoData(t *testing.T) {
	h := newServiceHarness()

	summary, err := h.service.GetImpactSummary(context.Background(), GetImpactSummaryQuery{WarehouseID: "WH-001"})
	require.NoError(t, err)

	assert.Equal(t, DefaultImpactWindowDays, summary.WindowDays)
	assert.Zero(t, summary.CompletedMoves)
	assert.Zero(t, summary.MeanAbsoluteError)
	assert.Zero(t, summary.ROIBuckets.High+summary.ROIBuckets.Medium+summary.ROIBuckets.Low)
}

func (h *serviceHarness) completePlan(t *testing.T, moveID string, predictedPerDay, actualSaved float64) {
	t.Helper()
	plan := h.seedPlan(t, moveID, domain.PlanTypeNightly, 1)
	plan.ExpectedGain = domain.ExpectedGain{SecondsPerPick: predictedPerDay / 10, AffectedDailyPicks: 10}
	_, err := h.service.CompleteMove(context.Background(), CompleteMoveCommand{
		MoveID:             moveID,
		UserID:             "user-1",
		TravelSecondsSaved: actualSaved,
	})
	require.NoError(t, err)
}

func TestGetImpactSummary(t *testing.T) {
	h := newServiceHarness()
	h.completePlan(t, "move-high", 100, 160) // realization 1.6
	h.completePlan(t, "move-low", 100, 50)   // realization 0.5
	h.completePlan(t, "move-unpredicted", 0, 30)

	summary, err := h.service.GetImpactSummary(context.Background(), GetImpactSummaryQuery{WarehouseID: "WH-001", WindowDays: 7})
	require.NoError(t, err)

	assert.Equal(t, 7, summary.WindowDays)
	assert.Equal(t, 3, summary.CompletedMoves)

	// abs errors: 60, 50, 30
	assert.InDelta(t, 140.0/3, summary.MeanAbsoluteError, 1e-9)
	assert.InDelta(t, math.Sqrt((3600.0+2500.0+900.0)/3), summary.RootMeanSquareError, 1e-9)
	// pct error only where a prediction exists: (0.6 + 0.5) / 2
	assert.InDelta(t, 0.55, summary.MeanAbsolutePctError, 1e-9)

	assert.InDelta(t, 200.0/3, summary.AvgPredictedSecondsPerDay, 1e-9)
	assert.InDelta(t, 240.0/3, summary.AvgActualSecondsPerDay, 1e-9)

	assert.Equal(t, 1, summary.ROIBuckets.High)
	assert.Zero(t, summary.ROIBuckets.Medium)
	// A move with no predicted saving cannot score better than low
	assert.Equal(t, 2, summary.ROIBuckets.Low)
}

func TestGetImpactSummary_MediumBucket(t *testing.T) {
	h := newServiceHarness()
	h.completePlan(t, "move-med", 100, 90) // realization 0.9

	summary, err := h.service.GetImpactSummary(context.Background(), GetImpactSummaryQuery{WarehouseID: "WH-001"})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ROIBuckets.Medium)
}
