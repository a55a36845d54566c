package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wms-platform/slotting-service/internal/domain"
	"github.com/wms-platform/slotting-service/internal/scoring"
	"github.com/wms-platform/slotting-service/pkg/errors"
	"github.com/wms-platform/slotting-service/pkg/logging"
	"github.com/wms-platform/slotting-service/pkg/metrics"
)

// DefaultImpactWindowDays is the default impact summary window
const DefaultImpactWindowDays = 30

// Realization-ratio thresholds for ROI buckets (actual vs predicted saving)
const (
	roiHighRealization   = 1.5
	roiMediumRealization = 0.75
)

// ReplenService handles the request-path replenishment use cases
type ReplenService struct {
	movePlans   domain.MovePlanRepository
	alerts      domain.SpikeAlertRepository
	engine      *scoring.Engine
	tx          domain.TxRunner
	publisher   domain.EventPublisher
	broadcaster domain.EventBroadcaster
	metrics     *metrics.Metrics
	logger      *logging.Logger
}

// NewReplenService creates a new ReplenService
func NewReplenService(
	movePlans domain.MovePlanRepository,
	alerts domain.SpikeAlertRepository,
	engine *scoring.Engine,
	tx domain.TxRunner,
	publisher domain.EventPublisher,
	broadcaster domain.EventBroadcaster,
	m *metrics.Metrics,
	logger *logging.Logger,
) *ReplenService {
	return &ReplenService{
		movePlans:   movePlans,
		alerts:      alerts,
		engine:      engine,
		tx:          tx,
		publisher:   publisher,
		broadcaster: broadcaster,
		metrics:     m,
		logger:      logger.WithComponent("replen-service"),
	}
}

// GetTonightMoves returns the pending nightly plan for a warehouse, ordered
// by priority rank. No plan yields an empty list.
func (s *ReplenService) GetTonightMoves(ctx context.Context, query GetTonightMovesQuery) ([]*MovePlanDTO, error) {
	plans, err := s.movePlans.FindPendingByWarehouse(ctx, query.WarehouseID, domain.PlanTypeNightly)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load tonight moves", "warehouseId", query.WarehouseID)
		return nil, fmt.Errorf("failed to load tonight moves: %w", err)
	}

	return ToMovePlanDTOs(plans), nil
}

// GetLiveSuggestions returns open spike alerts with their linked emergency
// moves. Alerts without a viable move carry a nil move.
func (s *ReplenService) GetLiveSuggestions(ctx context.Context, query GetLiveSuggestionsQuery) ([]*LiveSuggestionDTO, error) {
	alerts, err := s.alerts.FindUnresolvedByWarehouse(ctx, query.WarehouseID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load live suggestions", "warehouseId", query.WarehouseID)
		return nil, fmt.Errorf("failed to load live suggestions: %w", err)
	}

	suggestions := make([]*LiveSuggestionDTO, 0, len(alerts))
	for _, alert := range alerts {
		suggestion := &LiveSuggestionDTO{Alert: ToSpikeAlertDTO(alert)}

		if alert.MovePlanID != "" {
			plan, err := s.movePlans.FindByMoveID(ctx, alert.MovePlanID)
			if err != nil {
				s.logger.WithError(err).Warn("Failed to load linked move", "moveId", alert.MovePlanID)
			} else if plan != nil {
				suggestion.Move = ToMovePlanDTO(plan)
				suggestion.ROI = plan.ROI
			}
		}

		suggestions = append(suggestions, suggestion)
	}

	return suggestions, nil
}

// CompleteMove records execution of a move with its measured impact. The
// status flip, the impact write and the linked-alert resolution commit in a
// single transaction; broadcast happens after commit, best effort.
func (s *ReplenService) CompleteMove(ctx context.Context, cmd CompleteMoveCommand) (*MovePlanDTO, error) {
	impact := domain.ActualImpact{
		TravelSecondsSaved:   cmd.TravelSecondsSaved,
		PickSecondsSaved:     cmd.PickSecondsSaved,
		ErgonomicImprovement: cmd.ErgonomicImprovement,
		Notes:                cmd.Notes,
	}

	var completed *domain.MovePlan

	err := s.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		plan, err := s.movePlans.FindByMoveID(txCtx, cmd.MoveID)
		if err != nil {
			return fmt.Errorf("failed to load move: %w", err)
		}
		if plan == nil {
			return errors.ErrNotFoundWithID("move", cmd.MoveID)
		}

		if err := plan.Complete(cmd.UserID, impact); err != nil {
			if err == domain.ErrAlreadyCompleted {
				return errors.ErrConflict("move is already completed")
			}
			return errors.ErrConflict(err.Error())
		}

		if err := s.movePlans.Update(txCtx, plan); err != nil {
			return fmt.Errorf("failed to save move: %w", err)
		}

		if plan.AlertID != "" {
			alert, err := s.alerts.FindByAlertID(txCtx, plan.AlertID)
			if err != nil {
				return fmt.Errorf("failed to load linked alert: %w", err)
			}
			if alert != nil && !alert.Resolved {
				if err := alert.Resolve(); err != nil {
					return err
				}
				if err := s.alerts.Update(txCtx, alert); err != nil {
					return fmt.Errorf("failed to resolve linked alert: %w", err)
				}
			}
		}

		completed = plan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMoveCompleted(string(completed.PlanType))
	s.logger.Event(ctx, "move_completed", map[string]any{
		"moveId":      completed.MoveID,
		"warehouseId": completed.WarehouseID,
		"skuId":       completed.SKUID,
		"completedBy": cmd.UserID,
	})

	// Post-commit notifications are best effort
	for _, event := range completed.GetDomainEvents() {
		if done, ok := event.(*domain.MoveCompletedEvent); ok {
			s.broadcaster.EmitMoveCompleted(completed.WarehouseID, done)
			if err := s.publisher.Publish(ctx, completed.WarehouseID, done); err != nil {
				s.logger.WithError(err).Warn("Failed to publish move-completed event", "moveId", completed.MoveID)
			}
		}
	}
	completed.ClearDomainEvents()

	return ToMovePlanDTO(completed), nil
}

// GetImpactSummary aggregates realized impact over a window. No completed
// moves yields a zero-valued summary, never an error.
func (s *ReplenService) GetImpactSummary(ctx context.Context, query GetImpactSummaryQuery) (*ImpactSummaryDTO, error) {
	windowDays := query.WindowDays
	if windowDays <= 0 {
		windowDays = DefaultImpactWindowDays
	}

	since := time.Now().AddDate(0, 0, -windowDays)
	plans, err := s.movePlans.FindCompletedSince(ctx, query.WarehouseID, since)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load completed moves", "warehouseId", query.WarehouseID)
		return nil, fmt.Errorf("failed to load completed moves: %w", err)
	}

	summary := &ImpactSummaryDTO{
		WarehouseID: query.WarehouseID,
		WindowDays:  windowDays,
	}

	var sumPredicted, sumActual, sumAbsErr, sumSqErr, sumPctErr float64
	pctSamples := 0

	for _, plan := range plans {
		if plan.ActualImpact == nil {
			continue
		}
		summary.CompletedMoves++

		predicted := plan.PredictedSecondsPerDay()
		actual := plan.ActualImpact.TravelSecondsSaved + plan.ActualImpact.PickSecondsSaved

		sumPredicted += predicted
		sumActual += actual

		absErr := math.Abs(predicted - actual)
		sumAbsErr += absErr
		sumSqErr += absErr * absErr

		if predicted > 0 {
			sumPctErr += absErr / predicted
			pctSamples++

			realization := actual / predicted
			switch {
			case realization >= roiHighRealization:
				summary.ROIBuckets.High++
			case realization >= roiMediumRealization:
				summary.ROIBuckets.Medium++
			default:
				summary.ROIBuckets.Low++
			}
		} else {
			summary.ROIBuckets.Low++
		}

		summary.TotalErgonomicReduction += plan.ActualImpact.ErgonomicImprovement
	}

	if summary.CompletedMoves > 0 {
		n := float64(summary.CompletedMoves)
		summary.AvgPredictedSecondsPerDay = sumPredicted / n
		summary.AvgActualSecondsPerDay = sumActual / n
		summary.MeanAbsoluteError = sumAbsErr / n
		summary.RootMeanSquareError = math.Sqrt(sumSqErr / n)
	}
	if pctSamples > 0 {
		summary.MeanAbsolutePctError = sumPctErr / float64(pctSamples)
	}

	return summary, nil
}

// ExplainScore computes an explained slotting score for a SKU at a location
func (s *ReplenService) ExplainScore(ctx context.Context, query ExplainScoreQuery) (*ScoreDTO, error) {
	score, err := s.engine.Explain(ctx, query.WarehouseID, query.SKUID, query.LocationID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordScoresComputed(1)
	return ToScoreDTO(score), nil
}
