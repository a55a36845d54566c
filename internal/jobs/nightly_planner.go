package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wms-platform/slotting-service/internal/domain"
	"github.com/wms-platform/slotting-service/internal/recommend"
	"github.com/wms-platform/slotting-service/internal/scoring"
	"github.com/wms-platform/slotting-service/pkg/logging"
	"github.com/wms-platform/slotting-service/pkg/metrics"
)

// Nightly planner defaults
const (
	defaultNightlyTopN        = 20
	defaultWorkerLimit        = 4
	nightlyWindowDays         = 7
	nightlyMinWeeklyPicks     = 10
	defaultExecutionHourLocal = 22
)

func slotKey(skuID, locationID string) string {
	return skuID + "|" + locationID
}

// NightlyPlannerConfig tunes the nightly planning run
type NightlyPlannerConfig struct {
	TopN          int
	WorkerLimit   int
	ExecutionHour int
}

// DefaultNightlyPlannerConfig returns the default configuration
func DefaultNightlyPlannerConfig() NightlyPlannerConfig {
	return NightlyPlannerConfig{
		TopN:          defaultNightlyTopN,
		WorkerLimit:   defaultWorkerLimit,
		ExecutionHour: defaultExecutionHourLocal,
	}
}

// NightlyPlanner builds the overnight move list for every active warehouse
type NightlyPlanner struct {
	engine      *scoring.Engine
	generator   *recommend.Generator
	movePlans   domain.MovePlanRepository
	warehouses  domain.WarehouseRepository
	pickHistory domain.PickHistoryRepository
	publisher   domain.EventPublisher
	broadcaster domain.EventBroadcaster
	metrics     *metrics.Metrics
	logger      *logging.Logger
	config      NightlyPlannerConfig
	guard       RunGuard
}

// NewNightlyPlanner creates a nightly planner
func NewNightlyPlanner(
	engine *scoring.Engine,
	generator *recommend.Generator,
	movePlans domain.MovePlanRepository,
	warehouses domain.WarehouseRepository,
	pickHistory domain.PickHistoryRepository,
	publisher domain.EventPublisher,
	broadcaster domain.EventBroadcaster,
	m *metrics.Metrics,
	logger *logging.Logger,
	config NightlyPlannerConfig,
) *NightlyPlanner {
	if config.TopN <= 0 {
		config.TopN = defaultNightlyTopN
	}
	if config.WorkerLimit <= 0 {
		config.WorkerLimit = defaultWorkerLimit
	}
	if config.ExecutionHour <= 0 {
		config.ExecutionHour = defaultExecutionHourLocal
	}

	return &NightlyPlanner{
		engine:      engine,
		generator:   generator,
		movePlans:   movePlans,
		warehouses:  warehouses,
		pickHistory: pickHistory,
		publisher:   publisher,
		broadcaster: broadcaster,
		metrics:     m,
		logger:      logger.WithComponent("nightly-planner"),
		config:      config,
	}
}

// RunResult summarizes a planning run
type RunResult struct {
	Warehouses       int `json:"warehouses"`
	PlansCreated     int `json:"plansCreated"`
	FailedWarehouses int `json:"failedWarehouses"`
}

// Run executes one nightly planning pass over all active warehouses.
// A run overlapping a previous one is skipped. Warehouse failures are
// isolated; the run reports them but keeps going.
func (p *NightlyPlanner) Run(ctx context.Context) (RunResult, error) {
	if !p.guard.TryStart() {
		p.logger.Warn("Nightly planning run skipped, previous run still in flight")
		p.metrics.RecordJobRunSkipped("nightly-planner")
		return RunResult{}, nil
	}
	defer p.guard.Finish()

	start := time.Now()
	p.logger.Info("Nightly planning run started")

	warehouses, err := p.warehouses.FindActive(ctx)
	if err != nil {
		p.metrics.RecordJobRun("nightly-planner", false, time.Since(start))
		return RunResult{}, fmt.Errorf("listing active warehouses: %w", err)
	}

	result := RunResult{Warehouses: len(warehouses)}
	counts := make([]int, len(warehouses))
	failures := make([]bool, len(warehouses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.WorkerLimit)

	for i, warehouse := range warehouses {
		i, warehouse := i, warehouse
		g.Go(func() error {
			created, err := p.planWarehouse(gctx, warehouse)
			if err != nil {
				failures[i] = true
				p.logger.WithWarehouse(warehouse.WarehouseID).WithError(err).
					Error("Nightly planning failed for warehouse")
				return nil // failure is isolated
			}
			counts[i] = created
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.metrics.RecordJobRun("nightly-planner", false, time.Since(start))
		return result, err
	}

	for i := range warehouses {
		result.PlansCreated += counts[i]
		if failures[i] {
			result.FailedWarehouses++
		}
	}

	p.metrics.RecordJobRun("nightly-planner", result.FailedWarehouses == 0, time.Since(start))
	p.logger.JobRun(ctx, "nightly-planner", time.Since(start), result.FailedWarehouses == 0, map[string]any{
		"warehouses":       result.Warehouses,
		"plansCreated":     result.PlansCreated,
		"failedWarehouses": result.FailedWarehouses,
	})

	return result, nil
}

func (p *NightlyPlanner) planWarehouse(ctx context.Context, warehouse *domain.Warehouse) (int, error) {
	log := p.logger.WithWarehouse(warehouse.WarehouseID)

	// Eligibility is decided on the trailing week, not the scoring window
	window := domain.PickWindow{
		From: time.Now().AddDate(0, 0, -nightlyWindowDays),
		To:   time.Now(),
	}
	weekly, err := p.pickHistory.AggregatePicks(ctx, warehouse.WarehouseID, window)
	if err != nil {
		return 0, fmt.Errorf("aggregating weekly picks: %w", err)
	}

	// Eligibility is per slot: a SKU spread thin across several locations
	// does not qualify on its summed count
	eligible := make(map[string]bool, len(weekly))
	for _, stat := range weekly {
		if stat.PickCount >= nightlyMinWeeklyPicks {
			eligible[slotKey(stat.SKUID, stat.LocationID)] = true
		}
	}
	if len(eligible) == 0 {
		log.Info("No slots met the weekly pick floor, nothing to plan")
		return 0, nil
	}

	snap, err := p.engine.LoadSnapshot(ctx, warehouse.WarehouseID)
	if err != nil {
		return 0, fmt.Errorf("loading snapshot: %w", err)
	}

	recs, err := p.generator.RecommendFromSnapshot(ctx, snap, recommend.Options{})
	if err != nil {
		return 0, fmt.Errorf("generating recommendations: %w", err)
	}

	ranked := make([]recommend.MoveRecommendation, 0, len(recs))
	for _, rec := range recs {
		if eligible[slotKey(rec.SKUID, rec.FromLocationID)] {
			ranked = append(ranked, rec)
		}
	}
	if len(ranked) > p.config.TopN {
		ranked = ranked[:p.config.TopN]
	}

	created := 0
	for rank, rec := range ranked {
		if err := p.persistPlan(ctx, warehouse.WarehouseID, rank+1, rec); err != nil {
			// One bad unit does not sink the warehouse
			log.WithError(err).Warn("Skipping move plan", "skuId", rec.SKUID)
			continue
		}
		created++
	}

	if created > 0 {
		p.metrics.RecordPlanGenerated(string(domain.PlanTypeNightly))
		p.metrics.RecordMovesCreated(string(domain.PlanTypeNightly), created)

		event := &domain.PlanPublishedEvent{
			WarehouseID: warehouse.WarehouseID,
			PlanType:    string(domain.PlanTypeNightly),
			MoveCount:   created,
			PublishedAt: time.Now(),
		}
		if err := p.publisher.Publish(ctx, warehouse.WarehouseID, event); err != nil {
			log.WithError(err).Warn("Failed to publish plan event")
		}

		p.broadcaster.EmitCountdown(warehouse.WarehouseID, p.countdown(warehouse.WarehouseID, created))
	}

	log.Event(ctx, "nightly_plan_generated", map[string]any{
		"plansCreated": created,
		"eligibleSKUs": len(eligible),
	})

	return created, nil
}

func (p *NightlyPlanner) persistPlan(ctx context.Context, warehouseID string, rank int, rec recommend.MoveRecommendation) error {
	// Supersede still-pending plans for the same SKU from earlier runs
	pending, err := p.movePlans.FindPendingBySKU(ctx, warehouseID, rec.SKUID, domain.PlanTypeNightly)
	if err != nil {
		return fmt.Errorf("checking pending plans: %w", err)
	}

	moveID := uuid.New().String()
	for _, old := range pending {
		if err := old.Supersede(moveID); err != nil {
			continue
		}
		if err := p.movePlans.Update(ctx, old); err != nil {
			return fmt.Errorf("superseding plan %s: %w", old.MoveID, err)
		}
	}

	plan, err := domain.NewMovePlan(moveID, domain.PlanTypeNightly, warehouseID, rec.SKUID, rec.FromLocationID, rec.ToLocationID, 1)
	if err != nil {
		return err
	}
	plan.PriorityRank = rank
	plan.EffortMinutes = rec.EffortMinutes
	plan.ExpectedGain = rec.ExpectedGain
	plan.ROI = rec.ROI
	plan.Reasoning = rec.Reasoning

	if err := p.movePlans.Save(ctx, plan); err != nil {
		return fmt.Errorf("saving plan: %w", err)
	}

	return nil
}

func (p *NightlyPlanner) countdown(warehouseID string, plannedMoves int) domain.CountdownPayload {
	now := time.Now()
	window := time.Date(now.Year(), now.Month(), now.Day(), p.config.ExecutionHour, 0, 0, 0, now.Location())
	if !window.After(now) {
		window = window.AddDate(0, 0, 1)
	}

	return domain.CountdownPayload{
		WarehouseID:      warehouseID,
		PlannedMoves:     plannedMoves,
		ExecutionWindow:  window,
		SecondsRemaining: int64(time.Until(window).Seconds()),
	}
}
