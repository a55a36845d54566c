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

// Spike detection parameters
const (
	// spikeWindow is the current observation window
	spikeWindow = 4 * time.Hour
	// spikeMinCurrentPicks is the floor below which the current window is
	// too thin to call a spike
	spikeMinCurrentPicks = 5
	// spikeBaselineDays is the trailing range for the same-hour baseline
	spikeBaselineDays = 7
)

// SpikeDetectorConfig tunes the spike scan
type SpikeDetectorConfig struct {
	WorkerLimit int
}

// DefaultSpikeDetectorConfig returns the default configuration
func DefaultSpikeDetectorConfig() SpikeDetectorConfig {
	return SpikeDetectorConfig{WorkerLimit: defaultWorkerLimit}
}

// SpikeDetector scans recent pick activity for abnormal bursts and raises
// alerts with emergency relocation suggestions.
type SpikeDetector struct {
	engine      *scoring.Engine
	generator   *recommend.Generator
	movePlans   domain.MovePlanRepository
	alerts      domain.SpikeAlertRepository
	warehouses  domain.WarehouseRepository
	pickHistory domain.PickHistoryRepository
	publisher   domain.EventPublisher
	broadcaster domain.EventBroadcaster
	metrics     *metrics.Metrics
	logger      *logging.Logger
	config      SpikeDetectorConfig
	guard       RunGuard

	// now is swappable for tests
	now func() time.Time
}

// NewSpikeDetector creates a spike detector
func NewSpikeDetector(
	engine *scoring.Engine,
	generator *recommend.Generator,
	movePlans domain.MovePlanRepository,
	alerts domain.SpikeAlertRepository,
	warehouses domain.WarehouseRepository,
	pickHistory domain.PickHistoryRepository,
	publisher domain.EventPublisher,
	broadcaster domain.EventBroadcaster,
	m *metrics.Metrics,
	logger *logging.Logger,
	config SpikeDetectorConfig,
) *SpikeDetector {
	if config.WorkerLimit <= 0 {
		config.WorkerLimit = defaultWorkerLimit
	}

	return &SpikeDetector{
		engine:      engine,
		generator:   generator,
		movePlans:   movePlans,
		alerts:      alerts,
		warehouses:  warehouses,
		pickHistory: pickHistory,
		publisher:   publisher,
		broadcaster: broadcaster,
		metrics:     m,
		logger:      logger.WithComponent("spike-detector"),
		config:      config,
		now:         time.Now,
	}
}

// ScanResult summarizes a spike scan
type ScanResult struct {
	Warehouses       int `json:"warehouses"`
	PairsChecked     int `json:"pairsChecked"`
	SpikesDetected   int `json:"spikesDetected"`
	AlertsUpdated    int `json:"alertsUpdated"`
	FailedWarehouses int `json:"failedWarehouses"`
}

// Run executes one spike scan over all active warehouses. Overlapping runs
// are skipped; warehouse failures are isolated.
func (d *SpikeDetector) Run(ctx context.Context) (ScanResult, error) {
	if !d.guard.TryStart() {
		d.logger.Warn("Spike scan skipped, previous run still in flight")
		d.metrics.RecordJobRunSkipped("spike-detector")
		return ScanResult{}, nil
	}
	defer d.guard.Finish()

	start := d.now()

	warehouses, err := d.warehouses.FindActive(ctx)
	if err != nil {
		d.metrics.RecordJobRun("spike-detector", false, time.Since(start))
		return ScanResult{}, fmt.Errorf("listing active warehouses: %w", err)
	}

	result := ScanResult{Warehouses: len(warehouses)}
	partials := make([]ScanResult, len(warehouses))
	failures := make([]bool, len(warehouses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.config.WorkerLimit)

	for i, warehouse := range warehouses {
		i, warehouse := i, warehouse
		g.Go(func() error {
			partial, err := d.scanWarehouse(gctx, warehouse)
			if err != nil {
				failures[i] = true
				d.logger.WithWarehouse(warehouse.WarehouseID).WithError(err).
					Error("Spike scan failed for warehouse")
				return nil
			}
			partials[i] = partial
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		d.metrics.RecordJobRun("spike-detector", false, time.Since(start))
		return result, err
	}

	for i := range warehouses {
		result.PairsChecked += partials[i].PairsChecked
		result.SpikesDetected += partials[i].SpikesDetected
		result.AlertsUpdated += partials[i].AlertsUpdated
		if failures[i] {
			result.FailedWarehouses++
		}
	}

	d.metrics.RecordJobRun("spike-detector", result.FailedWarehouses == 0, time.Since(start))
	d.logger.JobRun(ctx, "spike-detector", time.Since(start), result.FailedWarehouses == 0, map[string]any{
		"warehouses":     result.Warehouses,
		"pairsChecked":   result.PairsChecked,
		"spikesDetected": result.SpikesDetected,
		"alertsUpdated":  result.AlertsUpdated,
	})

	return result, nil
}

func (d *SpikeDetector) scanWarehouse(ctx context.Context, warehouse *domain.Warehouse) (ScanResult, error) {
	log := d.logger.WithWarehouse(warehouse.WarehouseID)
	now := d.now()

	window := domain.PickWindow{From: now.Add(-spikeWindow), To: now}
	pairs, err := d.pickHistory.SKULocationPairs(ctx, warehouse.WarehouseID, window)
	if err != nil {
		return ScanResult{}, fmt.Errorf("listing active pairs: %w", err)
	}

	var result ScanResult
	var snap *scoring.Snapshot // loaded lazily, only when a new spike needs a move

	for _, pair := range pairs {
		skuID, locationID := pair.SKUID, pair.LocationID
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.PairsChecked++

		current, err := d.pickHistory.CountPicks(ctx, warehouse.WarehouseID, skuID, locationID, window)
		if err != nil {
			log.WithError(err).Warn("Skipping pair, count failed", "skuId", skuID)
			continue
		}
		if current < spikeMinCurrentPicks {
			continue
		}

		baseline, err := d.pickHistory.BaselineSameHourAverage(ctx, warehouse.WarehouseID, skuID, locationID, now, spikeBaselineDays)
		if err != nil {
			log.WithError(err).Warn("Skipping pair, baseline failed", "skuId", skuID)
			continue
		}

		if !domain.IsSpike(baseline, float64(current)) {
			continue
		}

		existing, err := d.alerts.FindOpen(ctx, warehouse.WarehouseID, skuID, locationID)
		if err != nil {
			log.WithError(err).Warn("Skipping pair, alert lookup failed", "skuId", skuID)
			continue
		}

		if existing != nil {
			if err := existing.UpdateFrequencies(baseline, float64(current)); err != nil {
				continue
			}
			if err := d.alerts.Update(ctx, existing); err != nil {
				log.WithError(err).Warn("Failed to refresh open alert", "alertId", existing.AlertID)
				continue
			}
			result.AlertsUpdated++
			continue
		}

		if snap == nil {
			snap, err = d.engine.LoadSnapshot(ctx, warehouse.WarehouseID)
			if err != nil {
				return result, fmt.Errorf("loading snapshot: %w", err)
			}
		}

		if err := d.raiseAlert(ctx, snap, warehouse.WarehouseID, skuID, locationID, baseline, float64(current)); err != nil {
			log.WithError(err).Warn("Failed to raise spike alert", "skuId", skuID)
			continue
		}
		result.SpikesDetected++
		d.metrics.RecordSpikeDetected(warehouse.WarehouseID)
	}

	return result, nil
}

func (d *SpikeDetector) raiseAlert(ctx context.Context, snap *scoring.Snapshot, warehouseID, skuID, locationID string, baseline, current float64) error {
	alert, err := domain.NewSpikeAlert(uuid.New().String(), warehouseID, skuID, locationID, baseline, current)
	if err != nil {
		return err
	}

	// Emergency relocation: green-band slots only
	rec, ok := d.generator.RecommendForSKU(snap, skuID, recommend.Options{MinBand: domain.BandGreen})
	if ok {
		plan, err := domain.NewMovePlan(uuid.New().String(), domain.PlanTypeInShiftSpike, warehouseID, skuID, rec.FromLocationID, rec.ToLocationID, 1)
		if err == nil {
			plan.EffortMinutes = rec.EffortMinutes
			plan.ExpectedGain = rec.ExpectedGain
			plan.ROI = rec.ROI
			plan.Reasoning = append([]string{spikeReason(baseline, current)}, rec.Reasoning...)
			plan.LinkAlert(alert.AlertID)

			if err := d.movePlans.Save(ctx, plan); err != nil {
				d.logger.WithError(err).Warn("Failed to save emergency move", "skuId", skuID)
			} else {
				alert.LinkMovePlan(plan.MoveID)
				d.metrics.RecordMovesCreated(string(domain.PlanTypeInShiftSpike), 1)
			}
		}
	}

	if err := d.alerts.Save(ctx, alert); err != nil {
		return fmt.Errorf("saving alert: %w", err)
	}

	for _, event := range alert.GetDomainEvents() {
		if spike, ok := event.(*domain.SpikeDetectedEvent); ok {
			spike.MovePlanID = alert.MovePlanID
			d.broadcaster.EmitSpikeDetected(warehouseID, spike)
			if err := d.publisher.Publish(ctx, warehouseID, spike); err != nil {
				d.logger.WithError(err).Warn("Failed to publish spike event", "alertId", alert.AlertID)
			}
		}
	}
	alert.ClearDomainEvents()

	return nil
}

func spikeReason(baseline, current float64) string {
	if baseline <= 0 {
		return fmt.Sprintf("pick spike: %.0f picks in 4h with no prior baseline", current)
	}
	return fmt.Sprintf("pick spike: %.0f picks in 4h vs %.1f baseline (%.1fx)", current, baseline, current/baseline)
}
