package jobs

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/wms-platform/slotting-service/internal/domain"
	"github.com/wms-platform/slotting-service/pkg/logging"
	"github.com/wms-platform/slotting-service/pkg/metrics"
)

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("slotting-test")
	cfg.Output = io.Discard
	return logging.New(cfg)
}

func testMetrics() *metrics.Metrics {
	return metrics.New(metrics.DefaultConfig("slotting-test"))
}

type memMovePlanRepo struct {
	mu    sync.Mutex
	plans []*domain.MovePlan
}

func (r *memMovePlanRepo) Save(_ context.Context, plan *domain.MovePlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = append(r.plans, plan)
	return nil
}

func (r *memMovePlanRepo) Update(_ context.Context, plan *domain.MovePlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.plans {
		if p.MoveID == plan.MoveID {
			r.plans[i] = plan
			return nil
		}
	}
	return domain.ErrMoveNotFound
}

func (r *memMovePlanRepo) FindByMoveID(_ context.Context, moveID string) (*domain.MovePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.MoveID == moveID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memMovePlanRepo) FindPendingByWarehouse(_ context.Context, warehouseID string, planType domain.PlanType) ([]*domain.MovePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.MovePlan, 0)
	for _, p := range r.plans {
		if p.WarehouseID == warehouseID && p.PlanType == planType && p.Status == domain.MoveStatusPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memMovePlanRepo) FindPendingBySKU(_ context.Context, warehouseID, skuID string, planType domain.PlanType) ([]*domain.MovePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.MovePlan, 0)
	for _, p := range r.plans {
		if p.WarehouseID == warehouseID && p.SKUID == skuID && p.PlanType == planType && p.Status == domain.MoveStatusPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memMovePlanRepo) FindCompletedSince(_ context.Context, warehouseID string, since time.Time) ([]*domain.MovePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.MovePlan, 0)
	for _, p := range r.plans {
		if p.WarehouseID == warehouseID && p.Status == domain.MoveStatusCompleted &&
			p.CompletedAt != nil && !p.CompletedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memMovePlanRepo) FindByAlertID(_ context.Context, alertID string) (*domain.MovePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.AlertID == alertID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memMovePlanRepo) all() []*domain.MovePlan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.MovePlan(nil), r.plans...)
}

type memSpikeAlertRepo struct {
	mu     sync.Mutex
	alerts []*domain.SpikeAlert
}

func (r *memSpikeAlertRepo) Save(_ context.Context, alert *domain.SpikeAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *memSpikeAlertRepo) Update(_ context.Context, alert *domain.SpikeAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.alerts {
		if a.AlertID == alert.AlertID {
			r.alerts[i] = alert
			return nil
		}
	}
	return domain.ErrAlertNotFound
}

func (r *memSpikeAlertRepo) FindOpen(_ context.Context, warehouseID, skuID, locationID string) (*domain.SpikeAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.alerts {
		if a.WarehouseID == warehouseID && a.SKUID == skuID && a.LocationID == locationID && !a.Resolved {
			return a, nil
		}
	}
	return nil, nil
}

func (r *memSpikeAlertRepo) FindByAlertID(_ context.Context, alertID string) (*domain.SpikeAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.alerts {
		if a.AlertID == alertID {
			return a, nil
		}
	}
	return nil, nil
}

func (r *memSpikeAlertRepo) FindUnresolvedByWarehouse(_ context.Context, warehouseID string) ([]*domain.SpikeAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.SpikeAlert, 0)
	for _, a := range r.alerts {
		if a.WarehouseID == warehouseID && !a.Resolved {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memSpikeAlertRepo) all() []*domain.SpikeAlert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.SpikeAlert(nil), r.alerts...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event domain.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) PublishAll(ctx context.Context, warehouseID string, events []domain.DomainEvent) error {
	for _, event := range events {
		if err := p.Publish(ctx, warehouseID, event); err != nil {
			return err
		}
	}
	return nil
}

func (p *recordingPublisher) published() []domain.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.DomainEvent(nil), p.events...)
}

type recordingBroadcaster struct {
	mu         sync.Mutex
	spikes     []*domain.SpikeDetectedEvent
	completed  []*domain.MoveCompletedEvent
	countdowns []domain.CountdownPayload
}

func (b *recordingBroadcaster) EmitSpikeDetected(_ string, event *domain.SpikeDetectedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.spikes = append(b.spikes, event)
}

func (b *recordingBroadcaster) EmitMoveCompleted(_ string, event *domain.MoveCompletedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.completed = append(b.completed, event)
}

func (b *recordingBroadcaster) EmitCountdown(_ string, payload domain.CountdownPayload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.countdowns = append(b.countdowns, payload)
}

type stubLocationRepo struct {
	locations []*domain.Location
}

func (f *stubLocationRepo) FindByLocationID(_ context.Context, warehouseID, locationID string) (*domain.Location, error) {
	for _, loc := range f.locations {
		if loc.WarehouseID == warehouseID && loc.LocationID == locationID {
			return loc, nil
		}
	}
	return nil, nil
}

func (f *stubLocationRepo) FindByWarehouse(_ context.Context, warehouseID string) ([]*domain.Location, error) {
	out := make([]*domain.Location, 0, len(f.locations))
	for _, loc := range f.locations {
		if loc.WarehouseID == warehouseID {
			out = append(out, loc)
		}
	}
	return out, nil
}

func (f *stubLocationRepo) FindByBand(_ context.Context, warehouseID string, band domain.ErgonomicBand) ([]*domain.Location, error) {
	out := make([]*domain.Location, 0)
	for _, loc := range f.locations {
		if loc.WarehouseID == warehouseID && loc.Band == band {
			out = append(out, loc)
		}
	}
	return out, nil
}

type stubSKURepo struct {
	skus []*domain.SKU
}

func (f *stubSKURepo) FindBySKUID(_ context.Context, warehouseID, skuID string) (*domain.SKU, error) {
	for _, sku := range f.skus {
		if sku.WarehouseID == warehouseID && sku.SKUID == skuID {
			return sku, nil
		}
	}
	return nil, nil
}

func (f *stubSKURepo) FindByWarehouse(_ context.Context, warehouseID string) ([]*domain.SKU, error) {
	out := make([]*domain.SKU, 0, len(f.skus))
	for _, sku := range f.skus {
		if sku.WarehouseID == warehouseID {
			out = append(out, sku)
		}
	}
	return out, nil
}

type stubRuleRepo struct{}

func (stubRuleRepo) FindByWarehouse(_ context.Context, _ string) (*domain.ServiceRuleSet, error) {
	return nil, nil
}

type stubWarehouseRepo struct {
	warehouses []*domain.Warehouse
}

func (f *stubWarehouseRepo) FindByWarehouseID(_ context.Context, warehouseID string) (*domain.Warehouse, error) {
	for _, w := range f.warehouses {
		if w.WarehouseID == warehouseID {
			return w, nil
		}
	}
	return nil, nil
}

func (f *stubWarehouseRepo) FindActive(_ context.Context) ([]*domain.Warehouse, error) {
	out := make([]*domain.Warehouse, 0, len(f.warehouses))
	for _, w := range f.warehouses {
		if w.Active {
			out = append(out, w)
		}
	}
	return out, nil
}

// stubPickHistoryRepo serves both the scoring snapshot aggregations and the
// detector's count and baseline lookups.
type stubPickHistoryRepo struct {
	stats     map[string][]domain.PickStat
	zoneRates map[string]map[string]float64
	pairs     map[string][]domain.SKULocationPair
	counts    map[string]int     // keyed warehouseId|skuId|locationId
	baselines map[string]float64 // same key
	statsErr  map[string]error   // per-warehouse AggregatePicks failure
}

func pairKey(warehouseID, skuID, locationID string) string {
	return warehouseID + "|" + skuID + "|" + locationID
}

func (f *stubPickHistoryRepo) AggregatePicks(_ context.Context, warehouseID string, _ domain.PickWindow) ([]domain.PickStat, error) {
	if err := f.statsErr[warehouseID]; err != nil {
		return nil, err
	}
	return f.stats[warehouseID], nil
}

func (f *stubPickHistoryRepo) CountPicks(_ context.Context, warehouseID, skuID, locationID string, _ domain.PickWindow) (int, error) {
	return f.counts[pairKey(warehouseID, skuID, locationID)], nil
}

func (f *stubPickHistoryRepo) BaselineSameHourAverage(_ context.Context, warehouseID, skuID, locationID string, _ time.Time, _ int) (float64, error) {
	return f.baselines[pairKey(warehouseID, skuID, locationID)], nil
}

func (f *stubPickHistoryRepo) ZonePicksPerHour(_ context.Context, warehouseID string, _ domain.PickWindow) (map[string]float64, error) {
	return f.zoneRates[warehouseID], nil
}

func (f *stubPickHistoryRepo) SKULocationPairs(_ context.Context, warehouseID string, _ domain.PickWindow) ([]domain.SKULocationPair, error) {
	return f.pairs[warehouseID], nil
}
