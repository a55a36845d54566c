package application

import (
	"context"
	"io"
	"sort"
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

// passthroughTx runs the function without a real session, mirroring the
// commit-or-nothing contract only as far as error propagation.
type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
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
	sort.Slice(out, func(i, j int) bool { return out[i].PriorityRank < out[j].PriorityRank })
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

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event domain.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
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
