package domain

import (
	"context"
	"time"
)

// MovePlanRepository defines the interface for move plan persistence
type MovePlanRepository interface {
	Save(ctx context.Context, plan *MovePlan) error
	Update(ctx context.Context, plan *MovePlan) error
	FindByMoveID(ctx context.Context, moveID string) (*MovePlan, error)
	FindPendingByWarehouse(ctx context.Context, warehouseID string, planType PlanType) ([]*MovePlan, error)
	FindPendingBySKU(ctx context.Context, warehouseID, skuID string, planType PlanType) ([]*MovePlan, error)
	FindCompletedSince(ctx context.Context, warehouseID string, since time.Time) ([]*MovePlan, error)
	FindByAlertID(ctx context.Context, alertID string) (*MovePlan, error)
}

// SpikeAlertRepository defines the interface for spike alert persistence
type SpikeAlertRepository interface {
	Save(ctx context.Context, alert *SpikeAlert) error
	Update(ctx context.Context, alert *SpikeAlert) error
	FindOpen(ctx context.Context, warehouseID, skuID, locationID string) (*SpikeAlert, error)
	FindByAlertID(ctx context.Context, alertID string) (*SpikeAlert, error)
	FindUnresolvedByWarehouse(ctx context.Context, warehouseID string) ([]*SpikeAlert, error)
}

// LocationRepository provides read access to location reference data
type LocationRepository interface {
	FindByLocationID(ctx context.Context, warehouseID, locationID string) (*Location, error)
	FindByWarehouse(ctx context.Context, warehouseID string) ([]*Location, error)
	FindByBand(ctx context.Context, warehouseID string, band ErgonomicBand) ([]*Location, error)
}

// SKURepository provides read access to SKU reference data
type SKURepository interface {
	FindBySKUID(ctx context.Context, warehouseID, skuID string) (*SKU, error)
	FindByWarehouse(ctx context.Context, warehouseID string) ([]*SKU, error)
}

// ServiceRuleRepository provides read access to per-warehouse rule sets
type ServiceRuleRepository interface {
	FindByWarehouse(ctx context.Context, warehouseID string) (*ServiceRuleSet, error)
}

// WarehouseRepository provides read access to warehouse reference data
type WarehouseRepository interface {
	FindByWarehouseID(ctx context.Context, warehouseID string) (*Warehouse, error)
	FindActive(ctx context.Context) ([]*Warehouse, error)
}

// PickWindow bounds a pick history aggregation
type PickWindow struct {
	From time.Time
	To   time.Time
}

// SKULocationPair is a slot with pick activity in a window. A SKU picked
// from several slots in the window yields one pair per slot.
type SKULocationPair struct {
	SKUID        string    `bson:"skuId" json:"skuId"`
	LocationID   string    `bson:"locationId" json:"locationId"`
	LastPickedAt time.Time `bson:"lastPickedAt" json:"lastPickedAt"`
}

// PickHistoryRepository aggregates historical pick events
type PickHistoryRepository interface {
	// AggregatePicks returns per-slot pick statistics over a window, one
	// entry per (SKU, location) pair with activity
	AggregatePicks(ctx context.Context, warehouseID string, window PickWindow) ([]PickStat, error)
	// CountPicks returns the raw pick count for a SKU at a location over a window
	CountPicks(ctx context.Context, warehouseID, skuID, locationID string, window PickWindow) (int, error)
	// BaselineSameHourAverage returns the trailing average pick count for the
	// same hour-of-day window across the preceding days, current day excluded
	BaselineSameHourAverage(ctx context.Context, warehouseID, skuID, locationID string, at time.Time, days int) (float64, error)
	// ZonePicksPerHour returns the recent pick rate per zone for a warehouse
	ZonePicksPerHour(ctx context.Context, warehouseID string, window PickWindow) (map[string]float64, error)
	// SKULocationPairs returns every SKU/location pair with pick activity in
	// a window
	SKULocationPairs(ctx context.Context, warehouseID string, window PickWindow) ([]SKULocationPair, error)
}

// EventPublisher defines the interface for publishing domain events to the platform
type EventPublisher interface {
	Publish(ctx context.Context, warehouseID string, event DomainEvent) error
	PublishAll(ctx context.Context, warehouseID string, events []DomainEvent) error
}

// EventBroadcaster pushes realtime notifications to warehouse rooms.
// All emits are best effort; failures are logged, never returned to callers.
type EventBroadcaster interface {
	EmitSpikeDetected(warehouseID string, event *SpikeDetectedEvent)
	EmitMoveCompleted(warehouseID string, event *MoveCompletedEvent)
	EmitCountdown(warehouseID string, payload CountdownPayload)
}

// CountdownPayload announces the time remaining to the nightly execution window
type CountdownPayload struct {
	WarehouseID      string    `json:"warehouseId"`
	PlannedMoves     int       `json:"plannedMoves"`
	ExecutionWindow  time.Time `json:"executionWindow"`
	SecondsRemaining int64     `json:"secondsRemaining"`
}

// TxRunner executes a function within a storage transaction
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
