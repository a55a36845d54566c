package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors
var (
	ErrAlertNotFound = errors.New("spike alert not found")
	ErrAlertResolved = errors.New("spike alert is already resolved")
)

// Detection thresholds
const (
	// SpikeRatio is the current/baseline ratio at which a spike fires
	SpikeRatio = 2.0
	// ColdStartMinimum is the absolute pick count that fires when no
	// baseline exists
	ColdStartMinimum = 10.0
	// UnboundedMultiplier is the sentinel stored when the baseline
	// frequency is zero and the ratio is undefined
	UnboundedMultiplier = -1.0
)

// SpikeAlert tracks an abnormal pick-frequency burst for a SKU at a location.
// At most one unresolved alert exists per (warehouse, sku, location).
type SpikeAlert struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	AlertID           string             `bson:"alertId"`
	WarehouseID       string             `bson:"warehouseId"`
	SKUID             string             `bson:"skuId"`
	LocationID        string             `bson:"locationId"`
	DetectedAt        time.Time          `bson:"detectedAt"`
	BaselineFrequency float64            `bson:"baselineFrequency"`
	CurrentFrequency  float64            `bson:"currentFrequency"`
	Multiplier        float64            `bson:"multiplier"`
	MovePlanID        string             `bson:"movePlanId,omitempty"`
	Resolved          bool               `bson:"resolved"`
	ResolvedAt        *time.Time         `bson:"resolvedAt,omitempty"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
	DomainEvents      []DomainEvent      `bson:"-"`
}

// SpikeMultiplier returns the current/baseline ratio, or the unbounded
// sentinel when baseline is zero.
func SpikeMultiplier(baseline, current float64) float64 {
	if baseline <= 0 {
		return UnboundedMultiplier
	}
	return current / baseline
}

// IsSpike evaluates the detection thresholds against a baseline and a
// current-window pick count.
func IsSpike(baseline, current float64) bool {
	if baseline <= 0 {
		return current >= ColdStartMinimum
	}
	return current/baseline >= SpikeRatio
}

// NewSpikeAlert creates a new unresolved SpikeAlert
func NewSpikeAlert(alertID, warehouseID, skuID, locationID string, baseline, current float64) (*SpikeAlert, error) {
	if alertID == "" {
		return nil, errors.New("alert id is required")
	}
	if warehouseID == "" || skuID == "" || locationID == "" {
		return nil, errors.New("warehouse, sku and location ids are required")
	}

	now := time.Now()
	alert := &SpikeAlert{
		AlertID:           alertID,
		WarehouseID:       warehouseID,
		SKUID:             skuID,
		LocationID:        locationID,
		DetectedAt:        now,
		BaselineFrequency: baseline,
		CurrentFrequency:  current,
		Multiplier:        SpikeMultiplier(baseline, current),
		Resolved:          false,
		UpdatedAt:         now,
		DomainEvents:      make([]DomainEvent, 0),
	}

	alert.AddDomainEvent(&SpikeDetectedEvent{
		AlertID:           alertID,
		WarehouseID:       warehouseID,
		SKUID:             skuID,
		LocationID:        locationID,
		BaselineFrequency: baseline,
		CurrentFrequency:  current,
		Multiplier:        alert.Multiplier,
		DetectedAt:        now,
	})

	return alert, nil
}

// UpdateFrequencies refreshes an open alert with the latest window counts
func (a *SpikeAlert) UpdateFrequencies(baseline, current float64) error {
	if a.Resolved {
		return ErrAlertResolved
	}
	a.BaselineFrequency = baseline
	a.CurrentFrequency = current
	a.Multiplier = SpikeMultiplier(baseline, current)
	a.UpdatedAt = time.Now()
	return nil
}

// LinkMovePlan associates the emergency move created for this alert
func (a *SpikeAlert) LinkMovePlan(moveID string) {
	a.MovePlanID = moveID
	a.UpdatedAt = time.Now()
}

// Resolve closes the alert
func (a *SpikeAlert) Resolve() error {
	if a.Resolved {
		return ErrAlertResolved
	}
	now := time.Now()
	a.Resolved = true
	a.ResolvedAt = &now
	a.UpdatedAt = now
	return nil
}

// AddDomainEvent adds a domain event
func (a *SpikeAlert) AddDomainEvent(event DomainEvent) {
	a.DomainEvents = append(a.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (a *SpikeAlert) ClearDomainEvents() {
	a.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (a *SpikeAlert) GetDomainEvents() []DomainEvent {
	return a.DomainEvents
}
