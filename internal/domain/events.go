package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// MovePlanCreatedEvent is published when a move plan is created
type MovePlanCreatedEvent struct {
	MoveID      string    `json:"moveId"`
	PlanType    string    `json:"planType"`
	WarehouseID string    `json:"warehouseId"`
	SKUID       string    `json:"skuId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e *MovePlanCreatedEvent) EventType() string     { return "wms.replen.move-created" }
func (e *MovePlanCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// MoveCompletedEvent is published when a move plan is completed
type MoveCompletedEvent struct {
	MoveID      string       `json:"moveId"`
	WarehouseID string       `json:"warehouseId"`
	SKUID       string       `json:"skuId"`
	PlanType    string       `json:"planType"`
	CompletedBy string       `json:"completedBy"`
	Impact      ActualImpact `json:"impact"`
	CompletedAt time.Time    `json:"completedAt"`
}

func (e *MoveCompletedEvent) EventType() string     { return "wms.replen.move-completed" }
func (e *MoveCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// SpikeDetectedEvent is published when a pick frequency spike is detected
type SpikeDetectedEvent struct {
	AlertID           string    `json:"alertId"`
	WarehouseID       string    `json:"warehouseId"`
	SKUID             string    `json:"skuId"`
	LocationID        string    `json:"locationId"`
	BaselineFrequency float64   `json:"baselineFrequency"`
	CurrentFrequency  float64   `json:"currentFrequency"`
	Multiplier        float64   `json:"multiplier"`
	MovePlanID        string    `json:"movePlanId,omitempty"`
	DetectedAt        time.Time `json:"detectedAt"`
}

func (e *SpikeDetectedEvent) EventType() string     { return "wms.replen.spike-detected" }
func (e *SpikeDetectedEvent) OccurredAt() time.Time { return e.DetectedAt }

// PlanPublishedEvent is published when a nightly plan batch is persisted
type PlanPublishedEvent struct {
	WarehouseID string    `json:"warehouseId"`
	PlanType    string    `json:"planType"`
	MoveCount   int       `json:"moveCount"`
	PublishedAt time.Time `json:"publishedAt"`
}

func (e *PlanPublishedEvent) EventType() string     { return "wms.replen.plan-published" }
func (e *PlanPublishedEvent) OccurredAt() time.Time { return e.PublishedAt }
