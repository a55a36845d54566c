package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors
var (
	ErrMoveNotFound     = errors.New("move plan not found")
	ErrMoveTerminal     = errors.New("move plan is in a terminal state")
	ErrInvalidMoveState = errors.New("invalid move plan state transition")
	ErrAlreadyCompleted = errors.New("move plan is already completed")
)

// PlanType classifies what produced a move plan
type PlanType string

const (
	PlanTypeNightly      PlanType = "NIGHTLY"
	PlanTypeInShiftSpike PlanType = "IN_SHIFT_SPIKE"
	PlanTypeEmergency    PlanType = "EMERGENCY"
	PlanTypeOptimization PlanType = "OPTIMIZATION"
)

// MoveStatus is the lifecycle state of a move plan
type MoveStatus string

const (
	MoveStatusPending    MoveStatus = "PENDING"
	MoveStatusScheduled  MoveStatus = "SCHEDULED"
	MoveStatusInProgress MoveStatus = "IN_PROGRESS"
	MoveStatusCompleted  MoveStatus = "COMPLETED"
	MoveStatusCancelled  MoveStatus = "CANCELLED"
	MoveStatusFailed     MoveStatus = "FAILED"
)

var moveTransitions = map[MoveStatus][]MoveStatus{
	MoveStatusPending:    {MoveStatusScheduled, MoveStatusInProgress, MoveStatusCompleted, MoveStatusCancelled},
	MoveStatusScheduled:  {MoveStatusInProgress, MoveStatusCompleted, MoveStatusCancelled},
	MoveStatusInProgress: {MoveStatusCompleted, MoveStatusFailed, MoveStatusCancelled},
	MoveStatusCompleted:  {},
	MoveStatusCancelled:  {},
	MoveStatusFailed:     {},
}

// CanTransitionTo reports whether the status machine allows the transition
func (s MoveStatus) CanTransitionTo(target MoveStatus) bool {
	for _, allowed := range moveTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status is final
func (s MoveStatus) IsTerminal() bool {
	return len(moveTransitions[s]) == 0
}

// ExpectedGain is the predicted benefit of executing a move
type ExpectedGain struct {
	SecondsPerPick         float64 `bson:"secondsPerPick" json:"secondsPerPick"`
	ErgonomicRiskReduction float64 `bson:"ergonomicRiskReduction" json:"ergonomicRiskReduction"`
	AffectedDailyPicks     int     `bson:"affectedDailyPicks" json:"affectedDailyPicks"`
}

// SecondsPerDay returns the predicted daily travel-time saving
func (g ExpectedGain) SecondsPerDay() float64 {
	return g.SecondsPerPick * float64(g.AffectedDailyPicks)
}

// ActualImpact records measured results after a move is executed
type ActualImpact struct {
	TravelSecondsSaved   float64 `bson:"travelSecondsSaved" json:"travelSecondsSaved"`
	PickSecondsSaved     float64 `bson:"pickSecondsSaved" json:"pickSecondsSaved"`
	ErgonomicImprovement float64 `bson:"ergonomicImprovement" json:"ergonomicImprovement"`
	Notes                string  `bson:"notes,omitempty" json:"notes,omitempty"`
}

// MovePlan is the aggregate root for the move lifecycle
type MovePlan struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	MoveID         string             `bson:"moveId"`
	PlanType       PlanType           `bson:"planType"`
	PriorityRank   int                `bson:"priorityRank"`
	WarehouseID    string             `bson:"warehouseId"`
	SKUID          string             `bson:"skuId"`
	FromLocationID string             `bson:"fromLocationId"`
	ToLocationID   string             `bson:"toLocationId"`
	Quantity       int                `bson:"quantity"`
	EffortMinutes  float64            `bson:"effortMinutes"`
	ExpectedGain   ExpectedGain       `bson:"expectedGain"`
	ROI            float64            `bson:"roi"`
	Reasoning      []string           `bson:"reasoning,omitempty"`
	Status         MoveStatus         `bson:"status"`
	ActualImpact   *ActualImpact      `bson:"actualImpact,omitempty"`
	CompletedBy    string             `bson:"completedBy,omitempty"`
	CompletedAt    *time.Time         `bson:"completedAt,omitempty"`
	CancelReason   string             `bson:"cancelReason,omitempty"`
	AlertID        string             `bson:"alertId,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
	DomainEvents   []DomainEvent      `bson:"-"`
}

// NewMovePlan creates a new MovePlan aggregate in PENDING state
func NewMovePlan(moveID string, planType PlanType, warehouseID, skuID, fromLocationID, toLocationID string, quantity int) (*MovePlan, error) {
	if moveID == "" {
		return nil, errors.New("move id is required")
	}
	if warehouseID == "" || skuID == "" {
		return nil, errors.New("warehouse id and sku id are required")
	}
	if fromLocationID == toLocationID {
		return nil, errors.New("source and target locations must differ")
	}
	if quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}

	now := time.Now()
	plan := &MovePlan{
		MoveID:         moveID,
		PlanType:       planType,
		WarehouseID:    warehouseID,
		SKUID:          skuID,
		FromLocationID: fromLocationID,
		ToLocationID:   toLocationID,
		Quantity:       quantity,
		Status:         MoveStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
		DomainEvents:   make([]DomainEvent, 0),
	}

	plan.AddDomainEvent(&MovePlanCreatedEvent{
		MoveID:      moveID,
		PlanType:    string(planType),
		WarehouseID: warehouseID,
		SKUID:       skuID,
		CreatedAt:   now,
	})

	return plan, nil
}

// Schedule moves the plan into the execution queue
func (m *MovePlan) Schedule() error {
	if !m.Status.CanTransitionTo(MoveStatusScheduled) {
		return ErrInvalidMoveState
	}
	m.Status = MoveStatusScheduled
	m.UpdatedAt = time.Now()
	return nil
}

// Start marks execution as begun
func (m *MovePlan) Start() error {
	if !m.Status.CanTransitionTo(MoveStatusInProgress) {
		return ErrInvalidMoveState
	}
	m.Status = MoveStatusInProgress
	m.UpdatedAt = time.Now()
	return nil
}

// Complete records execution of the move with its measured impact.
// Allowed directly from PENDING for operator-confirmed immediate moves.
func (m *MovePlan) Complete(userID string, impact ActualImpact) error {
	if m.Status == MoveStatusCompleted {
		return ErrAlreadyCompleted
	}
	if !m.Status.CanTransitionTo(MoveStatusCompleted) {
		return ErrInvalidMoveState
	}

	now := time.Now()
	m.Status = MoveStatusCompleted
	m.ActualImpact = &impact
	m.CompletedBy = userID
	m.CompletedAt = &now
	m.UpdatedAt = now

	m.AddDomainEvent(&MoveCompletedEvent{
		MoveID:      m.MoveID,
		WarehouseID: m.WarehouseID,
		SKUID:       m.SKUID,
		PlanType:    string(m.PlanType),
		CompletedBy: userID,
		Impact:      impact,
		CompletedAt: now,
	})

	return nil
}

// Cancel cancels a non-terminal plan
func (m *MovePlan) Cancel(reason string) error {
	if m.Status.IsTerminal() {
		return ErrMoveTerminal
	}
	m.Status = MoveStatusCancelled
	m.CancelReason = reason
	m.UpdatedAt = time.Now()
	return nil
}

// Supersede cancels a pending plan in favor of a newer one
func (m *MovePlan) Supersede(newMoveID string) error {
	if m.Status != MoveStatusPending {
		return ErrInvalidMoveState
	}
	return m.Cancel("superseded by " + newMoveID)
}

// Fail marks an in-progress plan as failed
func (m *MovePlan) Fail(reason string) error {
	if !m.Status.CanTransitionTo(MoveStatusFailed) {
		return ErrInvalidMoveState
	}
	m.Status = MoveStatusFailed
	m.CancelReason = reason
	m.UpdatedAt = time.Now()
	return nil
}

// LinkAlert associates the plan with the spike alert that requested it
func (m *MovePlan) LinkAlert(alertID string) {
	m.AlertID = alertID
	m.UpdatedAt = time.Now()
}

// PredictedSecondsPerDay returns the predicted daily saving for this plan
func (m *MovePlan) PredictedSecondsPerDay() float64 {
	return m.ExpectedGain.SecondsPerDay()
}

// AddDomainEvent adds a domain event
func (m *MovePlan) AddDomainEvent(event DomainEvent) {
	m.DomainEvents = append(m.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (m *MovePlan) ClearDomainEvents() {
	m.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (m *MovePlan) GetDomainEvents() []DomainEvent {
	return m.DomainEvents
}
