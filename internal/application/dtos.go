package application

import (
	"time"

	"github.com/wms-platform/slotting-service/internal/domain"
)

// MovePlanDTO represents a move plan in responses
type MovePlanDTO struct {
	MoveID         string               `json:"moveId"`
	PlanType       string               `json:"planType"`
	PriorityRank   int                  `json:"priorityRank"`
	WarehouseID    string               `json:"warehouseId"`
	SKUID          string               `json:"skuId"`
	FromLocationID string               `json:"fromLocationId"`
	ToLocationID   string               `json:"toLocationId"`
	Quantity       int                  `json:"quantity"`
	EffortMinutes  float64              `json:"effortMinutes"`
	ExpectedGain   domain.ExpectedGain  `json:"expectedGain"`
	ROI            float64              `json:"roi"`
	Reasoning      []string             `json:"reasoning,omitempty"`
	Status         string               `json:"status"`
	ActualImpact   *domain.ActualImpact `json:"actualImpact,omitempty"`
	CompletedBy    string               `json:"completedBy,omitempty"`
	CompletedAt    *time.Time           `json:"completedAt,omitempty"`
	AlertID        string               `json:"alertId,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// SpikeAlertDTO represents a spike alert in responses
type SpikeAlertDTO struct {
	AlertID           string     `json:"alertId"`
	WarehouseID       string     `json:"warehouseId"`
	SKUID             string     `json:"skuId"`
	LocationID        string     `json:"locationId"`
	DetectedAt        time.Time  `json:"detectedAt"`
	BaselineFrequency float64    `json:"baselineFrequency"`
	CurrentFrequency  float64    `json:"currentFrequency"`
	Multiplier        float64    `json:"multiplier"`
	MovePlanID        string     `json:"movePlanId,omitempty"`
	Resolved          bool       `json:"resolved"`
	ResolvedAt        *time.Time `json:"resolvedAt,omitempty"`
}

// LiveSuggestionDTO pairs an open alert with its suggested emergency move
type LiveSuggestionDTO struct {
	Alert SpikeAlertDTO `json:"alert"`
	Move  *MovePlanDTO  `json:"move,omitempty"`
	ROI   float64       `json:"roi"`
}

// ROIBucketsDTO groups completed moves by how well predictions held up
type ROIBucketsDTO struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// ImpactSummaryDTO aggregates realized impact over a window
type ImpactSummaryDTO struct {
	WarehouseID               string        `json:"warehouseId"`
	WindowDays                int           `json:"windowDays"`
	CompletedMoves            int           `json:"completedMoves"`
	AvgPredictedSecondsPerDay float64       `json:"avgPredictedSecondsPerDay"`
	AvgActualSecondsPerDay    float64       `json:"avgActualSecondsPerDay"`
	MeanAbsoluteError         float64       `json:"meanAbsoluteError"`
	RootMeanSquareError       float64       `json:"rootMeanSquareError"`
	MeanAbsolutePctError      float64       `json:"meanAbsolutePctError"`
	TotalErgonomicReduction   float64       `json:"totalErgonomicReduction"`
	ROIBuckets                ROIBucketsDTO `json:"roiBuckets"`
}

// ScoreDTO represents an explained slotting score
type ScoreDTO struct {
	SKUID       string         `json:"skuId"`
	LocationID  string         `json:"locationId"`
	WarehouseID string         `json:"warehouseId"`
	Total       float64        `json:"total"`
	Components  ComponentsDTO  `json:"components"`
	Weights     domain.Weights `json:"weights"`
	RuleBonus   float64        `json:"ruleBonus"`
	Reasoning   []string       `json:"reasoning,omitempty"`
}

// ComponentsDTO holds the unweighted score components
type ComponentsDTO struct {
	Frequency  float64 `json:"frequency"`
	TravelCost float64 `json:"travelCost"`
	Ergonomic  float64 `json:"ergonomic"`
	Congestion float64 `json:"congestion"`
}
