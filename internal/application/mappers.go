package application

import "github.com/wms-platform/slotting-service/internal/domain"

// ToMovePlanDTO converts a MovePlan aggregate to a DTO
func ToMovePlanDTO(plan *domain.MovePlan) *MovePlanDTO {
	return &MovePlanDTO{
		MoveID:         plan.MoveID,
		PlanType:       string(plan.PlanType),
		PriorityRank:   plan.PriorityRank,
		WarehouseID:    plan.WarehouseID,
		SKUID:          plan.SKUID,
		FromLocationID: plan.FromLocationID,
		ToLocationID:   plan.ToLocationID,
		Quantity:       plan.Quantity,
		EffortMinutes:  plan.EffortMinutes,
		ExpectedGain:   plan.ExpectedGain,
		ROI:            plan.ROI,
		Reasoning:      plan.Reasoning,
		Status:         string(plan.Status),
		ActualImpact:   plan.ActualImpact,
		CompletedBy:    plan.CompletedBy,
		CompletedAt:    plan.CompletedAt,
		AlertID:        plan.AlertID,
		CreatedAt:      plan.CreatedAt,
		UpdatedAt:      plan.UpdatedAt,
	}
}

// ToMovePlanDTOs converts a slice of MovePlans
func ToMovePlanDTOs(plans []*domain.MovePlan) []*MovePlanDTO {
	dtos := make([]*MovePlanDTO, 0, len(plans))
	for _, plan := range plans {
		dtos = append(dtos, ToMovePlanDTO(plan))
	}
	return dtos
}

// ToSpikeAlertDTO converts a SpikeAlert aggregate to a DTO
func ToSpikeAlertDTO(alert *domain.SpikeAlert) SpikeAlertDTO {
	return SpikeAlertDTO{
		AlertID:           alert.AlertID,
		WarehouseID:       alert.WarehouseID,
		SKUID:             alert.SKUID,
		LocationID:        alert.LocationID,
		DetectedAt:        alert.DetectedAt,
		BaselineFrequency: alert.BaselineFrequency,
		CurrentFrequency:  alert.CurrentFrequency,
		Multiplier:        alert.Multiplier,
		MovePlanID:        alert.MovePlanID,
		Resolved:          alert.Resolved,
		ResolvedAt:        alert.ResolvedAt,
	}
}

// ToScoreDTO converts a Score to a DTO
func ToScoreDTO(score *domain.Score) *ScoreDTO {
	return &ScoreDTO{
		SKUID:       score.SKUID,
		LocationID:  score.LocationID,
		WarehouseID: score.WarehouseID,
		Total:       score.Total,
		Components: ComponentsDTO{
			Frequency:  score.Frequency,
			TravelCost: score.TravelCost,
			Ergonomic:  score.Ergonomic,
			Congestion: score.Congestion,
		},
		Weights:   score.Weights,
		RuleBonus: score.RuleBonus,
		Reasoning: score.Reasoning,
	}
}
