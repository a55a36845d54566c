package domain

// Score is the computed fit of a SKU at a location. Ephemeral; never persisted.
type Score struct {
	SKUID       string  `json:"skuId"`
	LocationID  string  `json:"locationId"`
	WarehouseID string  `json:"warehouseId"`
	Total       float64 `json:"total"`

	// Components, each in [0,1] before weighting
	Frequency  float64 `json:"frequency"`
	TravelCost float64 `json:"travelCost"`
	Ergonomic  float64 `json:"ergonomic"`
	Congestion float64 `json:"congestion"`
	RuleBonus  float64 `json:"ruleBonus"`

	Weights Weights `json:"weights"`

	// Per-component reasoning sentences, populated by Explain
	Reasoning []string `json:"reasoning,omitempty"`
}

// Compose recalculates Total from the components and weights.
// total = wF*frequency - wT*travel - wE*ergonomic - wC*congestion + ruleBonus
func (s *Score) Compose() {
	s.Total = s.Weights.Frequency*s.Frequency -
		s.Weights.Travel*s.TravelCost -
		s.Weights.Ergonomic*s.Ergonomic -
		s.Weights.Congestion*s.Congestion +
		s.RuleBonus
}

// Improvement returns how much better candidate scores than s
func (s *Score) Improvement(candidate *Score) float64 {
	return candidate.Total - s.Total
}

// Clamp01 bounds a component value to [0,1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
