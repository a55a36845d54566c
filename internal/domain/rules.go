package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default scoring weights applied when a warehouse has no rule set
const (
	DefaultWeightFrequency  = 0.4
	DefaultWeightTravel     = 0.3
	DefaultWeightErgonomic  = 0.2
	DefaultWeightCongestion = 0.1
)

// Weights holds the relative importance of each scoring component
type Weights struct {
	Frequency  float64 `bson:"frequency" json:"frequency" yaml:"frequency"`
	Travel     float64 `bson:"travel" json:"travel" yaml:"travel"`
	Ergonomic  float64 `bson:"ergonomic" json:"ergonomic" yaml:"ergonomic"`
	Congestion float64 `bson:"congestion" json:"congestion" yaml:"congestion"`
}

// DefaultWeights returns the platform default weights
func DefaultWeights() Weights {
	return Weights{
		Frequency:  DefaultWeightFrequency,
		Travel:     DefaultWeightTravel,
		Ergonomic:  DefaultWeightErgonomic,
		Congestion: DefaultWeightCongestion,
	}
}

// Normalized returns the weights scaled so they sum to 1.0.
// All-zero weights fall back to the defaults.
func (w Weights) Normalized() Weights {
	sum := w.Frequency + w.Travel + w.Ergonomic + w.Congestion
	if sum <= 0 {
		return DefaultWeights()
	}
	return Weights{
		Frequency:  w.Frequency / sum,
		Travel:     w.Travel / sum,
		Ergonomic:  w.Ergonomic / sum,
		Congestion: w.Congestion / sum,
	}
}

// FamilyAffinity expresses a preferred placement for a SKU family
type FamilyAffinity struct {
	FamilyID      string  `bson:"familyId" json:"familyId"`
	PreferredZone string  `bson:"preferredZone,omitempty" json:"preferredZone,omitempty"`
	PreferredLane string  `bson:"preferredLane,omitempty" json:"preferredLane,omitempty"`
	Bonus         float64 `bson:"bonus" json:"bonus"`
}

// ServiceRuleSet holds per-warehouse scoring overrides and placement rules
type ServiceRuleSet struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	WarehouseID      string             `bson:"warehouseId"`
	Weights          Weights            `bson:"weights"`
	ClientPriorities map[string]float64 `bson:"clientPriorities,omitempty"`
	FamilyAffinities []FamilyAffinity   `bson:"familyAffinities,omitempty"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

// EffectiveWeights returns the normalized weights, defaulting when unset
func (r *ServiceRuleSet) EffectiveWeights() Weights {
	if r == nil {
		return DefaultWeights()
	}
	return r.Weights.Normalized()
}

// ClientBonus returns the priority bonus for a client, zero when absent
func (r *ServiceRuleSet) ClientBonus(clientID string) float64 {
	if r == nil || r.ClientPriorities == nil {
		return 0
	}
	return r.ClientPriorities[clientID]
}

// AffinityFor returns the family affinity rule for a family, if any
func (r *ServiceRuleSet) AffinityFor(familyID string) (FamilyAffinity, bool) {
	if r == nil {
		return FamilyAffinity{}, false
	}
	for _, a := range r.FamilyAffinities {
		if a.FamilyID == familyID {
			return a, true
		}
	}
	return FamilyAffinity{}, false
}
