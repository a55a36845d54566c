package scoring

import (
	"fmt"

	"github.com/wms-platform/slotting-service/internal/domain"
)

// Hard-constraint violations. A violation vetoes a placement regardless of
// how well it scores.
type ConstraintViolation struct {
	Rule   string
	Detail string
}

func (v *ConstraintViolation) Error() string {
	return fmt.Sprintf("placement constraint %s: %s", v.Rule, v.Detail)
}

// RuleEngine applies service rules: an additive soft bonus and hard
// placement constraints.
type RuleEngine struct {
	Rules *domain.ServiceRuleSet
}

// Bonus returns the additive rule bonus for placing a SKU at a location
func (e RuleEngine) Bonus(sku *domain.SKU, loc *domain.Location) float64 {
	bonus := 0.0

	bonus += e.Rules.ClientBonus(sku.ClientID)

	if affinity, ok := e.Rules.AffinityFor(sku.FamilyID); ok {
		if affinity.PreferredZone != "" && affinity.PreferredZone == loc.Zone {
			bonus += affinity.Bonus
		}
		if affinity.PreferredLane != "" && affinity.PreferredLane == loc.Aisle {
			bonus += affinity.Bonus
		}
	}

	return bonus
}

// ValidateMove checks the hard constraints for placing a SKU at a location.
// neighborFamilies are the families already slotted in the location's zone.
// Returns a ConstraintViolation when the placement must be vetoed.
func (e RuleEngine) ValidateMove(sku *domain.SKU, loc *domain.Location, neighborFamilies []string) error {
	if loc.MaxWeightKg > 0 && sku.WeightKg > loc.MaxWeightKg {
		return &ConstraintViolation{
			Rule:   "weight-limit",
			Detail: fmt.Sprintf("sku weighs %.1fkg, slot limit is %.1fkg", sku.WeightKg, loc.MaxWeightKg),
		}
	}

	for _, eq := range sku.RequiredEquipment {
		if !loc.HasEquipment(eq) {
			return &ConstraintViolation{
				Rule:   "equipment",
				Detail: fmt.Sprintf("sku requires %s, slot does not provide it", eq),
			}
		}
	}

	for _, family := range neighborFamilies {
		if sku.IncompatibleWithFamily(family) {
			return &ConstraintViolation{
				Rule:   "incompatibility",
				Detail: fmt.Sprintf("family %s conflicts with neighboring family %s", sku.FamilyID, family),
			}
		}
	}

	return nil
}

// Explain returns the operator-facing reasoning sentence for the bonus
func (e RuleEngine) Explain(bonus float64) string {
	switch {
	case bonus > 0:
		return fmt.Sprintf("service rules add a %.2f placement bonus", bonus)
	case bonus < 0:
		return fmt.Sprintf("service rules apply a %.2f placement penalty", bonus)
	default:
		return ""
	}
}
