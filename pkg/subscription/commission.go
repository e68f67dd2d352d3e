package subscription

import (
	"errors"
	"fmt"

	"coursegen_backend/pkg/config"
)

// The platform keeps a flat quarter of the plan price on every
// activation.
const commissionDivisor = 4

// ErrUnknownPlan rejects plan identifiers outside the pricing config.
// Unknown plans are a validation failure, never silently priced.
var ErrUnknownPlan = errors.New("unknown plan identifier")

// PlanCost returns the configured price for a sellable plan.
func PlanCost(pricing config.PricingConfig, plan string) (float64, error) {
	switch plan {
	case pricing.MonthType:
		return pricing.MonthCost, nil
	case pricing.YearType:
		return pricing.YearCost, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
}

// Commission computes the platform share for one activation of the
// given plan.
func Commission(pricing config.PricingConfig, plan string) (float64, error) {
	cost, err := PlanCost(pricing, plan)
	if err != nil {
		return 0, err
	}
	return cost / commissionDivisor, nil
}
