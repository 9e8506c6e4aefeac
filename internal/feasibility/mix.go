package feasibility

import (
	"fmt"
	"strings"

	"github.com/terraplot/plotdesk/internal/market"
)

// MixStrategy fixes the unit-type proportions and the payment plan for a
// development profile. Proportions sum to 1.0.
type MixStrategy struct {
	Name        string             `json:"name"`
	Proportions map[string]float64 `json:"proportions"`
	PayPlan     PayPlan            `json:"pay_plan"`
}

// PayPlan is the booking/construction/handover percentage split. The three
// percentages sum to 100.
type PayPlan struct {
	BookingPct      float64 `json:"booking_pct"`
	ConstructionPct float64 `json:"construction_pct"`
	HandoverPct     float64 `json:"handover_pct"`
}

var strategies = map[string]MixStrategy{
	"investor": {
		Name: "investor",
		Proportions: map[string]float64{
			market.UnitStudio: 0.40,
			market.Unit1BR:    0.35,
			market.Unit2BR:    0.20,
			market.Unit3BR:    0.05,
		},
		PayPlan: PayPlan{BookingPct: 5, ConstructionPct: 45, HandoverPct: 50},
	},
	"balanced": {
		Name: "balanced",
		Proportions: map[string]float64{
			market.UnitStudio: 0.25,
			market.Unit1BR:    0.35,
			market.Unit2BR:    0.25,
			market.Unit3BR:    0.15,
		},
		PayPlan: PayPlan{BookingPct: 10, ConstructionPct: 40, HandoverPct: 50},
	},
	"family": {
		Name: "family",
		Proportions: map[string]float64{
			market.UnitStudio: 0.10,
			market.Unit1BR:    0.25,
			market.Unit2BR:    0.35,
			market.Unit3BR:    0.30,
		},
		PayPlan: PayPlan{BookingPct: 20, ConstructionPct: 40, HandoverPct: 40},
	},
}

// StrategyFor returns the named mix strategy; the empty name means
// "balanced".
func StrategyFor(name string) (MixStrategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "balanced"
	}
	s, ok := strategies[key]
	if !ok {
		return MixStrategy{}, fmt.Errorf("unknown mix strategy %q", name)
	}
	return s, nil
}

// StrategyNames lists the available strategies in a stable order.
func StrategyNames() []string {
	return []string{"investor", "balanced", "family"}
}
