// Package feasibility computes a full development feasibility snapshot from
// a plot, a unit-mix strategy, and resolved market assumptions. Calculate is
// a pure function: the same inputs always produce the same result, so
// snapshots can be recomputed on every input change and compared field by
// field.
package feasibility

import (
	"errors"
	"fmt"
	"math"

	"github.com/terraplot/plotdesk/internal/market"
)

// Default rates. Every rate is overridable per input; the bases are fixed
// here: marketing is charged on gross sales, financing on construction cost.
const (
	DefaultEfficiency     = 0.95
	DefaultBUAMultiplier  = 1.45
	DefaultAuthorityPct   = 0.04
	DefaultConsultantPct  = 0.03
	DefaultMarketingPct   = 0.02
	DefaultContingencyPct = 0.05
	DefaultFinancePct     = 0.05
)

// SensitivityDeltas is the fixed symmetric price-shock set.
var SensitivityDeltas = []float64{-0.10, -0.05, 0, 0.05, 0.10}

// ErrUndefined marks an input the calculation is not defined for. Callers
// validate before invoking.
var ErrUndefined = errors.New("feasibility undefined for non-positive area or ratio")

// Input carries the plot geometry plus an optional override bag. Zero-value
// overrides mean "use the resolved/default value"; non-positive overrides
// are ignored, never treated as zero.
type Input struct {
	ID          string  `json:"id"`
	Name        string  `json:"name,omitempty"`
	AreaSqft    float64 `json:"area_sqft"`
	Ratio       float64 `json:"ratio"`
	Height      string  `json:"height,omitempty"`
	Zone        string  `json:"zone,omitempty"`
	Constraints string  `json:"constraints,omitempty"`

	Efficiency      float64            `json:"efficiency,omitempty"`
	LandCost        float64            `json:"land_cost,omitempty"`
	LandCostPsf     float64            `json:"land_cost_psf,omitempty"`
	ConstructionPsf float64            `json:"construction_psf,omitempty"`
	BUAMultiplier   float64            `json:"bua_multiplier,omitempty"`
	AvgPsfOverride  float64            `json:"avg_psf_override,omitempty"`
	AuthorityPct    float64            `json:"authority_pct,omitempty"`
	ConsultantPct   float64            `json:"consultant_pct,omitempty"`
	MarketingPct    float64            `json:"marketing_pct,omitempty"`
	ContingencyPct  float64            `json:"contingency_pct,omitempty"`
	FinancePct      float64            `json:"finance_pct,omitempty"`
	NoContingency   bool               `json:"no_contingency,omitempty"`
	NoFinancing     bool               `json:"no_financing,omitempty"`
	UnitPsf         map[string]float64 `json:"unit_psf,omitempty"`
	UnitSizes       map[string]float64 `json:"unit_sizes,omitempty"`
	UnitRents       map[string]float64 `json:"unit_rents,omitempty"`
}

// UnitCounts is the per-type unit breakdown. Total always equals the sum of
// the four buckets.
type UnitCounts struct {
	Studio int `json:"studio"`
	BR1    int `json:"br1"`
	BR2    int `json:"br2"`
	BR3    int `json:"br3"`
	Total  int `json:"total"`
}

// SensitivityRow is one price-shock scenario.
type SensitivityRow struct {
	Delta   float64 `json:"delta"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
	Margin  float64 `json:"margin"`
	ROI     float64 `json:"roi"`
}

// PayAmounts is the payment plan expressed in money, derived from gross
// sales and the strategy's percentage split.
type PayAmounts struct {
	BookingPct      float64 `json:"booking_pct"`
	ConstructionPct float64 `json:"construction_pct"`
	HandoverPct     float64 `json:"handover_pct"`
	Booking         float64 `json:"booking"`
	Construction    float64 `json:"construction"`
	Handover        float64 `json:"handover"`
}

// Result is the fully computed snapshot. All areas are sqft; money values
// share whatever currency the PSF inputs use.
type Result struct {
	InputID           string             `json:"input_id"`
	Strategy          string             `json:"strategy"`
	GFA               float64            `json:"gfa"`
	BUA               float64            `json:"bua"`
	SellableArea      float64            `json:"sellable_area"`
	ResidentialFloors int                `json:"residential_floors"`
	Units             UnitCounts         `json:"units"`
	Mix               map[string]float64 `json:"mix"`
	Prices            map[string]float64 `json:"prices"`
	RevBreak          map[string]float64 `json:"rev_break"`
	GrossSales        float64            `json:"gross_sales"`
	AnnualRent        float64            `json:"annual_rent"`
	GrossYield        float64            `json:"gross_yield"`
	LandCost          float64            `json:"land_cost"`
	ConstructionCost  float64            `json:"construction_cost"`
	AuthorityFees     float64            `json:"authority_fees"`
	ConsultantFees    float64            `json:"consultant_fees"`
	Marketing         float64            `json:"marketing"`
	Contingency       float64            `json:"contingency"`
	Financing         float64            `json:"financing"`
	TotalCost         float64            `json:"total_cost"`
	GrossProfit       float64            `json:"gross_profit"`
	GrossMargin       float64            `json:"gross_margin"`
	ROI               float64            `json:"roi"`
	BreakEvenPsf      float64            `json:"break_even_psf"`
	AvgPsf            float64            `json:"avg_psf"`
	PayPlan           PayAmounts         `json:"pay_plan"`
	Sens              []SensitivityRow   `json:"sens"`
}

// Validate reports whether the calculation is defined for this input.
func (in Input) Validate() error {
	if in.AreaSqft <= 0 || in.Ratio <= 0 {
		return fmt.Errorf("%w: area=%f ratio=%f", ErrUndefined, in.AreaSqft, in.Ratio)
	}
	return nil
}

// Calculate runs the full pipeline: massing, unit mix, revenue, costs,
// profitability, sensitivity, and payment plan.
func Calculate(in Input, strat MixStrategy, assumptions market.AssumptionSet) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	efficiency := pickRate(in.Efficiency, DefaultEfficiency)
	buaMult := pickRate(in.BUAMultiplier, DefaultBUAMultiplier)

	gfa := in.AreaSqft * in.Ratio
	sellable := gfa * efficiency
	bua := gfa * buaMult
	floors := int(math.Round(gfa / (in.AreaSqft * efficiency)))

	sizes := resolvePerType(in.UnitSizes, assumptions.UnitSizes)
	psf := resolvePerType(in.UnitPsf, assumptions.UnitPsf)
	rents := resolvePerType(in.UnitRents, assumptions.UnitRents)
	if in.AvgPsfOverride > 0 {
		for _, unit := range market.UnitTypes {
			psf[unit] = in.AvgPsfOverride
		}
	}

	units := allocateUnits(sellable, strat.Proportions, sizes)

	prices := map[string]float64{}
	revBreak := map[string]float64{}
	grossSales := 0.0
	annualRent := 0.0
	for _, unit := range market.UnitTypes {
		price := sizes[unit] * psf[unit]
		prices[unit] = price
		rev := float64(unitCount(units, unit)) * price
		revBreak[unit] = rev
		grossSales += rev
		annualRent += float64(unitCount(units, unit)) * sizes[unit] * rents[unit]
	}
	grossYield := 0.0
	if grossSales > 0 {
		grossYield = annualRent / grossSales
	}

	landCost := in.LandCost
	if landCost <= 0 {
		landCostPsf := in.LandCostPsf
		if landCostPsf <= 0 {
			landCostPsf = assumptions.LandCostPsf
		}
		landCost = landCostPsf * gfa
	}
	constructionPsf := in.ConstructionPsf
	if constructionPsf <= 0 {
		constructionPsf = assumptions.ConstructionPsf
	}
	constructionCost := constructionPsf * bua

	authorityFees := pickRate(in.AuthorityPct, DefaultAuthorityPct) * landCost
	consultantFees := pickRate(in.ConsultantPct, DefaultConsultantPct) * constructionCost
	marketing := pickRate(in.MarketingPct, DefaultMarketingPct) * grossSales
	contingency := pickRate(in.ContingencyPct, DefaultContingencyPct) * constructionCost
	if in.NoContingency {
		contingency = 0
	}
	financing := pickRate(in.FinancePct, DefaultFinancePct) * constructionCost
	if in.NoFinancing {
		financing = 0
	}
	totalCost := landCost + constructionCost + authorityFees + consultantFees + marketing + contingency + financing

	grossProfit := grossSales - totalCost
	grossMargin := 0.0
	if grossSales > 0 {
		grossMargin = grossProfit / grossSales
	}
	roi := 0.0
	if totalCost > 0 {
		roi = grossProfit / totalCost
	}
	breakEven := 0.0
	// avgPsf is defined over sellable area so the delta=0 sensitivity row
	// reproduces the base case exactly.
	avgPsf := 0.0
	if sellable > 0 {
		breakEven = totalCost / sellable
		avgPsf = grossSales / sellable
	}

	return Result{
		InputID:           in.ID,
		Strategy:          strat.Name,
		GFA:               gfa,
		BUA:               bua,
		SellableArea:      sellable,
		ResidentialFloors: floors,
		Units:             units,
		Mix:               copyMix(strat.Proportions),
		Prices:            prices,
		RevBreak:          revBreak,
		GrossSales:        grossSales,
		AnnualRent:        annualRent,
		GrossYield:        grossYield,
		LandCost:          landCost,
		ConstructionCost:  constructionCost,
		AuthorityFees:     authorityFees,
		ConsultantFees:    consultantFees,
		Marketing:         marketing,
		Contingency:       contingency,
		Financing:         financing,
		TotalCost:         totalCost,
		GrossProfit:       grossProfit,
		GrossMargin:       grossMargin,
		ROI:               roi,
		BreakEvenPsf:      breakEven,
		AvgPsf:            avgPsf,
		PayPlan:           payAmounts(strat.PayPlan, grossSales),
		Sens:              sensitivity(sellable, avgPsf, totalCost),
	}, nil
}

// allocateUnits derives the total unit count from the weighted-average unit
// size, splits it by proportion, and reconciles the rounding remainder into
// the largest bucket so the buckets always sum to the total.
func allocateUnits(sellable float64, proportions, sizes map[string]float64) UnitCounts {
	avgSize := 0.0
	for _, unit := range market.UnitTypes {
		avgSize += proportions[unit] * sizes[unit]
	}
	total := 0
	if avgSize > 0 {
		total = int(math.Floor(sellable / avgSize))
	}

	counts := map[string]int{}
	sum := 0
	largest := market.UnitTypes[0]
	for _, unit := range market.UnitTypes {
		counts[unit] = int(math.Round(float64(total) * proportions[unit]))
		sum += counts[unit]
		if proportions[unit] > proportions[largest] {
			largest = unit
		}
	}
	counts[largest] += total - sum

	return UnitCounts{
		Studio: counts[market.UnitStudio],
		BR1:    counts[market.Unit1BR],
		BR2:    counts[market.Unit2BR],
		BR3:    counts[market.Unit3BR],
		Total:  total,
	}
}

func unitCount(u UnitCounts, unit string) int {
	switch unit {
	case market.UnitStudio:
		return u.Studio
	case market.Unit1BR:
		return u.BR1
	case market.Unit2BR:
		return u.BR2
	case market.Unit3BR:
		return u.BR3
	}
	return 0
}

func sensitivity(sellable, avgPsf, totalCost float64) []SensitivityRow {
	rows := make([]SensitivityRow, 0, len(SensitivityDeltas))
	for _, delta := range SensitivityDeltas {
		revenue := sellable * avgPsf * (1 + delta)
		profit := revenue - totalCost
		margin := 0.0
		if revenue > 0 {
			margin = profit / revenue
		}
		roi := 0.0
		if totalCost > 0 {
			roi = profit / totalCost
		}
		rows = append(rows, SensitivityRow{
			Delta:   delta,
			Revenue: revenue,
			Profit:  profit,
			Margin:  margin,
			ROI:     roi,
		})
	}
	return rows
}

func payAmounts(plan PayPlan, grossSales float64) PayAmounts {
	return PayAmounts{
		BookingPct:      plan.BookingPct,
		ConstructionPct: plan.ConstructionPct,
		HandoverPct:     plan.HandoverPct,
		Booking:         grossSales * plan.BookingPct / 100,
		Construction:    grossSales * plan.ConstructionPct / 100,
		Handover:        grossSales * plan.HandoverPct / 100,
	}
}

// pickRate returns the override when positive, the default otherwise.
// Non-positive overrides are ignored rather than read as zero.
func pickRate(override, def float64) float64 {
	if override > 0 {
		return override
	}
	return def
}

// resolvePerType merges per-type overrides on top of resolved assumptions,
// keyed by canonical unit type. Missing entries stay zero.
func resolvePerType(overrides, resolved map[string]float64) map[string]float64 {
	out := map[string]float64{}
	for _, unit := range market.UnitTypes {
		if v := resolved[unit]; v > 0 {
			out[unit] = v
		}
		if v := overrides[unit]; v > 0 {
			out[unit] = v
		}
	}
	return out
}

func copyMix(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
