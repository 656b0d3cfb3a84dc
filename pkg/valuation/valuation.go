// Package valuation estimates the green-value uplift of a renovation and the
// cost of postponing it.
package valuation

import (
	"github.com/iwvelando/renovation-forecast/pkg/alert"
	"github.com/iwvelando/renovation-forecast/pkg/energy"
	"github.com/iwvelando/renovation-forecast/pkg/mathutil"
	"github.com/iwvelando/renovation-forecast/pkg/project"
	"github.com/iwvelando/renovation-forecast/pkg/regulation"
)

const stage = "valuation"

// upliftRates is evaluated top to bottom; the first tier reached wins.
var upliftRates = []struct {
	tier energy.Tier
	rate func(regulation.ValuationRules) float64
}{
	{energy.TierHighPerformance, func(v regulation.ValuationRules) float64 { return v.HighPerformanceUplift }},
	{energy.TierStandard, func(v regulation.ValuationRules) float64 { return v.StandardUplift }},
}

// UpliftRate returns the valuation uplift rate for a gain tier.
func UpliftRate(tier energy.Tier, reg regulation.Config) float64 {
	for _, row := range upliftRates {
		if tier >= row.tier {
			return row.rate(reg.Valuation)
		}
	}
	return 0
}

// Valuation is the estimated property value before and after the works.
// When market data is missing, Computable is false and every amount is 0.
type Valuation struct {
	Computable     bool    `json:"computable"`
	CurrentValue   float64 `json:"currentValue"`
	UpliftRate     float64 `json:"upliftRate"`
	Uplift         float64 `json:"uplift"`
	UpliftPerUnit  float64 `json:"upliftPerUnit"`
	ProjectedValue float64 `json:"projectedValue"`
	// NetROI is the uplift less the cash the co-owners pay immediately.
	NetROI float64 `json:"netROI"`
}

// Compute applies the tiered uplift to surface x price.
func Compute(in project.Input, g energy.Gain, cashCall float64, reg regulation.Config) (Valuation, []alert.Alert) {
	var alerts alert.List

	if !in.HasMarketValue() {
		alerts.Add(alert.ValuationNotComputable, stage,
			"valuation not computable without average price per square meter and unit surface")
		return Valuation{}, alerts
	}

	current := in.PropertyValue()
	rate := UpliftRate(g.Tier, reg)
	uplift := current * rate

	return Valuation{
		Computable:     true,
		CurrentValue:   mathutil.Round(current),
		UpliftRate:     rate,
		Uplift:         mathutil.Round(uplift),
		UpliftPerUnit:  mathutil.Round(uplift / float64(in.Units)),
		ProjectedValue: mathutil.Round(current + uplift),
		NetROI:         mathutil.Round(uplift - cashCall),
	}, alerts
}
