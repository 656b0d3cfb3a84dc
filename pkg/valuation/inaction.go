package valuation

import (
	"github.com/iwvelando/renovation-forecast/pkg/alert"
	"github.com/iwvelando/renovation-forecast/pkg/mathutil"
	"github.com/iwvelando/renovation-forecast/pkg/project"
	"github.com/iwvelando/renovation-forecast/pkg/regulation"
)

// Inaction is the projected cost of postponing the works over the horizon.
type Inaction struct {
	HorizonYears  int     `json:"horizonYears"`
	CurrentCost   float64 `json:"currentCost"`
	ProjectedCost float64 `json:"projectedCost"`
	// CostInflation is the construction-cost increase over the horizon.
	CostInflation float64 `json:"costInflation"`
	// ValueErosion is the green value lost by buildings in the erosion bands.
	ValueErosion float64 `json:"valueErosion"`
	Total        float64 `json:"total"`
}

// ComputeInaction adds construction inflation on the works budget and, for
// the worst bands only, value erosion on the green-value share of the
// current property value. The two effects compound separately.
func ComputeInaction(in project.Input, worksPreTax float64, reg regulation.Config) (Inaction, []alert.Alert) {
	var alerts alert.List
	rules := reg.Inaction

	inflation := worksPreTax * mathutil.CompoundGrowth(rules.ConstructionInflation, rules.HorizonYears)

	erosion := 0.0
	if reg.ErodesValue(in.Current) {
		if in.HasMarketValue() {
			erosion = in.PropertyValue() * rules.GreenValueShare *
				mathutil.CompoundGrowth(rules.ValueErosion, rules.HorizonYears)
		} else {
			alerts.Add(alert.ValuationNotComputable, stage,
				"value erosion of rating %s not estimated without market data", in.Current)
		}
	}

	return Inaction{
		HorizonYears:  rules.HorizonYears,
		CurrentCost:   mathutil.Round(worksPreTax),
		ProjectedCost: mathutil.Round(worksPreTax + inflation),
		CostInflation: mathutil.Round(inflation),
		ValueErosion:  mathutil.Round(erosion),
		Total:         mathutil.Round(inflation + erosion),
	}, alerts
}
