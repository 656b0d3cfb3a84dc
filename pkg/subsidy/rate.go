package subsidy

import (
	"math"

	"github.com/iwvelando/renovation-forecast/pkg/energy"
	"github.com/iwvelando/renovation-forecast/pkg/rating"
	"github.com/iwvelando/renovation-forecast/pkg/regulation"
)

// RateContext is what the grant rate depends on.
type RateContext struct {
	Gain    energy.Gain
	Current rating.Rating
	Target  rating.Rating
	Fragile bool
}

// tierRate is one row of the base rate table, evaluated top to bottom.
type tierRate struct {
	tier energy.Tier
	rate func(regulation.GrantRules) float64
}

var baseRates = []tierRate{
	{tier: energy.TierHighPerformance, rate: func(g regulation.GrantRules) float64 { return g.HighPerformanceRate }},
	{tier: energy.TierStandard, rate: func(g regulation.GrantRules) float64 { return g.StandardRate }},
}

// bonusRule adds percentage points to an eligible base rate.
type bonusRule struct {
	applies func(RateContext, regulation.Config) bool
	points  func(regulation.GrantRules) float64
	record  func(*Rate, float64)
}

var bonusRules = []bonusRule{
	{
		applies: func(ctx RateContext, reg regulation.Config) bool {
			return reg.InPovertyBand(ctx.Current) && reg.ReachesDecentTarget(ctx.Target)
		},
		points: func(g regulation.GrantRules) float64 { return g.ExitPovertyBonus },
		record: func(r *Rate, points float64) { r.ExitPovertyBonus = points },
	},
	{
		applies: func(ctx RateContext, _ regulation.Config) bool { return ctx.Fragile },
		points:  func(g regulation.GrantRules) float64 { return g.FragileBonus },
		record:  func(r *Rate, points float64) { r.FragileBonus = points },
	},
}

// Rate is the selected grant rate and its components.
type Rate struct {
	Base             float64 `json:"base"`
	ExitPovertyBonus float64 `json:"exitPovertyBonus"`
	FragileBonus     float64 `json:"fragileBonus"`
	Applied          float64 `json:"applied"`
	Ceiled           bool    `json:"ceiled,omitempty"`
}

// GrantRate selects the renovation grant rate. Bonuses only apply on top of an
// eligible base rate, and the combined rate never exceeds the ceiling.
func GrantRate(ctx RateContext, reg regulation.Config) Rate {
	var r Rate
	for _, row := range baseRates {
		if ctx.Gain.Tier >= row.tier {
			r.Base = row.rate(reg.Grant)
			break
		}
	}
	if r.Base == 0 {
		return r
	}

	combined := r.Base
	for _, rule := range bonusRules {
		if !rule.applies(ctx, reg) {
			continue
		}
		points := rule.points(reg.Grant)
		rule.record(&r, points)
		combined += points
	}

	r.Applied = math.Min(combined, reg.Grant.RateCeiling)
	r.Ceiled = combined > reg.Grant.RateCeiling
	return r
}
