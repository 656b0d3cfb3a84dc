// Package energy computes the energy gain of a renovation and the performance
// tier it falls in. The gain is computed once per run and reused verbatim by
// every stage that depends on it.
package energy

import (
	"fmt"

	"github.com/iwvelando/renovation-forecast/pkg/constants"
	"github.com/iwvelando/renovation-forecast/pkg/mathutil"
	"github.com/iwvelando/renovation-forecast/pkg/rating"
	"github.com/iwvelando/renovation-forecast/pkg/regulation"
)

// Tier is the performance tier selected by the energy gain.
type Tier int

// Performance tiers, ordered.
const (
	TierNone Tier = iota
	TierStandard
	TierHighPerformance
)

func (t Tier) String() string {
	switch t {
	case TierStandard:
		return "standard"
	case TierHighPerformance:
		return "high-performance"
	}
	return "none"
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(text []byte) error {
	for _, candidate := range []Tier{TierNone, TierStandard, TierHighPerformance} {
		if candidate.String() == string(text) {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown performance tier %q", text)
}

// Gain is the relative reduction of reference consumption between two classes.
type Gain struct {
	Fraction           float64 `json:"fraction"`
	CurrentConsumption float64 `json:"currentConsumption"`
	TargetConsumption  float64 `json:"targetConsumption"`
	Tier               Tier    `json:"tier"`
}

// Compute returns the energy gain from current to target.
func Compute(current, target rating.Rating, reg regulation.Config) Gain {
	from := reg.Consumption.Get(current)
	to := reg.Consumption.Get(target)
	fraction := mathutil.SafeDivide(from-to, from)
	return Gain{
		Fraction:           fraction,
		CurrentConsumption: from,
		TargetConsumption:  to,
		Tier:               Classify(fraction, reg.Gain),
	}
}

// Classify maps a gain fraction to its tier.
func Classify(fraction float64, thresholds regulation.GainThresholds) Tier {
	switch {
	case fraction >= thresholds.HighPerformance:
		return TierHighPerformance
	case fraction >= thresholds.Min:
		return TierStandard
	}
	return TierNone
}

// Eligible reports whether the gain reaches the minimum threshold.
func (g Gain) Eligible() bool {
	return g.Tier >= TierStandard
}

// Percent returns the gain as a percentage.
func (g Gain) Percent() float64 {
	return g.Fraction * constants.PercentageMultiplier
}

// Savings are the energy bill KPIs of a renovation.
type Savings struct {
	Computable     bool    `json:"computable"`
	AnnualSavings  float64 `json:"annualSavings"`
	MonthlySavings float64 `json:"monthlySavings"`
	// MonthlyNetCashFlow is the monthly savings less the loan installment.
	MonthlyNetCashFlow float64 `json:"monthlyNetCashFlow"`
}

// EstimateSavings projects the bill reduction. An unknown bill (0) yields a
// non-computable result.
func EstimateSavings(annualBill float64, g Gain, monthlyInstallment float64) Savings {
	if annualBill <= 0 {
		return Savings{}
	}
	annual := annualBill * g.Fraction
	monthly := annual / constants.MonthsPerYear
	return Savings{
		Computable:         true,
		AnnualSavings:      mathutil.Round(annual),
		MonthlySavings:     mathutil.Round(monthly),
		MonthlyNetCashFlow: mathutil.Round(monthly - monthlyInstallment),
	}
}
