// Package tax estimates the landlord property-income deficit deduction.
package tax

import (
	"github.com/iwvelando/renovation-forecast/pkg/alert"
	"github.com/iwvelando/renovation-forecast/pkg/ledger"
	"github.com/iwvelando/renovation-forecast/pkg/mathutil"
	"github.com/iwvelando/renovation-forecast/pkg/project"
	"github.com/iwvelando/renovation-forecast/pkg/regulation"
	"github.com/iwvelando/renovation-forecast/pkg/subsidy"
)

const stage = "tax"

// Deduction is the first-year deficit deduction of one unit.
type Deduction struct {
	// BasePerUnit excludes VAT: works, insurance and engineering pre-tax,
	// less the subsidies received, divided by the unit count.
	BasePerUnit      float64 `json:"basePerUnit"`
	Ceiling          float64 `json:"ceiling"`
	ElevatedCeiling  bool    `json:"elevatedCeiling"`
	QuoteCutoff      string  `json:"quoteCutoff"`
	Imputed          float64 `json:"imputed"`
	CarryForward     float64 `json:"carryForward"`
	MarginalRate     float64 `json:"marginalRate"`
	TaxSavingPerUnit float64 `json:"taxSavingPerUnit"`
	LandlordUnits    float64 `json:"landlordUnits"`
	TotalTaxSaving   float64 `json:"totalTaxSaving"`
}

// ElevatedCeilingApplies reports whether all three conditions for the
// elevated ceiling hold: the building starts in a poverty band, reaches the
// decent target, and the quote was validated before the cutoff.
func ElevatedCeilingApplies(in project.Input, reg regulation.Config) bool {
	return reg.InPovertyBand(in.Current) && reg.ReachesDecentTarget(in.Target) && in.QuoteValidated
}

// Ceiling returns the annual deduction ceiling for the project.
func Ceiling(in project.Input, reg regulation.Config) float64 {
	if ElevatedCeilingApplies(in, reg) {
		return reg.Deduction.ElevatedCeiling
	}
	return reg.Deduction.StandardCeiling
}

// Compute derives the per-unit deduction and the resulting tax saving.
func Compute(in project.Input, l ledger.Ledger, b subsidy.Breakdown, reg regulation.Config) (Deduction, []alert.Alert) {
	var alerts alert.List

	received := b.Amount(subsidy.RenovationGrant) +
		b.Amount(subsidy.CertificateBonus) +
		b.Amount(subsidy.EngineeringGrant) +
		b.Amount(subsidy.Accessibility) +
		b.Amount(subsidy.LocalAid)
	base := l.WorksPreTax() + l.InsurancePreTax() + l.EngineeringPreTax() - received
	perUnit := mathutil.NonNegative(mathutil.SafeDivide(base, float64(in.Units)))

	d := Deduction{
		BasePerUnit:     mathutil.Round(perUnit),
		ElevatedCeiling: ElevatedCeilingApplies(in, reg),
		Ceiling:         Ceiling(in, reg),
		QuoteCutoff:     reg.Deduction.QuoteCutoff,
		MarginalRate:    in.MarginalTaxRate,
	}
	if d.MarginalRate == 0 {
		d.MarginalRate = reg.Deduction.DefaultMarginalRate
	}
	if d.ElevatedCeiling {
		alerts.Add(alert.DeductionElevatedCeiling, stage,
			"elevated deduction ceiling %.2f applies (quote validated before %s)",
			d.Ceiling, reg.Deduction.QuoteCutoff)
	}

	d.Imputed = mathutil.Round(mathutil.Clamp(perUnit, 0, d.Ceiling))
	d.CarryForward = mathutil.Round(mathutil.NonNegative(perUnit - d.Ceiling))
	if d.CarryForward > 0 {
		alerts.Add(alert.DeductionCarryForward, stage,
			"%.2f per unit above the ceiling may be carried forward", d.CarryForward)
	}

	d.TaxSavingPerUnit = mathutil.Round(d.Imputed * d.MarginalRate)
	d.LandlordUnits = in.InvestorRatio * float64(in.Units)
	d.TotalTaxSaving = mathutil.Round(d.TaxSavingPerUnit * d.LandlordUnits)

	return d, alerts
}
