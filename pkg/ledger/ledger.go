// Package ledger builds the multi-rate cost ledger of a renovation project.
package ledger

import (
	"github.com/iwvelando/renovation-forecast/pkg/alert"
	"github.com/iwvelando/renovation-forecast/pkg/mathutil"
	"github.com/iwvelando/renovation-forecast/pkg/project"
	"github.com/iwvelando/renovation-forecast/pkg/regulation"
)

const stage = "ledger"

// Kind names a cost line.
type Kind string

// Cost lines in ledger order.
const (
	Works       Kind = "works"
	SyndicFee   Kind = "syndicFee"
	Insurance   Kind = "insurance"
	Contingency Kind = "contingency"
	Engineering Kind = "engineering"
	NonEnergy   Kind = "nonEnergy"
)

// Line is one independently taxed cost line.
type Line struct {
	Kind         Kind    `json:"kind"`
	PreTax       float64 `json:"preTax"`
	TaxRate      float64 `json:"taxRate"`
	TaxInclusive float64 `json:"taxInclusive"`
	Overridden   bool    `json:"overridden,omitempty"`
}

// Ledger is the full cost breakdown.
type Ledger struct {
	Lines             []Line  `json:"lines"`
	TotalPreTax       float64 `json:"totalPreTax"`
	TotalTaxInclusive float64 `json:"totalTaxInclusive"`
}

// Build derives every cost line from the works cost. A tax-inclusive works
// cost is converted with the works rate only.
func Build(in project.Input, reg regulation.Config) (Ledger, []alert.Alert) {
	var alerts alert.List

	works := in.WorksCost
	if in.CostIncludesTax {
		works = mathutil.WithoutTax(in.WorksCost, reg.VAT.Works)
		alerts.Add(alert.LedgerTaxInclusiveCost, stage,
			"works cost %.2f is tax-inclusive, converted at the works rate %.3f to %.2f pre-tax",
			in.WorksCost, reg.VAT.Works, mathutil.Round(works))
	}

	derived := func(kind Kind, override *float64, computed float64) (float64, bool) {
		if override != nil {
			alerts.Add(alert.LedgerOverrideUsed, stage, "%s set explicitly to %.2f instead of %.2f",
				kind, *override, mathutil.Round(computed))
			return *override, true
		}
		return computed, false
	}

	syndic, syndicSet := derived(SyndicFee, in.Overrides.SyndicFee, works*reg.Fees.SyndicFee)
	insurance, insuranceSet := derived(Insurance, in.Overrides.Insurance, works*reg.Fees.Insurance)
	contingency, contingencySet := derived(Contingency, in.Overrides.Contingency, works*reg.Fees.Contingency)
	engineering, engineeringSet := derived(Engineering, in.Overrides.Engineering,
		reg.Fees.EngineeringPerUnit*float64(in.Units))

	l := Ledger{Lines: []Line{
		newLine(Works, works, reg.VAT.Works, false),
		newLine(SyndicFee, syndic, reg.VAT.SyndicFee, syndicSet),
		newLine(Insurance, insurance, reg.VAT.Insurance, insuranceSet),
		newLine(Contingency, contingency, reg.VAT.Contingency, contingencySet),
		newLine(Engineering, engineering, reg.VAT.Engineering, engineeringSet),
		newLine(NonEnergy, in.NonEnergyWorks, reg.VAT.NonEnergy, false),
	}}
	for _, line := range l.Lines {
		l.TotalPreTax += line.PreTax
		l.TotalTaxInclusive += line.TaxInclusive
	}
	l.TotalPreTax = mathutil.Round(l.TotalPreTax)
	l.TotalTaxInclusive = mathutil.Round(l.TotalTaxInclusive)

	return l, alerts
}

func newLine(kind Kind, preTax, rate float64, overridden bool) Line {
	return Line{
		Kind:         kind,
		PreTax:       mathutil.Round(preTax),
		TaxRate:      rate,
		TaxInclusive: mathutil.Round(mathutil.WithTax(preTax, rate)),
		Overridden:   overridden,
	}
}

// Line returns the line of the given kind.
func (l Ledger) Line(kind Kind) Line {
	for _, line := range l.Lines {
		if line.Kind == kind {
			return line
		}
	}
	return Line{Kind: kind}
}

// WorksPreTax is the pre-tax works amount, the base of every subsidy.
func (l Ledger) WorksPreTax() float64 {
	return l.Line(Works).PreTax
}

// EngineeringPreTax is the pre-tax engineering-assistance fee.
func (l Ledger) EngineeringPreTax() float64 {
	return l.Line(Engineering).PreTax
}

// InsurancePreTax is the pre-tax insurance amount.
func (l Ledger) InsurancePreTax() float64 {
	return l.Line(Insurance).PreTax
}

// EnergyTaxInclusive is the tax-inclusive total excluding non-energy
// improvement works.
func (l Ledger) EnergyTaxInclusive() float64 {
	return mathutil.Round(l.TotalTaxInclusive - l.Line(NonEnergy).TaxInclusive)
}
