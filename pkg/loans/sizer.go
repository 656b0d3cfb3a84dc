package loans

import (
	"math"

	"github.com/iwvelando/renovation-forecast/pkg/alert"
	"github.com/iwvelando/renovation-forecast/pkg/energy"
	"github.com/iwvelando/renovation-forecast/pkg/ledger"
	"github.com/iwvelando/renovation-forecast/pkg/mathutil"
	"github.com/iwvelando/renovation-forecast/pkg/regulation"
	"github.com/iwvelando/renovation-forecast/pkg/subsidy"
)

const stage = "loan"

// Plan is the sized collective loan and the cash the co-owners still owe.
type Plan struct {
	CapPerUnit float64 `json:"capPerUnit"`
	// Cap is the largest principal allowed: cap per unit x units less the
	// guarantee fee.
	Cap                      float64 `json:"cap"`
	EligibleBaseTaxInclusive float64 `json:"eligibleBaseTaxInclusive"`
	EligibleRemainder        float64 `json:"eligibleRemainder"`
	// TotalRemaining is the tax-inclusive cost left after every subsidy.
	TotalRemaining     float64   `json:"totalRemaining"`
	Principal          float64   `json:"principal"`
	GuaranteeFee       float64   `json:"guaranteeFee"`
	Disbursed          float64   `json:"disbursed"`
	TermMonths         int       `json:"termMonths"`
	AnnualRate         float64   `json:"annualRate"`
	MonthlyInstallment float64   `json:"monthlyInstallment"`
	TotalInterest      float64   `json:"totalInterest"`
	BalanceByYear      []float64 `json:"balanceByYear,omitempty"`
	CashCall           float64   `json:"cashCall"`
}

// Size computes the loan principal, installment and immediate cash call.
//
// The eligible base covers the works and the engineering fee net of its grant,
// taxed at the works rate. Only the renovation grant and the certificate bonus
// are deducted from it; the other subsidies reduce the total remaining cost.
func Size(l ledger.Ledger, b subsidy.Breakdown, g energy.Gain, units int, reg regulation.Config) (Plan, []alert.Alert) {
	var alerts alert.List
	rules := reg.Loan

	p := Plan{
		CapPerUnit:   rules.CapPerUnitBase,
		GuaranteeFee: rules.GuaranteeFee,
		TermMonths:   rules.TermMonths,
		AnnualRate:   rules.AnnualRate,
	}
	if g.Eligible() {
		p.CapPerUnit = rules.CapPerUnitEfficient
	} else {
		alerts.Add(alert.LoanReducedTier, stage,
			"energy gain %.1f%% below %.0f%%, loan capped at %.2f per unit",
			g.Percent(), reg.Gain.Min*100, rules.CapPerUnitBase)
	}
	p.Cap = mathutil.NonNegative(p.CapPerUnit*float64(units) - rules.GuaranteeFee)

	netEngineering := mathutil.NonNegative(l.EngineeringPreTax() - b.Amount(subsidy.EngineeringGrant))
	p.EligibleBaseTaxInclusive = mathutil.Round(mathutil.WithTax(l.WorksPreTax()+netEngineering, reg.VAT.Works))
	p.EligibleRemainder = mathutil.Round(mathutil.NonNegative(
		p.EligibleBaseTaxInclusive - b.Amount(subsidy.RenovationGrant) - b.Amount(subsidy.CertificateBonus)))
	p.TotalRemaining = mathutil.Round(mathutil.NonNegative(l.TotalTaxInclusive - b.Total))

	principal := math.Min(p.TotalRemaining, p.EligibleRemainder)
	if principal > p.Cap {
		principal = p.Cap
		alerts.Add(alert.LoanCapReached, stage,
			"loan limited to %.2f (%d units x %.2f less %.2f guarantee fee)",
			p.Cap, units, p.CapPerUnit, rules.GuaranteeFee)
	}
	p.Principal = mathutil.Round(mathutil.NonNegative(principal))

	if p.Principal > 0 {
		p.Disbursed = mathutil.Round(p.Principal + rules.GuaranteeFee)
		schedule := Schedule(p.Principal, rules.AnnualRate, rules.TermMonths)
		p.MonthlyInstallment = mathutil.Round(CalculateMonthlyPayment(p.Principal, 0, rules.AnnualRate, rules.TermMonths))
		p.TotalInterest = TotalInterest(schedule)
		p.BalanceByYear = BalanceByYear(schedule)
	} else {
		alerts.Add(alert.LoanNotNeeded, stage, "no loan needed, subsidies cover the eligible cost")
	}

	p.CashCall = mathutil.Round(mathutil.NonNegative(p.TotalRemaining - p.Principal))
	if p.CashCall > 0 {
		alerts.Add(alert.LoanCashCallNeeded, stage,
			"%.2f must be paid immediately by the co-owners", p.CashCall)
	}

	return p, alerts
}
