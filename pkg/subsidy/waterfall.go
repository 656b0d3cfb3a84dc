// Package subsidy computes the subsidy waterfall: renovation grant,
// energy-certificate bonus, engineering-assistance grant, accessibility grant,
// local aid and the ALUR reserve contribution, in that order, followed by the
// public-aid ceiling.
package subsidy

import (
	"math"

	"github.com/iwvelando/renovation-forecast/pkg/alert"
	"github.com/iwvelando/renovation-forecast/pkg/energy"
	"github.com/iwvelando/renovation-forecast/pkg/ledger"
	"github.com/iwvelando/renovation-forecast/pkg/mathutil"
	"github.com/iwvelando/renovation-forecast/pkg/project"
	"github.com/iwvelando/renovation-forecast/pkg/regulation"
)

const stage = "subsidy"

// Kind names a subsidy line.
type Kind string

// Subsidy lines in waterfall order.
const (
	RenovationGrant  Kind = "renovationGrant"
	CertificateBonus Kind = "certificateBonus"
	EngineeringGrant Kind = "engineeringGrant"
	Accessibility    Kind = "accessibilityGrant"
	LocalAid         Kind = "localAid"
	AlurReserve      Kind = "alurReserve"
)

// Item is one subsidy line. Ineligible items carry a zero amount.
type Item struct {
	Kind     Kind    `json:"kind"`
	Eligible bool    `json:"eligible"`
	Base     float64 `json:"base"`
	Rate     float64 `json:"rate,omitempty"`
	Cap      float64 `json:"cap,omitempty"`
	Amount   float64 `json:"amount"`
}

// Breakdown is the outcome of the waterfall.
type Breakdown struct {
	Items     []Item `json:"items"`
	GrantRate Rate   `json:"grantRate"`
	// PublicAid is grant + certificate bonus + engineering grant + local aid
	// after the ceiling was applied.
	PublicAid        float64 `json:"publicAid"`
	PublicAidCeiling float64 `json:"publicAidCeiling"`
	GrantReduction   float64 `json:"grantReduction,omitempty"`
	Total            float64 `json:"total"`
}

// Amount returns the granted amount of a line.
func (b Breakdown) Amount(kind Kind) float64 {
	for _, item := range b.Items {
		if item.Kind == kind {
			return item.Amount
		}
	}
	return 0
}

func (b *Breakdown) set(kind Kind, amount float64) {
	for i := range b.Items {
		if b.Items[i].Kind == kind {
			b.Items[i].Amount = amount
			return
		}
	}
}

// Compute runs the waterfall.
func Compute(in project.Input, l ledger.Ledger, g energy.Gain, reg regulation.Config) (Breakdown, []alert.Alert) {
	var alerts alert.List
	var b Breakdown

	grant, rate, grantAlerts := ComputeRenovationGrant(in, l.WorksPreTax(), g, reg)
	alerts.Extend(grantAlerts...)
	b.GrantRate = rate

	certificate, certificateAlerts := ComputeCertificateBonus(in, l.WorksPreTax(), reg)
	alerts.Extend(certificateAlerts...)

	engineering, engineeringAlerts := ComputeEngineeringGrant(in.Units, l.EngineeringPreTax(), reg)
	alerts.Extend(engineeringAlerts...)

	accessibility, accessibilityAlerts := ComputeAccessibilityGrant(in, reg)
	alerts.Extend(accessibilityAlerts...)

	b.Items = []Item{
		grant,
		certificate,
		engineering,
		accessibility,
		passThrough(LocalAid, in.LocalAid),
		passThrough(AlurReserve, in.AlurFund),
	}

	energyTaxInclusive := l.EnergyTaxInclusive()
	alerts.Extend(ApplyPublicAidCeiling(&b, energyTaxInclusive, reg)...)

	for _, item := range b.Items {
		b.Total += item.Amount
	}
	b.Total = mathutil.Round(b.Total)

	if b.Total > energyTaxInclusive {
		alerts.Add(alert.SubsidiesExceedTotalCost, stage,
			"total subsidies %.2f exceed the tax-inclusive energy cost %.2f", b.Total, energyTaxInclusive)
	}

	return b, alerts
}

// ComputeRenovationGrant applies the grant rate to the works pre-tax cost,
// capped per residential unit.
func ComputeRenovationGrant(in project.Input, worksPreTax float64, g energy.Gain, reg regulation.Config) (Item, Rate, []alert.Alert) {
	var alerts alert.List

	residential := in.ResidentialUnits()
	limit := reg.Grant.CapPerResidentialUnit * float64(residential)
	item := Item{Kind: RenovationGrant, Base: worksPreTax, Cap: limit}

	rate := GrantRate(RateContext{Gain: g, Current: in.Current, Target: in.Target, Fragile: in.Fragile}, reg)
	item.Rate = rate.Applied

	switch {
	case rate.Applied == 0:
		alerts.Add(alert.GrantIneligible, stage,
			"energy gain %.1f%% is below the %.0f%% threshold, no renovation grant",
			g.Percent(), reg.Gain.Min*100)
		return item, rate, alerts
	case residential <= 0:
		alerts.Add(alert.GrantIneligible, stage, "no residential units, no renovation grant")
		return item, rate, alerts
	}

	if rate.Ceiled {
		alerts.Add(alert.GrantRateCeilingReached, stage,
			"combined grant rate limited to %.0f%%", reg.Grant.RateCeiling*100)
	}

	base := worksPreTax
	if base > limit {
		base = limit
		alerts.Add(alert.GrantCapReached, stage,
			"grant base limited to %.2f (%d residential units x %.2f)",
			limit, residential, reg.Grant.CapPerResidentialUnit)
	}

	item.Eligible = true
	item.Amount = mathutil.Round(base * rate.Applied)
	return item, rate, alerts
}

// ComputeCertificateBonus applies the flat certificate rate, capped per unit.
// When the building is fragile the bonus may be ceded to the agency.
func ComputeCertificateBonus(in project.Input, worksPreTax float64, reg regulation.Config) (Item, []alert.Alert) {
	var alerts alert.List

	limit := reg.Certificate.CapPerUnit * float64(in.Units)
	item := Item{Kind: CertificateBonus, Base: worksPreTax, Rate: reg.Certificate.Rate, Cap: limit}

	if in.Fragile && reg.Certificate.CededIfFragile {
		alerts.Add(alert.CertificateCeded, stage,
			"fragile building: the certificate bonus is ceded to the agency")
		return item, alerts
	}

	amount := worksPreTax * reg.Certificate.Rate
	if amount > limit {
		amount = limit
		alerts.Add(alert.CertificateCapReached, stage,
			"certificate bonus limited to %.2f (%d units x %.2f)", limit, in.Units, reg.Certificate.CapPerUnit)
	}

	item.Eligible = amount > 0
	item.Amount = mathutil.Round(amount)
	return item, alerts
}

// ComputeEngineeringGrant subsidizes the engineering-assistance fee. The
// subsidized base is capped per unit, with a lower per-unit cap above the size
// threshold. A global floor applies but never lifts the grant above the
// subsidy rate applied to the actual fee.
func ComputeEngineeringGrant(units int, fee float64, reg regulation.Config) (Item, []alert.Alert) {
	var alerts alert.List
	rules := reg.Engineering

	perUnit := rules.SmallBuildingCap
	if units > rules.SizeThreshold {
		perUnit = rules.LargeBuildingCap
	}
	baseCap := perUnit * float64(units)
	item := Item{Kind: EngineeringGrant, Base: fee, Rate: rules.Rate}

	if fee <= 0 {
		return item, alerts
	}

	base := fee
	if base > baseCap {
		base = baseCap
		alerts.Add(alert.EngineeringCapReached, stage,
			"engineering grant base limited to %.2f (%d units x %.2f)", baseCap, units, perUnit)
	}

	amount := base * rules.Rate
	ceiling := fee * rules.Rate
	if amount < rules.Floor {
		amount = math.Min(rules.Floor, ceiling)
		alerts.Add(alert.EngineeringFloorApplied, stage,
			"engineering grant raised to %.2f by the %.2f floor", amount, rules.Floor)
	}

	item.Cap = math.Min(math.Max(baseCap*rules.Rate, rules.Floor), ceiling)
	item.Eligible = true
	item.Amount = mathutil.Round(amount)
	return item, alerts
}

// ComputeAccessibilityGrant funds accessibility works for beneficiaries, up
// to a fixed cap.
func ComputeAccessibilityGrant(in project.Input, reg regulation.Config) (Item, []alert.Alert) {
	var alerts alert.List
	item := Item{Kind: Accessibility, Base: in.AccessibilityCost, Cap: reg.Accessibility.Cap}

	if !in.AccessibilityBeneficiary {
		return item, alerts
	}
	if in.AccessibilityCost <= 0 {
		alerts.Add(alert.AccessibilityNoCost, stage,
			"accessibility beneficiary flagged without accessibility works cost, no grant")
		return item, alerts
	}

	amount := in.AccessibilityCost
	if amount > reg.Accessibility.Cap {
		amount = reg.Accessibility.Cap
		alerts.Add(alert.AccessibilityCapReached, stage,
			"accessibility grant limited to %.2f", reg.Accessibility.Cap)
	}

	item.Eligible = true
	item.Amount = mathutil.Round(amount)
	return item, alerts
}

func passThrough(kind Kind, amount float64) Item {
	return Item{Kind: kind, Eligible: amount > 0, Base: amount, Amount: mathutil.Round(amount)}
}

// ApplyPublicAidCeiling limits cumulative public aid to a share of the
// tax-inclusive energy cost by reducing the renovation grant, never below
// zero. Non-energy works are not part of energyTaxInclusive.
func ApplyPublicAidCeiling(b *Breakdown, energyTaxInclusive float64, reg regulation.Config) []alert.Alert {
	var alerts alert.List

	b.PublicAidCeiling = mathutil.Round(energyTaxInclusive * reg.Grant.PublicAidCeiling)
	publicAid := b.Amount(RenovationGrant) + b.Amount(CertificateBonus) + b.Amount(EngineeringGrant) + b.Amount(LocalAid)

	if excess := publicAid - b.PublicAidCeiling; excess > 0 {
		grant := b.Amount(RenovationGrant)
		reduction := math.Min(excess, grant)
		if reduction > 0 {
			b.set(RenovationGrant, mathutil.Round(grant-reduction))
			b.GrantReduction = mathutil.Round(reduction)
			publicAid -= reduction
			alerts.Add(alert.PublicAidCeilingApplied, stage,
				"public aid limited to %.0f%% of the tax-inclusive energy cost, renovation grant reduced by %.2f",
				reg.Grant.PublicAidCeiling*100, reduction)
		}
	}

	b.PublicAid = mathutil.Round(publicAid)
	return alerts
}
