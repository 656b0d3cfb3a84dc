// Package allocation splits building-level amounts evenly across units.
package allocation

import (
	"github.com/iwvelando/renovation-forecast/pkg/ledger"
	"github.com/iwvelando/renovation-forecast/pkg/loans"
	"github.com/iwvelando/renovation-forecast/pkg/mathutil"
	"github.com/iwvelando/renovation-forecast/pkg/regulation"
	"github.com/iwvelando/renovation-forecast/pkg/subsidy"
)

// Profile is a household income profile.
type Profile string

// Income profiles, from lowest to highest income.
const (
	VeryModest   Profile = "veryModest"
	Modest       Profile = "modest"
	Intermediate Profile = "intermediate"
	High         Profile = "high"
)

// Profiles lists every income profile in display order.
var Profiles = []Profile{VeryModest, Modest, Intermediate, High}

// Premium returns the individual premium of a profile.
func Premium(p Profile, reg regulation.Config) float64 {
	switch p {
	case VeryModest:
		return reg.Premiums.VeryModest
	case Modest:
		return reg.Premiums.Modest
	case Intermediate:
		return reg.Premiums.Intermediate
	case High:
		return reg.Premiums.High
	}
	return 0
}

// ProfileShare is the cash call of one unit after its individual premium.
type ProfileShare struct {
	Profile  Profile `json:"profile"`
	Premium  float64 `json:"premium"`
	CashCall float64 `json:"cashCall"`
}

// Share is the uniform 1/N share of one unit.
type Share struct {
	Units              int            `json:"units"`
	CostTaxInclusive   float64        `json:"costTaxInclusive"`
	Subsidies          float64        `json:"subsidies"`
	Loan               float64        `json:"loan"`
	MonthlyInstallment float64        `json:"monthlyInstallment"`
	CashCall           float64        `json:"cashCall"`
	ByProfile          []ProfileShare `json:"byProfile"`
}

// Allocate divides the plan evenly across units.
func Allocate(l ledger.Ledger, b subsidy.Breakdown, p loans.Plan, units int, reg regulation.Config) Share {
	n := float64(units)
	s := Share{
		Units:              units,
		CostTaxInclusive:   mathutil.Round(mathutil.SafeDivide(l.TotalTaxInclusive, n)),
		Subsidies:          mathutil.Round(mathutil.SafeDivide(b.Total, n)),
		Loan:               mathutil.Round(mathutil.SafeDivide(p.Principal, n)),
		MonthlyInstallment: mathutil.Round(mathutil.SafeDivide(p.MonthlyInstallment, n)),
		CashCall:           mathutil.Round(mathutil.SafeDivide(p.CashCall, n)),
	}

	for _, profile := range Profiles {
		premium := Premium(profile, reg)
		s.ByProfile = append(s.ByProfile, ProfileShare{
			Profile:  profile,
			Premium:  premium,
			CashCall: mathutil.Round(mathutil.NonNegative(s.CashCall - premium)),
		})
	}
	return s
}
