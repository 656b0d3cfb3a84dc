// Package project defines the normalized renovation project description that
// flows through the simulation pipeline.
package project

import "github.com/iwvelando/renovation-forecast/pkg/rating"

// Heating systems recognized by the fossil-heating check.
const (
	HeatingElectric = "electric"
	HeatingGas      = "gas"
	HeatingOil      = "oil"
	HeatingWood     = "wood"
	HeatingDistrict = "district"
	HeatingOther    = "other"
)

// Input is a validated project. Zero values of the optional market figures
// (energy bill, price per square meter, unit surface) mean "unknown".
type Input struct {
	Name string `json:"name,omitempty"`

	Current rating.Rating `json:"currentRating"`
	Target  rating.Rating `json:"targetRating"`

	Units           int `json:"units"`
	CommercialUnits int `json:"commercialUnits"`

	WorksCost       float64 `json:"worksCost"`
	CostIncludesTax bool    `json:"costIncludesTax"`

	AnnualEnergyBill   float64 `json:"annualEnergyBill,omitempty"`
	AveragePricePerSqm float64 `json:"averagePricePerSqm,omitempty"`
	AverageUnitSurface float64 `json:"averageUnitSurface,omitempty"`

	LocalAid          float64 `json:"localAid,omitempty"`
	AlurFund          float64 `json:"alurFund,omitempty"`
	AccessibilityCost float64 `json:"accessibilityCost,omitempty"`
	NonEnergyWorks    float64 `json:"nonEnergyWorks,omitempty"`

	Overrides CostOverrides `json:"overrides"`

	QuoteValidated           bool `json:"quoteValidated"`
	Fragile                  bool `json:"fragile"`
	AccessibilityBeneficiary bool `json:"accessibilityBeneficiary"`

	// InvestorRatio is the share of units owned by landlords, as a fraction.
	InvestorRatio float64 `json:"investorRatio"`
	// MarginalTaxRate is a fraction; 0 selects the regulation default.
	MarginalTaxRate float64 `json:"marginalTaxRate,omitempty"`

	HeatingSystem string `json:"heatingSystem,omitempty"`
}

// CostOverrides replace a derived pre-tax cost line when set.
type CostOverrides struct {
	SyndicFee   *float64 `json:"syndicFee,omitempty"`
	Insurance   *float64 `json:"insurance,omitempty"`
	Contingency *float64 `json:"contingency,omitempty"`
	Engineering *float64 `json:"engineering,omitempty"`
}

// ResidentialUnits is the unit count less commercial units.
func (in Input) ResidentialUnits() int {
	return in.Units - in.CommercialUnits
}

// HasMarketValue reports whether both the price per square meter and the
// average surface are known.
func (in Input) HasMarketValue() bool {
	return in.AveragePricePerSqm > 0 && in.AverageUnitSurface > 0
}

// PropertyValue is the estimated value of the whole building, or 0 when
// market data is missing.
func (in Input) PropertyValue() float64 {
	if !in.HasMarketValue() {
		return 0
	}
	return in.AveragePricePerSqm * in.AverageUnitSurface * float64(in.Units)
}

// FossilHeating reports whether the heating system burns gas or oil.
func (in Input) FossilHeating() bool {
	return in.HeatingSystem == HeatingGas || in.HeatingSystem == HeatingOil
}
