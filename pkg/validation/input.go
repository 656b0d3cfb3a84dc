// Package validation checks raw project input and normalizes it into a
// project.Input. Missing or out-of-range mandatory fields are fatal; malformed
// optional numbers are repaired and reported as alerts.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/renovation-forecast/pkg/alert"
	"github.com/iwvelando/renovation-forecast/pkg/constants"
	"github.com/iwvelando/renovation-forecast/pkg/project"
	"github.com/iwvelando/renovation-forecast/pkg/rating"
)

const stage = "input"

// RawInput is a project as supplied by a caller. Pointer fields distinguish
// "absent" from zero.
type RawInput struct {
	Name string `mapstructure:"name" json:"name,omitempty"`

	CurrentRating string `mapstructure:"currentRating" json:"currentRating" validate:"required,energyrating"`
	TargetRating  string `mapstructure:"targetRating" json:"targetRating" validate:"required,energyrating"`

	UnitCount       *int `mapstructure:"unitCount" json:"unitCount" validate:"required,min=1,max=500"`
	CommercialUnits *int `mapstructure:"commercialUnits" json:"commercialUnits,omitempty"`

	WorksCost       *float64 `mapstructure:"worksCost" json:"worksCost" validate:"required,gt=0"`
	CostIncludesTax bool     `mapstructure:"costIncludesTax" json:"costIncludesTax"`

	AnnualEnergyBill   *float64 `mapstructure:"annualEnergyBill" json:"annualEnergyBill,omitempty"`
	AveragePricePerSqm *float64 `mapstructure:"averagePricePerSqm" json:"averagePricePerSqm,omitempty"`
	AverageUnitSurface *float64 `mapstructure:"averageUnitSurface" json:"averageUnitSurface,omitempty"`

	LocalAid          *float64 `mapstructure:"localAid" json:"localAid,omitempty"`
	AlurFund          *float64 `mapstructure:"alurFund" json:"alurFund,omitempty"`
	AccessibilityCost *float64 `mapstructure:"accessibilityCost" json:"accessibilityCost,omitempty"`
	NonEnergyWorks    *float64 `mapstructure:"nonEnergyWorks" json:"nonEnergyWorks,omitempty"`

	SyndicFee   *float64 `mapstructure:"syndicFee" json:"syndicFee,omitempty"`
	Insurance   *float64 `mapstructure:"insurance" json:"insurance,omitempty"`
	Contingency *float64 `mapstructure:"contingency" json:"contingency,omitempty"`
	Engineering *float64 `mapstructure:"engineering" json:"engineering,omitempty"`

	QuoteValidated           bool `mapstructure:"quoteValidated" json:"quoteValidated"`
	Fragile                  bool `mapstructure:"fragile" json:"fragile"`
	AccessibilityBeneficiary bool `mapstructure:"accessibilityBeneficiary" json:"accessibilityBeneficiary"`

	InvestorRatio   *float64 `mapstructure:"investorRatio" json:"investorRatio,omitempty"`
	MarginalTaxRate *float64 `mapstructure:"marginalTaxRate" json:"marginalTaxRate,omitempty"`

	HeatingSystem string `mapstructure:"heatingSystem" json:"heatingSystem,omitempty" validate:"omitempty,oneof=electric gas oil wood district other"`
}

// FieldError identifies one offending field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a fatal validation failure. No plan is produced when it occurs.
type Error struct {
	Fields []FieldError `json:"fields"`
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "invalid project input: " + strings.Join(parts, "; ")
}

func (e *Error) add(field, format string, args ...interface{}) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validator checks and normalizes raw input. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the energy rating rule registered and field
// names reported by their JSON name.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Registration only fails on an empty tag or nil function.
	_ = v.RegisterValidation("energyrating", func(fl validator.FieldLevel) bool {
		_, err := rating.Parse(fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

var defaultValidator = New()

// Normalize validates raw with the package default validator.
func Normalize(raw RawInput) (project.Input, []alert.Alert, error) {
	return defaultValidator.Normalize(raw)
}

// Normalize validates raw and returns the normalized input together with the
// advisory alerts raised while repairing optional fields. A *Error is
// returned when a mandatory field is missing or out of range.
func (val *Validator) Normalize(raw RawInput) (project.Input, []alert.Alert, error) {
	verr := &Error{}

	if err := val.v.Struct(raw); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return project.Input{}, nil, fmt.Errorf("failed to validate project input: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.add(fe.Field(), "%s", describe(fe))
		}
	}

	current, currentErr := rating.Parse(raw.CurrentRating)
	target, targetErr := rating.Parse(raw.TargetRating)
	if currentErr == nil && targetErr == nil && !target.BetterThan(current) {
		verr.add("targetRating", "target rating %s must be strictly better than current rating %s", target, current)
	}

	var alerts alert.List
	commercial := 0
	if raw.CommercialUnits != nil {
		commercial = *raw.CommercialUnits
		if commercial < 0 {
			alerts.Add(alert.InputNegativeClamped, stage, "commercialUnits %d is negative, using 0", commercial)
			commercial = 0
		}
		if raw.UnitCount != nil && commercial > *raw.UnitCount {
			verr.add("commercialUnits", "must not exceed unitCount (%d > %d)", commercial, *raw.UnitCount)
		}
	}

	if len(verr.Fields) > 0 {
		return project.Input{}, nil, verr
	}

	in := project.Input{
		Name:                     raw.Name,
		Current:                  current,
		Target:                   target,
		Units:                    *raw.UnitCount,
		CommercialUnits:          commercial,
		WorksCost:                *raw.WorksCost,
		CostIncludesTax:          raw.CostIncludesTax,
		QuoteValidated:           raw.QuoteValidated,
		Fragile:                  raw.Fragile,
		AccessibilityBeneficiary: raw.AccessibilityBeneficiary,
		HeatingSystem:            raw.HeatingSystem,
	}

	in.AnnualEnergyBill = optionalAmount("annualEnergyBill", raw.AnnualEnergyBill, &alerts)
	in.AveragePricePerSqm = optionalAmount("averagePricePerSqm", raw.AveragePricePerSqm, &alerts)
	in.AverageUnitSurface = optionalAmount("averageUnitSurface", raw.AverageUnitSurface, &alerts)
	in.LocalAid = optionalAmount("localAid", raw.LocalAid, &alerts)
	in.AlurFund = optionalAmount("alurFund", raw.AlurFund, &alerts)
	in.AccessibilityCost = optionalAmount("accessibilityCost", raw.AccessibilityCost, &alerts)
	in.NonEnergyWorks = optionalAmount("nonEnergyWorks", raw.NonEnergyWorks, &alerts)

	in.Overrides = project.CostOverrides{
		SyndicFee:   override("syndicFee", raw.SyndicFee, &alerts),
		Insurance:   override("insurance", raw.Insurance, &alerts),
		Contingency: override("contingency", raw.Contingency, &alerts),
		Engineering: override("engineering", raw.Engineering, &alerts),
	}

	in.InvestorRatio = fraction("investorRatio", raw.InvestorRatio, &alerts)
	in.MarginalTaxRate = fraction("marginalTaxRate", raw.MarginalTaxRate, &alerts)

	if in.CommercialUnits == in.Units {
		alerts.Add(alert.InputCommercialOnly, stage,
			"all %d units are commercial, residential-based grants will be 0", in.Units)
	}
	if in.FossilHeating() {
		alerts.Add(alert.InputFossilHeating, stage,
			"heating system %q burns fossil fuel, consider replacing it as part of the works", in.HeatingSystem)
	}

	return in, alerts, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "energyrating":
		return fmt.Sprintf("invalid energy rating %q, expected one of A..G", fe.Value())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// optionalAmount returns 0 for an absent value and clamps negatives to 0.
func optionalAmount(field string, value *float64, alerts *alert.List) float64 {
	if value == nil {
		return 0
	}
	if *value < 0 {
		alerts.Add(alert.InputNegativeClamped, stage, "%s %.2f is negative, using 0", field, *value)
		return 0
	}
	return *value
}

func override(field string, value *float64, alerts *alert.List) *float64 {
	if value == nil {
		return nil
	}
	v := optionalAmount(field, value, alerts)
	return &v
}

// fraction accepts a value expressed either as a fraction (0..1) or as a
// percentage (above 1, up to 100) and returns a fraction.
func fraction(field string, value *float64, alerts *alert.List) float64 {
	v := optionalAmount(field, value, alerts)
	switch {
	case v <= 1:
		return v
	case v <= constants.PercentageMultiplier:
		alerts.Add(alert.InputPercentCoerced, stage, "%s %.2f read as a percentage, using %.4f", field, v, v/constants.PercentageMultiplier)
		return v / constants.PercentageMultiplier
	default:
		alerts.Add(alert.InputFractionCapped, stage, "%s %.2f exceeds 100%%, using 1", field, v)
		return 1
	}
}
