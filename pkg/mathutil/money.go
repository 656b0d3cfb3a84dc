// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/renovation-forecast/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons and for presenting results.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// RoundEuro rounds a value to the nearest whole euro.
func RoundEuro(val float64) float64 {
	return math.Round(val)
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// IsPositive checks if a value is positive (greater than tolerance)
func IsPositive(val float64) bool {
	return val > constants.CurrencyTolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// NonNegative clamps a value to zero from below.
func NonNegative(val float64) float64 {
	if val < 0 {
		return 0
	}
	return val
}

// Clamp bounds val to [lo, hi].
func Clamp(val, lo, hi float64) float64 {
	return math.Min(math.Max(val, lo), hi)
}

// WithTax returns the tax-inclusive amount of a pre-tax amount.
func WithTax(preTax, rate float64) float64 {
	return preTax * (1 + rate)
}

// WithoutTax returns the pre-tax amount of a tax-inclusive amount.
func WithoutTax(taxInclusive, rate float64) float64 {
	return taxInclusive / (1 + rate)
}

// CompoundGrowth returns the growth factor minus one after the given number
// of years at a fixed annual rate, i.e. (1+rate)^years - 1.
func CompoundGrowth(rate float64, years int) float64 {
	return math.Pow(1+rate, float64(years)) - 1
}

// SafeDivide divides a by b and returns 0 when b is 0.
func SafeDivide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
