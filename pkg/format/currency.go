// Package format renders amounts for human-facing reports.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/renovation-forecast/pkg/mathutil"
)

// Euro returns a euro amount with space thousands separators and a comma
// decimal mark (e.g., "-1 234,56 €").
func Euro(amount float64) string {
	formatted := formatPositive(math.Abs(amount), 2)
	if amount < 0 && formatted != "0,00" {
		return "-" + formatted + " €"
	}
	return formatted + " €"
}

// WholeEuro returns a euro amount rounded half away from zero to whole euros
// (e.g., "12 500 €").
func WholeEuro(amount float64) string {
	amount = mathutil.RoundEuro(amount)
	formatted := formatPositive(math.Abs(amount), 0)
	if amount < 0 && formatted != "0" {
		return "-" + formatted + " €"
	}
	return formatted + " €"
}

// Percent renders a fraction as a percentage with one decimal (0.553 -> "55,3 %").
func Percent(fraction float64) string {
	return strings.Replace(fmt.Sprintf("%.1f %%", fraction*100), ".", ",", 1)
}

func formatPositive(value float64, decimals int) string {
	formatted := fmt.Sprintf("%.*f", decimals, value)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(' ')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if len(parts) == 2 {
		return intPart + "," + parts[1]
	}
	return intPart
}
