// Package loans sizes the collective renovation loan and provides the
// repayment arithmetic behind it.
package loans

import (
	"math"

	"github.com/iwvelando/renovation-forecast/pkg/constants"
	"github.com/iwvelando/renovation-forecast/pkg/mathutil"
)

// Payment holds the values for a given monthly payment.
type Payment struct {
	Month              int     `json:"month"`
	Payment            float64 `json:"payment"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	RemainingPrincipal float64 `json:"remainingPrincipal"`
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the
// standard amortization formula. The annual rate is a percentage.
func CalculateMonthlyPayment(principal, downPayment, annualInterestRate float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}
	if annualInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return (principal - downPayment) / float64(termMonths)
	}

	periodicInterestRate := annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
	power := math.Pow((1.00 + periodicInterestRate), float64(termMonths))
	discountFactor := (power - 1.00) / power
	return (principal - downPayment) * periodicInterestRate / discountFactor
}

// calculateInterestPayment calculates the interest portion of a payment.
func calculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// Schedule returns the month-by-month repayment of a loan.
func Schedule(principal, annualInterestRate float64, termMonths int) []Payment {
	if principal <= 0 || termMonths <= 0 {
		return nil
	}

	monthly := CalculateMonthlyPayment(principal, 0, annualInterestRate, termMonths)
	schedule := make([]Payment, 0, termMonths)
	remaining := principal

	for month := 1; month <= termMonths; month++ {
		p := Payment{Month: month, Payment: monthly}
		p.Interest = calculateInterestPayment(remaining, annualInterestRate)
		p.Principal = monthly - p.Interest
		if month == termMonths || mathutil.Round(remaining-p.Principal) <= 0 {
			// We will get machine error otherwise so just settle the balance.
			p.Principal = remaining
			p.Payment = remaining + p.Interest
			p.RemainingPrincipal = 0
			schedule = append(schedule, p)
			break
		}
		remaining -= p.Principal
		p.RemainingPrincipal = remaining
		schedule = append(schedule, p)
	}

	return schedule
}

// BalanceByYear returns the remaining principal at the end of each year of
// the schedule.
func BalanceByYear(schedule []Payment) []float64 {
	var balances []float64
	for _, p := range schedule {
		if p.Month%constants.MonthsPerYear == 0 || p.RemainingPrincipal == 0 {
			balances = append(balances, mathutil.Round(p.RemainingPrincipal))
		}
		if p.RemainingPrincipal == 0 {
			break
		}
	}
	return balances
}

// TotalInterest sums the interest paid over a schedule.
func TotalInterest(schedule []Payment) float64 {
	total := 0.0
	for _, p := range schedule {
		total += p.Interest
	}
	return mathutil.Round(total)
}
