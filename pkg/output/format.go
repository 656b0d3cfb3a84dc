// Package output provides utilities for formatting and displaying financing plans.
package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/renovation-forecast/internal/simulation"
	"github.com/iwvelando/renovation-forecast/pkg/compliance"
	"github.com/iwvelando/renovation-forecast/pkg/constants"
	"github.com/iwvelando/renovation-forecast/pkg/format"
	"github.com/iwvelando/renovation-forecast/pkg/validation"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders outcomes in the requested format.
func Write(w io.Writer, outputFormat string, outcomes []simulation.Outcome) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, outcomes)
	case constants.OutputFormatCSV:
		return CsvFormat(w, outcomes)
	case constants.OutputFormatJSON:
		return JSONFormat(w, outcomes)
	}
	return fmt.Errorf("unknown output format %q", outputFormat)
}

// PrettyFormat outputs a human-readable report per project.
func PrettyFormat(w io.Writer, outcomes []simulation.Outcome) error {
	pw := &prettyWriter{w: w, p: message.NewPrinter(language.French)}
	for i, outcome := range outcomes {
		if i > 0 {
			pw.line("")
		}
		if outcome.Err != nil {
			pw.line("--- Project %s: rejected ---", outcome.Name)
			pw.line("%s", outcome.Err)
			continue
		}
		pw.result(outcome.Result)
	}
	return pw.err
}

type prettyWriter struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func (pw *prettyWriter) line(format string, args ...interface{}) {
	if pw.err != nil {
		return
	}
	_, pw.err = io.WriteString(pw.w, pw.p.Sprintf(format, args...)+"\n")
}

func (pw *prettyWriter) result(r *simulation.Result) {
	pw.line("--- Financing plan for project %s (regulation %s, as of %s) ---", r.Name, r.Vintage, r.ReferenceDate)
	pw.line("Energy class %s -> %s | gain %s | tier %s | %d units (%d commercial)",
		r.Input.Current, r.Input.Target, format.Percent(r.Gain.Fraction), r.Gain.Tier,
		r.Input.Units, r.Input.CommercialUnits)

	pw.line("")
	pw.line("Cost line    | Pre-tax         | VAT    | Tax-inclusive")
	pw.line("____________ | _______________ | ______ | _______________")
	for _, l := range r.Ledger.Lines {
		pw.line("%-12s | %15s | %6s | %15s", l.Kind, format.Euro(l.PreTax), format.Percent(l.TaxRate), format.Euro(l.TaxInclusive))
	}
	pw.line("%-12s | %15s | %6s | %15s", "total", format.Euro(r.Ledger.TotalPreTax), "", format.Euro(r.Ledger.TotalTaxInclusive))

	pw.line("")
	pw.line("Subsidy            | Rate   | Amount")
	pw.line("__________________ | ______ | _______________")
	for _, item := range r.Subsidies.Items {
		rate := ""
		if item.Rate > 0 {
			rate = format.Percent(item.Rate)
		}
		pw.line("%-18s | %6s | %15s", item.Kind, rate, format.Euro(item.Amount))
	}
	pw.line("%-18s | %6s | %15s", "total", "", format.Euro(r.Subsidies.Total))

	pw.line("")
	pw.line("Collective loan: %s over %d months, %s per month (guarantee fee %s)",
		format.Euro(r.Loan.Principal), r.Loan.TermMonths, format.Euro(r.Loan.MonthlyInstallment), format.Euro(r.Loan.GuaranteeFee))
	pw.line("Cash call: %s", format.Euro(r.Loan.CashCall))
	pw.line("Per unit: cost %s, subsidies %s, loan %s, installment %s, cash call %s",
		format.Euro(r.Allocation.CostTaxInclusive), format.Euro(r.Allocation.Subsidies), format.Euro(r.Allocation.Loan),
		format.Euro(r.Allocation.MonthlyInstallment), format.Euro(r.Allocation.CashCall))
	for _, share := range r.Allocation.ByProfile {
		pw.line("  %-12s premium %s, cash call %s", share.Profile, format.Euro(share.Premium), format.Euro(share.CashCall))
	}

	pw.line("")
	pw.line("Rental status: current %s, target %s", describeStatus(r.Compliance.Current), describeStatus(r.Compliance.Target))
	if r.Valuation.Computable {
		pw.line("Green value: %s uplift on %s (%s), net of cash call %s",
			format.WholeEuro(r.Valuation.Uplift), format.WholeEuro(r.Valuation.CurrentValue),
			format.Percent(r.Valuation.UpliftRate), format.WholeEuro(r.Valuation.NetROI))
	} else {
		pw.line("Green value: not computable")
	}
	pw.line("Cost of waiting %d years: %s (inflation %s, value erosion %s)",
		r.Inaction.HorizonYears, format.WholeEuro(r.Inaction.Total),
		format.WholeEuro(r.Inaction.CostInflation), format.WholeEuro(r.Inaction.ValueErosion))
	pw.line("Landlord deduction: %s per unit against a %s ceiling, %s carried forward",
		format.Euro(r.Deduction.Imputed), format.WholeEuro(r.Deduction.Ceiling), format.Euro(r.Deduction.CarryForward))
	if r.Savings.Computable {
		pw.line("Energy savings: %s per month, net cash flow %s per month",
			format.Euro(r.Savings.MonthlySavings), format.Euro(r.Savings.MonthlyNetCashFlow))
	}

	if len(r.Alerts) > 0 {
		pw.line("")
		pw.line("Alerts:")
		for _, a := range r.Alerts {
			pw.line("  %s", a)
		}
	}
}

func describeStatus(s compliance.Status) string {
	switch {
	case s.ProhibitionDate == nil:
		return fmt.Sprintf("%s (no prohibition)", s.Rating)
	case s.Prohibited:
		return fmt.Sprintf("%s (prohibited since %s)", s.Rating, s.ProhibitionDate.Format(constants.DateLayout))
	default:
		return fmt.Sprintf("%s (prohibited from %s, urgency %s)", s.Rating, s.ProhibitionDate.Format(constants.DateLayout), s.Urgency)
	}
}

var csvHeader = []string{
	"project", "status", "current", "target", "units", "gain", "tier",
	"total pre-tax", "total tax-inclusive", "grant rate", "subsidies",
	"loan principal", "monthly installment", "cash call", "cash call per unit",
	"deduction per unit", "green value uplift", "cost of inaction", "alerts",
}

// CsvFormat outputs one comma-separated row per project.
func CsvFormat(w io.Writer, outcomes []simulation.Outcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, outcome := range outcomes {
		if err := cw.Write(csvRow(outcome)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(outcome simulation.Outcome) []string {
	row := make([]string, len(csvHeader))
	row[0] = outcome.Name
	if outcome.Err != nil {
		row[1] = "rejected"
		row[len(row)-1] = outcome.Err.Error()
		return row
	}
	r := outcome.Result
	codes := make([]string, 0, len(r.Alerts))
	for _, a := range r.Alerts {
		codes = append(codes, string(a.Code))
	}
	copy(row[1:], []string{
		"ok",
		r.Input.Current.String(),
		r.Input.Target.String(),
		strconv.Itoa(r.Input.Units),
		money(r.Gain.Fraction),
		r.Gain.Tier.String(),
		money(r.Ledger.TotalPreTax),
		money(r.Ledger.TotalTaxInclusive),
		money(r.Subsidies.GrantRate.Applied),
		money(r.Subsidies.Total),
		money(r.Loan.Principal),
		money(r.Loan.MonthlyInstallment),
		money(r.Loan.CashCall),
		money(r.Allocation.CashCall),
		money(r.Deduction.Imputed),
		money(r.Valuation.Uplift),
		money(r.Inaction.Total),
		strings.Join(codes, " "),
	})
	return row
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Outcome is the JSON shape of one batch entry.
type Outcome struct {
	Name   string                  `json:"name"`
	Result *simulation.Result      `json:"result,omitempty"`
	Error  string                  `json:"error,omitempty"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

// NewOutcome converts a batch entry to its JSON shape.
func NewOutcome(o simulation.Outcome) Outcome {
	out := Outcome{Name: o.Name, Result: o.Result}
	if o.Err != nil {
		out.Error = o.Err.Error()
		var verr *validation.Error
		if errors.As(o.Err, &verr) {
			out.Fields = verr.Fields
		}
	}
	return out
}

// JSONFormat outputs the outcomes as an indented JSON array.
func JSONFormat(w io.Writer, outcomes []simulation.Outcome) error {
	out := make([]Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, NewOutcome(o))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
