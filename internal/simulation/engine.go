// Package simulation runs the financing pipeline for renovation projects.
package simulation

import (
	"fmt"
	"time"

	"github.com/iwvelando/renovation-forecast/pkg/alert"
	"github.com/iwvelando/renovation-forecast/pkg/allocation"
	"github.com/iwvelando/renovation-forecast/pkg/compliance"
	"github.com/iwvelando/renovation-forecast/pkg/datetime"
	"github.com/iwvelando/renovation-forecast/pkg/energy"
	"github.com/iwvelando/renovation-forecast/pkg/ledger"
	"github.com/iwvelando/renovation-forecast/pkg/loans"
	"github.com/iwvelando/renovation-forecast/pkg/project"
	"github.com/iwvelando/renovation-forecast/pkg/regulation"
	"github.com/iwvelando/renovation-forecast/pkg/subsidy"
	"github.com/iwvelando/renovation-forecast/pkg/tax"
	"github.com/iwvelando/renovation-forecast/pkg/validation"
	"github.com/iwvelando/renovation-forecast/pkg/valuation"
	"go.uber.org/zap"
)

// Result is the financing plan of one project with its derived aggregates.
type Result struct {
	Name          string `json:"name,omitempty"`
	Vintage       string `json:"vintage"`
	ReferenceDate string `json:"referenceDate"`

	Input      project.Input       `json:"input"`
	Ledger     ledger.Ledger       `json:"ledger"`
	Gain       energy.Gain         `json:"gain"`
	Subsidies  subsidy.Breakdown   `json:"subsidies"`
	Loan       loans.Plan          `json:"loan"`
	Compliance compliance.Timeline `json:"compliance"`
	Valuation  valuation.Valuation `json:"valuation"`
	Inaction   valuation.Inaction  `json:"inaction"`
	Allocation allocation.Share    `json:"allocation"`
	Deduction  tax.Deduction       `json:"deduction"`
	Savings    energy.Savings      `json:"savings"`

	Alerts []alert.Alert `json:"alerts"`
}

// Engine is the composite entry point. It holds only the read-only
// regulation and is safe for concurrent use.
type Engine struct {
	logger    *zap.Logger
	reg       regulation.Config
	validator *validation.Validator
}

// NewEngine validates the regulation vintage and returns an engine bound to it.
func NewEngine(logger *zap.Logger, reg regulation.Config) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		logger:    logger,
		reg:       reg.Clone(),
		validator: validation.New(),
	}, nil
}

// Regulation returns a copy of the engine's vintage.
func (e *Engine) Regulation() regulation.Config {
	return e.reg.Clone()
}

// Run validates raw input and simulates it. A *validation.Error is returned
// when a mandatory field is invalid; no partial result is produced.
func (e *Engine) Run(raw validation.RawInput, reference time.Time) (Result, error) {
	in, inputAlerts, err := e.validator.Normalize(raw)
	if err != nil {
		e.logger.Debug("rejected project input",
			zap.String("op", "simulation.Run"),
			zap.String("project", raw.Name),
			zap.Error(err),
		)
		return Result{}, err
	}

	result := e.Simulate(in, reference)
	result.Alerts = append(append([]alert.Alert{}, inputAlerts...), result.Alerts...)
	return result, nil
}

// Simulate runs the pipeline on a validated input:
// ledger, energy gain, subsidy waterfall, loan, then compliance, valuation
// and inaction, per-unit allocation and finally the tax deduction.
func (e *Engine) Simulate(in project.Input, reference time.Time) Result {
	var alerts alert.List
	reg := e.reg

	l, ledgerAlerts := ledger.Build(in, reg)
	alerts.Extend(ledgerAlerts...)

	gain := energy.Compute(in.Current, in.Target, reg)

	subsidies, subsidyAlerts := subsidy.Compute(in, l, gain, reg)
	alerts.Extend(subsidyAlerts...)

	loan, loanAlerts := loans.Size(l, subsidies, gain, in.Units, reg)
	alerts.Extend(loanAlerts...)

	timeline, complianceAlerts := compliance.EvaluateTimeline(in.Current, in.Target, reference, reg)
	alerts.Extend(complianceAlerts...)

	value, valuationAlerts := valuation.Compute(in, gain, loan.CashCall, reg)
	alerts.Extend(valuationAlerts...)

	inaction, inactionAlerts := valuation.ComputeInaction(in, l.WorksPreTax(), reg)
	alerts.Extend(inactionAlerts...)

	share := allocation.Allocate(l, subsidies, loan, in.Units, reg)

	deduction, taxAlerts := tax.Compute(in, l, subsidies, reg)
	alerts.Extend(taxAlerts...)

	savings := energy.EstimateSavings(in.AnnualEnergyBill, gain, loan.MonthlyInstallment)
	if !savings.Computable {
		alerts.Add(alert.SavingsNotComputable, "energy",
			"annual energy bill unknown, energy savings not estimated")
	}

	e.logger.Debug(fmt.Sprintf("simulated project %s: gain %.1f%%, subsidies %.2f, loan %.2f, cash call %.2f",
		in.Name, gain.Percent(), subsidies.Total, loan.Principal, loan.CashCall),
		zap.String("op", "simulation.Simulate"),
		zap.Int("alerts", len(alerts)),
	)

	if alerts == nil {
		alerts = alert.List{}
	}
	return Result{
		Name:          in.Name,
		Vintage:       reg.Vintage,
		ReferenceDate: datetime.Truncate(reference).Format(datetime.DateLayout),
		Input:         in,
		Ledger:        l,
		Gain:          gain,
		Subsidies:     subsidies,
		Loan:          loan,
		Compliance:    timeline,
		Valuation:     value,
		Inaction:      inaction,
		Allocation:    share,
		Deduction:     deduction,
		Savings:       savings,
		Alerts:        alerts,
	}
}
