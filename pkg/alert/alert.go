// Package alert defines advisory notices: non-fatal findings attached to an
// otherwise successful simulation.
package alert

import "fmt"

// Code categorizes alerts by pipeline stage.
// A1xxx = input, A2xxx = ledger, A3xxx = subsidies, A4xxx = loan,
// A5xxx = tax deduction, A6xxx = valuation and inaction, A7xxx = compliance.
type Code string

const (
	InputNegativeClamped   Code = "A1001"
	InputPercentCoerced    Code = "A1002"
	InputFractionCapped    Code = "A1003"
	InputFossilHeating     Code = "A1004"
	InputCommercialOnly    Code = "A1005"
	LedgerTaxInclusiveCost Code = "A2001"
	LedgerOverrideUsed     Code = "A2002"

	GrantIneligible          Code = "A3001"
	GrantCapReached          Code = "A3002"
	GrantRateCeilingReached  Code = "A3003"
	CertificateCapReached    Code = "A3004"
	CertificateCeded         Code = "A3005"
	EngineeringCapReached    Code = "A3006"
	EngineeringFloorApplied  Code = "A3007"
	PublicAidCeilingApplied  Code = "A3008"
	SubsidiesExceedTotalCost Code = "A3009"
	AccessibilityNoCost      Code = "A3010"
	AccessibilityCapReached  Code = "A3011"

	LoanCapReached     Code = "A4001"
	LoanReducedTier    Code = "A4002"
	LoanCashCallNeeded Code = "A4003"
	LoanNotNeeded      Code = "A4004"

	DeductionElevatedCeiling Code = "A5001"
	DeductionCarryForward    Code = "A5002"

	ValuationNotComputable Code = "A6001"
	SavingsNotComputable   Code = "A6002"

	ComplianceProhibited Code = "A7001"
	ComplianceDeadline   Code = "A7002"
)

// Alert is a recoverable anomaly or notable business-rule outcome.
type Alert struct {
	Code    Code   `json:"code"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// New builds an alert with a formatted message.
func New(code Code, stage, format string, args ...interface{}) Alert {
	return Alert{Code: code, Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// String renders the alert for logs and text reports.
func (a Alert) String() string {
	return fmt.Sprintf("[%s] %s: %s", a.Code, a.Stage, a.Message)
}

// List accumulates alerts in the order stages emit them.
type List []Alert

// Add appends a formatted alert.
func (l *List) Add(code Code, stage, format string, args ...interface{}) {
	*l = append(*l, New(code, stage, format, args...))
}

// Extend appends alerts produced by another stage.
func (l *List) Extend(alerts ...Alert) {
	*l = append(*l, alerts...)
}

// Has reports whether an alert with the given code is present.
func (l List) Has(code Code) bool {
	for _, a := range l {
		if a.Code == code {
			return true
		}
	}
	return false
}

// Messages returns the rendered alerts.
func (l List) Messages() []string {
	if len(l) == 0 {
		return nil
	}
	out := make([]string, 0, len(l))
	for _, a := range l {
		out = append(out, a.String())
	}
	return out
}
