package loans

import (
	"testing"

	"github.com/iwvelando/renovation-forecast/pkg/alert"
	"github.com/iwvelando/renovation-forecast/pkg/energy"
	"github.com/iwvelando/renovation-forecast/pkg/ledger"
	"github.com/iwvelando/renovation-forecast/pkg/mathutil"
	"github.com/iwvelando/renovation-forecast/pkg/project"
	"github.com/iwvelando/renovation-forecast/pkg/rating"
	"github.com/iwvelando/renovation-forecast/pkg/regulation"
	"github.com/iwvelando/renovation-forecast/pkg/subsidy"
)

func size(in project.Input, reg regulation.Config) (Plan, alert.List) {
	l, _ := ledger.Build(in, reg)
	g := energy.Compute(in.Current, in.Target, reg)
	b, _ := subsidy.Compute(in, l, g, reg)
	p, alerts := Size(l, b, g, in.Units, reg)
	return p, alerts
}

func TestSize(t *testing.T) {
	reg := regulation.Default()

	tests := []struct {
		name          string
		in            project.Input
		wantPrincipal float64
		wantCashCall  float64
		wantCap       float64
		wantAlerts    []alert.Code
	}{
		{
			name:          "F to C 300k ten units",
			in:            project.Input{Current: rating.F, Target: rating.C, Units: 10, WorksCost: 300000},
			wantPrincipal: 183165,
			wantCashCall:  34200,
			wantCap:       499500,
			wantAlerts:    []alert.Code{alert.LoanCashCallNeeded},
		},
		{
			name:          "F to C 1M ten units hits cap",
			in:            project.Input{Current: rating.F, Target: rating.C, Units: 10, WorksCost: 1000000},
			wantPrincipal: 499500,
			wantCashCall:  507750,
			wantCap:       499500,
			wantAlerts:    []alert.Code{alert.LoanCapReached, alert.LoanCashCallNeeded},
		},
		{
			name:          "D to C uses base tier",
			in:            project.Input{Current: rating.D, Target: rating.C, Units: 10, WorksCost: 1000000},
			wantPrincipal: 299500,
			wantCap:       299500,
			wantCashCall:  1172750 - 53000 - 299500,
			wantAlerts:    []alert.Code{alert.LoanReducedTier, alert.LoanCapReached},
		},
		{
			name:          "subsidies cover everything",
			in:            project.Input{Current: rating.F, Target: rating.C, Units: 10, WorksCost: 300000, LocalAid: 400000},
			wantPrincipal: 0,
			wantCashCall:  0,
			wantCap:       499500,
			wantAlerts:    []alert.Code{alert.LoanNotNeeded},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, alerts := size(tt.in, reg)

			if !mathutil.WithinTolerance(p.Principal, tt.wantPrincipal, 0.01) {
				t.Errorf("Principal = %.2f, want %.2f", p.Principal, tt.wantPrincipal)
			}
			if !mathutil.WithinTolerance(p.CashCall, tt.wantCashCall, 0.01) {
				t.Errorf("CashCall = %.2f, want %.2f", p.CashCall, tt.wantCashCall)
			}
			if p.Cap != tt.wantCap {
				t.Errorf("Cap = %.2f, want %.2f", p.Cap, tt.wantCap)
			}
			if p.Principal > 0 {
				if p.Disbursed != p.Principal+reg.Loan.GuaranteeFee {
					t.Errorf("Disbursed = %.2f, want principal + fee", p.Disbursed)
				}
				if !mathutil.WithinTolerance(p.MonthlyInstallment, p.Principal/240, 0.01) {
					t.Errorf("MonthlyInstallment = %.2f, want %.2f", p.MonthlyInstallment, p.Principal/240)
				}
			} else if p.Disbursed != 0 || p.MonthlyInstallment != 0 {
				t.Errorf("no loan should have no disbursement or installment, got %+v", p)
			}
			for _, code := range tt.wantAlerts {
				if !alerts.Has(code) {
					t.Errorf("missing alert %s in %v", code, alerts)
				}
			}
		})
	}
}

func TestLoanCapScenario(t *testing.T) {
	p, _ := size(project.Input{Current: rating.F, Target: rating.C, Units: 10, WorksCost: 1000000}, regulation.Default())
	if p.Principal > 500000 {
		t.Errorf("Principal = %.2f exceeds 50,000 per unit", p.Principal)
	}
	if p.Disbursed != 500000 {
		t.Errorf("Disbursed = %.2f, want 500000", p.Disbursed)
	}
}

func TestSizeInvariants(t *testing.T) {
	reg := regulation.Default()
	pairs := [][2]rating.Rating{{rating.G, rating.A}, {rating.F, rating.C}, {rating.E, rating.D}, {rating.C, rating.B}}

	for _, pair := range pairs {
		for _, units := range []int{1, 3, 40, 500} {
			for _, cost := range []float64{5000, 120000, 3e6, 5e7} {
				for _, aid := range []float64{0, 50000, 1e7} {
					in := project.Input{Current: pair[0], Target: pair[1], Units: units, WorksCost: cost, LocalAid: aid}
					p, _ := size(in, reg)

					if p.Principal < 0 || p.CashCall < 0 {
						t.Fatalf("%+v: negative principal %.2f or cash call %.2f", in, p.Principal, p.CashCall)
					}
					if p.Principal > p.CapPerUnit*float64(units) {
						t.Fatalf("%+v: principal %.2f above cap", in, p.Principal)
					}
					if !mathutil.WithinTolerance(p.Principal+p.CashCall, p.TotalRemaining, 0.02) && p.TotalRemaining >= p.Principal {
						t.Fatalf("%+v: principal + cash call != remaining", in)
					}
				}
			}
		}
	}
}

func TestNonEnergyWorksStayOutOfLoanBase(t *testing.T) {
	reg := regulation.Default()

	tests := []struct {
		name          string
		in            project.Input
		wantBase      float64
		wantPrincipal float64
	}{
		{
			name:          "F to C 300k ten units",
			in:            project.Input{Current: rating.F, Target: rating.C, Units: 10, WorksCost: 300000},
			wantBase:      319665,
			wantPrincipal: 183165,
		},
		{
			name:          "F to C 1M ten units hits cap",
			in:            project.Input{Current: rating.F, Target: rating.C, Units: 10, WorksCost: 1000000},
			wantPrincipal: 499500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			without, _ := size(tt.in, reg)

			withWorks := tt.in
			withWorks.NonEnergyWorks = 100000
			with, _ := size(withWorks, reg)

			if tt.wantBase > 0 && !mathutil.WithinTolerance(with.EligibleBaseTaxInclusive, tt.wantBase, 0.01) {
				t.Errorf("EligibleBaseTaxInclusive = %.2f, want %.2f", with.EligibleBaseTaxInclusive, tt.wantBase)
			}
			if with.EligibleBaseTaxInclusive != without.EligibleBaseTaxInclusive {
				t.Errorf("EligibleBaseTaxInclusive changed: %.2f -> %.2f",
					without.EligibleBaseTaxInclusive, with.EligibleBaseTaxInclusive)
			}
			if with.EligibleRemainder != without.EligibleRemainder {
				t.Errorf("EligibleRemainder changed: %.2f -> %.2f", without.EligibleRemainder, with.EligibleRemainder)
			}
			if !mathutil.WithinTolerance(with.Principal, tt.wantPrincipal, 0.01) || with.Principal != without.Principal {
				t.Errorf("Principal = %.2f (was %.2f), want %.2f", with.Principal, without.Principal, tt.wantPrincipal)
			}

			nonEnergyTaxInclusive := mathutil.Round(mathutil.WithTax(100000, reg.VAT.NonEnergy))
			if !mathutil.WithinTolerance(with.CashCall-without.CashCall, nonEnergyTaxInclusive, 0.02) {
				t.Errorf("cash call grew by %.2f, want %.2f", with.CashCall-without.CashCall, nonEnergyTaxInclusive)
			}
		})
	}
}
