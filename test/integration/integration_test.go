package integration

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/iwvelando/renovation-forecast/internal/config"
	"github.com/iwvelando/renovation-forecast/internal/simulation"
	"github.com/iwvelando/renovation-forecast/pkg/alert"
	"github.com/iwvelando/renovation-forecast/pkg/mathutil"
	"github.com/iwvelando/renovation-forecast/pkg/output"
	"github.com/iwvelando/renovation-forecast/pkg/subsidy"
	"github.com/iwvelando/renovation-forecast/pkg/testutil"
	"go.uber.org/zap"
)

// runConfig loads the test configuration and simulates it exactly as main() does.
func runConfig(t testing.TB) []simulation.Outcome {
	t.Helper()

	conf, err := config.LoadConfiguration("../test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	reference, err := conf.Reference(time.Now())
	if err != nil {
		t.Fatalf("Reference() error = %v", err)
	}
	engine, err := simulation.NewEngine(zap.NewNop(), conf.Regulation)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	outcomes, err := engine.RunBatch(context.Background(), conf.ActiveProjects(), reference, conf.Concurrency)
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	return outcomes
}

func TestMainIntegrationBaseline(t *testing.T) {
	outcomes := runConfig(t)

	expectedProjects := []string{"residence des tilleuls", "le clos fleuri"}
	if len(outcomes) != len(expectedProjects) {
		t.Fatalf("Expected %d active projects, got %d", len(expectedProjects), len(outcomes))
	}
	for i, expected := range expectedProjects {
		if outcomes[i].Name != expected {
			t.Errorf("Expected project %s at position %d, got %s", expected, i, outcomes[i].Name)
		}
		if outcomes[i].Err != nil {
			t.Fatalf("Project %s rejected: %v", expected, outcomes[i].Err)
		}
	}
	if testutil.FindOutcome(outcomes, "parked study") != nil {
		t.Errorf("Inactive project should not be simulated")
	}
}

func TestHighPerformanceProject(t *testing.T) {
	r := testutil.FindOutcome(runConfig(t), "residence des tilleuls").Result

	if r.Vintage != "2026-test" || r.ReferenceDate != "2026-10-19" {
		t.Errorf("unexpected vintage %q or reference date %q", r.Vintage, r.ReferenceDate)
	}
	if r.Subsidies.GrantRate.Applied != 0.45 {
		t.Errorf("Expected grant rate 0.45, got %v", r.Subsidies.GrantRate.Applied)
	}

	expectedAmounts := map[subsidy.Kind]float64{
		subsidy.RenovationGrant:  112500,
		subsidy.CertificateBonus: 24000,
		subsidy.EngineeringGrant: 3000,
		subsidy.AlurReserve:      8000,
	}
	for kind, want := range expectedAmounts {
		if got := r.Subsidies.Amount(kind); !mathutil.WithinTolerance(got, want, 0.01) {
			t.Errorf("%s = %v, want %v", kind, got, want)
		}
	}
	if !mathutil.WithinTolerance(r.Subsidies.Total, 147500, 0.01) {
		t.Errorf("Expected subsidies total 147500, got %v", r.Subsidies.Total)
	}

	if r.Loan.GuaranteeFee != 750 {
		t.Errorf("Expected the configured guarantee fee 750, got %v", r.Loan.GuaranteeFee)
	}
	if r.Loan.Principal < 0 || r.Loan.Principal > r.Loan.CapPerUnit*10 {
		t.Errorf("Loan principal %v outside [0, cap]", r.Loan.Principal)
	}
	if r.Loan.CashCall < 0 {
		t.Errorf("Cash call %v is negative", r.Loan.CashCall)
	}

	if !r.Valuation.Computable {
		t.Fatalf("Expected valuation to be computable with market data")
	}
	if !mathutil.WithinTolerance(r.Valuation.CurrentValue, 2275000, 0.01) {
		t.Errorf("Expected current value 2275000, got %v", r.Valuation.CurrentValue)
	}
	if !mathutil.WithinTolerance(r.Valuation.Uplift, 273000, 0.01) {
		t.Errorf("Expected uplift 273000, got %v", r.Valuation.Uplift)
	}
	if !r.Savings.Computable || r.Savings.MonthlySavings <= 0 {
		t.Errorf("Expected positive monthly savings, got %+v", r.Savings)
	}

	alerts := alert.List(r.Alerts)
	if !alerts.Has(alert.InputFossilHeating) {
		t.Errorf("Expected a fossil heating alert for gas")
	}
	if !alerts.Has(alert.ComplianceDeadline) {
		t.Errorf("Expected a compliance deadline alert for an F building")
	}
}

func TestFragileProject(t *testing.T) {
	r := testutil.FindOutcome(runConfig(t), "le clos fleuri").Result

	if r.Input.ResidentialUnits() != 22 {
		t.Errorf("Expected 22 residential units, got %d", r.Input.ResidentialUnits())
	}
	if r.Subsidies.GrantRate.Applied != 0.50 {
		t.Errorf("Expected standard rate plus fragile bonus (0.50), got %v", r.Subsidies.GrantRate.Applied)
	}
	if r.Subsidies.Amount(subsidy.CertificateBonus) != 0 {
		t.Errorf("Expected the certificate bonus to be ceded, got %v", r.Subsidies.Amount(subsidy.CertificateBonus))
	}

	alerts := alert.List(r.Alerts)
	for _, code := range []alert.Code{alert.LedgerTaxInclusiveCost, alert.CertificateCeded, alert.ValuationNotComputable} {
		if !alerts.Has(code) {
			t.Errorf("Expected alert %s", code)
		}
	}
	if r.Ledger.TotalTaxInclusive <= 780000 {
		t.Errorf("Expected ancillary lines on top of the works, got %v", r.Ledger.TotalTaxInclusive)
	}
}

func TestOutputFormats(t *testing.T) {
	outcomes := runConfig(t)

	var pretty bytes.Buffer
	if err := output.PrettyFormat(&pretty, outcomes); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	if pretty.Len() == 0 {
		t.Error("Expected pretty output")
	}

	var csvBuf bytes.Buffer
	if err := output.CsvFormat(&csvBuf, outcomes); err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}
	records, err := csv.NewReader(&csvBuf).ReadAll()
	if err != nil {
		t.Fatalf("CSV output does not parse: %v", err)
	}
	if len(records) != len(outcomes)+1 {
		t.Errorf("Expected %d CSV records, got %d", len(outcomes)+1, len(records))
	}

	var jsonBuf bytes.Buffer
	if err := output.JSONFormat(&jsonBuf, outcomes); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}
	if !bytes.Contains(jsonBuf.Bytes(), []byte(`"residence des tilleuls"`)) {
		t.Error("Expected project names in JSON output")
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	first := runConfig(t)
	second := runConfig(t)

	var a, b bytes.Buffer
	if err := output.JSONFormat(&a, first); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}
	if err := output.JSONFormat(&b, second); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("Expected identical output for identical configuration")
	}
}
