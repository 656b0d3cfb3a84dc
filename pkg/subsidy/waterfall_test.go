package subsidy

import (
	"math"
	"testing"

	"github.com/iwvelando/renovation-forecast/pkg/alert"
	"github.com/iwvelando/renovation-forecast/pkg/energy"
	"github.com/iwvelando/renovation-forecast/pkg/ledger"
	"github.com/iwvelando/renovation-forecast/pkg/mathutil"
	"github.com/iwvelando/renovation-forecast/pkg/project"
	"github.com/iwvelando/renovation-forecast/pkg/rating"
	"github.com/iwvelando/renovation-forecast/pkg/regulation"
)

func input(current, target rating.Rating) project.Input {
	return project.Input{Current: current, Target: target, Units: 10, WorksCost: 300000}
}

func run(in project.Input, reg regulation.Config) (Breakdown, alert.List) {
	l, _ := ledger.Build(in, reg)
	g := energy.Compute(in.Current, in.Target, reg)
	b, alerts := Compute(in, l, g, reg)
	return b, alerts
}

func TestGrantRate(t *testing.T) {
	withBonus := regulation.Default().Clone()
	withBonus.Grant.ExitPovertyBonus = 0.10

	tests := []struct {
		name    string
		reg     regulation.Config
		current rating.Rating
		target  rating.Rating
		fragile bool
		want    float64
		ceiled  bool
	}{
		{name: "F to C high performance", reg: regulation.Default(), current: rating.F, target: rating.C, want: 0.45},
		{name: "E to C standard", reg: regulation.Default(), current: rating.E, target: rating.C, want: 0.30},
		{name: "D to C below threshold", reg: regulation.Default(), current: rating.D, target: rating.C, want: 0},
		{name: "F to C with exit bonus configured", reg: withBonus, current: rating.F, target: rating.C, want: 0.55},
		{name: "G to E misses decent target", reg: withBonus, current: rating.G, target: rating.E, want: 0.30},
		{name: "E to C not in poverty band", reg: withBonus, current: rating.E, target: rating.C, want: 0.30},
		{name: "fragile and exit bonus hit ceiling", reg: withBonus, current: rating.F, target: rating.C, fragile: true, want: 0.65, ceiled: true},
		{name: "fragile standard tier", reg: regulation.Default(), current: rating.E, target: rating.C, fragile: true, want: 0.50},
		{name: "fragile without eligible gain", reg: regulation.Default(), current: rating.D, target: rating.C, fragile: true, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := RateContext{
				Gain:    energy.Compute(tt.current, tt.target, tt.reg),
				Current: tt.current,
				Target:  tt.target,
				Fragile: tt.fragile,
			}
			got := GrantRate(ctx, tt.reg)
			if math.Abs(got.Applied-tt.want) > 1e-9 {
				t.Errorf("Applied = %v, want %v", got.Applied, tt.want)
			}
			if got.Ceiled != tt.ceiled {
				t.Errorf("Ceiled = %v, want %v", got.Ceiled, tt.ceiled)
			}
		})
	}
}

func TestGrantRateMonotonicInGain(t *testing.T) {
	reg := regulation.Default()
	previous := -1.0
	for i := 0; i <= 100; i++ {
		fraction := float64(i) / 100
		g := energy.Gain{Fraction: fraction, Tier: energy.Classify(fraction, reg.Gain)}
		rate := GrantRate(RateContext{Gain: g, Current: rating.E, Target: rating.C}, reg).Applied
		if rate < previous {
			t.Fatalf("grant rate decreased at gain %.2f: %v < %v", fraction, rate, previous)
		}
		previous = rate
	}
}

func TestComputeWaterfall(t *testing.T) {
	reg := regulation.Default()

	tests := []struct {
		name        string
		in          project.Input
		want        map[Kind]float64
		wantTotal   float64
		wantAlerts  []alert.Code
		wantMissing []alert.Code
	}{
		{
			name: "F to C ten units",
			in:   input(rating.F, rating.C),
			want: map[Kind]float64{
				RenovationGrant:  112500,
				CertificateBonus: 24000,
				EngineeringGrant: 3000,
				Accessibility:    0,
				LocalAid:         0,
				AlurReserve:      0,
			},
			wantTotal:   139500,
			wantAlerts:  []alert.Code{alert.GrantCapReached, alert.EngineeringCapReached, alert.EngineeringFloorApplied},
			wantMissing: []alert.Code{alert.PublicAidCeilingApplied, alert.SubsidiesExceedTotalCost},
		},
		{
			name: "E to C standard rate",
			in:   input(rating.E, rating.C),
			want: map[Kind]float64{
				RenovationGrant:  75000,
				CertificateBonus: 24000,
			},
			wantTotal: 102000,
		},
		{
			name: "D to C ineligible grant",
			in:   input(rating.D, rating.C),
			want: map[Kind]float64{
				RenovationGrant:  0,
				CertificateBonus: 24000,
			},
			wantTotal:  27000,
			wantAlerts: []alert.Code{alert.GrantIneligible},
		},
		{
			name: "fragile cedes certificate bonus",
			in: func() project.Input {
				in := input(rating.E, rating.C)
				in.Fragile = true
				return in
			}(),
			want: map[Kind]float64{
				RenovationGrant:  125000,
				CertificateBonus: 0,
			},
			wantTotal:  128000,
			wantAlerts: []alert.Code{alert.CertificateCeded},
		},
		{
			name: "commercial units reduce grant cap only",
			in: func() project.Input {
				in := input(rating.F, rating.C)
				in.CommercialUnits = 4
				return in
			}(),
			want: map[Kind]float64{
				RenovationGrant:  67500,
				CertificateBonus: 24000,
			},
			wantTotal: 94500,
		},
		{
			name: "local aid and ALUR pass through",
			in: func() project.Input {
				in := input(rating.F, rating.C)
				in.LocalAid = 10000
				in.AlurFund = 5000
				return in
			}(),
			want: map[Kind]float64{
				LocalAid:    10000,
				AlurReserve: 5000,
			},
			wantTotal: 154500,
		},
		{
			name: "public aid ceiling reduces the grant",
			in: func() project.Input {
				in := input(rating.F, rating.C)
				in.LocalAid = 200000
				return in
			}(),
			want: map[Kind]float64{
				RenovationGrant: 58492,
				LocalAid:        200000,
			},
			wantTotal:  285492,
			wantAlerts: []alert.Code{alert.PublicAidCeilingApplied},
		},
		{
			name: "subsidies above total cost",
			in: func() project.Input {
				in := input(rating.F, rating.C)
				in.LocalAid = 400000
				return in
			}(),
			want: map[Kind]float64{
				RenovationGrant: 0,
				LocalAid:        400000,
			},
			wantTotal:  427000,
			wantAlerts: []alert.Code{alert.PublicAidCeilingApplied, alert.SubsidiesExceedTotalCost},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, alerts := run(tt.in, reg)

			for kind, want := range tt.want {
				if got := b.Amount(kind); !mathutil.WithinTolerance(got, want, 0.01) {
					t.Errorf("%s = %.2f, want %.2f", kind, got, want)
				}
			}
			if !mathutil.WithinTolerance(b.Total, tt.wantTotal, 0.01) {
				t.Errorf("Total = %.2f, want %.2f", b.Total, tt.wantTotal)
			}
			for _, code := range tt.wantAlerts {
				if !alerts.Has(code) {
					t.Errorf("missing alert %s in %v", code, alerts)
				}
			}
			for _, code := range tt.wantMissing {
				if alerts.Has(code) {
					t.Errorf("unexpected alert %s", code)
				}
			}
			for _, item := range b.Items {
				if item.Amount < 0 {
					t.Errorf("%s amount is negative: %v", item.Kind, item.Amount)
				}
			}
		})
	}
}

func TestEngineeringGrant(t *testing.T) {
	reg := regulation.Default()

	tests := []struct {
		name  string
		units int
		fee   float64
		want  float64
	}{
		{name: "ten units at floor", units: 10, fee: 6000, want: 3000},
		{name: "two units bound by half the fee", units: 2, fee: 1200, want: 600},
		{name: "twenty units small building cap", units: 20, fee: 12000, want: 5000},
		{name: "thirty units large building cap", units: 30, fee: 18000, want: 4500},
		{name: "no fee", units: 10, fee: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, _ := ComputeEngineeringGrant(tt.units, tt.fee, reg)
			if item.Amount != tt.want {
				t.Errorf("Amount = %v, want %v", item.Amount, tt.want)
			}
			if item.Amount > item.Cap && tt.fee > 0 {
				t.Errorf("Amount %v exceeds cap %v", item.Amount, item.Cap)
			}
		})
	}
}

func TestAccessibilityGrant(t *testing.T) {
	reg := regulation.Default()

	tests := []struct {
		name      string
		flag      bool
		cost      float64
		want      float64
		wantAlert alert.Code
	}{
		{name: "not a beneficiary", cost: 8000, want: 0},
		{name: "below cap", flag: true, cost: 8000, want: 8000},
		{name: "above cap", flag: true, cost: 15000, want: 10000, wantAlert: alert.AccessibilityCapReached},
		{name: "flag without cost", flag: true, want: 0, wantAlert: alert.AccessibilityNoCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(rating.F, rating.C)
			in.AccessibilityBeneficiary = tt.flag
			in.AccessibilityCost = tt.cost

			item, alerts := ComputeAccessibilityGrant(in, reg)
			if item.Amount != tt.want {
				t.Errorf("Amount = %v, want %v", item.Amount, tt.want)
			}
			if tt.wantAlert != "" && !alert.List(alerts).Has(tt.wantAlert) {
				t.Errorf("alerts = %v, want %s", alerts, tt.wantAlert)
			}
		})
	}
}

func TestGrantCapInvariant(t *testing.T) {
	reg := regulation.Default()
	for _, units := range []int{1, 2, 7, 25, 120, 500} {
		for _, cost := range []float64{10000, 250000, 1e6, 2e7} {
			for _, commercial := range []int{0, units / 2, units} {
				in := project.Input{Current: rating.G, Target: rating.A, Units: units, CommercialUnits: commercial, WorksCost: cost, Fragile: true}
				b, _ := run(in, reg)
				limit := reg.Grant.CapPerResidentialUnit * float64(units-commercial)
				if b.Amount(RenovationGrant) > limit+0.01 {
					t.Errorf("units=%d commercial=%d cost=%.0f: grant %.2f exceeds cap %.2f",
						units, commercial, cost, b.Amount(RenovationGrant), limit)
				}
			}
		}
	}
}

func TestNonEnergyWorksLeaveSubsidiesUnchanged(t *testing.T) {
	reg := regulation.Default()

	tests := []struct {
		name      string
		in        project.Input
		wantGrant float64
		ceiled    bool
	}{
		{name: "F to C ten units", in: input(rating.F, rating.C), wantGrant: 112500},
		{
			name: "local aid hits public-aid ceiling",
			in: func() project.Input {
				in := input(rating.F, rating.C)
				in.WorksCost = 100000
				in.LocalAid = 60000
				return in
			}(),
			wantGrant: 28004,
			ceiled:    true,
		},
		{
			name: "fragile with engineering fee",
			in: func() project.Input {
				in := input(rating.E, rating.C)
				fee := 12000.0
				in.Fragile = true
				in.Overrides.Engineering = &fee
				return in
			}(),
			wantGrant: 150000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			without, _ := run(tt.in, reg)

			withWorks := tt.in
			withWorks.NonEnergyWorks = 100000
			with, _ := run(withWorks, reg)

			if got := with.Amount(RenovationGrant); !mathutil.WithinTolerance(got, tt.wantGrant, 0.01) {
				t.Errorf("renovation grant = %.2f, want %.2f", got, tt.wantGrant)
			}
			for _, kind := range []Kind{RenovationGrant, CertificateBonus, EngineeringGrant, Accessibility, LocalAid, AlurReserve} {
				if with.Amount(kind) != without.Amount(kind) {
					t.Errorf("%s changed with non-energy works: %.2f -> %.2f", kind, without.Amount(kind), with.Amount(kind))
				}
			}
			if with.PublicAidCeiling != without.PublicAidCeiling {
				t.Errorf("PublicAidCeiling changed: %.2f -> %.2f", without.PublicAidCeiling, with.PublicAidCeiling)
			}
			if with.GrantReduction != without.GrantReduction {
				t.Errorf("GrantReduction changed: %.2f -> %.2f", without.GrantReduction, with.GrantReduction)
			}
			if with.Total != without.Total {
				t.Errorf("Total changed: %.2f -> %.2f", without.Total, with.Total)
			}
			if (with.GrantReduction > 0) != tt.ceiled {
				t.Errorf("GrantReduction = %.2f, ceiled = %v", with.GrantReduction, tt.ceiled)
			}
		})
	}
}
