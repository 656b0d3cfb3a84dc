package compliance

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/iwvelando/renovation-forecast/pkg/alert"
	"github.com/iwvelando/renovation-forecast/pkg/datetime"
	"github.com/iwvelando/renovation-forecast/pkg/rating"
	"github.com/iwvelando/renovation-forecast/pkg/regulation"
)

func TestEvaluate(t *testing.T) {
	reg := regulation.Default()
	reference := datetime.MustParseDate("2026-10-19")

	tests := []struct {
		name       string
		rating     rating.Rating
		reference  string
		prohibited bool
		days       *int
		urgency    Urgency
	}{
		{name: "G already prohibited", rating: rating.G, urgency: UrgencyCritical, prohibited: true, days: intPtr(0)},
		{name: "E long after prohibition", rating: rating.E, reference: "2036-06-30", urgency: UrgencyCritical, prohibited: true, days: intPtr(0)},
		{name: "F within two years", rating: rating.F, urgency: UrgencyHigh, days: intPtr(439)},
		{name: "E far away", rating: rating.E, urgency: UrgencyMedium, days: intPtr(2631)},
		{name: "D never prohibited", rating: rating.D, urgency: UrgencyLow},
		{name: "A never prohibited", rating: rating.A, urgency: UrgencyLow},
		{name: "prohibition day itself", rating: rating.F, reference: "2028-01-01", urgency: UrgencyCritical, prohibited: true, days: intPtr(0)},
		{name: "exactly at high threshold", rating: rating.F, reference: "2026-01-01", urgency: UrgencyHigh, days: intPtr(730)},
		{name: "one day before high threshold", rating: rating.F, reference: "2025-12-31", urgency: UrgencyMedium, days: intPtr(731)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := reference
			if tt.reference != "" {
				ref = datetime.MustParseDate(tt.reference)
			}
			s := Evaluate(tt.rating, ref, reg)

			if s.Prohibited != tt.prohibited {
				t.Errorf("Prohibited = %v, want %v", s.Prohibited, tt.prohibited)
			}
			if s.Urgency != tt.urgency {
				t.Errorf("Urgency = %s, want %s", s.Urgency, tt.urgency)
			}
			switch {
			case tt.days == nil && s.DaysRemaining != nil:
				t.Errorf("DaysRemaining = %d, want nil", *s.DaysRemaining)
			case tt.days != nil && s.DaysRemaining == nil:
				t.Errorf("DaysRemaining = nil, want %d", *tt.days)
			case tt.days != nil && *s.DaysRemaining != *tt.days:
				t.Errorf("DaysRemaining = %d, want %d", *s.DaysRemaining, *tt.days)
			}
			if (tt.days == nil) != (s.ProhibitionDate == nil) {
				t.Errorf("ProhibitionDate = %v", s.ProhibitionDate)
			}
		})
	}
}

func TestEvaluateTimeline(t *testing.T) {
	reg := regulation.Default()
	reference := datetime.MustParseDate("2026-10-19")

	timeline, alerts := EvaluateTimeline(rating.G, rating.C, reference, reg)
	if !timeline.Current.Prohibited || timeline.Target.Prohibited {
		t.Errorf("timeline = %+v", timeline)
	}
	if !alert.List(alerts).Has(alert.ComplianceProhibited) {
		t.Errorf("alerts = %v, want %s", alerts, alert.ComplianceProhibited)
	}

	_, alerts = EvaluateTimeline(rating.F, rating.C, reference, reg)
	if !alert.List(alerts).Has(alert.ComplianceDeadline) {
		t.Errorf("alerts = %v, want %s", alerts, alert.ComplianceDeadline)
	}

	_, alerts = EvaluateTimeline(rating.D, rating.B, reference, reg)
	if len(alerts) != 0 {
		t.Errorf("unexpected alerts %v", alerts)
	}
}

func TestStatusJSON(t *testing.T) {
	reg := regulation.Default()
	reference := datetime.MustParseDate("2026-10-19")

	data, err := json.Marshal(Evaluate(rating.F, reference, reg))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, want := range []string{`"rating":"F"`, `"prohibitionDate":"2028-01-01"`, `"urgency":"high"`, `"daysRemaining":439`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON %s missing %s", data, want)
		}
	}

	data, err = json.Marshal(Evaluate(rating.B, reference, reg))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"prohibitionDate":null`) {
		t.Errorf("JSON %s should have a null prohibition date", data)
	}
}

func intPtr(v int) *int { return &v }
