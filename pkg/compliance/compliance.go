// Package compliance reports where a building stands against the rental
// prohibition calendar.
package compliance

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iwvelando/renovation-forecast/pkg/alert"
	"github.com/iwvelando/renovation-forecast/pkg/datetime"
	"github.com/iwvelando/renovation-forecast/pkg/rating"
	"github.com/iwvelando/renovation-forecast/pkg/regulation"
)

const stage = "compliance"

// Urgency is an ordinal tier, low to critical.
type Urgency int

// Urgency tiers.
const (
	UrgencyLow Urgency = iota
	UrgencyMedium
	UrgencyHigh
	UrgencyCritical
)

func (u Urgency) String() string {
	switch u {
	case UrgencyMedium:
		return "medium"
	case UrgencyHigh:
		return "high"
	case UrgencyCritical:
		return "critical"
	}
	return "low"
}

// MarshalText implements encoding.TextMarshaler.
func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Urgency) UnmarshalText(text []byte) error {
	for _, candidate := range []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical} {
		if candidate.String() == string(text) {
			*u = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown urgency %q", text)
}

// Status is the compliance of one rating at a reference date.
type Status struct {
	Rating          rating.Rating `json:"rating"`
	ProhibitionDate *time.Time    `json:"-"`
	Prohibited      bool          `json:"prohibited"`
	DaysRemaining   *int          `json:"daysRemaining"`
	Urgency         Urgency       `json:"urgency"`
}

// MarshalJSON renders the prohibition date as a calendar day.
func (s Status) MarshalJSON() ([]byte, error) {
	type plain Status
	var date *string
	if s.ProhibitionDate != nil {
		formatted := s.ProhibitionDate.Format(datetime.DateLayout)
		date = &formatted
	}
	return json.Marshal(struct {
		plain
		ProhibitionDate *string `json:"prohibitionDate"`
	}{plain: plain(s), ProhibitionDate: date})
}

// Evaluate looks up the prohibition date of r and derives the urgency tier.
func Evaluate(r rating.Rating, reference time.Time, reg regulation.Config) Status {
	s := Status{Rating: r, Urgency: UrgencyLow}

	date, ok := reg.Compliance.ProhibitionDates.Get(r)
	if !ok {
		return s
	}

	days := datetime.DaysUntil(datetime.Truncate(reference), date)
	s.ProhibitionDate = &date
	s.Prohibited = days <= 0
	if s.Prohibited {
		days = 0
	}
	s.DaysRemaining = &days

	switch {
	case s.Prohibited:
		s.Urgency = UrgencyCritical
	case days <= reg.Compliance.HighUrgencyDays:
		s.Urgency = UrgencyHigh
	default:
		s.Urgency = UrgencyMedium
	}
	return s
}

// Timeline is the compliance of the building before and after the works.
type Timeline struct {
	Current Status `json:"current"`
	Target  Status `json:"target"`
}

// EvaluateTimeline evaluates both ratings and raises alerts for the current one.
func EvaluateTimeline(current, target rating.Rating, reference time.Time, reg regulation.Config) (Timeline, []alert.Alert) {
	var alerts alert.List
	t := Timeline{
		Current: Evaluate(current, reference, reg),
		Target:  Evaluate(target, reference, reg),
	}

	switch t.Current.Urgency {
	case UrgencyCritical:
		alerts.Add(alert.ComplianceProhibited, stage,
			"rating %s units may not be rented since %s", current, t.Current.ProhibitionDate.Format(datetime.DateLayout))
	case UrgencyHigh:
		alerts.Add(alert.ComplianceDeadline, stage,
			"rating %s units may not be rented from %s (%d days)",
			current, t.Current.ProhibitionDate.Format(datetime.DateLayout), *t.Current.DaysRemaining)
	}
	return t, alerts
}
