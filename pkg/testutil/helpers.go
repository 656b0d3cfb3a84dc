// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/renovation-forecast/internal/simulation"
	"github.com/iwvelando/renovation-forecast/pkg/validation"
)

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }

// Project builds the smallest valid raw input for a building.
func Project(name, current, target string, units int, worksCost float64) validation.RawInput {
	return validation.RawInput{
		Name:          name,
		CurrentRating: current,
		TargetRating:  target,
		UnitCount:     IntPtr(units),
		WorksCost:     FloatPtr(worksCost),
	}
}

// FindOutcome finds a project by name in the outcomes slice.
// Returns a pointer to the outcome if found, nil otherwise.
func FindOutcome(outcomes []simulation.Outcome, name string) *simulation.Outcome {
	for i := range outcomes {
		if outcomes[i].Name == name {
			return &outcomes[i]
		}
	}
	return nil
}
