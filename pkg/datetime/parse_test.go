package datetime

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectError bool
		expected    time.Time
	}{
		{"Valid date", "2028-01-01", false, time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"Surrounding whitespace", " 2034-01-01 ", false, time.Date(2034, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"Month layout rejected", "2028-01", true, time.Time{}},
		{"Garbage", "soon", true, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("ParseDate(%q) expected error but got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error = %v", tt.input, err)
			}
			if !got.Equal(tt.expected) {
				t.Errorf("ParseDate(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMustParseDatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParseDate() expected panic on invalid input")
		}
	}()
	MustParseDate("not-a-date")
}

func TestDaysUntil(t *testing.T) {
	ref := MustParseDate("2026-10-19")
	tests := []struct {
		name     string
		target   time.Time
		expected int
	}{
		{"Same day", MustParseDate("2026-10-19"), 0},
		{"Next day", MustParseDate("2026-10-20"), 1},
		{"Past date", MustParseDate("2025-01-01"), -656},
		{"Partial day rounds up", ref.Add(90 * time.Minute), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntil(ref, tt.target); got != tt.expected {
				t.Errorf("DaysUntil() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	in := time.Date(2026, 10, 19, 17, 45, 0, 0, time.FixedZone("CEST", 2*3600))
	got := Truncate(in)
	if !got.Equal(MustParseDate("2026-10-19")) {
		t.Errorf("Truncate() = %v, expected 2026-10-19", got)
	}
}
