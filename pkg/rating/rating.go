// Package rating defines the A..G energy performance classification.
package rating

import (
	"fmt"
	"strings"
)

// Rating is an energy performance class. Its numeric value is its rank:
// A is the best class and has the lowest rank, G the worst and the highest.
type Rating int

// Energy classes from best to worst.
const (
	A Rating = iota + 1
	B
	C
	D
	E
	F
	G
)

// All lists every class from best to worst.
var All = []Rating{A, B, C, D, E, F, G}

// Parse converts a letter (case-insensitive) to a Rating.
func Parse(value string) (Rating, error) {
	s := strings.ToUpper(strings.TrimSpace(value))
	if len(s) == 1 && s[0] >= 'A' && s[0] <= 'G' {
		return Rating(s[0]-'A') + A, nil
	}
	return 0, fmt.Errorf("invalid energy rating %q, expected one of A..G", value)
}

// MustParse is Parse for literals known to be valid.
func MustParse(value string) Rating {
	r, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return r
}

// Valid reports whether r is one of A..G.
func (r Rating) Valid() bool {
	return r >= A && r <= G
}

// Rank returns the ordinal rank, 1 for A through 7 for G.
func (r Rating) Rank() int {
	return int(r)
}

// BetterThan reports whether r is a strictly better class than other.
func (r Rating) BetterThan(other Rating) bool {
	return r < other
}

// AtLeast reports whether r is other or better.
func (r Rating) AtLeast(other Rating) bool {
	return r <= other
}

// String returns the class letter.
func (r Rating) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Rating(%d)", int(r))
	}
	return string(rune('A' + int(r-A)))
}

// MarshalText implements encoding.TextMarshaler.
func (r Rating) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid energy rating %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rating) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
