package indicators

import (
	"slices"
	"time"
)

// DateLayout is the key format of a Set.
const DateLayout = "2006-01-02"

// Kind is the number of dots drawn under a day.
type Kind int

const (
	None Kind = iota
	One
	Two
)

// Indicator is the dot shown under a day: nothing, one colored dot, or a dot
// split between two colors.
type Indicator struct {
	Colors []string
}

// OneDot returns a single-color indicator.
func OneDot(color string) Indicator {
	return Indicator{Colors: []string{color}}
}

// TwoDots returns a split two-color indicator.
func TwoDots(first, second string) Indicator {
	return Indicator{Colors: []string{first, second}}
}

// Kind reports how the indicator should be drawn.
func (i Indicator) Kind() Kind {
	switch len(i.Colors) {
	case 0:
		return None
	case 1:
		return One
	default:
		return Two
	}
}

// Set maps civil dates to indicators.
type Set map[string]Indicator

// Key formats t as a Set key using t's own location.
func Key(t time.Time) string {
	return t.Format(DateLayout)
}

// Add records color for the day of t. A day keeps at most two distinct colors.
func (s Set) Add(t time.Time, color string) {
	s.addKey(Key(t), color)
}

func (s Set) addKey(key, color string) {
	ind := s[key]
	if len(ind.Colors) >= 2 || slices.Contains(ind.Colors, color) {
		return
	}
	s[key] = Indicator{Colors: append(slices.Clone(ind.Colors), color)}
}

// Lookup returns the indicator for t's day, or a None indicator.
func (s Set) Lookup(t time.Time) Indicator {
	if s == nil {
		return Indicator{}
	}
	return s[Key(t)]
}

// Merge folds other into s color by color.
func (s Set) Merge(other Set) {
	for key, ind := range other {
		for _, color := range ind.Colors {
			s.addKey(key, color)
		}
	}
}
