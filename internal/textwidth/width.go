package textwidth

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StringWidth returns the widest line of s in monospace columns. ANSI color
// sequences take no space; East Asian wide and fullwidth runes take two.
func StringWidth(s string) int {
	if s == "" {
		return 0
	}
	maxWidth := 0
	for _, line := range strings.Split(s, "\n") {
		if w := lineWidth(line); w > maxWidth {
			maxWidth = w
		}
	}
	return maxWidth
}

// PadRight appends ASCII spaces until the rendered width matches target.
func PadRight(s string, target int) string {
	diff := target - StringWidth(s)
	if diff <= 0 {
		return s
	}
	return s + strings.Repeat(" ", diff)
}

func lineWidth(s string) int {
	n := 0
	for _, r := range stripANSI(s) {
		if r >= 0x20 {
			n += runeWidth(r)
		}
	}
	return n
}

// runeWidth treats ambiguous runes such as ● as narrow, matching most
// terminals outside CJK legacy locales.
func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

func stripANSI(s string) string {
	return ansiRegexp.ReplaceAllString(s, "")
}
