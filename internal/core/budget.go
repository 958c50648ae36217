package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// BudgetParser converts the string budget of a draft into a number. It
// returns NaN when the input is not a number.
type BudgetParser func(s string) float64

// leadingDecimal matches the decimal prefix of a string the way a lenient
// float parser does: optional sign, digits with an optional fraction (or a
// bare fraction), and an optional exponent.
var leadingDecimal = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// ParseBudgetPrefix parses the leading numeric prefix of s after trimming
// leading whitespace, so "12.5 ETH" is 12.5 and "abc" is NaN.
func ParseBudgetPrefix(s string) float64 {
	m := leadingDecimal.FindString(strings.TrimLeft(s, " \t\r\n"))
	if m == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// Out of range.
		return math.NaN()
	}
	return v
}

// ParseBudgetStrict parses the whole trimmed string as a decimal. Anything
// else, including infinities and hex floats, is NaN.
func ParseBudgetStrict(s string) float64 {
	t := strings.TrimSpace(s)
	if !leadingDecimal.MatchString(t) || leadingDecimal.FindString(t) != t {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
