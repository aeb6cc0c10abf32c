// Package price parses and formats prices written with k/m/mld magnitude suffixes.
package price

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalid is returned when a price string has a non-numeric remainder.
var ErrInvalid = errors.New("invalid price")

type suffix struct {
	text       string
	multiplier float64
}

// Longest suffix first so "mld" is not read as "m".
var suffixes = []suffix{
	{text: "mld", multiplier: 1e9},
	{text: "m", multiplier: 1e6},
	{text: "k", multiplier: 1e3},
}

var number = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)

// Parse converts strings such as "100", "1.5k", "1,5k", "2m" or "1mld" into a value.
// Zero and negative values are accepted.
func Parse(raw string) (float64, error) {
	s := strings.Join(strings.Fields(raw), "")
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalid)
	}
	multiplier := 1.0
	lower := strings.ToLower(s)
	for _, sfx := range suffixes {
		if strings.HasSuffix(lower, sfx.text) {
			multiplier = sfx.multiplier
			s = s[:len(s)-len(sfx.text)]
			break
		}
	}
	s = normalizeCommas(s)
	if !number.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	return v * multiplier, nil
}

// normalizeCommas treats a comma followed by one or two trailing digits as the decimal
// separator when no dot is present. Every other comma is a grouping separator.
func normalizeCommas(s string) string {
	last := strings.LastIndex(s, ",")
	if last < 0 {
		return s
	}
	if !strings.Contains(s, ".") {
		if tail := len(s) - last - 1; tail >= 1 && tail <= 2 {
			s = s[:last] + "." + s[last+1:]
		}
	}
	return strings.ReplaceAll(s, ",", "")
}

// Format renders a value with the largest suffix its magnitude reaches and at most two
// fraction digits. Format(Parse(x)) is not guaranteed to reproduce x.
func Format(v float64) string {
	abs := math.Abs(v)
	unit := ""
	for _, sfx := range suffixes {
		if abs >= sfx.multiplier {
			v /= sfx.multiplier
			unit = sfx.text
			break
		}
	}
	out := strconv.FormatFloat(v, 'f', 2, 64)
	out = strings.TrimRight(out, "0")
	out = strings.TrimSuffix(out, ".")
	if out == "-0" {
		out = "0"
	}
	return out + unit
}
