// Package extract pulls raw price text out of item lore lines.
package extract

import (
	"fmt"
	"regexp"
)

// PriceLineExtractor finds the raw price substring in an item's lore.
type PriceLineExtractor interface {
	Extract(lore []string) (string, bool)
}

// Func adapts a function to PriceLineExtractor.
type Func func(lore []string) (string, bool)

// Extract calls f.
func (f Func) Extract(lore []string) (string, bool) {
	return f(lore)
}

// RegexExtractor applies a pattern to every lore line. When several lines match, the last one wins.
// The first capture group is the price; patterns without groups yield the whole match.
type RegexExtractor struct {
	re *regexp.Regexp
}

// NewRegex compiles pattern.
func NewRegex(pattern string) (*RegexExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile lore pattern: %w", err)
	}
	return &RegexExtractor{re: re}, nil
}

// Pattern returns the source pattern.
func (r *RegexExtractor) Pattern() string {
	return r.re.String()
}

// Extract implements PriceLineExtractor.
func (r *RegexExtractor) Extract(lore []string) (string, bool) {
	var found string
	ok := false
	for _, line := range lore {
		m := r.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if len(m) > 1 {
			found = m[1]
		} else {
			found = m[0]
		}
		ok = true
	}
	return found, ok
}
