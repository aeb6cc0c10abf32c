// Package highlight computes highlight intents for items priced under a rule limit.
package highlight

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultFloor is the minimum opacity applied to items priced at the limit.
const DefaultFloor = 0.30

// Color is a packed ARGB value.
type Color uint32

// RGB returns the color without its alpha channel.
func (c Color) RGB() Color {
	return c & 0x00FFFFFF
}

// Alpha returns the 8-bit alpha channel.
func (c Color) Alpha() uint8 {
	return uint8(c >> 24)
}

// WithAlpha replaces the alpha channel.
func (c Color) WithAlpha(a uint8) Color {
	return c.RGB() | Color(a)<<24
}

// Hex renders the color as #AARRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("#%08X", uint32(c))
}

// ParseColor reads #RRGGBB (opaque) or #AARRGGBB.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v |= 0xFF000000
	}
	return Color(v), nil
}

// Palette holds the base colors for single items and stacks.
type Palette struct {
	Single Color
	Stack  Color
}

// Intent is what the renderer should draw over an item.
type Intent struct {
	Color   Color
	Opacity float64
	Ratio   float64
}

// Calculator converts a unit price and a rule limit into a highlight intent.
type Calculator struct {
	Floor float64
}

// NewCalculator clamps floor into [0, 1].
func NewCalculator(floor float64) Calculator {
	return Calculator{Floor: math.Min(math.Max(floor, 0), 1)}
}

// Compute returns false when the item should not be highlighted: the price exceeds the
// limit or the limit is not positive. Cheaper items get a more opaque highlight.
func (c Calculator) Compute(finalPrice, maxPrice float64, isStack bool, p Palette) (Intent, bool) {
	if maxPrice <= 0 || finalPrice > maxPrice {
		return Intent{}, false
	}
	ratio := math.Min(finalPrice/maxPrice, 1.0)
	if ratio < 0 {
		ratio = 0
	}
	opacity := math.Max(1.0-0.75*ratio, c.Floor)
	base := p.Single
	if isStack {
		base = p.Stack
	}
	return Intent{
		Color:   base.WithAlpha(uint8(opacity * 255)),
		Opacity: opacity,
		Ratio:   ratio,
	}, true
}
