package stats

import (
	"slices"
	"sort"

	"github.com/verte-zerg/tradescan/internal/model"
)

// Running accumulates exact price statistics. Each unit of quantity is one sample.
type Running struct {
	count   int
	sum     float64
	min     float64
	max     float64
	samples []float64
}

// Update records quantity units sold at unitPrice. Non-positive quantities are ignored.
func (r *Running) Update(unitPrice float64, quantity int) {
	if quantity <= 0 {
		return
	}
	if r.count == 0 || unitPrice < r.min {
		r.min = unitPrice
	}
	if r.count == 0 || unitPrice > r.max {
		r.max = unitPrice
	}
	r.count += quantity
	r.sum += unitPrice * float64(quantity)
	// Insert after equal values so samples stay sorted.
	at := sort.Search(len(r.samples), func(i int) bool { return r.samples[i] > unitPrice })
	r.samples = slices.Insert(r.samples, at, slices.Repeat([]float64{unitPrice}, quantity)...)
}

// Reset clears all samples.
func (r *Running) Reset() {
	*r = Running{}
}

// Count returns the number of units.
func (r *Running) Count() int {
	return r.count
}

// Sum returns the total value of all units.
func (r *Running) Sum() float64 {
	return r.sum
}

// Min returns the lowest unit price, or 0 when empty.
func (r *Running) Min() float64 {
	return r.min
}

// Max returns the highest unit price, or 0 when empty.
func (r *Running) Max() float64 {
	return r.max
}

// Average returns sum/count, or 0 when empty.
func (r *Running) Average() float64 {
	if r.count == 0 {
		return 0
	}
	return r.sum / float64(r.count)
}

// Median returns the middle sample, averaging the two central samples for even counts.
func (r *Running) Median() float64 {
	return median(r.samples)
}

// Quartile1 is the median of the lower half. The middle sample of an odd count is excluded.
func (r *Running) Quartile1() float64 {
	return median(r.samples[:len(r.samples)/2])
}

// Quartile3 is the median of the upper half. The middle sample of an odd count is excluded.
func (r *Running) Quartile3() float64 {
	n := len(r.samples)
	if n%2 == 0 {
		return median(r.samples[n/2:])
	}
	return median(r.samples[n/2+1:])
}

// Summary freezes the current values.
func (r *Running) Summary() model.Summary {
	return model.Summary{
		Count:     r.count,
		Sum:       r.sum,
		Min:       r.min,
		Max:       r.max,
		Average:   r.Average(),
		Median:    r.Median(),
		Quartile1: r.Quartile1(),
		Quartile3: r.Quartile3(),
	}
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
