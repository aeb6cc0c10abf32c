// Package session tracks timed stats sessions and per-session scan deduplication.
package session

import (
	"strconv"
	"strings"
)

// Fingerprint identifies one physical item instance across repeated scans.
type Fingerprint struct {
	Slot      int
	Name      string
	Price     float64
	StackSize int
}

// String joins the fields as slot|name|price|stack.
func (f Fingerprint) String() string {
	return strings.Join([]string{
		strconv.Itoa(f.Slot),
		f.Name,
		strconv.FormatFloat(f.Price, 'g', -1, 64),
		strconv.Itoa(f.StackSize),
	}, "|")
}

// Deduplicator remembers which fingerprints were already counted.
type Deduplicator struct {
	seen map[string]struct{}
}

// NewDeduplicator returns an empty deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: map[string]struct{}{}}
}

// ShouldCount reports whether fp is new and marks it as seen.
func (d *Deduplicator) ShouldCount(fp Fingerprint) bool {
	key := fp.String()
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Len returns the number of remembered fingerprints.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}

// Reset forgets every fingerprint.
func (d *Deduplicator) Reset() {
	d.seen = map[string]struct{}{}
}
