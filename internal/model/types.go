// Package model defines shared data structures.
package model

import "time"

// Item holds the observed attributes used for matching.
type Item struct {
	Name     string
	Lore     []string
	Material string
	Enchants string
}

// ScanEvent describes one item seen during one scan pass.
type ScanEvent struct {
	Slot        int
	DisplayName string
	Lore        []string
	Material    string
	Enchants    string
	StackSize   int
	// RawPrice is the already extracted price text. Empty means extract from Lore.
	RawPrice string
}

// Item returns the matching view of the event.
func (e ScanEvent) Item() Item {
	return Item{
		Name:     e.DisplayName,
		Lore:     e.Lore,
		Material: e.Material,
		Enchants: e.Enchants,
	}
}

// Summary is a frozen view of running price statistics.
type Summary struct {
	Count     int
	Sum       float64
	Min       float64
	Max       float64
	Average   float64
	Median    float64
	Quartile1 float64
	Quartile3 float64
}

// TermSummary pairs a search term with its statistics.
type TermSummary struct {
	Term string
	Summary
}

// SessionRecord captures a finished stats session.
type SessionRecord struct {
	ID        string
	Profile   string
	StartedAt time.Time
	EndedAt   time.Time
	Reason    string
	Terms     []TermSummary
}

// HistoryFilter defines filters for stored session listing.
type HistoryFilter struct {
	Profile string
	Since   *time.Time
	Last    int
}

// SessionAggregate summarizes a stored session for reporting.
type SessionAggregate struct {
	ID        string
	Profile   string
	StartedAt time.Time
	EndedAt   time.Time
	Reason    string
	Terms     int
	Samples   int
}

// TermHistoryEntry is one session's statistics for a single term.
type TermHistoryEntry struct {
	SessionID string
	EndedAt   time.Time
	Summary
}
