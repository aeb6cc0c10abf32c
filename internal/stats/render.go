// Package stats contains running price statistics and their text rendering.
package stats

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/verte-zerg/tradescan/internal/model"
	"github.com/verte-zerg/tradescan/internal/price"
)

func summaryTable(first string) *table {
	return newTable(text(first),
		numeric("Count"), numeric("Min"), numeric("Q1"), numeric("Median"),
		numeric("Avg"), numeric("Q3"), numeric("Max"))
}

// RenderTerms prints one row of statistics per search term.
func RenderTerms(w io.Writer, terms []model.TermSummary) error {
	if len(terms) == 0 {
		_, err := fmt.Fprintln(w, "No search terms.")
		return err
	}
	t := summaryTable("Term")
	for _, ts := range terms {
		t.add(append([]string{ts.Term}, summaryCells(ts.Summary)...)...)
	}
	return writeLines(w, t.lines())
}

// RenderSessions prints stored session aggregates.
func RenderSessions(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	t := newTable(text("ID"), text("Profile"), text("Ended"), numeric("Length"),
		text("Reason"), numeric("Terms"), numeric("Samples"))
	for _, s := range sessions {
		t.add(
			shortID(s.ID),
			s.Profile,
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			s.EndedAt.Sub(s.StartedAt).Round(time.Second).String(),
			s.Reason,
			strconv.Itoa(s.Terms),
			strconv.Itoa(s.Samples),
		)
	}
	return writeLines(w, t.lines())
}

// RenderTermHistory prints the per-session statistics of one term.
func RenderTermHistory(w io.Writer, term string, entries []model.TermHistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintf(w, "No history for %s.\n", term)
		return err
	}
	if _, err := fmt.Fprintf(w, "History for %s\n", term); err != nil {
		return err
	}
	t := summaryTable("Ended")
	for _, e := range entries {
		t.add(append([]string{e.EndedAt.Local().Format("2006-01-02 15:04")}, summaryCells(e.Summary)...)...)
	}
	return writeLines(w, t.lines())
}

func summaryCells(s model.Summary) []string {
	return []string{
		strconv.Itoa(s.Count),
		price.Format(s.Min),
		price.Format(s.Quartile1),
		price.Format(s.Median),
		price.Format(s.Average),
		price.Format(s.Quartile3),
		price.Format(s.Max),
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
