package stats

import (
	"context"

	"github.com/verte-zerg/tradescan/internal/model"
	"github.com/verte-zerg/tradescan/internal/store"
)

// Report contains precomputed data for history rendering.
type Report struct {
	Sessions    []model.SessionAggregate
	Term        string
	TermHistory []model.TermHistoryEntry
	Latest      []model.TermSummary
}

// BuildReport loads stored sessions and, when term is set, that term's history.
// Latest holds the term statistics of the most recent listed session.
func BuildReport(ctx context.Context, st *store.Store, filter model.HistoryFilter, term string) (Report, error) {
	sessions, err := st.ListSessions(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	report := Report{Sessions: sessions, Term: term}
	if term != "" {
		report.TermHistory, err = st.ListTermHistory(ctx, term, filter.Last)
		if err != nil {
			return Report{}, err
		}
	}
	if len(sessions) > 0 {
		report.Latest, err = st.SessionTerms(ctx, sessions[len(sessions)-1].ID)
		if err != nil {
			return Report{}, err
		}
	}
	return report, nil
}
