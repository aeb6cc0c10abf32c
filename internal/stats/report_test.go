package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tradescan/internal/model"
	"github.com/verte-zerg/tradescan/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "tradescan.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Hour)
		id, err := st.InsertSession(ctx, model.SessionRecord{
			Profile:   "box",
			StartedAt: start,
			EndedAt:   start.Add(5 * time.Minute),
			Reason:    "deadline",
			Terms: []model.TermSummary{
				{Term: "diamond|||", Summary: model.Summary{Count: 2, Median: float64(100 * (i + 1))}},
			},
		})
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
		ids = append(ids, id)
	}

	report, err := BuildReport(ctx, st, model.HistoryFilter{Profile: "box", Last: 2}, "diamond|||")
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(report.Sessions))
	}
	if report.Sessions[0].ID != ids[1] || report.Sessions[1].ID != ids[2] {
		t.Fatalf("unexpected session ids: %+v", report.Sessions)
	}
	if len(report.TermHistory) != 2 || report.TermHistory[1].Median != 300 {
		t.Fatalf("unexpected term history: %+v", report.TermHistory)
	}
	if len(report.Latest) != 1 || report.Latest[0].Median != 300 {
		t.Fatalf("unexpected latest terms: %+v", report.Latest)
	}

	var buf bytes.Buffer
	if err := RenderSessions(&buf, report.Sessions); err != nil {
		t.Fatalf("render sessions: %v", err)
	}
	if !strings.Contains(buf.String(), "deadline") || !strings.Contains(buf.String(), "5m0s") {
		t.Fatalf("unexpected sessions output: %q", buf.String())
	}
}

func TestRenderTerms(t *testing.T) {
	var r Running
	r.Update(1500, 2)
	r.Update(2000, 1)
	var buf bytes.Buffer
	err := RenderTerms(&buf, []model.TermSummary{{Term: "diamond", Summary: r.Summary()}})
	if err != nil {
		t.Fatalf("render terms: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "Term") || !strings.Contains(lines[1], "1.5k") || !strings.Contains(lines[1], "2k") {
		t.Fatalf("unexpected terms output: %q", buf.String())
	}

	buf.Reset()
	if err := RenderTerms(&buf, nil); err != nil {
		t.Fatalf("render empty terms: %v", err)
	}
	if buf.String() != "No search terms.\n" {
		t.Fatalf("unexpected empty output: %q", buf.String())
	}
}

func TestRenderTermHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTermHistory(&buf, "gem", nil); err != nil {
		t.Fatalf("render history: %v", err)
	}
	if buf.String() != "No history for gem.\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
