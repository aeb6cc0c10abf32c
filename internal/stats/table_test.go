package stats

import "testing"

func TestTableRightAlignsNumericColumns(t *testing.T) {
	tbl := newTable(text("Term"), numeric("Count"), numeric("Median"))
	tbl.add("diamond", "12", "1.5k")
	tbl.add("netherite sword", "3", "250k")

	lines := tbl.lines()
	want := []string{
		"Term             Count  Median",
		"diamond             12    1.5k",
		"netherite sword      3    250k",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestTableWideRunes(t *testing.T) {
	tbl := newTable(text("Item"), numeric("N"))
	tbl.add("剣", "1")
	tbl.add("ab", "2")

	lines := tbl.lines()
	if lines[1] != "剣    1" {
		t.Fatalf("unexpected wide row: %q", lines[1])
	}
	if lines[2] != "ab    2" {
		t.Fatalf("unexpected narrow row: %q", lines[2])
	}
}

func TestTableTrimsTrailingPadding(t *testing.T) {
	tbl := newTable(numeric("N"), text("Name"))
	tbl.add("1", "a")
	tbl.add("10")

	lines := tbl.lines()
	if lines[0] != " N  Name" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != " 1  a" {
		t.Fatalf("unexpected row: %q", lines[1])
	}
	if lines[2] != "10" {
		t.Fatalf("missing cell should render blank: %q", lines[2])
	}
}

func TestTableWithoutColumns(t *testing.T) {
	if lines := newTable().lines(); lines != nil {
		t.Fatalf("expected no lines, got %q", lines)
	}
}
