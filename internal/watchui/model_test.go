package watchui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tradescan/internal/clock"
	"github.com/verte-zerg/tradescan/internal/engine"
	"github.com/verte-zerg/tradescan/internal/hostfeed"
	"github.com/verte-zerg/tradescan/internal/model"
	"github.com/verte-zerg/tradescan/internal/rules"
)

func newTestModel(t *testing.T, loop bool) *Model {
	t.Helper()
	store := rules.NewStore()
	store.Add(rules.NewProfile("default", rules.Settings{LorePattern: `Cena: (\S+)`}))
	eng := engine.New(store,
		engine.WithScheduler(clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))),
		engine.WithDefaultProfile("default"),
	)
	if _, _, err := eng.AddRule("diamond_sword", "1k"); err != nil {
		t.Fatalf("add rule: %v", err)
	}
	frames := []hostfeed.Frame{
		{Number: 1, Events: []model.ScanEvent{
			{Slot: 4, DisplayName: "Sharp Sword", Material: "minecraft:diamond_sword", Lore: []string{"Cena: 500"}, StackSize: 1},
			{Slot: 5, DisplayName: "Dull Sword", Material: "minecraft:diamond_sword", Lore: []string{"Cena: 5k"}, StackSize: 1},
		}},
		{Number: 2},
	}
	m := NewModel(eng, frames, Options{Loop: loop})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return m
}

func TestTickReplaysFrames(t *testing.T) {
	m := newTestModel(t, false)
	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatalf("expected the next tick to be scheduled")
	}
	if got := m.Result().Matched; got != 1 {
		t.Fatalf("expected 1 match, got %d", got)
	}
	view := m.View()
	if !strings.Contains(view, "Sharp Sword") || strings.Contains(view, "Dull Sword") {
		t.Fatalf("unexpected highlight table:\n%s", view)
	}

	m.Update(tickMsg(time.Now()))
	m.Update(tickMsg(time.Now()))
	if m.next != 2 {
		t.Fatalf("expected replay to stop at the end, next=%d", m.next)
	}
}

func TestLoopRestartsFeed(t *testing.T) {
	m := newTestModel(t, true)
	for i := 0; i < 3; i++ {
		m.Update(tickMsg(time.Now()))
	}
	if m.next != 1 || m.Result().Matched != 1 {
		t.Fatalf("expected the first frame again, next=%d matched=%d", m.next, m.Result().Matched)
	}
}

func TestPauseAndSessionKeys(t *testing.T) {
	m := newTestModel(t, false)
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m.Update(tickMsg(time.Now()))
	if m.next != 0 {
		t.Fatalf("expected no progress while paused")
	}
	if !strings.Contains(m.View(), "paused") {
		t.Fatalf("expected paused state in header")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if !m.engine.SessionActive() {
		t.Fatalf("expected session to start")
	}
	if !strings.Contains(m.status, "started") {
		t.Fatalf("unexpected status %q", m.status)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if m.engine.SessionActive() {
		t.Fatalf("expected session to stop")
	}

	m.Update(SessionEndedMsg{Record: model.SessionRecord{ID: "0123456789", Reason: engine.ReasonStopped}})
	if !strings.Contains(m.status, "01234567") || !strings.Contains(m.status, "stopped") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t, false)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestStatsTab(t *testing.T) {
	m := newTestModel(t, false)
	if _, _, err := m.engine.AddSearchTerm("diamond_sword"); err != nil {
		t.Fatalf("add term: %v", err)
	}
	m.engine.StartSession()
	m.Update(tickMsg(time.Now()))
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	view := m.View()
	if !strings.Contains(view, "minecraft:diamond_sword") {
		t.Fatalf("expected term row in stats view:\n%s", view)
	}
}
