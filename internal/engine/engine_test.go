package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tradescan/internal/alarm"
	"github.com/verte-zerg/tradescan/internal/clock"
	"github.com/verte-zerg/tradescan/internal/extract"
	"github.com/verte-zerg/tradescan/internal/model"
	"github.com/verte-zerg/tradescan/internal/price"
	"github.com/verte-zerg/tradescan/internal/rules"
)

type harness struct {
	engine *Engine
	fake   *clock.Fake
	mu     sync.Mutex
	played []string
	ended  []model.SessionRecord
}

func (h *harness) Play(sound string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.played = append(h.played, sound)
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	store := rules.NewStore()
	store.Add(rules.NewProfile("box", rules.Settings{
		Domains:     []string{"minestar.pl"},
		LorePattern: `Cena: ([\d.,]+(?:mld|[km])?)`,
		Color:       "#80FF00",
		StackColor:  "#FF8000",
		Sound:       "click",
		BulkSound:   "levelup",
	}))
	store.Add(rules.NewProfile("other", rules.Settings{Sound: "ping"}))

	h := &harness{fake: clock.NewFake(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC))}
	base := []Option{
		WithScheduler(h.fake),
		WithPlayer(h),
		WithDefaultProfile("box"),
		WithSessionDuration(time.Minute),
		WithSessionEndHook(func(rec model.SessionRecord) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.ended = append(h.ended, rec)
		}),
	}
	h.engine = New(store, append(base, opts...)...)
	return h
}

func sword(slot int, lorePrice string, stack int) model.ScanEvent {
	return model.ScanEvent{
		Slot:        slot,
		DisplayName: "Legendary Netherite Sword",
		Lore:        []string{"Sprzedawca: Steve", "Cena: " + lorePrice},
		Material:    "minecraft:netherite_sword",
		StackSize:   stack,
	}
}

func TestNewActivatesDefaultProfile(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "box", h.engine.ActiveProfile())
	assert.Equal(t, []string{"box", "other"}, h.engine.Profiles())
}

func TestProcessPassHighlightsFirstMatch(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.engine.AddRule("netherite sword", "1k")
	require.NoError(t, err)
	_, _, err = h.engine.AddRule("netherite_sword", "10k")
	require.NoError(t, err)

	res := h.engine.ProcessPass([]model.ScanEvent{
		sword(0, "500", 1),
		sword(1, "5k", 1),
		sword(2, "2k", 4),
		{Slot: 3, DisplayName: "Dirt", Lore: []string{"Cena: 1"}, Material: "minecraft:dirt", StackSize: 1},
		{Slot: 4, DisplayName: "Sword", Lore: []string{"no price"}, Material: "minecraft:netherite_sword"},
	})

	require.Len(t, res.Highlights, 2)
	assert.Equal(t, 0, res.Highlights[0].Slot)
	assert.Equal(t, 1000.0, res.Highlights[0].MaxPrice)
	assert.InDelta(t, 0.625, res.Highlights[0].Opacity, 1e-9)
	assert.Equal(t, 2, res.Highlights[1].Slot)
	assert.Equal(t, 500.0, res.Highlights[1].UnitPrice)
	assert.Equal(t, uint32(0xFF8000), uint32(res.Highlights[1].Color.RGB()), "stacks use the stack color")
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Alarm, 2)
	assert.Equal(t, alarm.LeadDelay, res.Alarm[0].Delay)
}

func TestProcessPassAlarmOnlyOnChange(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.engine.AddRule("netherite sword", "1k")
	require.NoError(t, err)
	pass := []model.ScanEvent{sword(0, "10", 1), sword(1, "20", 1)}

	res := h.engine.ProcessPass(pass)
	assert.Len(t, res.Alarm, 2)
	res = h.engine.ProcessPass(pass)
	assert.Nil(t, res.Alarm, "same count on the next frame stays quiet")

	h.fake.Advance(time.Second)
	assert.Equal(t, []string{"click", "click"}, h.played)
	assert.Zero(t, h.engine.PendingAlarms())
}

func TestProcessPassBulkAlarm(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.engine.AddRule("netherite sword", "1k")
	require.NoError(t, err)
	var pass []model.ScanEvent
	for i := 0; i < 12; i++ {
		pass = append(pass, sword(i, "10", 1))
	}
	res := h.engine.ProcessPass(pass)
	require.Len(t, res.Alarm, 1)
	assert.Equal(t, "levelup", res.Alarm[0].Sound)
}

func TestProcessPassSoundsDisabled(t *testing.T) {
	h := newHarness(t, WithSoundsEnabled(false))
	_, _, err := h.engine.AddRule("netherite sword", "1k")
	require.NoError(t, err)
	res := h.engine.ProcessPass([]model.ScanEvent{sword(0, "10", 1)})
	assert.Equal(t, 1, res.Matched)
	assert.Nil(t, res.Alarm)
}

func TestProcessPassScanningDisabled(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.engine.AddRule("netherite sword", "1k")
	require.NoError(t, err)
	h.engine.SetScanning(false)
	res := h.engine.ProcessPass([]model.ScanEvent{sword(0, "10", 1)})
	assert.Empty(t, res.Highlights)
	assert.False(t, h.engine.Scanning())
}

func TestProcessPassRejectsNegativePrice(t *testing.T) {
	h := newHarness(t, WithExtractor(extract.Func(func([]string) (string, bool) { return "-5", true })))
	_, _, err := h.engine.AddRule("netherite sword", "1k")
	require.NoError(t, err)
	res := h.engine.ProcessPass([]model.ScanEvent{sword(0, "ignored", 1)})
	assert.Zero(t, res.Matched)
	assert.Equal(t, 1, res.Skipped)
}

func TestProcessPassRawPriceWins(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.engine.AddRule("netherite sword", "100")
	require.NoError(t, err)
	ev := sword(0, "5k", 1)
	ev.RawPrice = "50"
	res := h.engine.ProcessPass([]model.ScanEvent{ev})
	assert.Equal(t, 1, res.Matched)
}

func TestAddRuleBadPriceDoesNotMutate(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.engine.AddRule("sword", "cheap")
	assert.ErrorIs(t, err, price.ErrInvalid)
	assert.Empty(t, h.engine.Rules())

	r, replaced, err := h.engine.AddRule("Sword", "2k")
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Equal(t, 2000.0, r.MaxPrice)
	_, replaced, err = h.engine.AddRule("sword", "3k")
	require.NoError(t, err)
	assert.True(t, replaced)
	require.Len(t, h.engine.Rules(), 1)

	removed, err := h.engine.RemoveRule("SWORD")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, h.engine.Rules())
}

func TestSessionCountsEachItemOnce(t *testing.T) {
	h := newHarness(t)
	_, added, err := h.engine.AddSearchTerm("netherite_sword")
	require.NoError(t, err)
	assert.True(t, added)
	_, added, err = h.engine.AddSearchTerm("NETHERITE_SWORD")
	require.NoError(t, err)
	assert.False(t, added)

	pass := []model.ScanEvent{sword(0, "30", 3), sword(1, "20", 1)}
	res := h.engine.ProcessPass(pass)
	assert.Zero(t, res.Counted, "no session yet")

	h.engine.StartSession()
	for i := 0; i < 5; i++ {
		h.engine.ProcessPass(pass)
	}

	s := h.engine.Stats("netherite_sword")
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 50.0, s.Sum)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 20.0, s.Max)
	assert.Equal(t, 12.5, s.Average)
	assert.Equal(t, 10.0, s.Median)

	assert.Zero(t, h.engine.Stats("diamond").Count)
}

func TestSessionDeadlineFreezesStats(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.engine.AddSearchTerm("netherite_sword")
	require.NoError(t, err)
	id := h.engine.StartSession()
	h.engine.ProcessPass([]model.ScanEvent{sword(0, "10", 1)})
	assert.Equal(t, time.Minute, h.engine.SessionRemaining())

	h.fake.Advance(time.Minute)
	assert.False(t, h.engine.SessionActive())
	require.Len(t, h.ended, 1)
	assert.Equal(t, id, h.ended[0].ID)
	assert.Equal(t, ReasonDeadline, h.ended[0].Reason)
	assert.Equal(t, "box", h.ended[0].Profile)
	require.Len(t, h.ended[0].Terms, 1)
	assert.Equal(t, 1, h.ended[0].Terms[0].Count)
	assert.Equal(t, time.Minute, h.ended[0].EndedAt.Sub(h.ended[0].StartedAt))

	h.engine.ProcessPass([]model.ScanEvent{sword(5, "99", 1)})
	assert.Equal(t, 1, h.engine.Stats("netherite_sword").Count, "frozen after the deadline")

	h.engine.StartSession()
	assert.Zero(t, h.engine.Stats("netherite_sword").Count, "restart clears stats")
	h.engine.ProcessPass([]model.ScanEvent{sword(0, "10", 1)})
	assert.Equal(t, 1, h.engine.Stats("netherite_sword").Count, "restart clears dedup")
}

func TestStopSessionIdempotent(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.engine.StopSession())
	h.engine.StartSession()
	h.engine.StartSession()
	require.Len(t, h.ended, 1)
	assert.Equal(t, ReasonRestarted, h.ended[0].Reason)

	assert.True(t, h.engine.StopSession())
	assert.False(t, h.engine.StopSession())
	h.fake.Advance(time.Hour)
	assert.Len(t, h.ended, 2, "a stopped session never reaches its deadline")
	assert.Equal(t, ReasonStopped, h.ended[1].Reason)
	assert.Zero(t, h.fake.Pending())
}

func TestSetActiveProfile(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.engine.AddRule("netherite sword", "1k")
	require.NoError(t, err)

	err = h.engine.SetActiveProfile("missing")
	assert.ErrorIs(t, err, rules.ErrUnknownProfile)
	assert.Equal(t, "box", h.engine.ActiveProfile())

	h.engine.StartSession()
	require.NoError(t, h.engine.SetActiveProfile("other"))
	assert.False(t, h.engine.SessionActive())
	require.Len(t, h.ended, 1)
	assert.Equal(t, ReasonProfileSwitch, h.ended[0].Reason)
	assert.Empty(t, h.engine.Rules(), "rules belong to their profile")

	res := h.engine.ProcessPass([]model.ScanEvent{sword(0, "10", 1)})
	assert.Zero(t, res.Matched)
}

func TestUseServer(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.SetActiveProfile("other"))
	name, err := h.engine.UseServer("play.minestar.pl")
	require.NoError(t, err)
	assert.Equal(t, "box", name)

	require.NoError(t, h.engine.SetActiveProfile("other"))
	name, err = h.engine.UseServer("unknown.net")
	require.NoError(t, err)
	assert.Equal(t, "box", name, "falls back to the default profile")
}

func TestSearchTermRemoval(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.engine.AddSearchTerm("a b")
	require.NoError(t, err)
	_, _, err = h.engine.AddSearchTerm("c d")
	require.NoError(t, err)
	_, _, err = h.engine.AddSearchTerm("   ")
	assert.ErrorIs(t, err, rules.ErrEmptyKey)

	assert.True(t, h.engine.RemoveSearchTerm("A B"))
	assert.False(t, h.engine.RemoveSearchTerm("a b"))
	terms := h.engine.SearchTerms()
	require.Len(t, terms, 1)
	assert.Equal(t, "c d", terms[0].Name)
	assert.Len(t, h.engine.AllStats(), 1)
}

func TestCloseEndsSession(t *testing.T) {
	h := newHarness(t)
	h.engine.StartSession()
	h.engine.Close()
	require.Len(t, h.ended, 1)
	assert.Equal(t, ReasonClosed, h.ended[0].Reason)
	assert.Zero(t, h.fake.Pending())
}
