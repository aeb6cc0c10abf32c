package alarm

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tradescan/internal/clock"
)

var sounds = Sounds{Single: "ui.button.click", Bulk: "entity.player.levelup"}

func TestDecideSingleBurst(t *testing.T) {
	reqs := Decide(5, 0, sounds)
	require.Len(t, reqs, 5)
	want := []time.Duration{300, 450, 600, 750, 900}
	for i, r := range reqs {
		assert.Equal(t, want[i]*time.Millisecond, r.Delay)
		assert.Equal(t, sounds.Single, r.Sound)
	}
}

func TestDecideBulk(t *testing.T) {
	reqs := Decide(12, 0, sounds)
	assert.Equal(t, []Request{{Delay: 300 * time.Millisecond, Sound: sounds.Bulk}}, reqs)

	reqs = Decide(BulkThreshold, 0, sounds)
	assert.Len(t, reqs, BulkThreshold)
}

func TestDecideNoTrigger(t *testing.T) {
	assert.Nil(t, Decide(3, 3, sounds))
	assert.Nil(t, Decide(0, 4, sounds))
	assert.Nil(t, Decide(2, 0, Sounds{Bulk: "x"}))
	assert.Nil(t, Decide(20, 0, Sounds{Single: "x"}))
	assert.Len(t, Decide(2, 5, sounds), 2, "a decrease still triggers")
}

type recorder struct {
	mu     sync.Mutex
	played []string
}

func (r *recorder) Play(sound string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.played = append(r.played, sound)
}

func TestDispatcherPlaysOnSchedule(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	rec := &recorder{}
	d := NewDispatcher(fake, rec, zerolog.Nop())

	d.Dispatch(Decide(3, 0, sounds))
	assert.Equal(t, 3, d.Pending())

	fake.Advance(299 * time.Millisecond)
	assert.Empty(t, rec.played)
	fake.Advance(time.Millisecond)
	assert.Len(t, rec.played, 1)
	fake.Advance(300 * time.Millisecond)
	assert.Len(t, rec.played, 3)
	assert.Zero(t, d.Pending(), "fired requests do not linger")
	assert.Zero(t, fake.Pending())
}

func TestDispatcherSupersedes(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	rec := &recorder{}
	d := NewDispatcher(fake, rec, zerolog.Nop())

	d.Dispatch(Decide(5, 0, sounds))
	fake.Advance(460 * time.Millisecond)
	require.Len(t, rec.played, 2)

	d.Dispatch(Decide(12, 5, sounds))
	assert.Equal(t, 1, d.Pending())
	assert.Equal(t, 1, fake.Pending())

	fake.Advance(time.Second)
	assert.Equal(t, []string{sounds.Single, sounds.Single, sounds.Bulk}, rec.played)
}

func TestDispatcherEmptyKeepsBurst(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	rec := &recorder{}
	d := NewDispatcher(fake, rec, zerolog.Nop())

	d.Dispatch(Decide(2, 0, sounds))
	d.Dispatch(Decide(2, 2, sounds))
	fake.Advance(time.Second)
	assert.Len(t, rec.played, 2)
}

func TestDispatcherCancelIdempotent(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	rec := &recorder{}
	d := NewDispatcher(fake, rec, zerolog.Nop())

	d.Dispatch(Decide(4, 0, sounds))
	assert.Equal(t, 4, d.Cancel())
	assert.Zero(t, d.Cancel())
	fake.Advance(time.Second)
	assert.Empty(t, rec.played)
	assert.Zero(t, fake.Pending())
}
