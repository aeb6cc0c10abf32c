// Package alarm decides when matched-item counts should raise an audible alert and
// schedules the resulting bursts.
package alarm

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/tradescan/internal/clock"
)

const (
	// LeadDelay precedes the first sound of a burst.
	LeadDelay = 300 * time.Millisecond
	// Spacing separates repeated sounds within a burst.
	Spacing = 150 * time.Millisecond
	// BulkThreshold is the largest count announced with one sound per item.
	BulkThreshold = 9
)

// Sounds names the two alert variants.
type Sounds struct {
	Single string
	Bulk   string
}

// Request asks the audio sink to play Sound after Delay.
type Request struct {
	Delay time.Duration
	Sound string
}

// Decide returns the playback requests for a change in matched count between two passes.
// No requests are produced when the count is unchanged, zero, or the chosen sound is unset.
func Decide(current, previous int, sounds Sounds) []Request {
	if current == previous || current <= 0 {
		return nil
	}
	if current > BulkThreshold {
		if sounds.Bulk == "" {
			return nil
		}
		return []Request{{Delay: LeadDelay, Sound: sounds.Bulk}}
	}
	if sounds.Single == "" {
		return nil
	}
	reqs := make([]Request, current)
	for i := range reqs {
		reqs[i] = Request{Delay: LeadDelay + time.Duration(i)*Spacing, Sound: sounds.Single}
	}
	return reqs
}

// Player performs actual playback.
type Player interface {
	Play(sound string)
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(sound string)

// Play calls f.
func (f PlayerFunc) Play(sound string) {
	f(sound)
}

// Dispatcher schedules request bursts. A new burst cancels whatever remains of the previous one.
type Dispatcher struct {
	mu     sync.Mutex
	sched  clock.Scheduler
	player Player
	log    zerolog.Logger
	gen    uint64
	timers map[int]clock.Timer
	nextID int
}

// NewDispatcher creates a dispatcher playing through player.
func NewDispatcher(sched clock.Scheduler, player Player, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sched:  sched,
		player: player,
		log:    log,
		timers: map[int]clock.Timer{},
	}
}

// Dispatch replaces any in-flight burst with reqs. An empty list leaves the current burst alone.
func (d *Dispatcher) Dispatch(reqs []Request) {
	if len(reqs) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := d.cancelLocked(); n > 0 {
		d.log.Debug().Int("cancelled", n).Msg("alarm burst superseded")
	}
	gen := d.gen
	for _, r := range reqs {
		id := d.nextID
		d.nextID++
		sound := r.Sound
		d.timers[id] = d.sched.AfterFunc(r.Delay, func() {
			d.fire(gen, id, sound)
		})
	}
}

// Cancel stops every pending request and returns how many were stopped. Safe to call repeatedly.
func (d *Dispatcher) Cancel() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// Pending returns the number of requests that have not played yet.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

func (d *Dispatcher) cancelLocked() int {
	n := 0
	for id, t := range d.timers {
		if t.Stop() {
			n++
		}
		delete(d.timers, id)
	}
	d.gen++
	return n
}

func (d *Dispatcher) fire(gen uint64, id int, sound string) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	delete(d.timers, id)
	d.mu.Unlock()
	d.player.Play(sound)
}
