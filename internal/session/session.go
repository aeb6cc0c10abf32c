package session

import (
	"time"

	"github.com/verte-zerg/tradescan/internal/clock"
)

// DefaultDuration is the length of a stats session.
const DefaultDuration = 5 * time.Minute

// Session is one timed stats window. It is not safe for concurrent use; the owner serializes
// calls, including the Expire call made from the deadline callback.
type Session struct {
	sched     clock.Scheduler
	dedup     *Deduplicator
	active    bool
	gen       uint64
	startedAt time.Time
	deadline  time.Time
	timer     clock.Timer
}

// New returns an inactive session.
func New(sched clock.Scheduler) *Session {
	return &Session{sched: sched, dedup: NewDeduplicator()}
}

// Start begins a new session lasting d, cancelling any previous deadline and clearing
// the dedup set. onExpire receives the generation returned here when the deadline passes;
// the owner should pass it back to Expire.
func (s *Session) Start(d time.Duration, onExpire func(gen uint64)) uint64 {
	s.stopTimer()
	s.dedup.Reset()
	s.gen++
	gen := s.gen
	s.active = true
	s.startedAt = s.sched.Now()
	s.deadline = s.startedAt.Add(d)
	s.timer = s.sched.AfterFunc(d, func() { onExpire(gen) })
	return gen
}

// Stop ends the session early and reports whether it was active. Repeated calls are no-ops.
func (s *Session) Stop() bool {
	s.stopTimer()
	if !s.active {
		return false
	}
	s.active = false
	return true
}

// Expire ends the session for a fired deadline. Deadlines from earlier generations are ignored.
func (s *Session) Expire(gen uint64) bool {
	if !s.active || gen != s.gen {
		return false
	}
	s.timer = nil
	s.active = false
	s.dedup.Reset()
	return true
}

// Active reports whether stats are being collected.
func (s *Session) Active() bool {
	return s.active
}

// StartedAt returns the start of the current or last session.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Deadline returns the scheduled end of the current or last session.
func (s *Session) Deadline() time.Time {
	return s.deadline
}

// Remaining returns the time left, or zero when inactive.
func (s *Session) Remaining() time.Duration {
	if !s.active {
		return 0
	}
	left := s.deadline.Sub(s.sched.Now())
	if left < 0 {
		return 0
	}
	return left
}

// ShouldCount consults the dedup set. Inactive sessions count nothing.
func (s *Session) ShouldCount(fp Fingerprint) bool {
	if !s.active {
		return false
	}
	return s.dedup.ShouldCount(fp)
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
