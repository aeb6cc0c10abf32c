package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/tradescan/internal/alarm"
	"github.com/verte-zerg/tradescan/internal/clock"
	"github.com/verte-zerg/tradescan/internal/extract"
	"github.com/verte-zerg/tradescan/internal/model"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards output.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithScheduler replaces the system clock and timers.
func WithScheduler(s clock.Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithPlayer sets the audio sink for alarm bursts.
func WithPlayer(p alarm.Player) Option {
	return func(e *Engine) { e.player = p }
}

// WithExtractor uses x for every profile instead of each profile's lore pattern.
func WithExtractor(x extract.PriceLineExtractor) Option {
	return func(e *Engine) { e.extractor = x }
}

// WithSessionDuration sets how long a stats session runs before its deadline.
func WithSessionDuration(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.sessionDuration = d
		}
	}
}

// WithOpacityFloor sets the minimum highlight opacity.
func WithOpacityFloor(floor float64) Option {
	return func(e *Engine) { e.floor = floor }
}

// WithSoundsEnabled toggles alarm decisions.
func WithSoundsEnabled(enabled bool) Option {
	return func(e *Engine) { e.soundsEnabled = enabled }
}

// WithDefaultProfile names the profile used when no domain matches.
func WithDefaultProfile(name string) Option {
	return func(e *Engine) { e.defaultProfile = name }
}

// WithSessionEndHook registers fn to receive every finished session. It runs without
// engine locks held and may call back into the engine.
func WithSessionEndHook(fn func(model.SessionRecord)) Option {
	return func(e *Engine) { e.onSessionEnd = fn }
}
