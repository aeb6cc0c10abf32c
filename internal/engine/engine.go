// Package engine ties rule matching, highlighting, alarms and session statistics into
// one value that processes scan passes from the host.
package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/tradescan/internal/alarm"
	"github.com/verte-zerg/tradescan/internal/clock"
	"github.com/verte-zerg/tradescan/internal/extract"
	"github.com/verte-zerg/tradescan/internal/highlight"
	"github.com/verte-zerg/tradescan/internal/itemkey"
	"github.com/verte-zerg/tradescan/internal/model"
	"github.com/verte-zerg/tradescan/internal/price"
	"github.com/verte-zerg/tradescan/internal/rules"
	"github.com/verte-zerg/tradescan/internal/session"
	"github.com/verte-zerg/tradescan/internal/stats"
)

// ErrNoProfile is returned by rule operations when no profile is active.
var ErrNoProfile = errors.New("no active profile")

// Session end reasons.
const (
	ReasonDeadline      = "deadline"
	ReasonStopped       = "stopped"
	ReasonRestarted     = "restarted"
	ReasonProfileSwitch = "profile-switch"
	ReasonClosed        = "closed"
)

// Highlight is the render intent for one matched item.
type Highlight struct {
	Slot      int
	Rule      itemkey.Key
	UnitPrice float64
	MaxPrice  float64
	Color     highlight.Color
	Opacity   float64
}

// PassResult is the outcome of one scan pass.
type PassResult struct {
	Highlights []Highlight
	Matched    int
	Counted    int
	Skipped    int
	Alarm      []alarm.Request
}

// Engine owns profiles, search terms and session state. All methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	rules          *rules.Store
	defaultProfile string
	terms          []itemkey.Key
	stats          map[itemkey.Key]*stats.Running
	session        *session.Session
	sessionID      string
	runtimes       map[string]*profileRuntime

	sched           clock.Scheduler
	player          alarm.Player
	alarms          *alarm.Dispatcher
	extractor       extract.PriceLineExtractor
	calc            highlight.Calculator
	floor           float64
	sessionDuration time.Duration
	soundsEnabled   bool
	scanning        bool
	lastMatched     int
	onSessionEnd    func(model.SessionRecord)
	log             zerolog.Logger
}

// New builds an engine over store. When the store has no active profile the default
// profile is activated if it exists.
func New(store *rules.Store, opts ...Option) *Engine {
	e := &Engine{
		rules:           store,
		defaultProfile:  store.ActiveName(),
		stats:           map[itemkey.Key]*stats.Running{},
		runtimes:        map[string]*profileRuntime{},
		floor:           highlight.DefaultFloor,
		sessionDuration: session.DefaultDuration,
		soundsEnabled:   true,
		scanning:        true,
		log:             zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sched == nil {
		e.sched = clock.NewReal()
	}
	if e.player == nil {
		e.player = alarm.PlayerFunc(func(string) {})
	}
	e.calc = highlight.NewCalculator(e.floor)
	e.session = session.New(e.sched)
	e.alarms = alarm.NewDispatcher(e.sched, e.player, e.log)
	if store.ActiveName() == "" && e.defaultProfile != "" {
		if err := store.SetActive(e.defaultProfile); err != nil {
			e.log.Warn().Err(err).Msg("default profile not found")
		}
	}
	return e
}

// ActiveProfile returns the active profile name.
func (e *Engine) ActiveProfile() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rules.ActiveName()
}

// Profiles lists profile names in registration order.
func (e *Engine) Profiles() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rules.Names()
}

// ProfileSettings returns the settings of a profile.
func (e *Engine) ProfileSettings(name string) (rules.Settings, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.rules.Profile(name)
	if !ok {
		return rules.Settings{}, false
	}
	return p.Settings, true
}

// SetActiveProfile switches profiles. A running session ends, since its stats belong to the
// previous profile, and the alarm baseline resets.
func (e *Engine) SetActiveProfile(name string) error {
	e.mu.Lock()
	if err := e.rules.SetActive(name); err != nil {
		e.mu.Unlock()
		return err
	}
	rec, ended := e.endSessionLocked(ReasonProfileSwitch)
	e.lastMatched = 0
	e.mu.Unlock()

	e.alarms.Cancel()
	e.log.Info().Str("profile", name).Msg("active profile changed")
	if ended {
		e.emit(rec)
	}
	return nil
}

// UseServer activates the profile serving address, falling back to the default profile.
func (e *Engine) UseServer(address string) (string, error) {
	e.mu.Lock()
	name := e.rules.ResolveDomain(address, e.defaultProfile)
	e.mu.Unlock()
	if err := e.SetActiveProfile(name); err != nil {
		return "", err
	}
	return name, nil
}

// AddRule upserts a rule into the active profile. The price is parsed first; on failure
// nothing is changed.
func (e *Engine) AddRule(raw, rawPrice string) (rules.Rule, bool, error) {
	maxPrice, err := price.Parse(rawPrice)
	if err != nil {
		return rules.Rule{}, false, err
	}
	key := itemkey.Encode(raw)
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.rules.Active()
	if p == nil {
		return rules.Rule{}, false, ErrNoProfile
	}
	replaced, err := p.Upsert(key, maxPrice)
	if err != nil {
		return rules.Rule{}, false, err
	}
	e.log.Debug().Str("profile", p.Name).Str("key", key.String()).Float64("max", maxPrice).Msg("rule saved")
	return rules.Rule{Key: key, MaxPrice: maxPrice}, replaced, nil
}

// RemoveRule deletes a rule from the active profile.
func (e *Engine) RemoveRule(raw string) (bool, error) {
	key := itemkey.Encode(raw)
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.rules.Active()
	if p == nil {
		return false, ErrNoProfile
	}
	return p.Remove(key), nil
}

// Rules lists the active profile's rules in match order.
func (e *Engine) Rules() []rules.Rule {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.rules.Active()
	if p == nil {
		return nil
	}
	return p.Rules()
}

// AllProfiles returns the profiles owned by the engine, for persistence.
func (e *Engine) AllProfiles() []*rules.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*rules.Profile
	for _, name := range e.rules.Names() {
		p, _ := e.rules.Profile(name)
		out = append(out, p)
	}
	return out
}

// AddSearchTerm starts tracking a descriptor. It reports false if already tracked.
func (e *Engine) AddSearchTerm(raw string) (itemkey.Key, bool, error) {
	key := itemkey.Encode(raw)
	if key.IsZero() {
		return key, false, rules.ErrEmptyKey
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.stats[key]; ok {
		return key, false, nil
	}
	e.terms = append(e.terms, key)
	e.stats[key] = &stats.Running{}
	return key, true, nil
}

// RemoveSearchTerm stops tracking a descriptor and drops its statistics.
func (e *Engine) RemoveSearchTerm(raw string) bool {
	key := itemkey.Encode(raw)
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.stats[key]; !ok {
		return false
	}
	delete(e.stats, key)
	for i, t := range e.terms {
		if t == key {
			e.terms = append(e.terms[:i], e.terms[i+1:]...)
			break
		}
	}
	return true
}

// SearchTerms lists tracked descriptors in insertion order.
func (e *Engine) SearchTerms() []itemkey.Key {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]itemkey.Key(nil), e.terms...)
}

// Stats returns the statistics of one term. Unknown terms report an empty summary.
func (e *Engine) Stats(raw string) model.Summary {
	key := itemkey.Encode(raw)
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.stats[key]
	if !ok {
		return model.Summary{}
	}
	return r.Summary()
}

// AllStats returns every term's statistics in term order.
func (e *Engine) AllStats() []model.TermSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.termSummariesLocked()
}

// StartSession clears the statistics of all terms and the dedup set and arms the deadline.
// A running session ends first.
func (e *Engine) StartSession() string {
	e.mu.Lock()
	rec, ended := e.endSessionLocked(ReasonRestarted)
	for _, r := range e.stats {
		r.Reset()
	}
	e.sessionID = uuid.NewString()
	e.session.Start(e.sessionDuration, e.expireSession)
	id := e.sessionID
	profile := e.rules.ActiveName()
	e.mu.Unlock()

	if ended {
		e.emit(rec)
	}
	e.log.Info().Str("session", id).Str("profile", profile).Dur("duration", e.sessionDuration).Msg("session started")
	return id
}

// StopSession ends the running session. It reports false when none was running.
func (e *Engine) StopSession() bool {
	e.mu.Lock()
	rec, ended := e.endSessionLocked(ReasonStopped)
	e.mu.Unlock()
	if ended {
		e.emit(rec)
	}
	return ended
}

// SessionActive reports whether statistics are being collected.
func (e *Engine) SessionActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Active()
}

// SessionRemaining returns the time left in the running session.
func (e *Engine) SessionRemaining() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Remaining()
}

// SetScanning enables or disables pass processing.
func (e *Engine) SetScanning(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scanning = enabled
}

// Scanning reports whether passes are processed.
func (e *Engine) Scanning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scanning
}

// SetSoundsEnabled toggles alarm decisions. Disabling cancels a pending burst.
func (e *Engine) SetSoundsEnabled(enabled bool) {
	e.mu.Lock()
	e.soundsEnabled = enabled
	e.mu.Unlock()
	if !enabled {
		e.alarms.Cancel()
	}
}

// SoundsEnabled reports whether alarms are decided.
func (e *Engine) SoundsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.soundsEnabled
}

// PendingAlarms returns the number of alarm requests not yet played.
func (e *Engine) PendingAlarms() int {
	return e.alarms.Pending()
}

// Close ends any session and cancels pending alarms.
func (e *Engine) Close() {
	e.mu.Lock()
	rec, ended := e.endSessionLocked(ReasonClosed)
	e.mu.Unlock()
	e.alarms.Cancel()
	if ended {
		e.emit(rec)
	}
}

func (e *Engine) expireSession(gen uint64) {
	e.mu.Lock()
	if !e.session.Expire(gen) {
		e.mu.Unlock()
		return
	}
	rec := e.recordLocked(ReasonDeadline)
	e.mu.Unlock()
	e.log.Info().Str("session", rec.ID).Msg("session deadline reached")
	e.emit(rec)
}

func (e *Engine) endSessionLocked(reason string) (model.SessionRecord, bool) {
	if !e.session.Stop() {
		return model.SessionRecord{}, false
	}
	return e.recordLocked(reason), true
}

func (e *Engine) recordLocked(reason string) model.SessionRecord {
	return model.SessionRecord{
		ID:        e.sessionID,
		Profile:   e.rules.ActiveName(),
		StartedAt: e.session.StartedAt(),
		EndedAt:   e.sched.Now(),
		Reason:    reason,
		Terms:     e.termSummariesLocked(),
	}
}

func (e *Engine) termSummariesLocked() []model.TermSummary {
	out := make([]model.TermSummary, 0, len(e.terms))
	for _, t := range e.terms {
		out = append(out, model.TermSummary{Term: t.Display(), Summary: e.stats[t].Summary()})
	}
	return out
}

func (e *Engine) emit(rec model.SessionRecord) {
	e.log.Info().Str("session", rec.ID).Str("reason", rec.Reason).Int("terms", len(rec.Terms)).Msg("session ended")
	if e.onSessionEnd != nil {
		e.onSessionEnd(rec)
	}
}
