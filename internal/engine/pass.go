package engine

import (
	"github.com/verte-zerg/tradescan/internal/alarm"
	"github.com/verte-zerg/tradescan/internal/extract"
	"github.com/verte-zerg/tradescan/internal/highlight"
	"github.com/verte-zerg/tradescan/internal/model"
	"github.com/verte-zerg/tradescan/internal/price"
	"github.com/verte-zerg/tradescan/internal/rules"
	"github.com/verte-zerg/tradescan/internal/session"
)

// profileRuntime caches what a profile's settings compile into.
type profileRuntime struct {
	settings  rules.Settings
	extractor extract.PriceLineExtractor
	palette   highlight.Palette
	sounds    alarm.Sounds
}

var fallbackPalette = highlight.Palette{Single: 0xFF80FF00, Stack: 0xFFFF8000}

// ProcessPass evaluates every item seen in one scan pass. Items without a parsable,
// non-negative price are skipped. While a session runs, each newly seen item updates
// the statistics of every search term it matches.
func (e *Engine) ProcessPass(events []model.ScanEvent) PassResult {
	e.mu.Lock()
	if !e.scanning {
		e.mu.Unlock()
		return PassResult{}
	}
	var res PassResult
	profile := e.rules.Active()
	rt := e.runtimeLocked(profile)
	for _, ev := range events {
		raw := ev.RawPrice
		if raw == "" {
			var ok bool
			if rt.extractor == nil {
				res.Skipped++
				continue
			}
			if raw, ok = rt.extractor.Extract(ev.Lore); !ok {
				res.Skipped++
				continue
			}
		}
		total, err := price.Parse(raw)
		if err != nil || total < 0 {
			e.log.Debug().Int("slot", ev.Slot).Str("raw", raw).Msg("price skipped")
			res.Skipped++
			continue
		}
		stack := ev.StackSize
		if stack < 1 {
			stack = 1
		}
		unit := total / float64(stack)
		item := ev.Item()

		if e.session.Active() {
			fp := session.Fingerprint{Slot: ev.Slot, Name: ev.DisplayName, Price: unit, StackSize: stack}
			if e.session.ShouldCount(fp) {
				for _, t := range e.terms {
					if t.Matches(item) {
						e.stats[t].Update(unit, stack)
						res.Counted++
					}
				}
			}
		}

		if profile == nil {
			continue
		}
		rule, ok := profile.FindMatch(item)
		if !ok {
			continue
		}
		intent, ok := e.calc.Compute(unit, rule.MaxPrice, stack > 1, rt.palette)
		if !ok {
			continue
		}
		res.Matched++
		res.Highlights = append(res.Highlights, Highlight{
			Slot:      ev.Slot,
			Rule:      rule.Key,
			UnitPrice: unit,
			MaxPrice:  rule.MaxPrice,
			Color:     intent.Color,
			Opacity:   intent.Opacity,
		})
	}
	if e.soundsEnabled {
		res.Alarm = alarm.Decide(res.Matched, e.lastMatched, rt.sounds)
	}
	e.lastMatched = res.Matched
	e.mu.Unlock()

	if len(res.Alarm) > 0 {
		e.log.Debug().Int("matched", res.Matched).Int("sounds", len(res.Alarm)).Msg("alarm")
		e.alarms.Dispatch(res.Alarm)
	}
	return res
}

func (e *Engine) runtimeLocked(p *rules.Profile) *profileRuntime {
	if p == nil {
		return &profileRuntime{extractor: e.extractor, palette: fallbackPalette}
	}
	if rt, ok := e.runtimes[p.Name]; ok && sameSettings(rt.settings, p.Settings) {
		return rt
	}
	rt := &profileRuntime{
		settings: p.Settings,
		palette:  fallbackPalette,
		sounds:   alarm.Sounds{Single: p.Settings.Sound, Bulk: p.Settings.BulkSound},
	}
	if c, err := highlight.ParseColor(p.Settings.Color); err == nil {
		rt.palette.Single = c
	} else if p.Settings.Color != "" {
		e.log.Warn().Err(err).Str("profile", p.Name).Msg("bad highlight color")
	}
	if c, err := highlight.ParseColor(p.Settings.StackColor); err == nil {
		rt.palette.Stack = c
	} else if p.Settings.StackColor != "" {
		e.log.Warn().Err(err).Str("profile", p.Name).Msg("bad stack highlight color")
	}
	switch {
	case e.extractor != nil:
		rt.extractor = e.extractor
	case p.Settings.LorePattern != "":
		x, err := extract.NewRegex(p.Settings.LorePattern)
		if err != nil {
			e.log.Error().Err(err).Str("profile", p.Name).Msg("lore pattern disabled")
		} else {
			rt.extractor = x
		}
	}
	e.runtimes[p.Name] = rt
	return rt
}

func sameSettings(a, b rules.Settings) bool {
	return a.LorePattern == b.LorePattern &&
		a.Color == b.Color &&
		a.StackColor == b.StackColor &&
		a.Sound == b.Sound &&
		a.BulkSound == b.BulkSound
}
