package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/tradescan/internal/itemkey"
	"github.com/verte-zerg/tradescan/internal/price"
	"github.com/verte-zerg/tradescan/internal/rules"
)

// Built-in defaults used when the config leaves a value unset.
const (
	DefaultProfileName    = "default"
	DefaultLorePattern    = `(?i).*Cena.*?\$?([\d.,]+(?:mld|[km])?).*`
	DefaultColor          = "#80FF00"
	DefaultColorStack     = "#FF8000"
	DefaultSound          = "minecraft:ui.button.click"
	DefaultSoundBulk      = "minecraft:entity.player.levelup"
	DefaultOpacityFloor   = 0.30
	DefaultSessionMinutes = 5.0
	DefaultLogLevel       = "info"
)

// Settings is the resolved configuration with defaults applied.
type Settings struct {
	DefaultProfile  string
	SoundsEnabled   bool
	OpacityFloor    float64
	SessionDuration time.Duration
	Search          []string
	LogLevel        string
	LogFile         string
	LogConsole      bool
	Profiles        []*rules.Profile
}

// Resolve applies defaults, validates values and builds profiles. Legacy pipe-joined rule
// keys are converted to 4-field keys here so the matching core never sees them.
func Resolve(fc FileConfig) (Settings, error) {
	s := Settings{
		DefaultProfile:  DefaultProfileName,
		SoundsEnabled:   true,
		OpacityFloor:    DefaultOpacityFloor,
		SessionDuration: minutes(DefaultSessionMinutes),
		Search:          append([]string(nil), fc.Search...),
		LogLevel:        DefaultLogLevel,
		LogConsole:      true,
	}
	if fc.DefaultProfile != nil {
		s.DefaultProfile = strings.TrimSpace(*fc.DefaultProfile)
	}
	if fc.SoundsEnabled != nil {
		s.SoundsEnabled = *fc.SoundsEnabled
	}
	if fc.OpacityFloor != nil {
		s.OpacityFloor = *fc.OpacityFloor
	}
	if fc.SessionMinutes != nil {
		s.SessionDuration = minutes(*fc.SessionMinutes)
	}
	if fc.Log.Level != nil {
		s.LogLevel = *fc.Log.Level
	}
	if fc.Log.File != nil {
		s.LogFile = *fc.Log.File
	}
	if fc.Log.Console != nil {
		s.LogConsole = *fc.Log.Console
	}
	if err := validate(s); err != nil {
		return Settings{}, err
	}

	seen := map[string]bool{}
	for i, pc := range fc.Profiles {
		name := strings.TrimSpace(pc.Name)
		if name == "" {
			return Settings{}, fmt.Errorf("profile #%d has no name", i+1)
		}
		if seen[name] {
			return Settings{}, fmt.Errorf("duplicate profile %q", name)
		}
		seen[name] = true
		p, err := buildProfile(name, pc)
		if err != nil {
			return Settings{}, err
		}
		s.Profiles = append(s.Profiles, p)
	}
	if !seen[s.DefaultProfile] {
		s.Profiles = append(s.Profiles, rules.NewProfile(s.DefaultProfile, DefaultProfileSettings()))
	}
	return s, nil
}

// DefaultProfileSettings returns the settings of a profile with nothing configured.
func DefaultProfileSettings() rules.Settings {
	return rules.Settings{
		LorePattern: DefaultLorePattern,
		Color:       DefaultColor,
		StackColor:  DefaultColorStack,
		Sound:       DefaultSound,
		BulkSound:   DefaultSoundBulk,
	}
}

func buildProfile(name string, pc ProfileConfig) (*rules.Profile, error) {
	settings := DefaultProfileSettings()
	settings.Domains = append([]string(nil), pc.Domains...)
	override(&settings.LorePattern, pc.LoreRegex)
	override(&settings.Color, pc.Color)
	override(&settings.StackColor, pc.ColorStack)
	override(&settings.Sound, pc.Sound)
	override(&settings.BulkSound, pc.SoundBulk)

	p := rules.NewProfile(name, settings)
	for i, rc := range pc.Rules {
		key, err := ruleKey(rc)
		if err != nil {
			return nil, fmt.Errorf("profile %q rule #%d: %w", name, i+1, err)
		}
		maxPrice, err := price.Parse(rc.MaxPrice)
		if err != nil {
			return nil, fmt.Errorf("profile %q rule #%d: %w", name, i+1, err)
		}
		if _, err := p.Upsert(key, maxPrice); err != nil {
			return nil, fmt.Errorf("profile %q rule #%d: %w", name, i+1, err)
		}
	}
	return p, nil
}

func ruleKey(rc RuleConfig) (itemkey.Key, error) {
	if strings.TrimSpace(rc.Item) != "" {
		return itemkey.Encode(rc.Item), nil
	}
	if rc.Key != "" {
		key, err := itemkey.ParseKey(strings.ToLower(rc.Key))
		if err != nil {
			return itemkey.Key{}, err
		}
		// Re-encode so legacy keys get the same normalization as typed descriptors.
		return itemkey.Encode(key.Display()), nil
	}
	return itemkey.Key{}, errors.New("rule needs item or key")
}

// ApplyProfiles writes the in-memory rule lists back into fc, replacing each matching
// profile's rules. Legacy keys are rewritten as descriptors and prices are stored exactly.
func ApplyProfiles(fc *FileConfig, profiles []*rules.Profile) {
	index := map[string]int{}
	for i, pc := range fc.Profiles {
		index[pc.Name] = i
	}
	for _, p := range profiles {
		i, ok := index[p.Name]
		if !ok {
			fc.Profiles = append(fc.Profiles, ProfileConfig{Name: p.Name, Domains: p.Settings.Domains})
			i = len(fc.Profiles) - 1
			index[p.Name] = i
		}
		var rcs []RuleConfig
		for _, r := range p.Rules() {
			rcs = append(rcs, RuleConfig{Item: r.Key.Display(), MaxPrice: strconv.FormatFloat(r.MaxPrice, 'f', -1, 64)})
		}
		fc.Profiles[i].Rules = rcs
	}
}

func override(target *string, value string) {
	if strings.TrimSpace(value) != "" {
		*target = value
	}
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

func validate(s Settings) error {
	if s.DefaultProfile == "" {
		return fmt.Errorf("default-profile must not be empty")
	}
	if s.OpacityFloor < 0 || s.OpacityFloor > 1 {
		return fmt.Errorf("opacity-floor must be between 0 and 1")
	}
	if s.SessionDuration <= 0 {
		return fmt.Errorf("session-minutes must be > 0")
	}
	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error")
	}
	return nil
}
