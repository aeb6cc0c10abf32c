// Package rules keeps per-profile ordered price rules and matches observed items against them.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/tradescan/internal/itemkey"
	"github.com/verte-zerg/tradescan/internal/model"
)

var (
	// ErrUnknownProfile is returned for operations naming a profile that was never added.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrEmptyKey is returned when a rule key has no fields.
	ErrEmptyKey = errors.New("empty item key")
)

// Rule pairs an item key with the maximum acceptable unit price.
type Rule struct {
	Key      itemkey.Key
	MaxPrice float64
}

// Settings holds the display and alert configuration of a profile.
type Settings struct {
	Domains     []string
	LorePattern string
	Color       string
	StackColor  string
	Sound       string
	BulkSound   string
}

// Profile is a named ordered rule list.
type Profile struct {
	Name     string
	Settings Settings
	rules    []Rule
}

// NewProfile returns an empty profile.
func NewProfile(name string, settings Settings) *Profile {
	return &Profile{Name: name, Settings: settings}
}

// Upsert replaces the rule with the same key in place or appends a new one.
// It reports whether an existing rule was replaced.
func (p *Profile) Upsert(key itemkey.Key, maxPrice float64) (bool, error) {
	if key.IsZero() {
		return false, ErrEmptyKey
	}
	for i := range p.rules {
		if p.rules[i].Key == key {
			p.rules[i].MaxPrice = maxPrice
			return true, nil
		}
	}
	p.rules = append(p.rules, Rule{Key: key, MaxPrice: maxPrice})
	return false, nil
}

// Remove deletes the rule with exactly this key and reports whether one existed.
func (p *Profile) Remove(key itemkey.Key) bool {
	for i := range p.rules {
		if p.rules[i].Key == key {
			p.rules = append(p.rules[:i], p.rules[i+1:]...)
			return true
		}
	}
	return false
}

// Rules returns a copy of the rules in insertion order.
func (p *Profile) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Len returns the number of rules.
func (p *Profile) Len() int {
	return len(p.rules)
}

// FindMatch returns the first rule, in insertion order, whose non-empty fields all match.
// Later rules are never consulted once one matches, even if they are more specific.
func (p *Profile) FindMatch(item model.Item) (Rule, bool) {
	for _, r := range p.rules {
		if r.Key.Matches(item) {
			return r, true
		}
	}
	return Rule{}, false
}

// ServesAddress reports whether a host address belongs to one of the profile's domains.
func (p *Profile) ServesAddress(address string) bool {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return false
	}
	for _, d := range p.Settings.Domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if address == d || strings.HasSuffix(address, "."+d) {
			return true
		}
	}
	return false
}

// Store owns all profiles and tracks which one is active.
type Store struct {
	profiles map[string]*Profile
	order    []string
	active   string
}

// NewStore returns an empty store with no active profile.
func NewStore() *Store {
	return &Store{profiles: map[string]*Profile{}}
}

// Add registers a profile, replacing any profile with the same name.
func (s *Store) Add(p *Profile) {
	if _, ok := s.profiles[p.Name]; !ok {
		s.order = append(s.order, p.Name)
	}
	s.profiles[p.Name] = p
}

// Profile looks up a profile by name.
func (s *Store) Profile(name string) (*Profile, bool) {
	p, ok := s.profiles[name]
	return p, ok
}

// Names lists profile names in registration order.
func (s *Store) Names() []string {
	return append([]string(nil), s.order...)
}

// SetActive switches the active profile.
func (s *Store) SetActive(name string) error {
	if _, ok := s.profiles[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	s.active = name
	return nil
}

// ActiveName returns the active profile name, or "" when none is set.
func (s *Store) ActiveName() string {
	return s.active
}

// Active returns the active profile, or nil when none is set.
func (s *Store) Active() *Profile {
	return s.profiles[s.active]
}

// Upsert adds or replaces a rule in the named profile.
func (s *Store) Upsert(profile string, key itemkey.Key, maxPrice float64) (bool, error) {
	p, ok := s.profiles[profile]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownProfile, profile)
	}
	return p.Upsert(key, maxPrice)
}

// Remove deletes a rule from the named profile.
func (s *Store) Remove(profile string, key itemkey.Key) (bool, error) {
	p, ok := s.profiles[profile]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownProfile, profile)
	}
	return p.Remove(key), nil
}

// List returns the rules of the named profile. Unknown profiles have no rules.
func (s *Store) List(profile string) []Rule {
	p, ok := s.profiles[profile]
	if !ok {
		return nil
	}
	return p.Rules()
}

// FindMatch matches against the named profile. Unknown profiles never match.
func (s *Store) FindMatch(profile string, item model.Item) (Rule, bool) {
	p, ok := s.profiles[profile]
	if !ok {
		return Rule{}, false
	}
	return p.FindMatch(item)
}

// ResolveDomain returns the first profile, in registration order, serving the address,
// or fallback when none does.
func (s *Store) ResolveDomain(address, fallback string) string {
	for _, name := range s.order {
		if s.profiles[name].ServesAddress(address) {
			return name
		}
	}
	return fallback
}
