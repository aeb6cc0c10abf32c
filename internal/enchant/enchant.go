// Package enchant maps enchantment identifiers to the short aliases used in item keys.
package enchant

import (
	"strings"
)

// Unknown is returned for enchantments without an alias.
const Unknown = "unknown"

var aliases = buildAliases(map[string][]string{
	"prot":  {"protection"},
	"sharp": {"sharpness"},
	"infi":  {"infinity"},
	"flame": nil,
	"fire":  {"fire_aspect"},
	"knock": {"knockback"},
	"unbr":  {"unbreaking"},
	"sweep": {"sweeping", "sweeping_edge"},
	"bane":  {"bane_of_arthropods"},
	"mend":  {"mending"},
	"effi":  {"efficiency"},
	"fort":  {"fortune"},
	"silk":  {"silk_touch"},
	"thorn": {"thorns"},
})

func buildAliases(names map[string][]string) map[string]string {
	out := make(map[string]string)
	for alias, full := range names {
		out[alias] = alias
		for _, name := range full {
			out[name] = alias
		}
	}
	return out
}

// Normalize maps an id such as "minecraft:unbreaking 3" or "unbreaking3" to "unbr3".
// Unknown ids map to Unknown without a level.
func Normalize(id string) string {
	s := strings.ToLower(strings.Join(strings.Fields(id), ""))
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	end := len(s)
	for end > 0 && s[end-1] >= '0' && s[end-1] <= '9' {
		end--
	}
	base, level := s[:end], s[end:]
	alias, ok := aliases[base]
	if !ok {
		return Unknown
	}
	return alias + level
}

// Signature normalizes every id and joins them with commas, skipping unknown ones.
func Signature(ids []string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if n := Normalize(id); n != Unknown {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, ",")
}
